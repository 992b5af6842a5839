// Package schedule runs configured command tokens on recurring triggers.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
)

// Dispatcher runs a command token. *commandreg.Registry satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, token string, args []string) error
}

// Scheduler wraps a gocron scheduler. Jobs never overlap: at most one
// scheduled command runs at a time.
type Scheduler struct {
	scheduler  gocron.Scheduler
	dispatcher Dispatcher
	ctx        context.Context
	startNow   bool
}

// NewScheduler creates a scheduler dispatching through d.
func NewScheduler(d Dispatcher) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLimitConcurrentJobs(1, gocron.LimitModeWait))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, dispatcher: d, ctx: context.Background()}, nil
}

// RunImmediately makes subsequently added jobs fire once at start.
func (s *Scheduler) RunImmediately() *Scheduler {
	s.startNow = true
	return s
}

// Add registers entry and returns the gocron job ID.
func (s *Scheduler) Add(entry config.ScheduleEntry) (string, error) {
	var def gocron.JobDefinition
	switch {
	case entry.Cron != "":
		def = gocron.CronJob(entry.Cron, false)
	case entry.Every > 0:
		def = gocron.DurationJob(entry.Every.Std())
	default:
		return "", fmt.Errorf("schedule %q has neither every nor cron", entry.Name)
	}

	opts := []gocron.JobOption{
		gocron.WithName(entry.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if s.startNow {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(def, gocron.NewTask(s.execute, entry), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create job %q: %w", entry.Name, err)
	}
	return job.ID().String(), nil
}

// Start begins firing jobs; ctx is handed to every dispatched command.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	slog.Info("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop waits for a running job and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// Args converts an entry into the positional arguments of its command.
func Args(entry config.ScheduleEntry) []string {
	var args []string
	if entry.Strategy != "" {
		args = append(args, entry.Strategy)
	}
	if entry.Mode != "" {
		args = append(args, entry.Mode)
	}
	return args
}

func (s *Scheduler) execute(entry config.ScheduleEntry) {
	start := time.Now()
	log := slog.With(slog.String("schedule", entry.Name), slog.String("command", entry.Command))
	log.Info("Executing scheduled command")
	if err := s.dispatcher.Dispatch(s.ctx, entry.Command, Args(entry)); err != nil {
		log.Error("Scheduled command failed", logfields.Error(err))
		return
	}
	log.Info("Scheduled command finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
