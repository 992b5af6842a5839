package commands

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/schedule"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Now bool `help:"Fire every entry once at start"`
}

func (s *ScheduleCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunSchedule(ctx, g.out(), cfg, s.Now)
}

// RunSchedule runs the configured entries until ctx is done.
func RunSchedule(ctx context.Context, out io.Writer, cfg *config.Config, now bool) error {
	if len(cfg.Schedule) == 0 {
		return errors.ConfigError("no schedule entries configured").WithContext("setting", "schedule").Build()
	}
	reg := NewRegistry(cfg, out)
	s, err := schedule.NewScheduler(reg)
	if err != nil {
		return errors.InternalError("failed to create scheduler").WithCause(err).Build()
	}
	if now {
		s.RunImmediately()
	}
	for _, e := range cfg.Schedule {
		if !reg.Has(e.Command) {
			_ = s.Stop()
			return errors.ConfigError("schedule entry names an unknown command").
				WithContext("schedule", e.Name).
				WithContext("command", e.Command).
				Build()
		}
		if _, err := s.Add(e); err != nil {
			_ = s.Stop()
			return errors.ConfigError("invalid schedule entry").WithCause(err).WithContext("schedule", e.Name).Build()
		}
	}

	s.Start(ctx)
	slog.Info("Scheduler started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping scheduler...")
	if err := s.Stop(); err != nil {
		return errors.InternalError("failed to stop scheduler").WithCause(err).Build()
	}
	return nil
}
