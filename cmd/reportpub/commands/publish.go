package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/reportpub/internal/artifact"
	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/metrics"
	"git.home.luguber.info/inful/reportpub/internal/pipeline"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Strategy  string `short:"s" required:"" help:"Strategy identifier"`
	Mode      string `short:"m" required:"" help:"Run mode (capital or research)"`
	Timestamp string `help:"Artifact timestamp YYYY-MM-DD_HH-MM in UTC (default: now)"`
	Message   string `help:"Commit message (default: git.commit_message)"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	req, err := newRequest(p.Strategy, p.Mode, p.Timestamp, p.Message)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunPublish(ctx, g.out(), cfg, req)
}

func newRequest(strategyID, mode, timestamp, message string) (pipeline.Request, error) {
	req := pipeline.Request{StrategyID: strategyID, Mode: mode, Message: message}
	if timestamp != "" {
		ts, err := artifact.ParseTimestamp(timestamp)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Timestamp = ts
	}
	return req, nil
}

// RunPublish executes one publish run and prints its report.
func RunPublish(ctx context.Context, out io.Writer, cfg *config.Config, req pipeline.Request) error {
	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	p, closer, err := pipeline.NewFromConfig(cfg, recorder)
	if err != nil {
		return err
	}
	defer closer()

	run, runErr := p.Execute(ctx, req)
	printRun(out, cfg, run)

	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
	if runErr != nil {
		return stepFailure(run, runErr)
	}
	return nil
}

func printRun(w io.Writer, cfg *config.Config, run *pipeline.Run) {
	if run == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "run_id: %s\n", run.ID)
	if run.Artifact.Filename != "" {
		_, _ = fmt.Fprintf(w, "artifact: %s\n", run.Artifact.Filename)
	}
	for _, a := range run.Archived {
		_, _ = fmt.Fprintf(w, "archived: %s\n", a)
	}
	if _, ran := run.Result(pipeline.StepVerifying); ran {
		printParity(w, run.Git)
	}
	_, _ = fmt.Fprintf(w, "outcome: %s\n", run.Outcome())
	if run.Succeeded() && cfg.SiteURL != "" {
		_, _ = fmt.Fprintf(w, "site_url: %s\n", cfg.SiteURL)
	}
}
