package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), g.out(), cfg, h.Limit)
}

// RunHistory prints the most recent runs, newest first.
func RunHistory(ctx context.Context, out io.Writer, cfg *config.Config, limit int) error {
	if cfg.History.Path == "" {
		return errors.ConfigError("history store is not configured").
			WithContext("setting", "history.path").
			Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return errors.FileSystemError("failed to open history store").
			WithCause(err).
			WithContext("path", cfg.History.Path).
			Build()
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(ctx, limit)
	if err != nil {
		return errors.InternalError("failed to list history").WithCause(err).Build()
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tRUN\tSTRATEGY\tMODE\tOUTCOME\tSTEP\tARTIFACT")
	for _, r := range records {
		outcome := r.Outcome
		if r.ErrorKind != "" {
			outcome += ":" + r.ErrorKind
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.UTC().Format(time.RFC3339), r.RunID, r.Strategy, r.Mode,
			outcome, dash(r.FailedStep), dash(r.Artifact))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
