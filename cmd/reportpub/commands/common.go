package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/git"
	"git.home.luguber.info/inful/reportpub/internal/pipeline"
)

// EnvLogLevel overrides the log level (debug, info, warn, error).
const EnvLogLevel = "REPORTPUB_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	// Out receives the operator-facing report lines.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"reportpub.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Publish  PublishCmd  `cmd:"" help:"Backtest a strategy and publish its report"`
	Reindex  ReindexCmd  `cmd:"" help:"Rebuild the report index without touching git"`
	Verify   VerifyCmd   `cmd:"" help:"Check that the local and remote branch tips match"`
	Resolve  ResolveCmd  `cmd:"" help:"Validate a strategy and mode without running anything"`
	History  HistoryCmd  `cmd:"" help:"List recorded publish runs"`
	Schedule ScheduleCmd `cmd:"" help:"Run the configured schedule until interrupted"`
	Run      RunCmd      `cmd:"" help:"Dispatch a registered command token"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours --verbose first, then REPORTPUB_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// printParity writes the HEAD parity report lines.
func printParity(w io.Writer, st git.State) {
	_, _ = fmt.Fprintf(w, "HEAD_LOCAL: %s\n", st.LocalTip)
	_, _ = fmt.Fprintf(w, "HEAD_REMOTE: %s\n", st.RemoteTip)
	_, _ = fmt.Fprintf(w, "HEAD_MATCH: %t\n", st.Match())
}

// stepFailure reclassifies a failed run by its step error kind so the exit
// code follows the kind even for unclassified causes.
func stepFailure(run *pipeline.Run, err error) error {
	se, ok := err.(*pipeline.StepError)
	if !ok {
		return err
	}
	b := errors.NewError(se.Kind, fmt.Sprintf("publish failed at %s", se.Step)).
		WithCause(se.Err).
		WithContext("step", string(se.Step))
	if run != nil {
		b = b.WithContext("run_id", run.ID)
	}
	return b.Build()
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}
