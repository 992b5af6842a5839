package backtest

import (
	"bufio"
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/proc"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

// Stdout protocol prefixes emitted by the engine.
const (
	prefixReportPath   = "REPORT_PATH:"
	prefixManifestPath = "MANIFEST_PATH:"
	prefixMetrics      = "METRICS:"
	prefixConfig       = "CONFIG:"
	prefixDateRange    = "DATE_RANGE:"
)

const generatedBy = "reportpub"

// Output is the parsed stdout of one engine invocation.
type Output struct {
	ReportPath   string
	ManifestPath string
	Metrics      map[string]float64
	Config       string
	DateRange    string
}

// ParseOutput extracts protocol lines from engine stdout. Unknown lines are ignored.
func ParseOutput(stdout string) (Output, error) {
	var out Output
	sc := bufio.NewScanner(strings.NewReader(stdout))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, prefixReportPath):
			out.ReportPath = strings.TrimSpace(strings.TrimPrefix(line, prefixReportPath))
		case strings.HasPrefix(line, prefixManifestPath):
			out.ManifestPath = strings.TrimSpace(strings.TrimPrefix(line, prefixManifestPath))
		case strings.HasPrefix(line, prefixConfig):
			out.Config = strings.TrimSpace(strings.TrimPrefix(line, prefixConfig))
		case strings.HasPrefix(line, prefixDateRange):
			out.DateRange = strings.TrimSpace(strings.TrimPrefix(line, prefixDateRange))
		case strings.HasPrefix(line, prefixMetrics):
			metrics, err := parseMetrics(strings.TrimPrefix(line, prefixMetrics))
			if err != nil {
				return Output{}, err
			}
			out.Metrics = metrics
		}
	}
	if err := sc.Err(); err != nil {
		return Output{}, errors.BacktestError("failed to read engine output").WithCause(err).Build()
	}
	return out, nil
}

// parseMetrics parses "k=v, k=v" with numeric values.
func parseMetrics(s string) (map[string]float64, error) {
	metrics := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.BacktestError("malformed METRICS entry").WithContext("entry", pair).Build()
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, errors.BacktestError("non-numeric METRICS value").
				WithCause(err).
				WithContext("metric", key).
				Build()
		}
		metrics[key] = f
	}
	return metrics, nil
}

// ExecRunner invokes the configured engine command as a subprocess with
// --strategy <id> --mode <mode> appended.
type ExecRunner struct {
	command    []string
	workdir    string
	timeout    time.Duration
	reportPath string
}

// NewExecRunner creates a runner from the backtest configuration section.
func NewExecRunner(cfg config.BacktestConfig) *ExecRunner {
	return &ExecRunner{
		command:    append([]string(nil), cfg.Command...),
		workdir:    cfg.Workdir,
		timeout:    cfg.Timeout.Std(),
		reportPath: cfg.ReportPath,
	}
}

// Run executes the engine and loads and validates its report and manifest.
func (r *ExecRunner) Run(ctx context.Context, res strategy.Resolved) (ReportContent, error) {
	argv := append(append([]string(nil), r.command...), "--strategy", res.ID, "--mode", string(res.Mode))
	result, err := proc.Run(ctx, argv, r.workdir, r.timeout)
	if err != nil {
		msg := "backtest engine failed"
		if stderrors.Is(err, proc.ErrTimeout) {
			msg = "backtest engine timed out"
		}
		return ReportContent{}, errors.BacktestError(msg).
			WithCause(err).
			WithContext("strategy", res.ID).
			WithContext("exit_code", result.ExitCode).
			WithContext("output", proc.Tail(result.Output(), 20)).
			Build()
	}
	slog.Debug("Backtest engine finished", logfields.Strategy(res.ID), logfields.DurationMS(float64(result.Duration.Milliseconds())))

	out, err := ParseOutput(result.Stdout)
	if err != nil {
		return ReportContent{}, err
	}

	reportPath := out.ReportPath
	if reportPath == "" {
		reportPath = r.expandReportPath(res)
	}
	if reportPath == "" {
		return ReportContent{}, errors.BacktestError("engine did not report a REPORT_PATH").
			WithContext("strategy", res.ID).
			Build()
	}
	reportPath = r.resolve(reportPath)
	// #nosec G304 - path reported by the configured engine
	report, err := os.ReadFile(reportPath)
	if err != nil {
		return ReportContent{}, errors.BacktestError("failed to read report").
			WithCause(err).
			WithContext("path", reportPath).
			Build()
	}
	if err := ValidateReport(report); err != nil {
		return ReportContent{}, err
	}

	manifest, err := r.manifest(res, out)
	if err != nil {
		return ReportContent{}, err
	}
	return ReportContent{Report: report, Manifest: manifest}, nil
}

func (r *ExecRunner) manifest(res strategy.Resolved, out Output) (Manifest, error) {
	if out.ManifestPath != "" {
		path := r.resolve(out.ManifestPath)
		// #nosec G304 - path reported by the configured engine
		raw, err := os.ReadFile(path)
		if err != nil {
			return Manifest{}, errors.BacktestError("failed to read manifest").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return DecodeManifest(raw)
	}
	if out.Metrics == nil {
		return Manifest{}, errors.BacktestError("engine did not report METRICS").
			WithContext("strategy", res.ID).
			Build()
	}
	m := Manifest{
		Strategy:    res.ID,
		Mode:        string(res.Mode),
		GeneratedBy: generatedBy,
		Parameters:  map[string]string{"slug": res.Slug},
		Metrics:     out.Metrics,
		DateRange:   out.DateRange,
		Config:      out.Config,
	}
	if err := ValidateManifest(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (r *ExecRunner) expandReportPath(res strategy.Resolved) string {
	if r.reportPath == "" {
		return ""
	}
	return strings.NewReplacer(
		"{strategy}", res.ID,
		"{slug}", res.Slug,
		"{mode}", string(res.Mode),
	).Replace(r.reportPath)
}

func (r *ExecRunner) resolve(path string) string {
	if filepath.IsAbs(path) || r.workdir == "" {
		return path
	}
	return filepath.Join(r.workdir, path)
}
