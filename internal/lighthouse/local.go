package lighthouse

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// LocalConfig holds the on-host CLI runner settings.
type LocalConfig struct {
	Binary  string
	Timeout time.Duration
}

// Local scores pages by shelling out to the lighthouse CLI. It is the
// fallback source when the hosted API is not configured.
type Local struct {
	cfg    LocalConfig
	clock  analyzer.Clock
	logger *zap.Logger
}

// NewLocal builds a CLI-backed source.
func NewLocal(cfg LocalConfig, clock analyzer.Clock, logger *zap.Logger) *Local {
	if cfg.Binary == "" {
		cfg.Binary = "lighthouse"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Local{cfg: cfg, clock: clock, logger: logger}
}

// Name identifies this source in logs and result records.
func (l *Local) Name() string { return "lighthouse_cli" }

// Available reports whether the CLI binary is on PATH and responds to a
// version probe.
func (l *Local) Available() bool {
	path, err := exec.LookPath(l.cfg.Binary)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, path, "--version").Run() == nil
}

// Analyze runs the CLI against a single page, writing JSON output to a temp
// file and parsing the same lighthouseResult shape the hosted API returns.
func (l *Local) Analyze(ctx context.Context, pageURL string) analyzer.Outcome[analyzer.LighthouseResult] {
	if !l.Available() {
		return analyzer.Skipped[analyzer.LighthouseResult]("lighthouse CLI not available")
	}

	dir, err := os.MkdirTemp("", "lighthouse-")
	if err != nil {
		return analyzer.Failed[analyzer.LighthouseResult](err)
	}
	defer os.RemoveAll(dir)
	outPath := filepath.Join(dir, "report.json")

	runCtx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, l.cfg.Binary, pageURL,
		"--output=json",
		"--output-path="+outPath,
		"--only-categories=performance,accessibility,best-practices,seo",
		"--chrome-flags=--headless --no-sandbox",
		"--quiet")
	if out, err := cmd.CombinedOutput(); err != nil {
		return analyzer.Failed[analyzer.LighthouseResult](fmt.Errorf("lighthouse run: %w: %s", err, truncate(out, 512)))
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return analyzer.Failed[analyzer.LighthouseResult](fmt.Errorf("lighthouse report: %w", err))
	}
	var report lighthouseReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return analyzer.Failed[analyzer.LighthouseResult](fmt.Errorf("lighthouse decode: %w", err))
	}

	result := report.toResult()
	result.Source = l.Name()
	result.AnalyzedAt = l.clock.Now()
	l.logger.Debug("lighthouse CLI analysis complete",
		zap.String("url", pageURL),
		zap.Int("performance", result.Performance))
	return analyzer.Ok(result)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
