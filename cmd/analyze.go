// Package cmd defines and implements the CLI commands for the siteanalyzer executable.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// newAnalyzeCmd creates the 'analyze' subcommand, which runs the full
// pipeline for a single URL and waits for it to finish.
func newAnalyzeCmd() *cobra.Command {
	var (
		wait  time.Duration
		force bool
		goal  string
		tags  []string
	)

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze a single website and wait for the result",
		Long: `Queues the given URL for analysis, runs the pipeline workers in-process,
and waits until the analysis reaches a terminal state. The final website
record is printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyzeCommand(cmd, args[0], analyzeOptions{
				wait:  wait,
				force: force,
				goal:  goal,
				tags:  tags,
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 10*time.Minute, "how long to wait for the analysis to finish")
	cmd.Flags().BoolVar(&force, "force", false, "re-analyze even if the website was analyzed before")
	cmd.Flags().StringVar(&goal, "goal", "", "free-text analysis goal stored on the website record")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag stored on the website record (repeatable)")
	return cmd
}

type analyzeOptions struct {
	wait  time.Duration
	force bool
	goal  string
	tags  []string
}

func runAnalyzeCommand(cmd *cobra.Command, rawURL string, opts analyzeOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	normalized, err := analyzer.NormalizeURL(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	ctx := cmd.Context()
	store := appInstance.Store()

	website, created, err := store.FindOrCreateWebsite(ctx, normalized, opts.goal, opts.tags)
	if err != nil {
		return fmt.Errorf("create website record: %w", err)
	}
	if !created && !opts.force && website.Status != analyzer.StatusPending {
		logger.Info("Website already known; printing current record (use --force to re-analyze)",
			zap.String("slug", website.Slug), zap.String("status", string(website.Status)))
		return printWebsite(website)
	}

	if err := store.SetStatus(ctx, website.ID, analyzer.StatusQueued); err != nil {
		return fmt.Errorf("queue website: %w", err)
	}
	if err := appInstance.Scheduler().Schedule(ctx, analyzer.Task{
		WebsiteID: website.ID,
		Stage:     analyzer.StageWebsite,
	}, 0); err != nil {
		return fmt.Errorf("schedule analysis: %w", err)
	}
	logger.Info("Analysis queued", zap.String("url", normalized), zap.String("slug", website.Slug))

	// Run the worker pool in-process until the analysis settles.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		appInstance.Dispatcher().Run(runCtx)
	}()

	final, err := waitForResult(ctx, appInstance.Store(), website.ID, opts.wait)
	cancel()
	<-workersDone
	if err != nil {
		return err
	}

	logger.Info("Analysis finished",
		zap.String("slug", final.Slug), zap.String("status", string(final.Status)))
	return printWebsite(final)
}

// waitForResult polls the store until the website reaches a terminal state or
// the wait budget is exhausted.
func waitForResult(ctx context.Context, store analyzer.Store, id int64, wait time.Duration) (analyzer.Website, error) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return analyzer.Website{}, ctx.Err()
		case <-deadline.C:
			return analyzer.Website{}, errors.New("timed out waiting for analysis to finish")
		case <-ticker.C:
			website, err := store.GetWebsite(ctx, id)
			if err != nil {
				return analyzer.Website{}, fmt.Errorf("poll website: %w", err)
			}
			if website.IsProcessed || website.Status == analyzer.StatusFailed {
				return website, nil
			}
		}
	}
}

func printWebsite(website analyzer.Website) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(website)
}
