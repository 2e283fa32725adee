package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/app"
	internalconfig "github.com/bct-dk/siteanalyzer/internal/config"
	"github.com/bct-dk/siteanalyzer/internal/logging"
	"github.com/bct-dk/siteanalyzer/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. It is a variable so tests can replace it
// with a factory that returns a fully in-memory app.
var newApp = func(ctx context.Context, cfg internalconfig.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siteanalyzer",
		Short: "Website analysis pipeline for SEO, performance, and company data.",
		Long: `siteanalyzer accepts website URLs and runs them through a staged analysis
pipeline: homepage inspection, sitemap discovery and sampling, per-page SEO
extraction, performance scoring, and Danish business-registry lookup. Results
are persisted per stage so partial failures leave the rest of the analysis
intact.`,

		// Runs after config is loaded but before the subcommand's RunE; this
		// is where the application container is built and injected.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internalconfig.Load(viper.GetViper())
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			logging.L = logger

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Ensures services shut down gracefully after the subcommand returns.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app.App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		config.InitConfig()
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/siteanalyzer, $HOME/.siteanalyzer)")

	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
