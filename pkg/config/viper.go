// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup.
func InitConfig() {
	// --- Set Search Paths ---
	viper.SetConfigName("config")
	viper.AddConfigPath(".")                   // Current working directory
	viper.AddConfigPath("/etc/siteanalyzer/")  // System-wide configuration
	viper.AddConfigPath("$HOME/.siteanalyzer") // User-specific configuration

	// --- Set Defaults ---
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("logging.development", false)

	viper.SetDefault("fetch.user_agent", "BCT-SiteAnalyzer/1.0 (+https://github.com/bct-dk/siteanalyzer)")
	viper.SetDefault("fetch.timeout_seconds", 30)
	viper.SetDefault("fetch.probe_timeout_seconds", 5)
	viper.SetDefault("fetch.headless_enabled", false)
	viper.SetDefault("fetch.headless_timeout_seconds", 15)
	viper.SetDefault("fetch.detector_min_html_bytes", 2000)
	viper.SetDefault("fetch.detector_keywords", []string{
		"__NEXT_DATA__",
		"data-reactroot",
		"ng-app",
		"window.__APOLLO_STATE__",
	})

	viper.SetDefault("pipeline.sample_cap", 25)
	viper.SetDefault("pipeline.category_sample_cap", 5)
	viper.SetDefault("pipeline.seo_page_delay_seconds", 1)
	viper.SetDefault("pipeline.lighthouse_page_delay_seconds", 2)
	viper.SetDefault("pipeline.workers", 4)
	viper.SetDefault("pipeline.queue_depth", 256)
	viper.SetDefault("pipeline.max_attempts", 3)

	viper.SetDefault("sitemap.timeout_seconds", 30)
	viper.SetDefault("sitemap.probe_timeout_seconds", 5)

	viper.SetDefault("pagespeed.api_key", "")
	viper.SetDefault("pagespeed.endpoint", "https://www.googleapis.com/pagespeedonline/v5/runPagespeed")
	viper.SetDefault("pagespeed.timeout_seconds", 60)
	viper.SetDefault("pagespeed.strategy", "DESKTOP")
	viper.SetDefault("lighthouse.binary", "lighthouse")
	viper.SetDefault("lighthouse.timeout_seconds", 120)

	viper.SetDefault("sitesearch.api_key", "")
	viper.SetDefault("sitesearch.engine_id", "")
	viper.SetDefault("sitesearch.endpoint", "https://www.googleapis.com/customsearch/v1")
	viper.SetDefault("sitesearch.timeout_seconds", 30)

	viper.SetDefault("registry.endpoint", "https://cvrapi.dk/api")
	viper.SetDefault("registry.country", "dk")
	viper.SetDefault("registry.timeout_seconds", 30)

	viper.SetDefault("database.provider", "memory")
	viper.SetDefault("database.postgres.dsn", "")

	viper.SetDefault("blob.provider", "noop")
	viper.SetDefault("blob.local.dir", "data/snapshots")
	viper.SetDefault("blob.gcs.bucket", "")

	viper.SetDefault("publisher.provider", "noop")
	viper.SetDefault("publisher.gcp.project_id", "")
	viper.SetDefault("publisher.gcp.topic_id", "")

	// --- Environment Variables ---
	viper.SetEnvPrefix("SITEANALYZER") // e.g., SITEANALYZER_PAGESPEED_API_KEY=...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// --- Read Config File ---
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
