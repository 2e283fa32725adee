// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
// External-service credentials flow through this struct into the stages that
// need them; stages never read ambient global state.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Sitemap    SitemapConfig    `mapstructure:"sitemap"`
	PageSpeed  PageSpeedConfig  `mapstructure:"pagespeed"`
	Lighthouse LighthouseConfig `mapstructure:"lighthouse"`
	SiteSearch SiteSearchConfig `mapstructure:"sitesearch"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Publisher  PublisherConfig  `mapstructure:"publisher"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FetchConfig governs the page fetchers.
type FetchConfig struct {
	UserAgent              string   `mapstructure:"user_agent"`
	TimeoutSeconds         int      `mapstructure:"timeout_seconds"`
	ProbeTimeoutSeconds    int      `mapstructure:"probe_timeout_seconds"`
	HeadlessEnabled        bool     `mapstructure:"headless_enabled"`
	HeadlessTimeoutSeconds int      `mapstructure:"headless_timeout_seconds"`
	DetectorMinHTMLBytes   int      `mapstructure:"detector_min_html_bytes"`
	DetectorKeywords       []string `mapstructure:"detector_keywords"`
}

// Timeout returns the page fetch timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HeadlessTimeout returns the headless render timeout as a duration.
func (c FetchConfig) HeadlessTimeout() time.Duration {
	return time.Duration(c.HeadlessTimeoutSeconds) * time.Second
}

// PipelineConfig governs sampling, pacing, and the task runtime.
type PipelineConfig struct {
	SampleCap                  int `mapstructure:"sample_cap"`
	CategorySampleCap          int `mapstructure:"category_sample_cap"`
	SeoPageDelaySeconds        int `mapstructure:"seo_page_delay_seconds"`
	LighthousePageDelaySeconds int `mapstructure:"lighthouse_page_delay_seconds"`
	Workers                    int `mapstructure:"workers"`
	QueueDepth                 int `mapstructure:"queue_depth"`
	MaxAttempts                int `mapstructure:"max_attempts"`
}

// SitemapConfig controls sitemap discovery timeouts.
type SitemapConfig struct {
	TimeoutSeconds      int `mapstructure:"timeout_seconds"`
	ProbeTimeoutSeconds int `mapstructure:"probe_timeout_seconds"`
}

// PageSpeedConfig holds the hosted performance-scoring API settings.
type PageSpeedConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Strategy       string `mapstructure:"strategy"`
}

// LighthouseConfig holds the local scoring-tool settings.
type LighthouseConfig struct {
	Binary         string `mapstructure:"binary"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SiteSearchConfig holds the site-search API settings.
type SiteSearchConfig struct {
	APIKey         string `mapstructure:"api_key"`
	EngineID       string `mapstructure:"engine_id"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RegistryConfig holds the business-registry API settings.
type RegistryConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Country        string `mapstructure:"country"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls the pgx connection pool.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// BlobConfig selects the raw-HTML snapshot archive backend.
type BlobConfig struct {
	Provider string `mapstructure:"provider"`
	Local    struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"local"`
	GCS struct {
		Bucket string `mapstructure:"bucket"`
	} `mapstructure:"gcs"`
}

// PublisherConfig selects the completion-event publisher backend.
type PublisherConfig struct {
	Provider string `mapstructure:"provider"`
	GCP      struct {
		ProjectID string `mapstructure:"project_id"`
		TopicID   string `mapstructure:"topic_id"`
	} `mapstructure:"gcp"`
}

// Load builds a Config from the given viper instance.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c Config) Validate() error {
	if c.Pipeline.SampleCap <= 0 {
		return fmt.Errorf("pipeline.sample_cap must be positive, got %d", c.Pipeline.SampleCap)
	}
	if c.Pipeline.CategorySampleCap <= 0 {
		return fmt.Errorf("pipeline.category_sample_cap must be positive, got %d", c.Pipeline.CategorySampleCap)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueDepth <= 0 {
		return fmt.Errorf("pipeline.queue_depth must be positive, got %d", c.Pipeline.QueueDepth)
	}
	switch c.Database.Provider {
	case "memory":
	case "postgres":
		if c.Database.Postgres.DSN == "" {
			return fmt.Errorf("database.provider is postgres but database.postgres.dsn is not set")
		}
	default:
		return fmt.Errorf("unknown database provider %q", c.Database.Provider)
	}
	switch c.Blob.Provider {
	case "noop", "local":
	case "gcs":
		if c.Blob.GCS.Bucket == "" {
			return fmt.Errorf("blob.provider is gcs but blob.gcs.bucket is not set")
		}
	default:
		return fmt.Errorf("unknown blob provider %q", c.Blob.Provider)
	}
	switch c.Publisher.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Publisher.GCP.ProjectID == "" || c.Publisher.GCP.TopicID == "" {
			return fmt.Errorf("publisher.provider is pubsub but project_id or topic_id is not set")
		}
	default:
		return fmt.Errorf("unknown publisher provider %q", c.Publisher.Provider)
	}
	return nil
}
