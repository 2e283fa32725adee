// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
	"github.com/bct-dk/siteanalyzer/internal/blob"
	"github.com/bct-dk/siteanalyzer/internal/clock/system"
	"github.com/bct-dk/siteanalyzer/internal/company"
	"github.com/bct-dk/siteanalyzer/internal/config"
	"github.com/bct-dk/siteanalyzer/internal/fetch"
	"github.com/bct-dk/siteanalyzer/internal/lighthouse"
	"github.com/bct-dk/siteanalyzer/internal/metrics"
	"github.com/bct-dk/siteanalyzer/internal/pipeline"
	"github.com/bct-dk/siteanalyzer/internal/publisher/memory"
	"github.com/bct-dk/siteanalyzer/internal/publisher/noop"
	"github.com/bct-dk/siteanalyzer/internal/publisher/pubsub"
	"github.com/bct-dk/siteanalyzer/internal/scheduler"
	"github.com/bct-dk/siteanalyzer/internal/seo"
	"github.com/bct-dk/siteanalyzer/internal/sitemap"
	storememory "github.com/bct-dk/siteanalyzer/internal/store/memory"
	storepostgres "github.com/bct-dk/siteanalyzer/internal/store/postgres"
)

// App holds the shared, long-lived services of the analyzer. It is built once
// at startup from the validated configuration and handed to the commands that
// need it.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	clock  analyzer.Clock

	store     analyzer.Store
	blob      analyzer.BlobStore
	publisher analyzer.Publisher

	queue      *scheduler.Queue
	scheduler  *scheduler.Scheduler
	dispatcher *scheduler.Dispatcher
	runner     *pipeline.Runner

	headless  *fetch.HeadlessRenderer
	gcsClient *storage.Client
}

// Config returns the validated configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger { return a.logger }

// Clock returns the shared clock.
func (a *App) Clock() analyzer.Clock { return a.clock }

// Store exposes the configured persistence backend.
func (a *App) Store() analyzer.Store { return a.store }

// Scheduler exposes the task scheduler used to enqueue stage work.
func (a *App) Scheduler() *scheduler.Scheduler { return a.scheduler }

// Dispatcher exposes the worker pool that drains the task queue.
func (a *App) Dispatcher() *scheduler.Dispatcher { return a.dispatcher }

// Runner exposes the stage runner, for commands that execute stages inline.
func (a *App) Runner() *pipeline.Runner { return a.runner }

// New creates and initializes an App from the validated configuration. It is
// the central point for service initialization and fails fast when any
// critical service cannot be built.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("Initializing application services...")
	metrics.Init()

	a := &App{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
	}

	if err := a.initStore(ctx); err != nil {
		return nil, err
	}
	if err := a.initBlob(ctx); err != nil {
		return nil, err
	}
	if err := a.initPublisher(ctx); err != nil {
		return nil, err
	}
	a.initPipeline(ctx)

	logger.Info("Application services initialized successfully.")
	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	switch a.cfg.Database.Provider {
	case "memory":
		a.logger.Info("Using in-memory store; records are discarded on exit.")
		a.store = storememory.New(a.clock)
	case "postgres":
		a.logger.Info("Connecting to PostgreSQL...")
		store, err := storepostgres.New(ctx, storepostgres.Config{
			DSN:      a.cfg.Database.Postgres.DSN,
			MaxConns: a.cfg.Database.Postgres.MaxConns,
		}, a.clock)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.store = store
	default:
		return fmt.Errorf("unknown database provider: %s", a.cfg.Database.Provider)
	}
	return nil
}

func (a *App) initBlob(ctx context.Context) error {
	switch a.cfg.Blob.Provider {
	case "noop":
		a.logger.Info("Using No-Op blob store. Page snapshots will be discarded.")
		a.blob = blob.NewNoOp()
	case "local":
		store, err := blob.NewLocal(blob.LocalConfig{BaseDir: a.cfg.Blob.Local.Dir})
		if err != nil {
			return fmt.Errorf("failed to initialize local blob store: %w", err)
		}
		a.logger.Info("Using local blob store", zap.String("dir", a.cfg.Blob.Local.Dir))
		a.blob = store
	case "gcs":
		a.logger.Info("Using GCS blob store", zap.String("bucket", a.cfg.Blob.GCS.Bucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		store, err := blob.NewGCS(client, blob.GCSConfig{Bucket: a.cfg.Blob.GCS.Bucket})
		if err != nil {
			client.Close()
			return fmt.Errorf("failed to initialize GCS blob store: %w", err)
		}
		a.gcsClient = client
		a.blob = store
	default:
		return fmt.Errorf("unknown blob provider: %s", a.cfg.Blob.Provider)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	switch a.cfg.Publisher.Provider {
	case "noop":
		a.logger.Info("Using No-Op publisher. Completion events will be discarded.")
		a.publisher = noop.New()
	case "memory":
		a.publisher = memory.New()
	case "pubsub":
		a.logger.Info("Connecting to GCP Pub/Sub", zap.String("topic", a.cfg.Publisher.GCP.TopicID))
		pub, err := pubsub.New(ctx, pubsub.Config{
			ProjectID: a.cfg.Publisher.GCP.ProjectID,
			TopicID:   a.cfg.Publisher.GCP.TopicID,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		a.publisher = pub
	default:
		return fmt.Errorf("unknown publisher provider: %s", a.cfg.Publisher.Provider)
	}
	return nil
}

func (a *App) initPipeline(ctx context.Context) {
	fetcher := fetch.NewColly(fetch.Config{
		UserAgent: a.cfg.Fetch.UserAgent,
		Timeout:   a.cfg.Fetch.Timeout(),
	})

	var renderer analyzer.Renderer
	if a.cfg.Fetch.HeadlessEnabled {
		a.headless = fetch.NewHeadless(a.cfg.Fetch.UserAgent, a.cfg.Fetch.HeadlessTimeout())
		renderer = a.headless
	}
	detector := fetch.NewDetector(a.cfg.Fetch.DetectorMinHTMLBytes, a.cfg.Fetch.DetectorKeywords)

	discoverer := sitemap.NewDiscoverer(sitemap.Config{
		UserAgent:    a.cfg.Fetch.UserAgent,
		Timeout:      time.Duration(a.cfg.Sitemap.TimeoutSeconds) * time.Second,
		ProbeTimeout: time.Duration(a.cfg.Sitemap.ProbeTimeoutSeconds) * time.Second,
	}, a.logger)

	seoAnalyzer := seo.NewAnalyzer(fetcher, renderer, detector, a.clock, a.logger)
	siteSearch := seo.NewSiteSearch(seo.SiteSearchConfig{
		APIKey:   a.cfg.SiteSearch.APIKey,
		EngineID: a.cfg.SiteSearch.EngineID,
		Endpoint: a.cfg.SiteSearch.Endpoint,
		Timeout:  time.Duration(a.cfg.SiteSearch.TimeoutSeconds) * time.Second,
	}, a.logger)

	perf := lighthouse.New(
		[]lighthouse.Source{
			lighthouse.NewPageSpeed(lighthouse.PageSpeedConfig{
				APIKey:   a.cfg.PageSpeed.APIKey,
				Endpoint: a.cfg.PageSpeed.Endpoint,
				Strategy: a.cfg.PageSpeed.Strategy,
				Timeout:  time.Duration(a.cfg.PageSpeed.TimeoutSeconds) * time.Second,
			}, a.clock, a.logger),
			lighthouse.NewLocal(lighthouse.LocalConfig{
				Binary:  a.cfg.Lighthouse.Binary,
				Timeout: time.Duration(a.cfg.Lighthouse.TimeoutSeconds) * time.Second,
			}, a.clock, a.logger),
		},
		time.Duration(a.cfg.Pipeline.LighthousePageDelaySeconds)*time.Second,
		a.clock, a.logger,
	)

	registry := company.NewClient(company.ClientConfig{
		Endpoint:  a.cfg.Registry.Endpoint,
		Country:   a.cfg.Registry.Country,
		UserAgent: a.cfg.Fetch.UserAgent,
		Timeout:   time.Duration(a.cfg.Registry.TimeoutSeconds) * time.Second,
	}, a.clock, a.logger)

	a.queue = scheduler.NewQueue(a.cfg.Pipeline.QueueDepth)
	a.scheduler = scheduler.New(ctx, a.queue, a.logger)

	a.runner = pipeline.NewRunner(pipeline.Deps{
		Store:      a.store,
		Scheduler:  a.scheduler,
		Fetcher:    fetcher,
		Blob:       a.blob,
		Publisher:  a.publisher,
		Discoverer: discoverer,
		SEO:        seoAnalyzer,
		SiteSearch: siteSearch,
		Lighthouse: perf,
		Company:    registry,
		Clock:      a.clock,
		Logger:     a.logger,
	}, pipeline.Config{
		SampleCap:         a.cfg.Pipeline.SampleCap,
		CategorySampleCap: a.cfg.Pipeline.CategorySampleCap,
		SeoPageDelay:      time.Duration(a.cfg.Pipeline.SeoPageDelaySeconds) * time.Second,
	})

	a.dispatcher = scheduler.NewDispatcher(a.queue, a.runner, scheduler.DispatcherConfig{
		Workers:     a.cfg.Pipeline.Workers,
		MaxAttempts: a.cfg.Pipeline.MaxAttempts,
	}, a.logger)
}

// Close gracefully shuts down all services in the App container. It is called
// by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Info("Shutting down application services...")
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.queue != nil {
		a.queue.Close()
	}
	if a.headless != nil {
		a.headless.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Error closing publisher", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Error closing store", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("Error closing storage client", zap.Error(err))
		}
	}
	if err := a.logger.Sync(); err != nil {
		// Best effort; stderr sync fails on some platforms.
		_ = err
	}
}
