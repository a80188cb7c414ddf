// Package app assembles the pipeline from configuration: storage,
// source adapters, orchestrator and delivery.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/crawler"
	"github.com/ternarybob/colligo/internal/services/delivery"
	"github.com/ternarybob/colligo/internal/services/notify"
	"github.com/ternarybob/colligo/internal/services/sources"
	"github.com/ternarybob/colligo/internal/storage"
)

// App holds the wired pipeline components.
type App struct {
	Config       *common.Config
	Logger       arbor.ILogger
	Storage      interfaces.StorageManager
	Orchestrator *crawler.Orchestrator
	// Delivery is nil when notifications are disabled.
	Delivery *delivery.Service
	Terms    []string
}

// New wires the application from its resolved configuration.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	terms, err := common.LoadTerms(config.Crawl.TermsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load search terms: %w", err)
	}

	storageManager, err := storage.NewManager(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	adapters, err := buildAdapters(config, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}
	if len(adapters) == 0 {
		storageManager.Close()
		return nil, fmt.Errorf("no sources enabled")
	}

	app := &App{
		Config:       config,
		Logger:       logger,
		Storage:      storageManager,
		Orchestrator: crawler.NewOrchestrator(config, storageManager, adapters, logger),
		Terms:        terms,
	}

	if config.Notify.Enabled {
		notifier := notify.NewDiscordNotifier(&config.Notify, logger)
		app.Delivery = delivery.NewService(notifier, storageManager.Ledger(), config.Notify.MaxPerRun, logger)
	}

	logger.Info().
		Int("terms", len(terms)).
		Int("sources", len(adapters)).
		Bool("notify", config.Notify.Enabled).
		Msg("Application initialized")

	return app, nil
}

// buildAdapters instantiates one adapter per enabled source, in
// configuration order. Each source picks plain HTTP or browser
// rendering via its render flag.
func buildAdapters(config *common.Config, logger arbor.ILogger) ([]interfaces.SourceAdapter, error) {
	crawl := &config.Crawl

	httpFetcher := sources.NewHTTPFetcher(crawl.RequestTimeoutDuration(), crawl.UserAgent, logger)
	renderFetcher := sources.NewRenderFetcher(crawl.RequestTimeoutDuration()+crawl.RenderWaitDuration(), crawl.RenderWaitDuration(), crawl.UserAgent, logger)

	var adapters []interfaces.SourceAdapter
	for _, src := range config.EnabledSources() {
		var fetcher interfaces.PageFetcher = httpFetcher
		if src.Render {
			fetcher = renderFetcher
		}

		switch src.Platform {
		case "gupy":
			// Gupy assembles its listing client-side; the plain fetcher
			// would see an empty shell.
			adapters = append(adapters, sources.NewGupyAdapter(renderFetcher, src.BaseURL, src.RemoteOnly, logger))
		case "indeed":
			adapters = append(adapters, sources.NewIndeedAdapter(fetcher, src.BaseURL, src.Location, crawl.MaxAgeDays, logger))
		case "linkedin":
			adapters = append(adapters, sources.NewLinkedInAdapter(fetcher, src.BaseURL, src.Location, src.RemoteOnly, logger))
		default:
			return nil, fmt.Errorf("unknown source platform %q", src.Platform)
		}
	}

	return adapters, nil
}

// RunOnce executes one harvest followed by a delivery pass over the
// newly discovered records.
func (a *App) RunOnce(ctx context.Context) error {
	outcome, err := a.Orchestrator.RunOnce(ctx, a.Terms)
	if err != nil {
		return err
	}

	if a.Delivery == nil {
		a.Logger.Info().Int("new", len(outcome.New)).Msg("Notifications disabled; skipping delivery")
		return nil
	}

	// The whole consolidated corpus goes through the ledger diff, so
	// records that failed to deliver on earlier runs get retried even
	// when the checkpoint no longer counts them as new.
	if _, err := a.Delivery.DeliverPending(ctx, outcome.Consolidated); err != nil {
		return err
	}
	return nil
}

// Close releases storage resources.
func (a *App) Close() error {
	return a.Storage.Close()
}
