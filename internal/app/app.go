// Package app initializes and holds long-lived application services,
// acting as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/littleweb/crawler/internal/api"
	"github.com/littleweb/crawler/internal/classify"
	"github.com/littleweb/crawler/internal/config"
	"github.com/littleweb/crawler/internal/crawl"
	"github.com/littleweb/crawler/internal/crawler"
	"github.com/littleweb/crawler/internal/database"
	"github.com/littleweb/crawler/internal/fetch"
	"github.com/littleweb/crawler/internal/logging"
	"github.com/littleweb/crawler/internal/metrics"
	"github.com/littleweb/crawler/internal/notify"
	"github.com/littleweb/crawler/internal/queue"
	"github.com/littleweb/crawler/internal/ratelimit"
	"github.com/littleweb/crawler/internal/robots"
)

// App holds the shared services for the ingestion pipeline.
type App struct {
	Cfg          config.Config
	Logger       *zap.Logger
	DB           *sqlx.DB
	QueueStore   crawl.QueueStore
	CatalogStore crawl.CatalogStore
	SiteCrawler  *crawler.SiteCrawler
	Classifier   classify.Classifier
	Orchestrator *queue.Orchestrator
	Server       *api.Server

	notifier interface{ Close() error }
}

// New builds the full service graph from configuration. It fails fast when
// a critical dependency cannot be reached.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics.Init()

	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("db.dsn is not set")
	}
	db, err := database.Connect(ctx, cfg.DB.DSN, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	queueStore := database.NewQueueRepository(db)
	catalogStore := database.NewCatalogRepository(db)

	resolver := robots.NewResolver(
		cfg.Crawler.UserAgent,
		time.Duration(cfg.Crawler.RobotsCacheHours)*time.Hour,
		logger,
	)
	limiter := ratelimit.New(time.Duration(cfg.Crawler.DefaultDelayMs) * time.Millisecond)
	fetcher := fetch.NewClient(fetch.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.HTTP.WorkerFetchTimeout(),
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
		MaxRetries:   cfg.HTTP.MaxRetries,
		BackoffBase:  time.Duration(cfg.HTTP.BackoffInitialMs) * time.Millisecond,
		BackoffMax:   time.Duration(cfg.HTTP.BackoffMaxMs) * time.Millisecond,
	}, logger)

	siteCrawler := crawler.New(resolver, limiter, fetcher, crawler.Config{
		WindowSize: cfg.Crawler.Concurrency,
	}, logger)

	classifier := classify.NewRuleTable()
	clock := crawl.SystemClock{}

	var notifier queue.Notifier
	var closer interface{ Close() error }
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		ps, err := notify.NewPubSub(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init pubsub notifier: %w", err)
		}
		notifier = ps
		closer = ps
	} else {
		logger.Info("pubsub not configured, validation triggers disabled")
		notifier = notify.NoOp{}
	}

	orchestrator := queue.New(queueStore, catalogStore, siteCrawler, classifier, notifier, clock, queue.Config{
		BatchSize:       cfg.Queue.BatchSize,
		MaxAttempts:     cfg.Queue.MaxAttempts,
		PendingCap:      cfg.Queue.PendingCap,
		LinkCap:         cfg.Crawler.LinkCap,
		HubLinkCap:      cfg.Crawler.HubLinkCap,
		RescheduleBase:  time.Duration(cfg.Queue.RescheduleBaseMins) * time.Minute,
		RetentionPeriod: time.Duration(cfg.Queue.RetentionDays) * 24 * time.Hour,
	}, logger)

	server := api.NewServer(queueStore, siteCrawler, classifier, clock, logger)

	return &App{
		Cfg:          cfg,
		Logger:       logger,
		DB:           db,
		QueueStore:   queueStore,
		CatalogStore: catalogStore,
		SiteCrawler:  siteCrawler,
		Classifier:   classifier,
		Orchestrator: orchestrator,
		Server:       server,
		notifier:     closer,
	}, nil
}

// Close releases held resources in reverse dependency order.
func (a *App) Close() {
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.Logger.Warn("close notifier", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("close database", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
