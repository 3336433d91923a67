package commands

import (
	"context"
	"fmt"

	"github.com/wonny/holdwatch/internal/attribution"
	"github.com/wonny/holdwatch/internal/history"
	"github.com/wonny/holdwatch/internal/marketdata"
	"github.com/wonny/holdwatch/internal/notify"
	"github.com/wonny/holdwatch/internal/pipeline"
	"github.com/wonny/holdwatch/internal/scraper"
	"github.com/wonny/holdwatch/pkg/config"
	"github.com/wonny/holdwatch/pkg/database"
	"github.com/wonny/holdwatch/pkg/httputil"
	"github.com/wonny/holdwatch/pkg/logger"
	"github.com/wonny/holdwatch/pkg/redis"
)

// app holds the wired dependencies shared by commands
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB // nil for the file backend
	redis  *redis.Client
	store  history.Store
	memos  history.MemoStore
	hub    *notify.Hub
	runner *pipeline.Runner
}

type appOptions struct {
	silent bool // no notifications
}

// newApp wires config → storage → collaborators → runner
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// 3. History store
	if cfg.History.Backend == "postgres" {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		pgStore := history.NewPostgresStore(db.Pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		log.Info("Connected to database")
	}
	a.store = history.NewStore(cfg, a.db)
	a.memos = history.NewMemoStore(cfg, a.db)

	// 4. Redis (no-op when disabled)
	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, return cache disabled")
		rdb, _ = redis.New(&config.Config{})
	}
	a.redis = rdb

	// 5. Market data
	marketHTTP := httputil.New(log).WithRateLimit(cfg.MarketData.RateLimit).WithUserAgent(cfg.Scraper.UserAgent)
	market := marketdata.NewClient(marketHTTP, redis.NewCache(rdb, "holdwatch"), cfg.MarketData.BaseURL, log)

	// 6. Holdings source
	var fetcher scraper.Fetcher
	switch cfg.Scraper.Mode {
	case "browser":
		fetcher = scraper.NewBrowserFetcher(cfg.Scraper.Timeout, cfg.Scraper.UserAgent)
	default:
		fetcher = scraper.NewHTTPFetcher(httputil.NewWithTimeout(log, cfg.Scraper.Timeout).WithUserAgent(cfg.Scraper.UserAgent))
	}
	source := scraper.New(fetcher, cfg.Scraper.URL, log)

	var memoSource pipeline.MemoSource
	if cfg.Memos.Enabled {
		pager := scraper.NewBrowserMemoPager(cfg.Scraper.Timeout, cfg.Scraper.UserAgent, cfg.Memos.Settle, log)
		memoSource = scraper.NewMemoScraper(pager, cfg.Memos.URL, log)
	}

	// 7. Engine
	th := thresholdsFromConfig(cfg)
	if err := th.Validate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	// 8. Notifiers
	a.hub = notify.NewHub(log)
	var notifier notify.Notifier
	if !opts.silent {
		notifier = notify.FromConfig(cfg.Notify, httputil.New(log), a.hub, log)
	}

	// 9. Runner
	a.runner = pipeline.NewRunner(pipeline.Config{
		Store:    a.store,
		Source:   source,
		Lookup:   market,
		Engine:   attribution.NewEngine(th),
		Notifier: notifier,
		Workers:  cfg.MarketData.Workers,

		Memos:     memoSource,
		MemoStore: a.memos,
	}, log)

	return a, nil
}

// Close releases storage connections
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.db.Close()
}

func thresholdsFromConfig(cfg *config.Config) attribution.Thresholds {
	return attribution.Thresholds{
		NoiseTotal:      cfg.Attribution.NoiseTotal,
		NoiseActive:     cfg.Attribution.NoiseActive,
		ActiveThreshold: cfg.Attribution.ActiveThreshold,
		DriftMinTotal:   cfg.Attribution.DriftMinTotal,
	}
}
