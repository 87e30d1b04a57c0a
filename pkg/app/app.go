// Package app wires the daemon together: configuration, logging, the job
// store, the credential pool, the summarization pipeline, the dispatch
// scheduler, and the HTTP gateway. It is the shared entry point for the
// recapd binary.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/recapd/recapd/internal/backend/openrouter"
	"github.com/recapd/recapd/internal/config"
	"github.com/recapd/recapd/internal/credential"
	"github.com/recapd/recapd/internal/cron"
	"github.com/recapd/recapd/internal/gateway"
	"github.com/recapd/recapd/internal/schedule"
	"github.com/recapd/recapd/internal/scheduler"
	"github.com/recapd/recapd/internal/security"
	"github.com/recapd/recapd/internal/session"
	"github.com/recapd/recapd/internal/store/sqlite"
	"github.com/recapd/recapd/internal/summarize"
	"github.com/recapd/recapd/internal/transport"
	"github.com/recapd/recapd/internal/window"
)

// Params configures the application.
type Params struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// Transport overrides the chat transport. nil uses the built-in mock,
	// which serves nothing but keeps the daemon runnable for development.
	Transport transport.Transport

	// Delivery overrides the summary sink. nil logs summaries instead of
	// delivering them.
	Delivery scheduler.Delivery
}

// App is the assembled daemon.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *sqlite.JobStore
	pool     *credential.Pool
	service  *schedule.Service
	pipeline *summarize.Pipeline
	sessions *session.Tracker
	cronSch  *cron.Scheduler
	gateway  *gateway.Gateway

	stopTracing func(context.Context) error
}

// logDelivery is the fallback Delivery sink: it logs instead of sending.
type logDelivery struct {
	logger *slog.Logger
}

func (d *logDelivery) Deliver(_ context.Context, subscriberID, text string) error {
	d.logger.Info("summary ready (no delivery sink configured)",
		"subscriber", subscriberID,
		"chars", len(text),
	)
	return nil
}

// New loads configuration and assembles the daemon without starting it.
func New(params Params) (*App, error) {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	// Logging goes through the redactor so credentials never reach the log.
	redactor := security.NewRedactor()
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(security.NewRedactingHandler(inner, redactor))
	slog.SetDefault(logger)

	slots := make([]credential.Slot, len(cfg.Summarizer.APIKeys))
	for i, key := range cfg.Summarizer.APIKeys {
		slots[i] = credential.Slot{Name: fmt.Sprintf("key%d", i+1), Secret: key}
	}
	cooldownInitial, _ := time.ParseDuration(cfg.Summarizer.CooldownInitial)
	cooldownMax, _ := time.ParseDuration(cfg.Summarizer.CooldownMax)
	pool, err := credential.NewPool(slots, credential.BackoffConfig{
		Initial: cooldownInitial,
		Max:     cooldownMax,
	})
	if err != nil {
		return nil, err
	}
	redactor.SyncSlots(slots)

	store, err := sqlite.Open(context.Background(), filepath.Join(cfg.DataDir, "jobs.db"))
	if err != nil {
		return nil, err
	}

	backend, err := openrouter.New(openrouter.Config{
		Model:   cfg.Summarizer.Model,
		BaseURL: cfg.Summarizer.BaseURL,
		Referer: cfg.Summarizer.Referer,
		Title:   cfg.Summarizer.Title,
		Timeout: cfg.Summarizer.Timeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	chatTransport := params.Transport
	if chatTransport == nil {
		logger.Warn("no chat transport configured, using the built-in mock")
		chatTransport = transport.NewMockTransport()
	}
	delivery := params.Delivery
	if delivery == nil {
		delivery = &logDelivery{logger: logger}
	}

	fetcher := window.NewFetcher(chatTransport, cfg.Fetch.MaxMessages, cfg.Fetch.MaxChars)
	client := summarize.NewClient(pool, backend, logger)
	jobTimeout, _ := time.ParseDuration(cfg.Scheduler.JobTimeout)
	pipeline := summarize.NewPipeline(fetcher, client, jobTimeout, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := scheduler.NewMetrics(registry)

	tick, _ := time.ParseDuration(cfg.Scheduler.Tick)
	engine := scheduler.NewEngine(store, pipeline, delivery, scheduler.Config{
		Tick:       tick,
		Workers:    cfg.Scheduler.Workers,
		JobTimeout: jobTimeout,
	}, logger, metrics)

	ttl, _ := time.ParseDuration(cfg.Sessions.TTL)
	sessions := session.NewTracker(ttl)

	cronSch := cron.NewScheduler(logger)
	if err := cronSch.RegisterJob(engine); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := cronSch.RegisterJob(&cron.SessionSweepJob{Tracker: sessions, Logger: logger}); err != nil {
		_ = store.Close()
		return nil, err
	}

	gw := gateway.New(gateway.Config{
		Bind: cfg.Gateway.Bind,
		Auth: gateway.AuthConfig{BearerToken: cfg.Gateway.BearerToken},
	}, logger, store, pool, sessions, registry, params.Version, backend.Model())
	if err := gw.Validate(); err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := schedule.NewService(store, schedule.ServiceConfig{
		MinIntervalSeconds: cfg.Scheduler.MinIntervalSeconds,
		MaxIntervalSeconds: cfg.Scheduler.MaxIntervalSeconds,
	}, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pool:     pool,
		service:  svc,
		pipeline: pipeline,
		sessions: sessions,
		cronSch:  cronSch,
		gateway:  gw,
	}, nil
}

// Start brings up tracing, the cron scheduler, and the gateway.
func (a *App) Start(ctx context.Context) error {
	stopTracing, err := setupTracing(ctx, a.cfg.Tracing, a.cfg.Summarizer.Model)
	if err != nil {
		a.logger.Warn("tracing disabled", "error", err)
	} else {
		a.stopTracing = stopTracing
	}

	if err := a.cronSch.Start(); err != nil {
		return err
	}
	if err := a.gateway.Start(); err != nil {
		_ = a.cronSch.Stop(ctx)
		return err
	}

	a.logger.Info("recapd started",
		"data_dir", a.cfg.DataDir,
		"tick", a.cfg.Scheduler.Tick,
	)
	return nil
}

// Stop shuts everything down in reverse start order.
func (a *App) Stop(ctx context.Context) {
	if err := a.gateway.Stop(ctx); err != nil {
		a.logger.Error("gateway stop failed", "error", err)
	}
	if err := a.cronSch.Stop(ctx); err != nil {
		a.logger.Error("cron stop failed", "error", err)
	}
	if a.stopTracing != nil {
		if err := a.stopTracing(ctx); err != nil {
			a.logger.Error("tracer shutdown failed", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("store close failed", "error", err)
	}
}

// Schedules exposes the schedule service for front-end surfaces.
func (a *App) Schedules() *schedule.Service {
	return a.service
}

// Summaries exposes the pipeline for on-demand summarization, outside any
// schedule.
func (a *App) Summaries() *summarize.Pipeline {
	return a.pipeline
}

// Sessions exposes the interactive session tracker.
func (a *App) Sessions() *session.Tracker {
	return a.sessions
}

// Logger exposes the redacting logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
