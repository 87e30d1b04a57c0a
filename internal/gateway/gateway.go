// Package gateway exposes the daemon's operator surface over HTTP: a public
// health probe plus authenticated status and metrics endpoints. It is a leaf
// package — nothing imports it.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/recapd/recapd/internal/schedule"
)

// JobLister is the store view the gateway needs.
type JobLister interface {
	ListAll(ctx context.Context) ([]schedule.Job, error)
}

// CredentialStatus is the credential-pool view the gateway needs.
type CredentialStatus interface {
	Size() int
	Available() int
}

// SessionCounter is the session-tracker view the gateway needs.
type SessionCounter interface {
	Len() int
}

// Gateway is the HTTP operator endpoint server.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	jobs        JobLister
	credentials CredentialStatus
	sessions    SessionCounter
	registry    *prometheus.Registry
	version     string
	model       string
}

// New creates a Gateway. Any of jobs, credentials, sessions, and registry may
// be nil; the corresponding fields or endpoints degrade gracefully.
func New(cfg Config, logger *slog.Logger, jobs JobLister, credentials CredentialStatus, sessions SessionCounter, registry *prometheus.Registry, version, model string) *Gateway {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:      cfg,
		logger:      logger,
		jobs:        jobs,
		credentials: credentials,
		sessions:    sessions,
		registry:    registry,
		version:     version,
		model:       model,
	}
}

// Validate checks the bind address before Start.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
