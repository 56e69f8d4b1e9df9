// Package app wires the server together: config validation, store, registry,
// exchange client, snapshot scheduler and the HTTP server lifecycle.
package app

import (
	"context"
	"net/http"
	"time"

	"carechat/pkg/config"
	"carechat/pkg/exchange"
	"carechat/pkg/logger"
	"carechat/pkg/registry"
	"carechat/pkg/state"
	"carechat/pkg/store"
	"carechat/pkg/telemetry"

	"carechat/internal/snapshot"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg       *config.Config
	version   string
	commit    string
	buildDate string

	blob   store.Blob
	pebble *store.Pebble // nil when running on the in-memory fallback
	reg    *registry.Registry
	ex     *exchange.Client

	srv *http.Server
}

// New initializes everything that does not need a running context: validates
// config, opens the store, hydrates the registry and builds the exchange
// client. A store that cannot be opened degrades to in-memory operation
// instead of failing startup; conversations then live only for the process
// lifetime.
func New(cfg *config.Config, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := state.Init(cfg.Server.DBPath); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, version: version, commit: commit, buildDate: buildDate}

	p, err := store.Open(state.PathsVar.Store)
	if err != nil {
		logger.Error("store_open_failed_falling_back_to_memory", "path", state.PathsVar.Store, "error", err.Error())
		a.blob = store.NewMemory()
	} else {
		a.pebble = p
		a.blob = p
	}

	a.reg = registry.New(a.blob)
	a.reg.Initialize()
	telemetry.SetSessionCount(len(a.reg.Sessions()))

	a.ex = exchange.New(cfg.Exchange.Endpoint, cfg.ExchangeTimeout())
	return a, nil
}

// Registry exposes the conversation registry, mainly for tests.
func (a *App) Registry() *registry.Registry { return a.reg }

// Run starts the snapshot scheduler and the HTTP server, blocks until ctx is
// cancelled or a fatal server error occurs, then shuts down cleanly.
func (a *App) Run(ctx context.Context) error {
	stopSnapshots := func() {}
	if a.pebble != nil {
		cancel, err := snapshot.Start(ctx, a.cfg.Snapshot, a.pebble, state.PathsVar.Snapshots)
		if err != nil {
			return err
		}
		stopSnapshots = cancel
		go a.reportDiskUsage(ctx)
	} else if a.cfg.Snapshot.Enabled {
		logger.Warn("snapshot_skipped_memory_store")
	}
	defer stopSnapshots()

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		a.shutdown()
		return err
	}
}

// shutdown drains in-flight HTTP requests and closes the store.
func (a *App) shutdown() {
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(ctx); err != nil {
			logger.Warn("http_shutdown_error", "error", err.Error())
		}
	}
	if a.pebble != nil {
		if err := a.pebble.Close(); err != nil {
			logger.Warn("store_close_error", "error", err.Error())
		}
	}
	logger.Info("shutdown_complete")
}

// reportDiskUsage refreshes the store size gauge once a minute.
func (a *App) reportDiskUsage(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			telemetry.SetStoreDiskBytes(a.pebble.DiskUsage())
		}
	}
}
