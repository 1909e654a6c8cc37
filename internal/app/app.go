// ABOUTME: Application context built once per process: config, logger, store, cache and syncer.
// ABOUTME: Also runs the legacy migration and resets the cache once it completes.
package app

import (
	"context"
	"fmt"

	"github.com/harperreed/pump/internal/charm"
	"github.com/harperreed/pump/internal/config"
	"github.com/harperreed/pump/internal/logger"
	"github.com/harperreed/pump/internal/migrate"
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/querycache"
	"github.com/harperreed/pump/internal/recordstore"
	"github.com/harperreed/pump/internal/sync"
)

// LocalUser is the user ID of the local backend when none is configured.
const LocalUser = "local"

// App holds the shared state of one CLI or MCP process.
type App struct {
	Config *config.Config
	Log    *logger.Logger
	Store  recordstore.Client
	Cache  *querycache.Cache
	Syncer *sync.Syncer

	closeStore func() error
}

// New opens the configured store and wires the cache and syncer around it.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.GetLogMode())
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	store, closeStore, err := cfg.OpenStore(log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a, err := NewWithStore(cfg, log, store, closeStore)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	return a, nil
}

// NewWithStore wires an App around an already open store.
func NewWithStore(cfg *config.Config, log *logger.Logger, store recordstore.Client, closeStore func() error) (*App, error) {
	interval, err := cfg.GetRevalidateInterval()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	if closeStore == nil {
		closeStore = func() error { return nil }
	}

	userID := resolveUser(cfg, log)
	cache := querycache.New(
		querycache.WithRevalidateInterval(interval),
		querycache.WithLogger(log.With("component", "cache")),
	)
	return &App{
		Config:     cfg,
		Log:        log,
		Store:      store,
		Cache:      cache,
		Syncer:     sync.NewSyncer(store, cache, userID, log.With("component", "sync")),
		closeStore: closeStore,
	}, nil
}

// resolveUser falls back to the Charm account ID on the charm backend and
// to LocalUser on the local backend. The http backend has no fallback.
func resolveUser(cfg *config.Config, log *logger.Logger) string {
	if cfg.UserID != "" {
		return cfg.UserID
	}
	switch cfg.GetBackend() {
	case config.BackendLocal:
		return LocalUser
	case config.BackendCharm:
		id, err := charm.CharmID()
		if err != nil {
			log.Warn("could not resolve charm account", "error", err)
			return ""
		}
		return id
	default:
		return ""
	}
}

// UserID returns the user every operation runs as.
func (a *App) UserID() string {
	return a.Syncer.UserID()
}

// Migrate runs the legacy migration and then drops every cached query,
// since migrated records can land on any date.
func (a *App) Migrate(ctx context.Context, payload *models.LegacyPayload) (*migrate.Result, error) {
	m := migrate.New(a.Store, a.UserID(), migrate.WithLogger(a.Log.With("component", "migrate")))
	res, err := m.Run(ctx, payload)
	if n := a.Cache.InvalidateWhere(querycache.All); n > 0 {
		a.Log.Debug("cache reset after migration", "keys", n)
	}
	return res, err
}

// Charm returns the KV record service when the store is one.
func (a *App) Charm() (*charm.Client, bool) {
	c, ok := a.Store.(*charm.Client)
	return c, ok
}

// Close waits for background revalidation and releases the store.
func (a *App) Close() error {
	a.Cache.Wait()
	a.Log.Sync()
	return a.closeStore()
}
