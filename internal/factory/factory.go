package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/friendapi/internal/dependencies/clock"
	"github.com/mcoot/friendapi/internal/resolver"
	"github.com/mcoot/friendapi/internal/resolver/cache"
	"github.com/mcoot/friendapi/internal/resolver/mojang"
	"github.com/mcoot/friendapi/internal/services/registry"
	"github.com/mcoot/friendapi/internal/sse"
	"github.com/mcoot/friendapi/internal/storage"
	filestorage "github.com/mcoot/friendapi/internal/storage/file"
	"github.com/mcoot/friendapi/internal/storage/memory"
	redisstorage "github.com/mcoot/friendapi/internal/storage/redis"
	sqlitestorage "github.com/mcoot/friendapi/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	// FileStorage is set when the file backend is in use, for watching
	FileStorage *filestorage.Storage

	// External dependencies
	Clock    clock.Clock
	Resolver resolver.ProfileResolver

	// Services
	Registry    *registry.Registry
	Worker      *registry.Worker
	Hub         *sse.Hub
	Broadcaster *sse.Broadcaster

	logger  *slog.Logger
	closers []io.Closer
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	res := cfg.Resolver
	if res == nil {
		res = newResolver(cfg, logger)
	}

	app := newWithDependencies(store, res, clock.New(), cfg.ReconcileParallelism, logger)
	if fs, ok := store.(*filestorage.Storage); ok {
		app.FileStorage = fs
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

func newStorage(cfg Config) (storage.Storage, io.Closer, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeFile:
		if cfg.FriendsFile == "" {
			return nil, nil, errors.New("FriendsFile required when StorageType is file")
		}
		return filestorage.New(cfg.FriendsFile), nil, nil
	case StorageTypeRedis:
		if cfg.RedisURL == "" {
			return nil, nil, errors.New("RedisURL required when StorageType is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		store, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'file', 'redis' or 'sqlite'", storageType)
	}
}

func newResolver(cfg Config, logger *slog.Logger) resolver.ProfileResolver {
	client := mojang.New(mojang.Config{
		ProfilesURL: cfg.ProfilesURL,
		SessionURL:  cfg.SessionURL,
		Timeout:     cfg.ResolverTimeout,
	}, logger)
	if cfg.ResolverCacheTTL <= 0 {
		return client
	}
	return cache.New(client, cfg.ResolverCacheTTL, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	res resolver.ProfileResolver,
	clk clock.Clock,
	parallelism int,
	logger *slog.Logger,
) *App {
	reg := registry.New(store, res, clk, logger, registry.WithParallelism(parallelism))
	worker := registry.NewWorker(reg, logger)
	hub := sse.NewHub(logger)
	broadcaster := sse.NewBroadcaster(hub, logger)
	reg.OnChange(broadcaster.BroadcastChange)

	return &App{
		Storage:     store,
		Clock:       clk,
		Resolver:    res,
		Registry:    reg,
		Worker:      worker,
		Hub:         hub,
		Broadcaster: broadcaster,
		logger:      logger,
	}
}

// Start launches the background loops: the worker and the SSE hub
func (a *App) Start(ctx context.Context) {
	a.Worker.Start(ctx)
	go a.Hub.Run()
}

// Close stops the worker after it drains, disconnects event streams and
// releases storage connections
func (a *App) Close() error {
	a.Worker.Close()
	a.Hub.Close()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		a.logger.Error("failed to close app", slog.Any("errors", errs))
	}
	return errors.Join(errs...)
}
