package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/friendapi/internal/api"
	"github.com/mcoot/friendapi/internal/factory"
	"github.com/mcoot/friendapi/internal/storage/file"
)

func main() {
	cfg, err := factory.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	cfg.Logger = logger

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Queued mutations still run during shutdown, so the worker outlives ctx
	app.Start(context.Background())

	if err := app.Registry.Load(ctx); err != nil {
		logger.Error("failed to load friends", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}
	logger.Info("friends loaded", slog.Int("count", app.Registry.Len()))

	if cfg.ReconcileOnStart {
		// Queued so the server can accept requests while lookups run
		app.Worker.Reconcile()
	}

	var watcher *file.Watcher
	reloaderDone := make(chan struct{})
	if cfg.WatchFile && app.FileStorage != nil {
		watcher, err = file.NewWatcher(app.FileStorage, file.DefaultDebounce, logger)
		if err != nil {
			logger.Error("failed to create file watcher", slog.String("error", err.Error()))
			_ = app.Close()
			os.Exit(1)
		}
		changes, err := watcher.Start()
		if err != nil {
			logger.Error("failed to watch friends file", slog.String("error", err.Error()))
			_ = app.Close()
			os.Exit(1)
		}

		go func() {
			defer close(reloaderDone)
			for range changes {
				app.Worker.Reload()
			}
		}()
	} else {
		close(reloaderDone)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Registry: app.Registry,
		Worker:   app.Worker,
		Resolver: app.Resolver,
		Hub:      app.Hub,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.HTTPHost
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(router, serverConfig, logger)

	// Event streams never finish on their own, so end them when shutdown starts
	server.RegisterOnShutdown(app.Hub.Close)

	exitCode := 0
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		exitCode = 1
	}

	// Stop reloading before the worker goes away
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop file watcher", slog.String("error", err.Error()))
		}
	}
	<-reloaderDone

	if err := app.Close(); err != nil {
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
