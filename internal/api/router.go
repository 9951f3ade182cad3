package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/friendapi/internal/api/handler"
	"github.com/mcoot/friendapi/internal/api/middleware"
	"github.com/mcoot/friendapi/internal/resolver"
	"github.com/mcoot/friendapi/internal/services/registry"
	"github.com/mcoot/friendapi/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Registry *registry.Registry
	Worker   *registry.Worker
	Resolver resolver.ProfileResolver
	// Hub is optional; without it the events endpoint is not registered
	Hub *sse.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	friendsHandler := handler.NewFriendsHandler(cfg.Registry, cfg.Worker, cfg.Resolver, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/status", friendsHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/suggestions", friendsHandler.Suggestions).Methods(http.MethodGet)

	// Every name is a valid {query}, so only POST shares a fixed path here
	friends := api.PathPrefix("/friends").Subrouter()
	friends.HandleFunc("", friendsHandler.List).Methods(http.MethodGet)
	friends.HandleFunc("", friendsHandler.Add).Methods(http.MethodPost)
	friends.HandleFunc("", friendsHandler.Clear).Methods(http.MethodDelete)
	friends.HandleFunc("/reconcile", friendsHandler.Reconcile).Methods(http.MethodPost)
	friends.HandleFunc("/{query}", friendsHandler.Get).Methods(http.MethodGet)
	friends.HandleFunc("/{query}", friendsHandler.Remove).Methods(http.MethodDelete)

	if cfg.Hub != nil {
		eventsHandler := handler.NewEventsHandler(cfg.Hub)
		api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
