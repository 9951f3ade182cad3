package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/friendapi/internal/api/apierr"
	"github.com/mcoot/friendapi/internal/api/request"
	"github.com/mcoot/friendapi/internal/api/response"
	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/resolver"
	"github.com/mcoot/friendapi/internal/services/registry"
)

// healthProbeTimeout bounds the resolver probe made by the status endpoint
const healthProbeTimeout = 5 * time.Second

// FriendsHandler handles friend list endpoints.
// Reads go straight to the registry; mutations are queued on the worker so
// they apply in arrival order.
type FriendsHandler struct {
	registry *registry.Registry
	worker   *registry.Worker
	resolver resolver.ProfileResolver
	logger   *slog.Logger
}

// NewFriendsHandler creates a new friends handler
func NewFriendsHandler(
	registry *registry.Registry,
	worker *registry.Worker,
	resolver resolver.ProfileResolver,
	logger *slog.Logger,
) *FriendsHandler {
	return &FriendsHandler{
		registry: registry,
		worker:   worker,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "friends_handler")),
	}
}

// List handles GET /api/v1/friends
func (h *FriendsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.Snapshot()
	response.JSON(w, http.StatusOK, response.FriendList{
		Friends: response.FriendsFromModel(entries),
		Count:   len(entries),
	})
}

// Get handles GET /api/v1/friends/{query}
func (h *FriendsHandler) Get(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["query"]

	entry, ok := h.registry.FindByQuery(query)
	if !ok {
		h.writeError(w, r, apierr.NewFriendNotFoundError(query))
		return
	}

	response.JSON(w, http.StatusOK, response.FriendFromModel(entry))
}

// Add handles POST /api/v1/friends
func (h *FriendsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req request.AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		h.writeError(w, r, apierr.NewInvalidRequestError("query is required"))
		return
	}

	result, err := h.worker.AddByQuery(query).Wait(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := apierr.FromAddResult(result, query); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AddFriendResponse{
		Outcome: string(result.Outcome),
		Friend:  response.FriendFromModel(result.Entry),
	})
}

// Remove handles DELETE /api/v1/friends/{query}
func (h *FriendsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["query"]

	result, err := h.worker.RemoveByQuery(query).Wait(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !result.Removed {
		h.writeError(w, r, apierr.NewFriendNotFoundError(query))
		return
	}

	response.JSON(w, http.StatusOK, response.RemoveFriendResponse{
		Removed: response.FriendFromModel(result.Entry),
	})
}

// Clear handles DELETE /api/v1/friends
func (h *FriendsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.worker.Clear().Wait(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ClearResponse{Cleared: cleared})
}

// Reconcile handles POST /api/v1/friends/reconcile.
// With ?async=true the pass is queued and 202 is returned immediately.
func (h *FriendsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))

	future := h.worker.Reconcile()
	if async {
		go h.logReconcile(future)
		response.JSON(w, http.StatusAccepted, response.Queued{Status: "queued"})
		return
	}

	result, err := future.Wait(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReconcileFromModel(result))
}

func (h *FriendsHandler) logReconcile(future *registry.Future[model.ReconcileResult]) {
	if _, err := future.Wait(context.Background()); err != nil {
		h.logger.Error("queued reconcile failed", slog.String("error", err.Error()))
	}
}

// Suggestions handles GET /api/v1/suggestions?q=&online=
// Without online, it suggests existing friends (for removal). With online, a
// comma separated list of player names, it suggests players who are not yet
// friends (for adding).
func (h *FriendsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")

	var suggestions []string
	if online, ok := r.URL.Query()["online"]; ok {
		var names []string
		for _, v := range online {
			names = append(names, strings.Split(v, ",")...)
		}
		suggestions = h.registry.SuggestPlayers(names, partial)
	} else {
		suggestions = h.registry.SuggestFriends(partial)
	}

	response.JSON(w, http.StatusOK, response.Suggestions{Suggestions: suggestions})
}

// Status handles GET /api/v1/status
func (h *FriendsHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	healthy := h.resolver.IsHealthy(ctx)
	response.JSON(w, http.StatusOK, response.StatusFromRegistry(h.registry.Status(), healthy))
}
