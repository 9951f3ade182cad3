package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/friendapi/internal/model"
)

// EventFriendsChanged is the SSE event name for friend list changes
const EventFriendsChanged = "friends-changed"

// ChangeEvent is the JSON payload of a friends-changed event
type ChangeEvent struct {
	Kind  model.ChangeKind `json:"kind"`
	Count int              `json:"count"`
}

// Broadcaster turns registry changes into SSE events
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// BroadcastChange sends change to every connected client. It has the shape
// of a registry change listener.
func (b *Broadcaster) BroadcastChange(change model.Change) {
	data, err := json.Marshal(ChangeEvent{Kind: change.Kind, Count: change.Count})
	if err != nil {
		b.logger.Error("sse failed to encode change", slog.Any("error", err))
		return
	}
	b.hub.BroadcastEvent(EventFriendsChanged, string(data))
}
