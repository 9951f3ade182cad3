package response

import (
	"time"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/services/registry"
)

// Friend represents a friend entry in API responses
type Friend struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// FriendFromModel converts a model.FriendEntry, using the compact id form
func FriendFromModel(e model.FriendEntry) Friend {
	return Friend{
		Name: e.Name,
		ID:   model.CompactID(e.ID),
	}
}

// FriendsFromModel converts a list of entries
func FriendsFromModel(entries []model.FriendEntry) []Friend {
	friends := make([]Friend, 0, len(entries))
	for _, e := range entries {
		friends = append(friends, FriendFromModel(e))
	}
	return friends
}

// FriendList is the response for GET /friends
type FriendList struct {
	Friends []Friend `json:"friends"`
	Count   int      `json:"count"`
}

// AddFriendResponse is the response for a successful add
type AddFriendResponse struct {
	Outcome string `json:"outcome"`
	Friend  Friend `json:"friend"`
}

// RemoveFriendResponse is the response for a successful remove
type RemoveFriendResponse struct {
	Removed Friend `json:"removed"`
}

// ClearResponse is the response for DELETE /friends
type ClearResponse struct {
	Cleared int `json:"cleared"`
}

// Reconcile summarises a reconciliation pass
type Reconcile struct {
	Checked     int  `json:"checked"`
	Renamed     int  `json:"renamed"`
	Removed     int  `json:"removed"`
	Unresolved  int  `json:"unresolved"`
	Duplicates  int  `json:"duplicates"`
	Remaining   int  `json:"remaining"`
	ServiceDown bool `json:"service_down"`
}

// ReconcileFromModel converts a model.ReconcileResult
func ReconcileFromModel(r model.ReconcileResult) Reconcile {
	return Reconcile{
		Checked:     r.Checked,
		Renamed:     r.Renamed,
		Removed:     r.Removed,
		Unresolved:  r.Unresolved,
		Duplicates:  r.Duplicates,
		Remaining:   r.Remaining,
		ServiceDown: r.ServiceDown,
	}
}

// Queued is the response for work accepted but not yet done
type Queued struct {
	Status string `json:"status"`
}

// Status is the response for GET /status
type Status struct {
	Count           int        `json:"count"`
	LoadedAt        *time.Time `json:"loaded_at,omitempty"`
	LastReconcileAt *time.Time `json:"last_reconcile_at,omitempty"`
	LastReconcile   *Reconcile `json:"last_reconcile,omitempty"`
	ResolverHealthy bool       `json:"resolver_healthy"`
}

// StatusFromRegistry converts a registry.Status
func StatusFromRegistry(s registry.Status, resolverHealthy bool) Status {
	out := Status{
		Count:           s.Count,
		ResolverHealthy: resolverHealthy,
	}
	if !s.LoadedAt.IsZero() {
		t := s.LoadedAt
		out.LoadedAt = &t
	}
	if !s.LastReconcileAt.IsZero() {
		t := s.LastReconcileAt
		out.LastReconcileAt = &t
	}
	if s.LastReconcile != nil {
		r := ReconcileFromModel(*s.LastReconcile)
		out.LastReconcile = &r
	}
	return out
}

// Suggestions is the response for GET /suggestions
type Suggestions struct {
	Suggestions []string `json:"suggestions"`
}
