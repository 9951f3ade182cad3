// Package resolver defines the profile lookup capability the friend registry
// depends on.
//
// Every lookup has three outcomes: a profile (nil error), a confirmed absence
// (model.ErrNotFound) or an indeterminate failure (model.ErrUnavailable).
// Implementations wrap one of the two sentinels so callers can use errors.Is.
package resolver

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcoot/friendapi/internal/model"
)

// ProfileResolver maps usernames and profile ids to current profiles
type ProfileResolver interface {
	ResolveByName(ctx context.Context, name string) (model.FriendEntry, error)
	ResolveByID(ctx context.Context, id uuid.UUID) (model.FriendEntry, error)
	// IsHealthy is a cheap reachability probe. It is only used to tell a
	// deleted profile apart from a service outage.
	IsHealthy(ctx context.Context) bool
}

// uncacheable is implemented by resolvers that wrap another resolver and may
// serve stale answers
type uncacheable interface {
	Uncached() ProfileResolver
}

// observer is implemented by decorators that keep answers and should learn
// from lookups made past them
type observer interface {
	// Observe records entry as the current profile for its id
	Observe(entry model.FriendEntry)
	// Forget drops anything kept for id
	Forget(id uuid.UUID)
}

// Observe tells every answer-keeping decorator in r's chain that entry is the
// current profile, so a fresh lookup made through Uncached is not later
// contradicted by a stale cached one
func Observe(r ProfileResolver, entry model.FriendEntry) {
	walk(r, func(o observer) { o.Observe(entry) })
}

// Forget tells every answer-keeping decorator in r's chain to drop id
func Forget(r ProfileResolver, id uuid.UUID) {
	walk(r, func(o observer) { o.Forget(id) })
}

func walk(r ProfileResolver, visit func(observer)) {
	for {
		if o, ok := r.(observer); ok {
			visit(o)
		}
		u, ok := r.(uncacheable)
		if !ok {
			return
		}
		r = u.Uncached()
	}
}

// Uncached returns the resolver to use when a fresh answer is required.
// Decorators that cache expose their underlying resolver; others are returned
// unchanged.
func Uncached(r ProfileResolver) ProfileResolver {
	for {
		u, ok := r.(uncacheable)
		if !ok {
			return r
		}
		r = u.Uncached()
	}
}
