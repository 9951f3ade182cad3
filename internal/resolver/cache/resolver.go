// Package cache provides a caching decorator for profile resolvers.
//
// Successful lookups are cached for a TTL and concurrent identical lookups
// share one upstream call. Failures are never cached, so a transient outage
// does not pin a stale answer.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/resolver"
)

const (
	DefaultTTL = time.Minute

	namePrefix = "name:"
	idPrefix   = "id:"
)

// Resolver wraps another resolver with a TTL cache
type Resolver struct {
	inner  resolver.ProfileResolver
	cache  *gocache.Cache
	group  singleflight.Group
	logger *slog.Logger
}

// Ensure Resolver implements the interface
var _ resolver.ProfileResolver = (*Resolver)(nil)

// New wraps inner. A non-positive ttl uses DefaultTTL.
func New(inner resolver.ProfileResolver, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		inner:  inner,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger.With(slog.String("component", "resolver_cache")),
	}
}

// Uncached returns the wrapped resolver
func (r *Resolver) Uncached() resolver.ProfileResolver {
	return r.inner
}

// ResolveByName resolves name, consulting the cache first
func (r *Resolver) ResolveByName(ctx context.Context, name string) (model.FriendEntry, error) {
	key := namePrefix + strings.ToLower(strings.TrimSpace(name))
	return r.resolve(ctx, key, func(ctx context.Context) (model.FriendEntry, error) {
		return r.inner.ResolveByName(ctx, name)
	})
}

// ResolveByID resolves id, consulting the cache first
func (r *Resolver) ResolveByID(ctx context.Context, id uuid.UUID) (model.FriendEntry, error) {
	return r.resolve(ctx, idPrefix+model.CompactID(id), func(ctx context.Context) (model.FriendEntry, error) {
		return r.inner.ResolveByID(ctx, id)
	})
}

// IsHealthy is never cached
func (r *Resolver) IsHealthy(ctx context.Context) bool {
	return r.inner.IsHealthy(ctx)
}

// Observe replaces whatever is cached for entry's id, including the name key
// of a previous name
func (r *Resolver) Observe(entry model.FriendEntry) {
	r.dropStaleName(entry.ID, entry.Name)
	r.store(entry)
}

// Forget drops the cached profile for id under both keys
func (r *Resolver) Forget(id uuid.UUID) {
	r.dropStaleName(id, "")
	r.cache.Delete(idPrefix + model.CompactID(id))
}

// dropStaleName removes the name key of the profile cached for id unless it
// already matches name
func (r *Resolver) dropStaleName(id uuid.UUID, name string) {
	cached, ok := r.cache.Get(idPrefix + model.CompactID(id))
	if !ok {
		return
	}
	old := cached.(model.FriendEntry).Name
	if !strings.EqualFold(old, name) {
		r.cache.Delete(namePrefix + strings.ToLower(old))
	}
}

// Flush drops every cached profile
func (r *Resolver) Flush() {
	r.cache.Flush()
}

func (r *Resolver) resolve(
	ctx context.Context,
	key string,
	lookup func(context.Context) (model.FriendEntry, error),
) (model.FriendEntry, error) {
	if cached, ok := r.cache.Get(key); ok {
		return cached.(model.FriendEntry), nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		entry, err := lookup(ctx)
		if err != nil {
			return model.FriendEntry{}, err
		}
		r.store(entry)
		return entry, nil
	})
	if shared {
		r.logger.Debug("shared in-flight profile lookup", slog.String("key", key))
	}
	if err != nil {
		return model.FriendEntry{}, err
	}
	return v.(model.FriendEntry), nil
}

// store caches entry under both its name and its id
func (r *Resolver) store(entry model.FriendEntry) {
	r.cache.SetDefault(namePrefix+strings.ToLower(entry.Name), entry)
	r.cache.SetDefault(idPrefix+model.CompactID(entry.ID), entry)
}
