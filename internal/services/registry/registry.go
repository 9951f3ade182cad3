// Package registry owns the friend list: an ordered set of players, unique by
// profile id, kept in sync with storage after every mutation.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/friendapi/internal/dependencies/clock"
	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/resolver"
	"github.com/mcoot/friendapi/internal/storage"
)

// DefaultParallelism bounds concurrent lookups during reconciliation
const DefaultParallelism = 4

// Status is a point-in-time summary of the registry
type Status struct {
	Count           int
	LoadedAt        time.Time
	LastReconcileAt time.Time
	// LastReconcile is nil until a reconciliation pass has completed
	LastReconcile *model.ReconcileResult
}

// Option configures a Registry
type Option func(*Registry)

// WithParallelism sets how many lookups a reconciliation pass runs at once
func WithParallelism(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// Registry is the friend list.
//
// Mutations hold writeMu for their whole duration, including the remote
// lookup, so they apply in the order they acquire it. Readers only take mu,
// which is held just long enough to swap the slice, so they never wait on the
// network.
type Registry struct {
	store       storage.Storage
	resolver    resolver.ProfileResolver
	clock       clock.Clock
	logger      *slog.Logger
	parallelism int

	writeMu sync.Mutex

	mu              sync.RWMutex
	entries         []model.FriendEntry
	loadedAt        time.Time
	lastReconcileAt time.Time
	lastReconcile   *model.ReconcileResult

	listenersMu sync.RWMutex
	listeners   []func(model.Change)
}

// New creates an empty registry. Call Load to populate it from storage.
func New(
	store storage.Storage,
	resolver resolver.ProfileResolver,
	clock clock.Clock,
	logger *slog.Logger,
	opts ...Option,
) *Registry {
	r := &Registry{
		store:       store,
		resolver:    resolver,
		clock:       clock,
		logger:      logger.With(slog.String("component", "registry")),
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the in-memory list with the persisted one.
// A corrupt store yields an empty list rather than an error.
func (r *Registry) Load(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.load(ctx)
	return err
}

// Reload is Load for an already running registry: listeners are told the
// list changed underneath them.
func (r *Registry) Reload(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	count, err := r.load(ctx)
	if err != nil {
		return err
	}
	r.notify(model.Change{Kind: model.ChangeReloaded, Count: count})
	return nil
}

func (r *Registry) load(ctx context.Context) (int, error) {
	entries, err := r.store.Load(ctx)
	switch {
	case errors.Is(err, model.ErrCorrupt):
		r.logger.Warn("persisted friend list is corrupt, starting empty",
			slog.String("error", err.Error()))
		entries = nil
	case err != nil:
		r.logger.Error("failed to load friends", slog.String("error", err.Error()))
		return 0, fmt.Errorf("load friends: %w", err)
	}

	entries, dropped := dedupByID(entries)
	if dropped > 0 {
		r.logger.Warn("dropped duplicate friends on load", slog.Int("duplicates", dropped))
	}

	r.mu.Lock()
	r.entries = entries
	r.loadedAt = r.clock.Now()
	r.mu.Unlock()

	r.logger.Info("friends loaded", slog.Int("count", len(entries)))
	return len(entries), nil
}

// Snapshot returns a copy of the current list in insertion order
func (r *Registry) Snapshot() []model.FriendEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.CopyEntries(r.entries)
}

// Len returns the number of friends
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// FindByName returns the first friend whose name matches, ignoring case
func (r *Registry) FindByName(name string) (model.FriendEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.NameEquals(name) {
			return e, true
		}
	}
	return model.FriendEntry{}, false
}

// FindByID returns the friend with the given id
func (r *Registry) FindByID(id uuid.UUID) (model.FriendEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, true
		}
	}
	return model.FriendEntry{}, false
}

// FindByEntry returns the stored entry equal to entry
func (r *Registry) FindByEntry(entry model.FriendEntry) (model.FriendEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e == entry {
			return e, true
		}
	}
	return model.FriendEntry{}, false
}

// FindByQuery treats query as a profile id if it parses as one, else as a name
func (r *Registry) FindByQuery(query string) (model.FriendEntry, bool) {
	if id, err := model.ParseProfileID(query); err == nil {
		return r.FindByID(id)
	}
	return r.FindByName(strings.TrimSpace(query))
}

func (r *Registry) ContainsName(name string) bool {
	_, ok := r.FindByName(name)
	return ok
}

func (r *Registry) ContainsID(id uuid.UUID) bool {
	_, ok := r.FindByID(id)
	return ok
}

func (r *Registry) ContainsEntry(entry model.FriendEntry) bool {
	_, ok := r.FindByEntry(entry)
	return ok
}

// AddByName resolves name and appends the profile.
// Resolution failures are reported in the result, not as an error.
func (r *Registry) AddByName(ctx context.Context, name string) (model.AddResult, error) {
	name = strings.TrimSpace(name)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if existing, ok := r.FindByName(name); ok {
		return alreadyPresent(existing), nil
	}

	profile, err := r.resolver.ResolveByName(ctx, name)
	if err != nil {
		return r.unresolved(ctx, err, slog.String("name", name))
	}

	return r.add(ctx, profile)
}

// AddByID resolves id and appends the profile
func (r *Registry) AddByID(ctx context.Context, id uuid.UUID) (model.AddResult, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if existing, ok := r.FindByID(id); ok {
		return alreadyPresent(existing), nil
	}

	profile, err := r.resolver.ResolveByID(ctx, id)
	if err != nil {
		return r.unresolved(ctx, err, slog.String("id", model.CompactID(id)))
	}

	return r.add(ctx, profile)
}

// AddByQuery adds by id when query parses as a profile id, else by name
func (r *Registry) AddByQuery(ctx context.Context, query string) (model.AddResult, error) {
	if id, err := model.ParseProfileID(query); err == nil {
		return r.AddByID(ctx, id)
	}
	return r.AddByName(ctx, query)
}

// add appends a resolved profile. Must hold writeMu.
func (r *Registry) add(ctx context.Context, profile model.FriendEntry) (model.AddResult, error) {
	// The stored name may be stale, so the resolved id is the real check
	if existing, ok := r.FindByID(profile.ID); ok {
		return alreadyPresent(existing), nil
	}

	next := append(r.Snapshot(), profile)
	if err := r.persist(ctx, next); err != nil {
		return model.AddResult{}, err
	}

	r.logger.Info("friend added",
		slog.String("name", profile.Name),
		slog.String("id", model.CompactID(profile.ID)),
		slog.Int("count", len(next)))
	r.notify(model.Change{Kind: model.ChangeAdded, Count: len(next)})

	return model.AddResult{Outcome: model.AddAdded, Entry: profile}, nil
}

// unresolved turns a lookup failure into a NotFound result, unless the caller
// gave up, in which case the context error is returned
func (r *Registry) unresolved(ctx context.Context, err error, attr slog.Attr) (model.AddResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.AddResult{}, ctxErr
	}

	cause := err
	if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrUnavailable) {
		cause = fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	r.logger.Info("friend not added", attr, slog.String("reason", cause.Error()))
	return model.AddResult{Outcome: model.AddNotFound, Cause: cause}, nil
}

func alreadyPresent(existing model.FriendEntry) model.AddResult {
	return model.AddResult{
		Outcome: model.AddAlreadyPresent,
		Entry:   existing,
		Cause:   model.ErrAlreadyPresent,
	}
}

// RemoveByName removes the first friend whose name matches, ignoring case
func (r *Registry) RemoveByName(ctx context.Context, name string) (bool, error) {
	_, removed, err := r.removeWhere(ctx, func(e model.FriendEntry) bool {
		return e.NameEquals(name)
	})
	return removed, err
}

// RemoveByID removes the friend with the given id
func (r *Registry) RemoveByID(ctx context.Context, id uuid.UUID) (bool, error) {
	_, removed, err := r.removeWhere(ctx, func(e model.FriendEntry) bool {
		return e.ID == id
	})
	return removed, err
}

// RemoveByQuery removes by id when query parses as a profile id, else by
// name, and returns the removed entry
func (r *Registry) RemoveByQuery(ctx context.Context, query string) (model.FriendEntry, bool, error) {
	if id, err := model.ParseProfileID(query); err == nil {
		return r.removeWhere(ctx, func(e model.FriendEntry) bool {
			return e.ID == id
		})
	}
	name := strings.TrimSpace(query)
	return r.removeWhere(ctx, func(e model.FriendEntry) bool {
		return e.NameEquals(name)
	})
}

func (r *Registry) removeWhere(ctx context.Context, match func(model.FriendEntry) bool) (model.FriendEntry, bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	next := r.Snapshot()
	idx := slices.IndexFunc(next, match)
	if idx < 0 {
		return model.FriendEntry{}, false, nil
	}
	removed := next[idx]
	next = slices.Delete(next, idx, idx+1)

	if err := r.persist(ctx, next); err != nil {
		return model.FriendEntry{}, false, err
	}

	r.logger.Info("friend removed",
		slog.String("name", removed.Name),
		slog.String("id", model.CompactID(removed.ID)),
		slog.Int("count", len(next)))
	r.notify(model.Change{Kind: model.ChangeRemoved, Count: len(next)})

	return removed, true, nil
}

// Clear removes every friend and returns how many were removed.
// Nothing is written when the list is already empty.
func (r *Registry) Clear(ctx context.Context) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	count := r.Len()
	if count == 0 {
		return 0, nil
	}

	if err := r.persist(ctx, []model.FriendEntry{}); err != nil {
		return 0, err
	}

	r.logger.Info("friends cleared", slog.Int("removed", count))
	r.notify(model.Change{Kind: model.ChangeCleared, Count: 0})

	return count, nil
}

// SuggestFriends returns the names of friends containing partial, ignoring case
func (r *Registry) SuggestFriends(partial string) []string {
	needle := strings.ToLower(strings.TrimSpace(partial))

	r.mu.RLock()
	defer r.mu.RUnlock()

	suggestions := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			suggestions = append(suggestions, e.Name)
		}
	}
	return suggestions
}

// SuggestPlayers returns the names from online that are not already friends
// and contain partial, ignoring case
func (r *Registry) SuggestPlayers(online []string, partial string) []string {
	needle := strings.ToLower(strings.TrimSpace(partial))

	suggestions := make([]string, 0, len(online))
	seen := make(map[string]bool, len(online))
	for _, name := range online {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		if !strings.Contains(key, needle) || r.ContainsName(name) {
			continue
		}
		suggestions = append(suggestions, name)
	}
	return suggestions
}

// Status returns the current summary
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := Status{
		Count:           len(r.entries),
		LoadedAt:        r.loadedAt,
		LastReconcileAt: r.lastReconcileAt,
	}
	if r.lastReconcile != nil {
		result := *r.lastReconcile
		status.LastReconcile = &result
	}
	return status
}

// OnChange registers fn to be called after every persisted mutation.
// fn runs while the mutation still holds the write lock, so it must not call
// mutating registry methods.
func (r *Registry) OnChange(fn func(model.Change)) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// persist saves next and only then makes it the current list. Must hold
// writeMu.
func (r *Registry) persist(ctx context.Context, next []model.FriendEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.store.Save(ctx, next); err != nil {
		r.logger.Error("failed to save friends",
			slog.Int("count", len(next)),
			slog.String("error", err.Error()))
		return fmt.Errorf("save friends: %w", err)
	}

	r.mu.Lock()
	r.entries = next
	r.mu.Unlock()
	return nil
}

func (r *Registry) notify(change model.Change) {
	r.listenersMu.RLock()
	listeners := slices.Clone(r.listeners)
	r.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(change)
	}
}

// dedupByID keeps the first occurrence of each id
func dedupByID(entries []model.FriendEntry) ([]model.FriendEntry, int) {
	seen := make(map[uuid.UUID]bool, len(entries))
	out := make([]model.FriendEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out, len(entries) - len(out)
}
