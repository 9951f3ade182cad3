package registry

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/resolver"
)

type lookup struct {
	profile model.FriendEntry
	err     error
}

// Reconcile refreshes every friend against the profile service.
//
// Renamed players get their new name. Players whose profile no longer exists
// are dropped, but only when the service reports itself healthy; otherwise a
// not-found answer is treated like an outage and the entry is kept. The
// result is deduplicated by id and always persisted.
func (r *Registry) Reconcile(ctx context.Context) (model.ReconcileResult, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	snapshot := r.Snapshot()
	r.logger.Info("reconciling friends", slog.Int("count", len(snapshot)))

	lookups := r.lookupAll(ctx, snapshot)
	if err := ctx.Err(); err != nil {
		return model.ReconcileResult{}, err
	}

	result := model.ReconcileResult{Checked: len(snapshot)}
	health := &healthProbe{resolver: r.resolver}

	next := model.CopyEntries(snapshot)
	for i := len(next) - 1; i >= 0; i-- {
		l := lookups[i]
		switch {
		case l.err == nil:
			resolver.Observe(r.resolver, l.profile)
			if l.profile.Name != next[i].Name {
				r.logger.Info("friend renamed",
					slog.String("id", model.CompactID(next[i].ID)),
					slog.String("old_name", next[i].Name),
					slog.String("new_name", l.profile.Name))
				next[i].Name = l.profile.Name
				result.Renamed++
			}

		case errors.Is(l.err, model.ErrNotFound):
			resolver.Forget(r.resolver, next[i].ID)
			if health.healthy(ctx) {
				r.logger.Info("friend profile no longer exists",
					slog.String("name", next[i].Name),
					slog.String("id", model.CompactID(next[i].ID)))
				next = slices.Delete(next, i, i+1)
				result.Removed++
			} else {
				result.Unresolved++
			}

		default:
			r.logger.Warn("friend lookup failed, keeping entry",
				slog.String("name", next[i].Name),
				slog.String("error", l.err.Error()))
			result.Unresolved++
		}
	}
	result.ServiceDown = health.probed && !health.up

	next, result.Duplicates = dedupByID(next)
	result.Remaining = len(next)

	if err := r.persist(ctx, next); err != nil {
		return model.ReconcileResult{}, err
	}

	r.mu.Lock()
	r.lastReconcileAt = r.clock.Now()
	r.lastReconcile = &result
	r.mu.Unlock()

	r.logger.Info("friends reconciled",
		slog.Int("checked", result.Checked),
		slog.Int("renamed", result.Renamed),
		slog.Int("removed", result.Removed),
		slog.Int("unresolved", result.Unresolved),
		slog.Int("remaining", result.Remaining),
		slog.Bool("service_down", result.ServiceDown))
	r.notify(model.Change{Kind: model.ChangeReconciled, Count: result.Remaining})

	return result, nil
}

// lookupAll resolves every entry by id with bounded concurrency. Results are
// indexed like entries. Cached answers are bypassed so renames show up
// immediately; Reconcile feeds the fresh answers back to any cache.
func (r *Registry) lookupAll(ctx context.Context, entries []model.FriendEntry) []lookup {
	fresh := resolver.Uncached(r.resolver)
	lookups := make([]lookup, len(entries))

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				lookups[i] = lookup{err: err}
				return nil
			}
			profile, err := fresh.ResolveByID(ctx, e.ID)
			lookups[i] = lookup{profile: profile, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return lookups
}

// healthProbe asks the resolver at most once per reconciliation pass
type healthProbe struct {
	resolver resolver.ProfileResolver
	probed   bool
	up       bool
}

func (h *healthProbe) healthy(ctx context.Context) bool {
	if !h.probed {
		h.up = h.resolver.IsHealthy(ctx)
		h.probed = true
	}
	return h.up
}
