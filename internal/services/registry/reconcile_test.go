package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/resolver/cache"
	"github.com/mcoot/friendapi/internal/testutil"
)

func (s *RegistrySuite) TestReconcileRenamesInPlace() {
	s.seed(model.FriendEntry{Name: "Alice", ID: aliceID})
	s.resolver.Rename(aliceID, "AliceNew")

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal([]model.FriendEntry{{Name: "AliceNew", ID: aliceID}}, s.registry.Snapshot())
	s.Equal([]model.FriendEntry{{Name: "AliceNew", ID: aliceID}}, s.storage.Entries())
	s.Equal(1, result.Renamed)
	s.Equal(1, result.Remaining)
}

func (s *RegistrySuite) TestReconcileRenameKeepsOrder() {
	s.seed(alice, bob, carol)
	s.resolver.Rename(bobID, "Robert")

	_, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal([]model.FriendEntry{
		alice,
		{Name: "Robert", ID: bobID},
		carol,
	}, s.registry.Snapshot())
}

func (s *RegistrySuite) TestReconcileAllUnavailableLeavesListUnchanged() {
	s.seed(alice, bob, carol)
	s.resolver.SetUnavailable(true)

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal([]model.FriendEntry{alice, bob, carol}, s.registry.Snapshot())
	s.Equal(3, result.Unresolved)
	s.Equal(0, result.Removed)
	s.Equal(0, s.resolver.HealthCalls(), "outages never trigger a health probe")
}

func (s *RegistrySuite) TestReconcileRemovesExactlyTheMissingProfile() {
	s.seed(alice, bob, carol)
	s.resolver.RemoveProfile(bobID)

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal([]model.FriendEntry{alice, carol}, s.registry.Snapshot())
	s.Equal([]model.FriendEntry{alice, carol}, s.storage.Entries())
	s.Equal(1, result.Removed)
	s.False(result.ServiceDown)
}

func (s *RegistrySuite) TestReconcileKeepsMissingProfilesWhenServiceUnhealthy() {
	s.seed(alice, bob, carol)
	s.resolver.RemoveProfile(aliceID)
	s.resolver.RemoveProfile(carolID)
	s.resolver.SetHealthy(false)

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal([]model.FriendEntry{alice, bob, carol}, s.registry.Snapshot())
	s.Equal(2, result.Unresolved)
	s.True(result.ServiceDown)
	s.Equal(1, s.resolver.HealthCalls(), "health is probed once per pass")
}

func (s *RegistrySuite) TestReconcileMixedOutcomes() {
	dave := model.FriendEntry{Name: "Dave", ID: uuid.MustParse("44444444-5555-6666-7777-888888888888")}
	s.resolver.AddProfile(dave)
	s.seed(alice, bob, carol, dave)

	s.resolver.RemoveProfile(aliceID)
	s.resolver.FailID(bobID, fmt.Errorf("%w: timeout", model.ErrUnavailable))
	s.resolver.Rename(carolID, "Caroline")

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal([]model.FriendEntry{
		bob,
		{Name: "Caroline", ID: carolID},
		dave,
	}, s.registry.Snapshot())
	s.Equal(model.ReconcileResult{
		Checked:    4,
		Renamed:    1,
		Removed:    1,
		Unresolved: 1,
		Remaining:  3,
	}, result)
}

func (s *RegistrySuite) TestReconcileAlwaysPersists() {
	s.seed(alice)
	saves := s.storage.Saves()

	_, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal(saves+1, s.storage.Saves())
	s.Equal([]model.Change{{Kind: model.ChangeReconciled, Count: 1}}, s.changes)
}

func (s *RegistrySuite) TestReconcileEmptyList() {
	s.Require().NoError(s.registry.Load(s.ctx))

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.ReconcileResult{}, result)
	s.Equal(1, s.storage.Saves())
}

func (s *RegistrySuite) TestReconcileRecordsStatus() {
	s.seed(alice, bob)
	s.clock.Advance(time.Hour)
	s.resolver.RemoveProfile(bobID)

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	status := s.registry.Status()
	s.Equal(1, status.Count)
	s.Equal(s.clock.Now(), status.LastReconcileAt)
	s.Require().NotNil(status.LastReconcile)
	s.Equal(result, *status.LastReconcile)
}

func (s *RegistrySuite) TestReconcileSaveFailureLeavesListUnchanged() {
	s.seed(alice)
	s.resolver.Rename(aliceID, "AliceNew")
	boom := errors.New("nope")
	s.storage.SetSaveError(boom)

	_, err := s.registry.Reconcile(s.ctx)
	s.ErrorIs(err, boom)
	s.Equal([]model.FriendEntry{alice}, s.registry.Snapshot())
	s.Nil(s.registry.Status().LastReconcile)
}

func (s *RegistrySuite) TestReconcileCancelled() {
	s.seed(alice, bob)
	saves := s.storage.Saves()

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.registry.Reconcile(ctx)
	s.ErrorIs(err, context.Canceled)
	s.Equal(saves, s.storage.Saves())
	s.Equal([]model.FriendEntry{alice, bob}, s.registry.Snapshot())
}

func (s *RegistrySuite) TestReconcileBypassesResolverCache() {
	cached := cache.New(s.resolver, time.Hour, testutil.NopLogger())
	s.registry = New(s.storage, cached, s.clock, testutil.NopLogger(), WithParallelism(1))

	_, err := s.registry.AddByName(s.ctx, "Alice")
	s.Require().NoError(err)
	s.resolver.Rename(aliceID, "AliceNew")

	// The cache still believes the old name
	stale, err := cached.ResolveByID(s.ctx, aliceID)
	s.Require().NoError(err)
	s.Equal("Alice", stale.Name)

	_, err = s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	entry, ok := s.registry.FindByID(aliceID)
	s.True(ok)
	s.Equal("AliceNew", entry.Name)
}

func (s *RegistrySuite) TestReconcileRefreshesResolverCache() {
	cached := cache.New(s.resolver, time.Hour, testutil.NopLogger())
	s.registry = New(s.storage, cached, s.clock, testutil.NopLogger(), WithParallelism(1))

	_, err := s.registry.AddByID(s.ctx, aliceID)
	s.Require().NoError(err)
	s.resolver.Rename(aliceID, "AliceNew")

	_, err = s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	removed, err := s.registry.RemoveByID(s.ctx, aliceID)
	s.Require().NoError(err)
	s.Require().True(removed)

	// Re-adding goes through the cache, which must hold the reconciled name
	result, err := s.registry.AddByID(s.ctx, aliceID)
	s.Require().NoError(err)
	s.Equal(model.AddAdded, result.Outcome)
	s.Equal("AliceNew", result.Entry.Name)
	s.True(s.registry.ContainsName("AliceNew"))

	// The old name no longer resolves from the cache
	_, err = cached.ResolveByName(s.ctx, "Alice")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *RegistrySuite) TestReconcileForgetsMissingProfilesInCache() {
	cached := cache.New(s.resolver, time.Hour, testutil.NopLogger())
	s.registry = New(s.storage, cached, s.clock, testutil.NopLogger(), WithParallelism(1))

	_, err := s.registry.AddByID(s.ctx, bobID)
	s.Require().NoError(err)
	s.resolver.RemoveProfile(bobID)

	_, err = s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.False(s.registry.ContainsID(bobID))

	result, err := s.registry.AddByID(s.ctx, bobID)
	s.Require().NoError(err)
	s.Equal(model.AddNotFound, result.Outcome)
}

func (s *RegistrySuite) TestReconcileManyEntriesWithLimitedParallelism() {
	s.registry = New(s.storage, s.resolver, s.clock, testutil.NopLogger(), WithParallelism(2))

	var entries []model.FriendEntry
	for i := range 20 {
		e := model.FriendEntry{Name: fmt.Sprintf("player%d", i), ID: uuid.New()}
		s.resolver.AddProfile(e)
		entries = append(entries, e)
	}
	s.seed(entries...)
	s.resolver.RemoveProfile(entries[7].ID)

	result, err := s.registry.Reconcile(s.ctx)
	s.Require().NoError(err)

	s.Equal(20, result.Checked)
	s.Equal(19, result.Remaining)
	s.False(s.registry.ContainsID(entries[7].ID))
	s.Equal(entries[8], s.registry.Snapshot()[7])
}
