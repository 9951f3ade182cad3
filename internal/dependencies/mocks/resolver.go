package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/resolver"
)

// MockResolver is an in-memory profile service for testing.
// Profiles are keyed by id; name lookups are case-insensitive.
type MockResolver struct {
	mu sync.Mutex

	profiles map[uuid.UUID]model.FriendEntry
	// idErrors forces ResolveByID for a specific id to fail
	idErrors map[uuid.UUID]error

	unavailable bool
	healthy     bool

	// block, when set, is received from before every lookup returns
	block chan struct{}

	nameCalls   int
	idCalls     int
	healthCalls int
}

// Ensure MockResolver implements ProfileResolver
var _ resolver.ProfileResolver = (*MockResolver)(nil)

// NewMockResolver creates a healthy resolver that knows the given profiles
func NewMockResolver(profiles ...model.FriendEntry) *MockResolver {
	r := &MockResolver{
		profiles: make(map[uuid.UUID]model.FriendEntry),
		idErrors: make(map[uuid.UUID]error),
		healthy:  true,
	}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

// ResolveByName returns the profile whose name matches, ignoring case
func (r *MockResolver) ResolveByName(ctx context.Context, name string) (model.FriendEntry, error) {
	r.wait(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nameCalls++

	if r.unavailable {
		return model.FriendEntry{}, fmt.Errorf("%w: mock outage", model.ErrUnavailable)
	}
	for _, p := range r.profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return model.FriendEntry{}, model.ErrNotFound
}

// ResolveByID returns the profile with the given id
func (r *MockResolver) ResolveByID(ctx context.Context, id uuid.UUID) (model.FriendEntry, error) {
	r.wait(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.idCalls++

	if err, ok := r.idErrors[id]; ok {
		return model.FriendEntry{}, err
	}
	if r.unavailable {
		return model.FriendEntry{}, fmt.Errorf("%w: mock outage", model.ErrUnavailable)
	}
	p, ok := r.profiles[id]
	if !ok {
		return model.FriendEntry{}, model.ErrNotFound
	}
	return p, nil
}

// IsHealthy returns the configured health flag
func (r *MockResolver) IsHealthy(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthCalls++
	return r.healthy
}

// AddProfile registers or replaces a profile
func (r *MockResolver) AddProfile(p model.FriendEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
}

// RemoveProfile deletes a profile so lookups report not found
func (r *MockResolver) RemoveProfile(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
}

// Rename changes the current name of a known profile
func (r *MockResolver) Rename(id uuid.UUID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		p.Name = name
		r.profiles[id] = p
	}
}

// FailID makes ResolveByID for id return err until cleared with a nil err
func (r *MockResolver) FailID(id uuid.UUID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.idErrors, id)
		return
	}
	r.idErrors[id] = err
}

// SetUnavailable makes every lookup fail with ErrUnavailable
func (r *MockResolver) SetUnavailable(unavailable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = unavailable
}

// SetHealthy sets the value IsHealthy returns
func (r *MockResolver) SetHealthy(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthy = healthy
}

// Block makes lookups wait until the returned release func is called
func (r *MockResolver) Block() (release func()) {
	ch := make(chan struct{})
	r.mu.Lock()
	r.block = ch
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.block = nil
			r.mu.Unlock()
			close(ch)
		})
	}
}

// NameCalls returns how many name lookups were made
func (r *MockResolver) NameCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nameCalls
}

// IDCalls returns how many id lookups were made
func (r *MockResolver) IDCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idCalls
}

// HealthCalls returns how many health probes were made
func (r *MockResolver) HealthCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.healthCalls
}

func (r *MockResolver) wait(ctx context.Context) {
	r.mu.Lock()
	ch := r.block
	r.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-ctx.Done():
	}
}
