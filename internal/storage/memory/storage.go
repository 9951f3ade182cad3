package memory

import (
	"context"
	"sync"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	entries []model.FriendEntry
	saves   int

	// Injected failures for exercising error paths
	loadErr error
	saveErr error
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		entries: []model.FriendEntry{},
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) ([]model.FriendEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return model.CopyEntries(s.entries), nil
}

func (s *Storage) Save(ctx context.Context, entries []model.FriendEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries = model.CopyEntries(entries)
	s.saves++
	return nil
}

// Saves returns how many successful saves have happened
func (s *Storage) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Entries returns a copy of the stored list without going through Load
func (s *Storage) Entries() []model.FriendEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CopyEntries(s.entries)
}

// SetLoadError makes subsequent loads fail with err (nil clears it)
func (s *Storage) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// SetSaveError makes subsequent saves fail with err (nil clears it)
func (s *Storage) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}
