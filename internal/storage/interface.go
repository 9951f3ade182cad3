package storage

import (
	"context"

	"github.com/mcoot/friendapi/internal/model"
)

// Storage persists the whole friend list.
// Load returns an error wrapping model.ErrCorrupt when the stored bytes cannot
// be decoded; a missing list loads as empty. Save replaces the stored list.
type Storage interface {
	Load(ctx context.Context) ([]model.FriendEntry, error)
	Save(ctx context.Context, entries []model.FriendEntry) error
}
