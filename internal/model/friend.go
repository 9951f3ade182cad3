package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FriendEntry is one tracked player. ID is the identity; Name is the last
// known username and changes when the player renames.
type FriendEntry struct {
	Name string
	ID   uuid.UUID
}

// String returns "name (compact id)"
func (e FriendEntry) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, CompactID(e.ID))
}

// NameEquals reports whether the entry's name matches name, ignoring case
func (e FriendEntry) NameEquals(name string) bool {
	return strings.EqualFold(e.Name, name)
}

// friendEntryJSON is the wire shape shared by the friends file and the
// profile service responses
type friendEntryJSON struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// MarshalJSON encodes the id in compact form
func (e FriendEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(friendEntryJSON{
		Name: e.Name,
		ID:   CompactID(e.ID),
	})
}

// UnmarshalJSON accepts the id with or without hyphens
func (e *FriendEntry) UnmarshalJSON(data []byte) error {
	var raw friendEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := ParseProfileID(raw.ID)
	if err != nil {
		return err
	}

	e.Name = raw.Name
	e.ID = id
	return nil
}

// CopyEntries returns a copy of entries that never aliases the input
func CopyEntries(entries []FriendEntry) []FriendEntry {
	out := make([]FriendEntry, len(entries))
	copy(out, entries)
	return out
}
