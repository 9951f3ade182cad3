package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcoot/friendapi/internal/model"
)

// Encode serializes entries as a JSON array of {"name", "id"} objects with
// compact ids
func Encode(entries []model.FriendEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.FriendEntry{}
	}
	return json.Marshal(entries)
}

// Decode parses the output of Encode. Hyphenated ids are accepted.
// Empty input decodes to an empty list; anything else that is not a valid
// list is reported as model.ErrCorrupt.
func Decode(data []byte) ([]model.FriendEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.FriendEntry{}, nil
	}

	var entries []model.FriendEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCorrupt, err)
	}
	if entries == nil {
		entries = []model.FriendEntry{}
	}
	return entries, nil
}
