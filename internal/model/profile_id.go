package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// compactIDLength is the length of a UUID rendered without hyphens
const compactIDLength = 32

// hyphenOffsets are the positions (in the compact form) before which a
// hyphen is inserted to rebuild the canonical 8-4-4-4-12 layout
var hyphenOffsets = [...]int{8, 12, 16, 20}

// CompactID renders id as 32 lowercase hex characters without hyphens,
// the form used by the profile service and the friends file
func CompactID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// ParseProfileID parses a profile id in compact or hyphenated form.
// Any hyphens present are discarded and re-inserted at the canonical offsets,
// so misplaced hyphens are tolerated the same way missing ones are.
func ParseProfileID(s string) (uuid.UUID, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if len(compact) != compactIDLength {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidProfileID, s)
	}

	var b strings.Builder
	b.Grow(compactIDLength + len(hyphenOffsets))
	prev := 0
	for _, off := range hyphenOffsets {
		b.WriteString(compact[prev:off])
		b.WriteByte('-')
		prev = off
	}
	b.WriteString(compact[prev:])

	id, err := uuid.Parse(b.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidProfileID, s)
	}
	return id, nil
}

