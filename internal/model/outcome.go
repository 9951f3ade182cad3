package model

// AddOutcome is the result of adding a friend
type AddOutcome string

const (
	AddAdded          AddOutcome = "added"
	AddAlreadyPresent AddOutcome = "already_present"
	AddNotFound       AddOutcome = "not_found"
)

// AddResult describes what an add operation did.
// Entry is the added entry (Added), the existing entry (AlreadyPresent) or
// zero (NotFound). Cause is nil for Added, ErrAlreadyPresent for
// AlreadyPresent, and wraps ErrNotFound or ErrUnavailable for NotFound so
// callers can tell a missing player from an outage.
type AddResult struct {
	Outcome AddOutcome
	Entry   FriendEntry
	Cause   error
}

// ChangeKind names the mutation that produced a Change
type ChangeKind string

const (
	ChangeAdded      ChangeKind = "added"
	ChangeRemoved    ChangeKind = "removed"
	ChangeCleared    ChangeKind = "cleared"
	ChangeReconciled ChangeKind = "reconciled"
	ChangeReloaded   ChangeKind = "reloaded"
)

// Change is emitted after the friend list has been persisted
type Change struct {
	Kind  ChangeKind
	Count int // entries on the list after the change
}

// ReconcileResult summarises one reconciliation pass
type ReconcileResult struct {
	Checked     int // entries looked up
	Renamed     int // entries whose stored name was refreshed
	Removed     int // entries dropped because the profile no longer exists
	Unresolved  int // entries kept because the lookup could not complete
	Duplicates  int // duplicate ids collapsed after the pass
	Remaining   int // entries on the list afterwards
	ServiceDown bool
}
