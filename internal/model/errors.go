package model

import "errors"

// Common errors used across the application
var (
	// Resolver errors
	ErrNotFound    = errors.New("profile not found")
	ErrUnavailable = errors.New("profile service unavailable")

	// Registry errors
	ErrAlreadyPresent = errors.New("friend is already on the list")
	ErrFriendNotFound = errors.New("friend is not on the list")

	// Storage errors
	ErrCorrupt = errors.New("persisted friend list is corrupt")

	// Input errors
	ErrInvalidProfileID = errors.New("invalid profile id")
)
