package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")

	// Tombstone errors
	ErrIdentifierTombstoned = errors.New("identifier has a deletion request on record")
	ErrTombstoneExists      = errors.New("deletion request already recorded")

	// Authorization errors
	ErrNotAdmin = errors.New("requester is not an administrator")

	// Replay errors
	ErrReplayNotFound = errors.New("replay not found")

	// Input errors
	ErrInvalidIdentifier = errors.New("malformed identifier")
)
