package session

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrInvalidUnit is returned when a unit key is not one of the supported units.
	ErrInvalidUnit = errors.New("session: invalid unit")

	// ErrInvalidRegion is returned when a region key is not supported.
	ErrInvalidRegion = errors.New("session: invalid region")

	// ErrTooManySessions is returned by Create when MaxSessions is reached.
	ErrTooManySessions = errors.New("session: too many sessions")
)
