package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConfiguration marks a weight structure that cannot be evaluated as declared.
	ErrConfiguration = errors.New("configuration error")
	// ErrConsistency marks derived state read before the state it depends on exists.
	ErrConsistency = errors.New("consistency error")
	// ErrPlanLocked is returned when a locked course plan's structure would be mutated.
	ErrPlanLocked = errors.New("course plan structure is locked")
)
