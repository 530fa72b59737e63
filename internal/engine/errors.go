package engine

import "errors"

// Sentinel errors returned by engine operations. Callers match with errors.Is.
var (
	// ErrNotFound reports an unknown child, task, category or shop item id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition reports a status change not allowed from the
	// task's current state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyClaimed reports a lost fastest-wins race: another child
	// already completed this task instance.
	ErrAlreadyClaimed = errors.New("task already claimed")

	// ErrInactive reports an attempt to buy a deactivated shop item.
	ErrInactive = errors.New("shop item inactive")

	// ErrInsufficientPoints reports a purchase the child cannot afford.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrValidation reports malformed input, such as an empty title or a
	// negative price.
	ErrValidation = errors.New("validation failed")
)
