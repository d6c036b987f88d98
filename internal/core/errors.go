package core

import "errors"

// Error taxonomy shared by all services. Handlers map these to HTTP statuses
// in one place; services wrap them with context via %w.
var (
	// ErrValidation marks a missing or invalid required field.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks an actor lacking the required role or ownership
	// relationship (a non-head inviting, a non-owner deactivating a code).
	ErrUnauthorized = errors.New("not authorized")
	// ErrConflict marks a duplicate active invite, an already-used token, or
	// a state transition that has already happened.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing household/estate/invite/device/token.
	ErrNotFound = errors.New("not found")
	// ErrExpired marks an invite, code, or token past its expiry.
	ErrExpired = errors.New("expired")
	// ErrRateLimited marks an exceeded device-approval email quota.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrEstateLocked marks an approval attempt against a locked estate.
	ErrEstateLocked = errors.New("estate is currently locked")
)
