package auth

import "errors"

var (
	// ErrInvalidTokenKind means the token is valid but of the wrong kind for
	// the attempted operation (e.g. a refresh token presented as an access
	// token).
	ErrInvalidTokenKind = errors.New("invalid token kind")

	// ErrSubjectNotFound means the token's subject is missing, soft-deleted
	// or not in active status.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrStaleToken means the presented refresh token is no longer the one
	// stored for the subject: a newer login has replaced it, or the slot has
	// expired.
	ErrStaleToken = errors.New("stale refresh token")
)
