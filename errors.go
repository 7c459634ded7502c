package main

import "errors"

// Session/credential error taxonomy. Everything here collapses to a 401 at
// the HTTP boundary; binding and validation problems surface as 400 instead.
var (
	// ErrMemberNotFound is returned when no credential matches the lookup key.
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidPassword is returned when the password digest does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrNoSuchElement is returned when a refresh-token id is unknown or the
	// row is already past its expiry.
	ErrNoSuchElement = errors.New("no such refresh token")
	// ErrTokenOwnerMismatch is returned when a token is valid but belongs to
	// a different user than the caller asserted.
	ErrTokenOwnerMismatch = errors.New("token owner mismatch")
)
