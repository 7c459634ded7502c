package token

import "errors"

// ErrSignatureInvalid is returned when a token is tampered, garbled, or not
// signed with the server secret.
var ErrSignatureInvalid = errors.New("token signature invalid")

// ErrExpired is returned when a token's exp claim is in the past.
var ErrExpired = errors.New("token expired")

// ErrTypeMismatch is returned when a requested payload field is missing or
// has an incompatible native type.
var ErrTypeMismatch = errors.New("claim type mismatch")
