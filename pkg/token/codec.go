// Package token issues and verifies compact signed claim sets (JWT, HMAC-SHA256).
//
// The codec is deliberately schema-free: callers pass a claim map on issue and
// a field/type request on verify. Verification always checks the MAC (in
// constant time, via the underlying HMAC compare) and the exp claim; typed
// extraction is applied only to the fields the caller asks for, everything
// else in the payload is ignored.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// FieldType selects how a requested payload field is coerced on parse.
type FieldType int

const (
	// FieldInt64 accepts any integral payload number, widened to int64.
	FieldInt64 FieldType = iota
	// FieldString accepts a payload string as-is.
	FieldString
	// FieldUUID parses a payload string into a uuid.UUID.
	FieldUUID
	// FieldArray returns a payload array as []any without typing elements.
	FieldArray
)

// Codec signs and verifies tokens with a single server-held secret.
type Codec struct {
	secret []byte
}

// NewCodec returns a codec bound to the given signing secret.
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Issue serializes the claims into a signed token of the given type. Default
// claims iat=now and exp=now+ttl are merged in; caller-supplied values win.
func (c *Codec) Issue(typ string, claims map[string]any, ttl time.Duration) (string, error) {
	now := time.Now()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	if _, ok := mc["iat"]; !ok {
		mc["iat"] = now.Unix()
	}
	if _, ok := mc["exp"]; !ok {
		mc["exp"] = now.Add(ttl).Unix()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	if typ != "" {
		tok.Header["typ"] = typ
	}
	return tok.SignedString(c.secret)
}

// VerifyAndParse checks the token's MAC and expiry, then extracts the
// requested fields. It fails with ErrSignatureInvalid on any tampered or
// garbled token, ErrExpired on a stale exp, and ErrTypeMismatch when a
// requested field is absent or of the wrong shape. Unrequested payload
// fields are ignored.
func (c *Codec) VerifyAndParse(tokenStr string, fields map[string]FieldType) (map[string]any, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		// malformed, bad MAC, wrong alg: all collapse to signature-invalid
		return nil, ErrSignatureInvalid
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrSignatureInvalid
	}

	out := make(map[string]any, len(fields))
	for name, ft := range fields {
		raw, present := mc[name]
		if !present {
			return nil, fmt.Errorf("%w: missing claim %q", ErrTypeMismatch, name)
		}
		v, err := coerce(raw, ft)
		if err != nil {
			return nil, fmt.Errorf("%w: claim %q", ErrTypeMismatch, name)
		}
		out[name] = v
	}
	return out, nil
}

var errBadShape = errors.New("bad shape")

func coerce(raw any, ft FieldType) (any, error) {
	switch ft {
	case FieldInt64:
		switch n := raw.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, errBadShape
			}
			return int64(n), nil
		case json.Number:
			return n.Int64()
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		}
		return nil, errBadShape
	case FieldString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return nil, errBadShape
	case FieldUUID:
		s, ok := raw.(string)
		if !ok {
			return nil, errBadShape
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errBadShape
		}
		return id, nil
	case FieldArray:
		if arr, ok := raw.([]any); ok {
			return arr, nil
		}
		return nil, errBadShape
	}
	return nil, errBadShape
}
