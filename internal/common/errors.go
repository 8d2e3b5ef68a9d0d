// Package common defines shared constants and sentinel errors used across
// the petition service layers. Callers should use errors.Is to match these
// values; services wrap them with a human readable reason via fmt.Errorf("%w: ...").
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level error kinds. Each maps to exactly one HTTP status at the
	// boundary.
	ErrValidation   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
