// internal/services/errors.go
package services

import "errors"

// Error categories surfaced to the handler layer. Services wrap these with
// fmt.Errorf("%w: ...") so handlers can classify with errors.Is while the
// detail message stays human-readable.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")
)
