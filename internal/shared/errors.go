package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the principal lacks a capability.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput indicates a value outside the accepted set.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionExpired indicates the stored backend token is no longer valid.
	ErrSessionExpired = errors.New("session expired")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
