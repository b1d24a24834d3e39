package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain error taxonomy. Validation errors are resolved locally and never
// reach the network; everything else crosses the port boundary as a typed
// failure so callers can branch on kind. The invitation errors are all
// user-recoverable.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrCurrencyMismatch = errors.New("expense currency does not match group currency")
	ErrInvalidToken     = errors.New("invalid invitation token")
	ErrExpiredToken     = errors.New("invitation token expired")
	ErrAlreadyConsumed  = errors.New("invitation token already consumed")
	ErrAlreadyMember    = errors.New("already a member of this group")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// TransportError wraps a network or unknown-outcome failure. Callers must
// not blindly retry a mutating call that failed this way; invitation
// acceptance in particular requires re-checking consumption state first.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Wire error codes. The single table below is shared by the server handlers
// and the HTTP client so the two sides cannot drift.
const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeCurrencyMismatch = "currency_mismatch"
	CodeInvalidToken     = "invalid_token"
	CodeExpiredToken     = "expired_token"
	CodeAlreadyConsumed  = "already_consumed"
	CodeAlreadyMember    = "already_member"
	CodeUnauthenticated  = "unauthenticated"
	CodeInternal         = "internal"
)

type wireError struct {
	sentinel error
	status   int
}

var wireErrors = map[string]wireError{
	CodeValidation:       {ErrValidation, http.StatusBadRequest},
	CodeNotFound:         {ErrNotFound, http.StatusNotFound},
	CodeCurrencyMismatch: {ErrCurrencyMismatch, http.StatusUnprocessableEntity},
	CodeInvalidToken:     {ErrInvalidToken, http.StatusUnprocessableEntity},
	CodeExpiredToken:     {ErrExpiredToken, http.StatusGone},
	CodeAlreadyConsumed:  {ErrAlreadyConsumed, http.StatusConflict},
	CodeAlreadyMember:    {ErrAlreadyMember, http.StatusConflict},
	CodeUnauthenticated:  {ErrNotAuthenticated, http.StatusUnauthorized},
}

// ErrorCode maps a domain error to its wire code. Unknown errors map to
// CodeInternal.
func ErrorCode(err error) string {
	for code, we := range wireErrors {
		if errors.Is(err, we.sentinel) {
			return code
		}
	}
	return CodeInternal
}

// ErrorStatus maps a domain error to its HTTP status.
func ErrorStatus(err error) int {
	if we, ok := wireErrors[ErrorCode(err)]; ok {
		return we.status
	}
	return http.StatusInternalServerError
}

// ErrorFromCode rebuilds the domain error for a wire code, wrapping the
// server-provided message so the sentinel survives errors.Is across the
// port boundary.
func ErrorFromCode(code, message string) error {
	we, ok := wireErrors[code]
	if !ok {
		return fmt.Errorf("remote error: %s", message)
	}
	if message == "" {
		return we.sentinel
	}
	return fmt.Errorf("%w: %s", we.sentinel, message)
}
