// Package common defines shared constants and error kinds used across the
// portfolio server. Specific errors wrap one of the kind sentinels, so callers
// can match either the exact error or its kind with errors.Is.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error kinds.
var (
	ErrorValidation   = errors.New("validation error")
	ErrorConflict     = errors.New("conflict")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorNotFound     = errors.New("not found")
	ErrorUpstream     = errors.New("upstream failure")
	ErrorInternal     = errors.New("internal error")

	// ErrorTimeout is an upstream failure caused by an elapsed deadline.
	ErrorTimeout = fmt.Errorf("%w: timeout", ErrorUpstream)
)

// Slug errors.
var (
	ErrEmptyTitle    = fmt.Errorf("%w: title yields an empty slug", ErrorValidation)
	ErrInvalidSlug   = fmt.Errorf("%w: malformed slug", ErrorValidation)
	ErrSlugConflict  = fmt.Errorf("%w: slug already in use", ErrorConflict)
	ErrSlugExhausted = fmt.Errorf("%w: slug suffixes exhausted", ErrorConflict)
)

// Token errors.
var (
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrorUnauthorized)
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrorUnauthorized)
	ErrSigning      = fmt.Errorf("%w: token signing failed", ErrorInternal)

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrorUnauthorized)

	// ErrTooManyAttempts is returned while login is locked for an identity.
	ErrTooManyAttempts = errors.New("too many attempts")
)

// Work request errors.
var (
	ErrInvalidEmail            = fmt.Errorf("%w: invalid email address", ErrorValidation)
	ErrEmptySubject            = fmt.Errorf("%w: subject is required", ErrorValidation)
	ErrEmptyReply              = fmt.Errorf("%w: reply body is required", ErrorValidation)
	ErrDuplicatePendingRequest = fmt.Errorf("%w: a pending request for this subject already exists", ErrorConflict)
	ErrAlreadyReplied          = fmt.Errorf("%w: request already replied", ErrorConflict)
)

// ErrUniqueViolation is returned by repositories when the store rejects a
// write on a unique index.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Credential rejection reasons reported by UnauthorizedError.
const (
	ReasonNoCredential      = "no credential"
	ReasonInvalidCredential = "invalid credential"
)

// UnauthorizedError is returned by the session gate. Reason tells a missing
// credential apart from a rejected one; Cause carries the token error, if any.
type UnauthorizedError struct {
	Reason string
	Cause  error
}

func (e *UnauthorizedError) Error() string {
	if e.Cause == nil {
		return "unauthorized: " + e.Reason
	}
	return fmt.Sprintf("unauthorized: %s: %v", e.Reason, e.Cause)
}

func (e *UnauthorizedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrorUnauthorized}
	}
	return []error{ErrorUnauthorized, e.Cause}
}

// PostNotifyPersistError reports that a reply notification was delivered but
// the status change could not be recorded.
type PostNotifyPersistError struct {
	RequestID string
	Cause     error
}

func (e *PostNotifyPersistError) Error() string {
	return fmt.Sprintf("reply for request %s was sent but not recorded: %v", e.RequestID, e.Cause)
}

func (e *PostNotifyPersistError) Unwrap() []error {
	return []error{ErrorUpstream, e.Cause}
}

// Upstream classifies a store or notifier failure. Elapsed deadlines become
// ErrorTimeout; everything else becomes ErrorUpstream. Errors that already
// carry a kind are returned unchanged apart from the op prefix.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrorTimeout, err)
	case hasKind(err):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrorUpstream, err)
	}
}

func hasKind(err error) bool {
	for _, k := range []error{ErrorValidation, ErrorConflict, ErrorUnauthorized, ErrorNotFound, ErrorUpstream, ErrorInternal} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lowercases an address for equality lookups.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
