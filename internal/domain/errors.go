package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotInitialized is returned when Settings or Budget are required but absent
var ErrNotInitialized = errors.New("settings not initialized")

// RepositoryErrorKind classifies persistence failures
type RepositoryErrorKind string

const (
	RepositoryErrorConnection     RepositoryErrorKind = "connection"
	RepositoryErrorTimeout        RepositoryErrorKind = "timeout"
	RepositoryErrorAuthentication RepositoryErrorKind = "authentication"
	RepositoryErrorQuery          RepositoryErrorKind = "query"
	RepositoryErrorConstraint     RepositoryErrorKind = "constraint"
	RepositoryErrorUnknown        RepositoryErrorKind = "unknown"
)

// RepositoryError wraps any failure coming out of a Repository implementation
type RepositoryError struct {
	Err  error
	Kind RepositoryErrorKind
	Op   string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError builds a RepositoryError with an explicit kind
func NewRepositoryError(op string, kind RepositoryErrorKind, err error) *RepositoryError {
	return &RepositoryError{Op: op, Kind: kind, Err: err}
}

// KindClassifier lets drivers expose a precise kind for their own error types
type KindClassifier func(err error) (RepositoryErrorKind, bool)

// ClassifyError wraps err as a RepositoryError. Already-classified errors and
// ErrNotInitialized pass through unchanged. Driver-specific classifiers are
// consulted first, then context errors, then message heuristics.
func ClassifyError(op string, err error, classifiers ...KindClassifier) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) || errors.Is(err, ErrNotInitialized) {
		return err
	}

	for _, classify := range classifiers {
		if kind, ok := classify(err); ok {
			return NewRepositoryError(op, kind, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewRepositoryError(op, RepositoryErrorTimeout, err)
	}

	return NewRepositoryError(op, kindFromMessage(err.Error()), err)
}

func kindFromMessage(msg string) RepositoryErrorKind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "busy"):
		return RepositoryErrorTimeout
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "permission") || strings.Contains(msg, "auth"):
		return RepositoryErrorAuthentication
	case strings.Contains(msg, "constraint") || strings.Contains(msg, "unique") || strings.Contains(msg, "foreign key"):
		return RepositoryErrorConstraint
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") ||
		strings.Contains(msg, "unable to open") || strings.Contains(msg, "database is closed"):
		return RepositoryErrorConnection
	case strings.Contains(msg, "syntax") || strings.Contains(msg, "no such") || strings.Contains(msg, "sql"):
		return RepositoryErrorQuery
	default:
		return RepositoryErrorUnknown
	}
}

// ValidationError reports malformed input caught at the HTTP boundary
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

// Validation error codes
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidFormation = "INVALID_FORMATION"
)

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a generic validation error for a field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: CodeValidation}
}
