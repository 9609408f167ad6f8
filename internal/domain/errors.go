package domain

import (
	"errors"
	"fmt"
	"time"
)

// Standard domain errors - these are sentinel error values that can be compared directly
var (
	// ErrUserNotFound indicates that the requested chat has no stored profile
	ErrUserNotFound = errors.New("user not found in storage")

	// ErrCityNotFound indicates the geocoder could not resolve the city name
	ErrCityNotFound = errors.New("city not found")

	// ErrStorageUnavailable indicates a temporary issue with accessing storage
	ErrStorageUnavailable = errors.New("storage is temporarily unavailable, try later")

	// ErrWeatherUnavailable indicates the weather provider could not be reached
	ErrWeatherUnavailable = errors.New("weather service is temporarily unavailable")
)

// StorageError provides additional context for persistence failures
type StorageError struct {
	OrigErr error  // Original error from the storage layer
	Op      string // Operation being performed
	Path    string // File or connection the operation targeted
	Message string // Human-readable message
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.OrigErr != nil {
		return fmt.Sprintf("%s: %s (path: %s, op: %s)", e.Message, e.OrigErr.Error(), e.Path, e.Op)
	}
	return fmt.Sprintf("%s (path: %s, op: %s)", e.Message, e.Path, e.Op)
}

// Unwrap returns the original error for compatibility with errors.Is/As
func (e *StorageError) Unwrap() error {
	return e.OrigErr
}

// NewStorageError creates a new storage error
func NewStorageError(origErr error, path, op, msg string) *StorageError {
	return &StorageError{
		OrigErr: origErr,
		Path:    path,
		Op:      op,
		Message: msg,
	}
}

// QuotaExceededError signals that the daily external API budget is spent.
// ResetAt is when the oldest consumed unit ages out of the 24h window.
type QuotaExceededError struct {
	ResetAt time.Time
}

// Error implements the error interface
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("weather API quota exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// ValidationError represents errors related to input validation
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was invalid (may be omitted for privacy)
	Message string // Human-readable error message
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation failed for %s: %s (value: %s)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value ...string) *ValidationError {
	e := &ValidationError{
		Field:   field,
		Message: message,
	}
	if len(value) > 0 {
		e.Value = value[0]
	}
	return e
}

// IsNotFound returns true if the error indicates a not-found condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrCityNotFound)
}

// IsUnavailable returns true if the error indicates storage is unavailable
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsQuotaExceeded returns true if the error is a quota exhaustion signal
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// IsValidationError returns true if the error is a validation error
func IsValidationError(err error) bool {
	var validErr *ValidationError
	return errors.As(err, &validErr)
}

// IsStorageError returns true if the error is a storage error
func IsStorageError(err error) bool {
	var storErr *StorageError
	return errors.As(err, &storErr)
}
