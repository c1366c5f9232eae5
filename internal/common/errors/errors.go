package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode identifies a failure class; the HTTP layer maps codes to statuses.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	ErrCodeUserNotFound ErrorCode = "USER_NOT_FOUND"

	// Reward ledger failures. These are all "request was understood but the
	// record's state forbids it" cases and surface as 400s.
	ErrCodeAlreadyClaimed    ErrorCode = "ALREADY_CLAIMED"
	ErrCodeAlreadyLinked     ErrorCode = "ALREADY_LINKED"
	ErrCodeAlreadyInProgress ErrorCode = "ALREADY_IN_PROGRESS"
	ErrCodeCycleNotComplete  ErrorCode = "CYCLE_NOT_COMPLETE"

	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// AppError is a typed application error carried from the ledger to the HTTP layer.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match two AppErrors by code.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// WithDetail attaches a key/value pair for logs and API responses.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new application error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a cause to a new application error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// NewUserNotFoundError reports an unknown identity.
func NewUserNotFoundError(telegramID string) *AppError {
	return New(ErrCodeUserNotFound, "User not found").WithDetail("telegram_id", telegramID)
}

// NewValidationError reports a rejected input field.
func NewValidationError(field, reason string) *AppError {
	return Newf(ErrCodeValidation, "Validation failed for field '%s': %s", field, reason).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewStorageError wraps a record-store failure.
func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("Storage operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError casts err to an AppError if it is one (directly or wrapped).
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
