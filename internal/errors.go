package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/account-hub/internal/core/messages"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeMissingFields        ErrorCode = "MISSING_FIELDS"
	ErrCodeInvalidAuthorization ErrorCode = "INVALID_AUTHORIZATION"
	ErrCodeInvalidClient        ErrorCode = "INVALID_CLIENT"
	ErrCodeUnauthenticated      ErrorCode = "UNAUTHENTICATED"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeConcurrentUpdate     ErrorCode = "CONCURRENT_UPDATE"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// AppError is the error shape handlers turn into a response envelope. The
// MessageID selects the catalog entry, which also decides the HTTP status.
type AppError struct {
	Type      ErrorType
	Code      ErrorCode
	MessageID messages.ID
	Details   []ValidationError
	Cause     error
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	msg := messages.Text(e.MessageID)
	if len(e.Details) > 0 {
		parts := make([]string, len(e.Details))
		for i, d := range e.Details {
			parts[i] = d.Message
		}
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(parts, "; "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any *AppError carrying the same code, so copies made by
// WithCause still satisfy errors.Is against the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) StatusCode() int {
	return messages.Code(e.MessageID)
}

func (e *AppError) Message() string {
	return messages.Text(e.MessageID)
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details ...ValidationError) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Code    int               `json:"code"`
		Details []ValidationError `json:"details,omitempty"`
	}{
		Status:  "error",
		Message: e.Message(),
		Code:    e.StatusCode(),
		Details: e.Details,
	})
}

func NewValidationError(details ...ValidationError) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      ErrCodeMissingFields,
		MessageID: messages.MissingFields,
		Details:   details,
	}
}

func NewInternalError(cause error) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      ErrCodeInternal,
		MessageID: messages.SomethingWentWrong,
		Cause:     cause,
	}
}

var (
	ErrMissingFields        = NewValidationError()
	ErrInvalidAuthorization = &AppError{
		Type:      ErrorTypeUnauthorized,
		Code:      ErrCodeInvalidAuthorization,
		MessageID: messages.InvalidAuthorization,
	}
	ErrInvalidClient = &AppError{
		Type:      ErrorTypeUnauthorized,
		Code:      ErrCodeInvalidClient,
		MessageID: messages.InvalidClient,
	}
	ErrUnauthenticated = &AppError{
		Type:      ErrorTypeUnauthorized,
		Code:      ErrCodeUnauthenticated,
		MessageID: messages.Unauthenticated,
	}
	ErrUserNotFound = &AppError{
		Type:      ErrorTypeNotFound,
		Code:      ErrCodeUserNotFound,
		MessageID: messages.UserNotFound,
	}
	ErrConcurrentUpdate = &AppError{
		Type:      ErrorTypeConflict,
		Code:      ErrCodeConcurrentUpdate,
		MessageID: messages.ConcurrentUpdate,
	}
)

// IsAppError reports whether err wraps an *AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// AsAppError converts any error into an *AppError, treating unknown errors as
// internal failures.
func AsAppError(err error) *AppError {
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}
	return NewInternalError(err)
}
