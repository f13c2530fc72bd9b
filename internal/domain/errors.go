package domain

import (
	"errors"
	"net/http"
)

// Common domain errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStreamer is returned when an event references an untracked streamer
	ErrUnknownStreamer = errors.New("unknown streamer")

	// ErrNoOfflineAnnouncement is returned by an offline resolver that has nothing to announce
	ErrNoOfflineAnnouncement = errors.New("no offline announcement to produce")

	// ErrPlatformUnavailable is returned when a platform API is unavailable
	ErrPlatformUnavailable = errors.New("platform temporarily unavailable")
)

// UserFriendlyError wraps an error with a user-friendly message
type UserFriendlyError struct {
	Err            error
	UserMessage    string
	HTTPStatusCode int
}

// Error implements the error interface
func (e *UserFriendlyError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error
func (e *UserFriendlyError) Unwrap() error {
	return e.Err
}

// NewUserFriendlyError creates a new user-friendly error
func NewUserFriendlyError(err error, userMessage string, statusCode int) *UserFriendlyError {
	return &UserFriendlyError{
		Err:            err,
		UserMessage:    userMessage,
		HTTPStatusCode: statusCode,
	}
}

// NewValidationError reports a malformed announcement or event as a 400
func NewValidationError(msg string) *UserFriendlyError {
	return NewUserFriendlyError(ErrInvalidInput, msg, http.StatusBadRequest)
}

// StatusCode maps an error from the announcement pipeline to an HTTP status
func StatusCode(err error) int {
	var ufe *UserFriendlyError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ufe):
		return ufe.HTTPStatusCode
	case errors.Is(err, ErrUnknownStreamer):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
