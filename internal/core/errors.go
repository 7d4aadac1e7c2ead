package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeUnknownIdentity = "unknown_identity"
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeNotFound        = "not_found"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeInternal        = "internal"
)

// ErrIdentityNotFound is returned by an IdentityVerifier for unknown user ids.
var ErrIdentityNotFound = errors.New("identity not found")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

var (
	errUnknownIdentity = coreError(ErrCodeUnknownIdentity, "Invalid user. Please log in again.")
	errUnauthenticated = coreError(ErrCodeUnauthenticated, "Not authenticated. Please join a room again.")
	errRoomNotFound    = coreError(ErrCodeNotFound, "Room not found.")
	errEmptyMessage    = coreError(ErrCodeBadRequest, "Message content is required.")
	errInternal        = coreError(ErrCodeInternal, "Internal error.")
)

// HasCode reports whether err is a CoreError with the given code.
func HasCode(err error, code string) bool {
	var ce *CoreError
	return errors.As(err, &ce) && ce.Code == code
}
