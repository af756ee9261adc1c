package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeValidation         = "validation"
	ErrCodePersistence        = "persistence"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotInRoom          = "not_in_room"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeUnsupportedVersion = "unsupported_version"
)

var ErrSelfTarget = errors.New("cannot target yourself")

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

// AuthError rejects a connection during the handshake. A connection that gets
// one never becomes active.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "authentication error: " + e.Reason + ": " + e.Err.Error()
	}
	return "authentication error: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
