package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeNameTaken    = "name_taken"
	ErrCodeNotJoined    = "not_joined"
)

var (
	ErrInvalidInput = errors.New("username and room are required")
	ErrNameTaken    = errors.New("username is in use")
	ErrNotJoined    = errors.New("not joined to a room")
)

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
