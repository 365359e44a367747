// Package types provides shared types and error sentinels for the orchestration engine.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ===========================================================================
// Processor Errors
// ===========================================================================

// ErrUnknownCommandType is returned when no handler is registered for a command type.
var ErrUnknownCommandType = errors.New("unknown command type")

// ErrProcessorNotRunning is returned when submitting to a stopped processor.
var ErrProcessorNotRunning = errors.New("processor is not running")

// ErrDuplicateCommand is returned when a duplicate command is detected within the TTL window.
var ErrDuplicateCommand = fmt.Errorf("duplicate command detected within TTL window")

// ===========================================================================
// Saga Errors
// ===========================================================================

// ErrRecordNotFound is returned when a correlation key has no stored record.
var ErrRecordNotFound = errors.New("correlation record not found")

// ErrStatusRegression is returned when a bridge operation would move backwards.
var ErrStatusRegression = errors.New("bridge status cannot move backwards")

// ErrWrongCommandType is returned when a handler receives a command it does not own.
var ErrWrongCommandType = errors.New("handler received unexpected command type")

// ===========================================================================
// Validation Errors
// ===========================================================================

// ValidationError reports a malformed field on an incoming command. It is
// returned synchronously and no saga state is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ===========================================================================
// Requester
// ===========================================================================

// Requester identifies who asked for an operation and where replies go.
type Requester struct {
	UserID    string `json:"userId" validate:"required,excludesall=-"`
	ChannelID string `json:"channelId" validate:"required,excludesall=-"`
}

// Validate checks that both ids can be embedded in a correlation key.
func (r Requester) Validate() error {
	if r.UserID == "" || strings.Contains(r.UserID, "-") {
		return Invalid("userId", "must be non-empty and contain no hyphen")
	}
	if r.ChannelID == "" || strings.Contains(r.ChannelID, "-") {
		return Invalid("channelId", "must be non-empty and contain no hyphen")
	}
	return nil
}
