package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrResolve   = "RESOLVE"
	ErrGeo       = "GEO"
	ErrProbe     = "PROBE"
	ErrTransport = "TRANSPORT"
	ErrServer    = "SERVER"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// It renders as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrProbe code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrProbe,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewConfigInvalid reports a configuration tree that holds neither targets nor groups.
func NewConfigInvalid(source string) *Error {
	msg := "No targets or groups configured"
	if source != "" {
		msg = fmt.Sprintf("No targets or groups configured in %s", source)
	}
	return &Error{
		Code:       ErrConfig,
		Message:    msg,
		Suggestion: "Add a 'servers' or 'groups' section to the config file",
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var lkErr *Error
	if errors.As(err, &lkErr) {
		return lkErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost structured Error in err's chain,
// or "" when there is none.
func CodeOf(err error) string {
	var lkErr *Error
	if errors.As(err, &lkErr) {
		return lkErr.Code
	}
	return ""
}
