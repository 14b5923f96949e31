package lexicon

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of knowledge-store failure.
type ErrorCode string

const (
	CodeSourceUnavailable     ErrorCode = "SOURCE_UNAVAILABLE"
	CodeSourceMalformed       ErrorCode = "SOURCE_MALFORMED"
	CodePersistFailed         ErrorCode = "PERSIST_FAILED"
	CodeMissingRequiredSource ErrorCode = "MISSING_REQUIRED_SOURCE"
	CodeInvalidCategory       ErrorCode = "INVALID_CATEGORY"
)

// Error is a coded error carrying the table and path it concerns.
type Error struct {
	Code    ErrorCode
	Table   Table
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s]", e.Code)
	if e.Table != "" {
		msg += " " + string(e.Table)
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

var (
	ErrSourceUnavailable     = &Error{Code: CodeSourceUnavailable}
	ErrSourceMalformed       = &Error{Code: CodeSourceMalformed}
	ErrPersistFailed         = &Error{Code: CodePersistFailed}
	ErrMissingRequiredSource = &Error{Code: CodeMissingRequiredSource}
	ErrInvalidCategory       = &Error{Code: CodeInvalidCategory}
)
