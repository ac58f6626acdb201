package waitlist

import (
	"bytes"
	"errors"
	"fmt"
)

// Error codes
const (
	ErrInvalid      = "invalid"
	ErrBotDetected  = "bot_detected"
	ErrRateLimited  = "rate_limited"
	ErrUnauthorized = "unauthorized"
	ErrNotFound     = "not_found"
	ErrConflict     = "conflict"
	ErrUnavailable  = "unavailable"
	ErrInternal     = "internal"
)

// Error is an application error carrying a caller-visible message
type Error struct {
	Code    string
	Message string
	Op      string
	// Reason is set for validation failures.
	Reason string
	Err    error
}

// ErrorCode returns the code of the first Error in the chain, or ErrInternal
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) && e.Code != "" {
		return e.Code
	} else if e != nil && e.Err != nil {
		return ErrorCode(e.Err)
	}

	return ErrInternal
}

// ErrorMessage returns the caller-visible message of err
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) && e.Message != "" {
		return e.Message
	} else if e != nil && e.Err != nil {
		return ErrorMessage(e.Err)
	}

	return "An internal error has occurred."
}

func (e *Error) Error() string {
	var buf bytes.Buffer

	if e.Op != "" {
		fmt.Fprintf(&buf, "%s: ", e.Op)
	}

	if e.Err != nil {
		buf.WriteString(e.Err.Error())
	} else {
		if e.Code != "" {
			fmt.Fprintf(&buf, "<%s> ", e.Code)
		}
		buf.WriteString(e.Message)
	}

	return buf.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
