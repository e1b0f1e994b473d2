package domain

import (
	"errors"
	"fmt"
	"time"
)

type ErrorCode string

const (
	CodeProtocol        ErrorCode = "PROTOCOL"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeInternal        ErrorCode = "INTERNAL"
)

// Error is the single error type crossing component boundaries. The dispatch
// core encodes it into the tool-error payload; it never crosses the transport
// as a raw Go error.
type Error struct {
	Code       ErrorCode
	Op         string
	Message    string
	Cause      error
	Fields     []string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Retryable reports whether the upstream client may re-attempt the call.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Code == CodeRateLimited || e.Code == CodeUnavailable
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		clone := *existing
		clone.Op = op
		return &clone
	}
	return E(code, op, "", err)
}

// CodeOf classifies an arbitrary error into the stable taxonomy. Unknown
// errors are INTERNAL so nothing leaks through unclassified.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
