package supervisor

import (
	"errors"
	"fmt"
)

// Code classifies a supervisor error for the RPC boundary.
type Code int

const (
	// CodeInternal is a failure on acm's side: spawn, signal, or I/O.
	CodeInternal Code = iota
	// CodeInvalidParams is a caller error detected before any side effect.
	CodeInvalidParams
	// CodeNotFound means the pid is not tracked.
	CodeNotFound
	// CodeTimeout means a wait ran out of time.
	CodeTimeout
)

func (c Code) String() string {
	switch c {
	case CodeInvalidParams:
		return "invalid_params"
	case CodeNotFound:
		return "not_found"
	case CodeTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is.
var (
	ErrNotFound = errors.New("process not found")
	ErrTimeout  = errors.New("wait timed out")
)

// Error is returned by every supervisor operation. Message is shown to the
// caller as-is.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

func invalidParams(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func internal(err error, format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

func notFound(pid int) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("Process with PID %d not found", pid),
		Err:     ErrNotFound,
	}
}
