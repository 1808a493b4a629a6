package srtsock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/srtsock/engine"
)

// Error kinds. Every failure returned by the facade is an *Error whose Kind
// is one of these, so callers can match with errors.Is.
var (
	// ErrAllocation is returned when the engine cannot create a socket or
	// poll group.
	ErrAllocation = errors.New("allocation failed")

	// ErrAddressParse is returned when an address is not a dotted-decimal
	// IPv4 literal or the port is out of range.
	ErrAddressParse = errors.New("invalid address")

	// ErrBind is returned when the engine rejects a bind.
	ErrBind = errors.New("bind failed")

	// ErrListen is returned when the engine rejects a listen.
	ErrListen = errors.New("listen failed")

	// ErrConnect is returned when connection establishment fails, including
	// accept.
	ErrConnect = errors.New("connect failed")

	// ErrIO is returned by failing data-path and statistics calls.
	ErrIO = errors.New("i/o failed")

	// ErrOptionUnsupported is returned for option ids absent from the
	// descriptor table.
	ErrOptionUnsupported = errors.New("unsupported option")

	// ErrOptionType is returned when a value's kind does not match the
	// option's declared kind.
	ErrOptionType = errors.New("option value kind mismatch")

	// ErrOptionRejected is returned when the engine refuses an option read
	// or write.
	ErrOptionRejected = errors.New("option rejected")

	// ErrHandleInvalid is returned for handles or poll groups that are not
	// open.
	ErrHandleInvalid = errors.New("invalid handle")

	// ErrInvalidArgument is returned for arguments rejected before any
	// engine call.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error is the structured failure of a facade call.
type Error struct {
	// Kind is one of the Err* sentinels.
	Kind error
	// Op is the failing primitive, e.g. "bind".
	Op string
	// Handle is the handle the call was made on, or InvalidSock.
	Handle Handle
	// Code is the engine error code, ErrnoUnknown when the failure did not
	// come from the engine.
	Code engine.Errno
	// Message is the engine's error text captured at the failing call.
	Message string
	// Err is the underlying cause.
	Err error
}

// Error formats as "srt <op> [handle]: <kind>: <message>".
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("srt ")
	b.WriteString(e.Op)
	if e.Handle != InvalidSock {
		fmt.Fprintf(&b, " %d", e.Handle)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// newError builds an *Error. An *engine.Error cause contributes its code and
// text; any other cause contributes its message.
func newError(kind error, op string, h Handle, cause error) *Error {
	e := &Error{
		Kind:   kind,
		Op:     op,
		Handle: h,
		Code:   engine.ErrnoUnknown,
		Err:    cause,
	}
	var engErr *engine.Error
	switch {
	case errors.As(cause, &engErr):
		e.Code = engErr.Code
		e.Message = engErr.Error()
	case cause != nil:
		e.Message = cause.Error()
	}
	return e
}

// ErrorCode returns the engine error code carried by err, or ErrnoUnknown.
func ErrorCode(err error) engine.Errno {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return engine.CodeOf(err)
}
