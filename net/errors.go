package net

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// Common errors for SRT stream connections
var (
	// ErrInvalidAddress indicates an address that is not host:port or an
	// srt:// URL
	ErrInvalidAddress = errors.New("invalid SRT address")

	// ErrConnectionClosed indicates the connection has been closed locally
	ErrConnectionClosed = net.ErrClosed

	// ErrListenerClosed indicates the listener has been closed
	ErrListenerClosed = fmt.Errorf("listener closed: %w", net.ErrClosed)

	// ErrTimeout indicates a deadline expired
	ErrTimeout = os.ErrDeadlineExceeded
)

// SRTNetError represents an error with additional context
type SRTNetError struct {
	Op   string // operation that caused the error
	Addr string // address if relevant
	Err  error  // underlying error
}

func (e *SRTNetError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("srt %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("srt %s: %v", e.Op, e.Err)
}

func (e *SRTNetError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the error is a deadline expiry. It makes
// *SRTNetError a net.Error.
func (e *SRTNetError) Timeout() bool {
	return errors.Is(e.Err, os.ErrDeadlineExceeded)
}

// Temporary is part of net.Error; only timeouts are temporary.
func (e *SRTNetError) Temporary() bool {
	return e.Timeout()
}

var _ net.Error = (*SRTNetError)(nil)

// newSRTNetError creates a new SRTNetError
func newSRTNetError(op, addr string, err error) *SRTNetError {
	return &SRTNetError{
		Op:   op,
		Addr: addr,
		Err:  err,
	}
}
