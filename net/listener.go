package net

import (
	"errors"
	"net"
	"sync"

	"github.com/opd-ai/srtsock"
)

// SRTListener implements net.Listener over a listening SRT handle.
type SRTListener struct {
	srt    *srtsock.SRT
	handle srtsock.Handle
	addr   *SRTAddr

	mu     sync.RWMutex
	closed bool
}

var _ net.Listener = (*SRTListener)(nil)

// Accept implements net.Listener.Accept().
func (l *SRTListener) Accept() (net.Conn, error) {
	return l.AcceptSRT()
}

// AcceptSRT waits for and returns the next connection as an *SRTConn.
func (l *SRTListener) AcceptSRT() (*SRTConn, error) {
	if l.isClosed() {
		return nil, ErrListenerClosed
	}
	h, err := l.srt.Accept(l.handle)
	if err != nil {
		if l.isClosed() {
			return nil, ErrListenerClosed
		}
		return nil, newSRTNetError("accept", l.addr.String(), err)
	}
	conn, err := newSRTConn(l.srt, h, nil)
	if err != nil {
		_ = l.srt.Close(h)
		return nil, newSRTNetError("accept", l.addr.String(), err)
	}
	return conn, nil
}

func (l *SRTListener) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Close implements net.Listener.Close(). Pending Accept calls return
// ErrListenerClosed; connections already accepted stay open.
func (l *SRTListener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.srt.Close(l.handle); err != nil && !errors.Is(err, srtsock.ErrHandleInvalid) {
		return newSRTNetError("close", l.addr.String(), err)
	}
	return nil
}

// Addr implements net.Listener.Addr().
func (l *SRTListener) Addr() net.Addr {
	return l.addr
}

// Handle returns the listening handle.
func (l *SRTListener) Handle() srtsock.Handle {
	return l.handle
}
