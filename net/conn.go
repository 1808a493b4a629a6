package net

import (
	"errors"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/srtsock"
	"github.com/opd-ai/srtsock/engine"
)

// SRTConn implements net.Conn over a connected SRT handle. Writes larger
// than the payload size are split into several messages; reads return at
// most len(b) bytes of the current message and keep the rest for the next
// Read.
//
// Deadlines are applied as per-call OptRcvTimeO / OptSndTimeO values. A
// deadline set while a call is already blocked takes effect on the next
// call; Close always unblocks.
type SRTConn struct {
	srt     *srtsock.SRT
	handle  srtsock.Handle
	local   *SRTAddr
	remote  *SRTAddr
	payload int
	clock   TimeProvider

	mu            sync.RWMutex
	closed        bool
	readDeadline  time.Time
	writeDeadline time.Time

	readMu     sync.Mutex
	rcvTimeout int32 // last OptRcvTimeO applied, guarded by readMu

	writeMu    sync.Mutex
	sndTimeout int32 // last OptSndTimeO applied, guarded by writeMu
}

var _ net.Conn = (*SRTConn)(nil)

// newSRTConn wraps a connected handle. A nil remote is looked up from the
// engine.
func newSRTConn(srt *srtsock.SRT, h srtsock.Handle, remote *SRTAddr) (*SRTConn, error) {
	payload, err := srt.GetSockOpt(h, srtsock.OptPayloadSize)
	if err != nil {
		return nil, err
	}
	local, err := srt.LocalAddr(h)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		peer, err := srt.PeerAddr(h)
		if err != nil {
			return nil, err
		}
		remote = addrFromUDP(peer)
	}
	return &SRTConn{
		srt:        srt,
		handle:     h,
		local:      addrFromUDP(local),
		remote:     remote,
		payload:    int(payload.Int32()),
		rcvTimeout: -1,
		sndTimeout: -1,
	}, nil
}

// timeoutFor converts a deadline into a socket timeout in milliseconds.
// Zero deadlines mean no timeout (-1).
func (c *SRTConn) timeoutFor(deadline time.Time) (int32, bool) {
	if deadline.IsZero() {
		return -1, false
	}
	left := deadline.Sub(getTimeProvider(c.clock).Now())
	if left <= 0 {
		return 0, true
	}
	ms := int64(math.Ceil(float64(left) / float64(time.Millisecond)))
	if ms > math.MaxInt32 {
		ms = math.MaxInt32
	}
	return int32(ms), false
}

func (c *SRTConn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// mapError turns facade errors into the errors net.Conn users expect.
func (c *SRTConn) mapError(op string, err error) error {
	switch {
	case c.isClosed():
		return newSRTNetError(op, c.remote.String(), ErrConnectionClosed)
	case srtsock.ErrorCode(err) == engine.ErrnoTimeout:
		return newSRTNetError(op, c.remote.String(), ErrTimeout)
	case op == "read" && srtsock.IsClosedError(err):
		return io.EOF
	default:
		return newSRTNetError(op, c.remote.String(), err)
	}
}

// Read implements net.Conn.Read().
func (c *SRTConn) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if c.isClosed() {
		return 0, newSRTNetError("read", c.remote.String(), ErrConnectionClosed)
	}

	c.readMu.Lock()
	defer c.readMu.Unlock()

	c.mu.RLock()
	deadline := c.readDeadline
	c.mu.RUnlock()
	timeout, expired := c.timeoutFor(deadline)
	if expired {
		return 0, newSRTNetError("read", c.remote.String(), ErrTimeout)
	}
	if timeout != c.rcvTimeout {
		if err := c.srt.SetSockOpt(c.handle, srtsock.OptRcvTimeO, srtsock.IntValue(timeout)); err != nil {
			return 0, c.mapError("read", err)
		}
		c.rcvTimeout = timeout
	}

	data, err := c.srt.Read(c.handle, len(b))
	if err != nil {
		return 0, c.mapError("read", err)
	}
	return copy(b, data), nil
}

// Write implements net.Conn.Write(). On failure it returns the bytes of the
// messages already sent.
func (c *SRTConn) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if c.isClosed() {
		return 0, newSRTNetError("write", c.remote.String(), ErrConnectionClosed)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	deadline := c.writeDeadline
	c.mu.RUnlock()
	timeout, expired := c.timeoutFor(deadline)
	if expired {
		return 0, newSRTNetError("write", c.remote.String(), ErrTimeout)
	}
	if timeout != c.sndTimeout {
		if err := c.srt.SetSockOpt(c.handle, srtsock.OptSndTimeO, srtsock.IntValue(timeout)); err != nil {
			return 0, c.mapError("write", err)
		}
		c.sndTimeout = timeout
	}

	n, err := c.srt.WriteChunks(c.handle, srtsock.SliceChunks(b, c.payload))
	if err != nil {
		return n, c.mapError("write", err)
	}
	return n, nil
}

// Close implements net.Conn.Close(). Blocked reads and writes return
// ErrConnectionClosed.
func (c *SRTConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.srt.Close(c.handle); err != nil && !errors.Is(err, srtsock.ErrHandleInvalid) {
		return newSRTNetError("close", c.remote.String(), err)
	}
	return nil
}

// LocalAddr implements net.Conn.LocalAddr().
func (c *SRTConn) LocalAddr() net.Addr {
	return c.local
}

// RemoteAddr implements net.Conn.RemoteAddr().
func (c *SRTConn) RemoteAddr() net.Addr {
	return c.remote
}

// SetDeadline implements net.Conn.SetDeadline().
func (c *SRTConn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.writeDeadline = t
	c.mu.Unlock()
	return nil
}

// SetReadDeadline implements net.Conn.SetReadDeadline().
func (c *SRTConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.mu.Unlock()
	return nil
}

// SetWriteDeadline implements net.Conn.SetWriteDeadline().
func (c *SRTConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.writeDeadline = t
	c.mu.Unlock()
	return nil
}

// Handle returns the underlying facade handle.
func (c *SRTConn) Handle() srtsock.Handle {
	return c.handle
}

// Stats returns the connection statistics.
func (c *SRTConn) Stats(clear bool) (srtsock.StatsSnapshot, error) {
	return c.srt.Stats(c.handle, clear)
}

// StreamID returns the stream id negotiated for the connection.
func (c *SRTConn) StreamID() (string, error) {
	v, err := c.srt.GetSockOpt(c.handle, srtsock.OptStreamID)
	if err != nil {
		return "", err
	}
	return v.Text(), nil
}
