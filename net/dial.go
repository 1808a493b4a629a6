package net

import (
	"context"
	"fmt"
	"time"

	"github.com/opd-ai/srtsock"
)

// Dialer contains options for connecting to an SRT listener.
type Dialer struct {
	// Options are applied to the socket before connecting.
	Options map[srtsock.SockOpt]srtsock.OptionValue

	// Timeout bounds connection setup. Zero leaves OptConnTimeO as
	// configured.
	Timeout time.Duration
}

// Dial connects to address ("host:port" or "srt://host:port?streamid=...").
func Dial(address string, srt *srtsock.SRT) (*SRTConn, error) {
	return (&Dialer{}).DialContext(context.Background(), address, srt)
}

// DialTimeout is Dial with a bound on connection setup.
func DialTimeout(address string, srt *srtsock.SRT, timeout time.Duration) (*SRTConn, error) {
	return (&Dialer{Timeout: timeout}).DialContext(context.Background(), address, srt)
}

// DialContext is Dial with a context. Cancelling ctx closes the socket,
// which aborts the handshake.
func DialContext(ctx context.Context, address string, srt *srtsock.SRT) (*SRTConn, error) {
	return (&Dialer{}).DialContext(ctx, address, srt)
}

// DialContext connects using the dialer's options.
func (d *Dialer) DialContext(ctx context.Context, address string, srt *srtsock.SRT) (*SRTConn, error) {
	addr, err := ResolveSRTAddr(address)
	if err != nil {
		return nil, err
	}
	h, err := srt.CreateSocket(true)
	if err != nil {
		return nil, newSRTNetError("dial", address, err)
	}
	if err := d.configure(ctx, srt, h, addr); err != nil {
		_ = srt.Close(h)
		return nil, newSRTNetError("dial", address, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- srt.Connect(h, addr.IP.String(), addr.Port)
	}()

	select {
	case err := <-done:
		if err != nil {
			// Connect already closed the handle.
			return nil, newSRTNetError("dial", address, err)
		}
	case <-ctx.Done():
		_ = srt.Close(h)
		<-done
		return nil, newSRTNetError("dial", address, ctx.Err())
	}

	conn, err := newSRTConn(srt, h, addr)
	if err != nil {
		_ = srt.Close(h)
		return nil, newSRTNetError("dial", address, err)
	}
	return conn, nil
}

func (d *Dialer) configure(ctx context.Context, srt *srtsock.SRT, h srtsock.Handle, addr *SRTAddr) error {
	if err := srt.SetSockOpts(h, d.Options); err != nil {
		return err
	}
	if addr.StreamID != "" {
		if err := srt.SetSockOpt(h, srtsock.OptStreamID, srtsock.TextValue(addr.StreamID)); err != nil {
			return err
		}
	}

	timeout := d.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout == 0 && d.Timeout == 0 {
		return nil
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}
	ms := int32(min(timeout.Milliseconds()+1, 1<<31-1))
	return srt.SetSockOpt(h, srtsock.OptConnTimeO, srtsock.IntValue(ms))
}

// ListenConfig contains options for listening.
type ListenConfig struct {
	// Options are applied to the listening socket and inherited by accepted
	// connections.
	Options map[srtsock.SockOpt]srtsock.OptionValue

	// Backlog is the pending connection limit; zero selects
	// srtsock.ListenBacklog.
	Backlog int
}

// Listen creates an SRT listener on address ("host:port"; an empty host
// binds 0.0.0.0, port 0 picks a free port).
func Listen(address string, srt *srtsock.SRT) (*SRTListener, error) {
	return (&ListenConfig{}).Listen(address, srt)
}

// Listen creates a listener using the config's options.
func (lc *ListenConfig) Listen(address string, srt *srtsock.SRT) (*SRTListener, error) {
	addr, err := ResolveSRTAddr(address)
	if err != nil {
		return nil, err
	}
	h, err := srt.CreateSocket(false)
	if err != nil {
		return nil, newSRTNetError("listen", address, err)
	}
	if err := srt.SetSockOpts(h, lc.Options); err != nil {
		_ = srt.Close(h)
		return nil, newSRTNetError("listen", address, err)
	}
	// Bind and Listen close the handle themselves on failure.
	if err := srt.Bind(h, addr.IP.String(), addr.Port); err != nil {
		return nil, newSRTNetError("listen", address, err)
	}
	backlog := lc.Backlog
	if backlog <= 0 {
		backlog = srtsock.ListenBacklog
	}
	if err := srt.Listen(h, backlog); err != nil {
		return nil, newSRTNetError("listen", address, err)
	}

	bound, err := srt.LocalAddr(h)
	if err != nil {
		_ = srt.Close(h)
		return nil, newSRTNetError("listen", address, fmt.Errorf("local address: %w", err))
	}
	return &SRTListener{srt: srt, handle: h, addr: addrFromUDP(bound)}, nil
}
