package transport

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/opd-ai/srtsock/engine"
)

// mux owns one UDP socket and routes its datagrams to engine sockets.
// refs and listener are guarded by Engine.mu.
type mux struct {
	eng      *Engine
	conn     *net.UDPConn
	addr     *net.UDPAddr
	key      string
	refs     int
	listener *socket

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// acquireMux returns a multiplexer bound to addr, sharing an existing one
// when the socket allows address reuse. Caller holds e.mu.
func (e *Engine) acquireMux(addr *net.UDPAddr, opts optionSet) (*mux, error) {
	if addr.Port != 0 && opts.flag(engine.OptReuseAddr) {
		if m, ok := e.muxes[addr.String()]; ok {
			m.refs++
			return m, nil
		}
	}

	network := "udp"
	if addr.IP != nil && addr.IP.To4() != nil {
		network = "udp4"
	}
	conn, err := net.ListenUDP(network, addr)
	if err != nil {
		return nil, engine.NewError(engine.ErrnoSockFail, err.Error())
	}
	if err := applyUDPOptions(conn, opts); err != nil {
		NewLogger("acquireMux").WithError(err).Warn("Failed to apply UDP socket options")
	}

	local := conn.LocalAddr().(*net.UDPAddr)
	ctx, cancel := context.WithCancel(e.ctx)
	m := &mux{
		eng:    e,
		conn:   conn,
		addr:   local,
		key:    local.String(),
		refs:   1,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.muxes[m.key] = m
	go m.readLoop()

	NewLogger("acquireMux").WithField("local_addr", m.key).Debug("Multiplexer opened")
	return m, nil
}

// releaseMux drops one reference and closes the UDP socket with the last.
// Caller holds e.mu; the read loop exits on its own.
func (e *Engine) releaseMux(m *mux) {
	m.refs--
	if m.refs > 0 {
		return
	}
	delete(e.muxes, m.key)
	m.cancel()
	if err := m.conn.Close(); err != nil {
		NewLogger("releaseMux").WithError(err).Debug("Closing UDP socket failed")
	}
	NewLogger("releaseMux").WithField("local_addr", m.key).Debug("Multiplexer closed")
}

func (m *mux) write(data []byte, to *net.UDPAddr) error {
	_, err := m.conn.WriteToUDP(data, to)
	return err
}

// readLoop handles incoming datagrams until the multiplexer is released.
func (m *mux) readLoop() {
	defer close(m.done)

	buffer := make([]byte, MaxDatagramSize)
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		_ = m.conn.SetReadDeadline(time.Now().Add(m.eng.cfg.ReadDeadline))
		n, from, err := m.conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			NewLogger("readLoop").WithField("local_addr", m.key).WithError(err).Debug("Read failed")
			continue
		}

		pkt, err := ParsePacket(buffer[:n])
		if err != nil {
			NewLogger("readLoop").WithField("remote_addr", from.String()).WithError(err).Debug("Dropping malformed datagram")
			continue
		}
		m.eng.dispatch(m, pkt, from)
	}
}
