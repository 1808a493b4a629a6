package srtsock

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/opd-ai/srtsock/engine"
)

// parseIPv4 accepts only dotted-decimal IPv4 literals.
func parseIPv4(address string) (net.IP, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return nil, err
	}
	if !addr.Is4() {
		return nil, fmt.Errorf("%q is not an IPv4 address", address)
	}
	b := addr.As4()
	return net.IPv4(b[0], b[1], b[2], b[3]), nil
}

func checkPort(port int, allowZero bool) error {
	if port < 0 || port > 65535 || (port == 0 && !allowZero) {
		return fmt.Errorf("port %d out of range", port)
	}
	return nil
}

// CreateSocket allocates a new handle. With asSender set, the engine's
// sender flag is applied before the handle is returned. Options.SocketOptions
// are applied next; if any of them fails the handle is closed.
func (s *SRT) CreateSocket(asSender bool) (Handle, error) {
	const op = "socket"
	logger := NewLogger("CreateSocket")

	id, err := s.eng.Socket()
	if err != nil {
		logger.WithError(err).Warn("Engine could not allocate a socket")
		return InvalidSock, newError(ErrAllocation, op, InvalidSock, err)
	}
	h := Handle(id)
	s.reg.add(h, RoleUnbound, asSender)

	if asSender {
		buf, _ := optionsByID[OptSender].marshal(BoolValue(true))
		if err := s.eng.SetSockFlag(id, OptSender, buf); err != nil {
			failure := newError(ErrAllocation, op, h, err)
			s.cleanup(h, logger)
			return InvalidSock, failure
		}
	}
	if len(s.defaults) > 0 {
		if err := s.SetSockOpts(h, s.defaults); err != nil {
			s.cleanup(h, logger)
			return InvalidSock, err
		}
	}

	logger.WithHandle(h).WithField("sender", asSender).Debug("Socket created")
	return h, nil
}

// cleanup closes h after a setup failure. The failure has already been
// captured, so a close error is only logged.
func (s *SRT) cleanup(h Handle, logger *LoggerHelper) {
	s.reg.remove(h)
	if err := s.eng.Close(h.id()); err != nil {
		logger.WithHandle(h).WithError(err).Debug("Cleanup close failed")
	}
}

// Bind binds h to a local IPv4 address. A malformed address fails with
// ErrAddressParse and leaves h untouched; an engine failure closes h and
// returns ErrBind.
func (s *SRT) Bind(h Handle, address string, port int) error {
	const op = "bind"
	logger := NewLogger("Bind").WithHandle(h).WithField("address", address).WithField("port", port)
	if !s.reg.has(h) {
		return newError(ErrHandleInvalid, op, h, nil)
	}
	ip, err := parseIPv4(address)
	if err == nil {
		err = checkPort(port, true)
	}
	if err != nil {
		return newError(ErrAddressParse, op, h, err)
	}
	if err := s.eng.Bind(h.id(), &net.UDPAddr{IP: ip, Port: port}); err != nil {
		failure := newError(ErrBind, op, h, err)
		logger.WithError(err).Warn("Bind failed, closing handle")
		s.cleanup(h, logger)
		return failure
	}
	s.reg.setRole(h, RoleBound)
	logger.Debug("Socket bound")
	return nil
}

// Listen makes a bound handle accept connections. An engine failure closes
// h and returns ErrListen.
func (s *SRT) Listen(h Handle, backlog int) error {
	const op = "listen"
	logger := NewLogger("Listen").WithHandle(h).WithField("backlog", backlog)
	if !s.reg.has(h) {
		return newError(ErrHandleInvalid, op, h, nil)
	}
	if err := s.eng.Listen(h.id(), backlog); err != nil {
		failure := newError(ErrListen, op, h, err)
		logger.WithError(err).Warn("Listen failed, closing handle")
		s.cleanup(h, logger)
		return failure
	}
	s.reg.setRole(h, RoleListener)
	logger.Debug("Socket listening")
	return nil
}

// Connect connects h to a remote IPv4 address. A malformed address fails
// with ErrAddressParse unless Options.LenientConnectAddress is set, in which
// case it is replaced by 0.0.0.0 and left to the engine to reject. An engine
// failure closes h and returns ErrConnect.
func (s *SRT) Connect(h Handle, address string, port int) error {
	const op = "connect"
	logger := NewLogger("Connect").WithHandle(h).WithField("address", address).WithField("port", port)
	if !s.reg.has(h) {
		return newError(ErrHandleInvalid, op, h, nil)
	}
	ip, err := parseIPv4(address)
	if err == nil {
		err = checkPort(port, false)
	}
	if err != nil {
		if !s.opts.LenientConnectAddress {
			return newError(ErrAddressParse, op, h, err)
		}
		logger.WithError(err).Debug("Malformed address, using 0.0.0.0")
		ip = net.IPv4zero
	}
	if err := s.eng.Connect(h.id(), &net.UDPAddr{IP: ip, Port: port}); err != nil {
		failure := newError(ErrConnect, op, h, err)
		logger.WithError(err).Warn("Connect failed, closing handle")
		s.cleanup(h, logger)
		return failure
	}
	s.reg.setRole(h, RoleOutbound)
	logger.Debug("Socket connected")
	return nil
}

// Accept returns a new handle for the next pending connection on listener
// h. The listener stays open on success and on failure.
func (s *SRT) Accept(h Handle) (Handle, error) {
	const op = "accept"
	if !s.reg.has(h) {
		return InvalidSock, newError(ErrHandleInvalid, op, h, nil)
	}
	id, peer, err := s.eng.Accept(h.id())
	if err != nil {
		return InvalidSock, newError(ErrConnect, op, h, err)
	}
	child := Handle(id)
	s.reg.add(child, RoleAccepted, false)

	NewLogger("Accept").WithHandle(child).WithField("listener", int32(h)).WithField("peer", peer.String()).Debug("Connection accepted")
	return child, nil
}

// Close closes h. Calls blocked on h unblock and fail. Closing a handle that
// is not open returns ErrHandleInvalid.
func (s *SRT) Close(h Handle) error {
	const op = "close"
	if !s.reg.remove(h) {
		return newError(ErrHandleInvalid, op, h, nil)
	}
	if err := s.eng.Close(h.id()); err != nil {
		return newError(ErrHandleInvalid, op, h, err)
	}
	NewLogger("Close").WithHandle(h).Debug("Socket closed")
	return nil
}

// Read returns up to maxLen bytes of the next message on h. A message longer
// than maxLen is delivered over several reads. Failures leave h open.
func (s *SRT) Read(h Handle, maxLen int) ([]byte, error) {
	const op = "read"
	if !s.reg.has(h) {
		return nil, newError(ErrHandleInvalid, op, h, nil)
	}
	if maxLen <= 0 {
		return nil, newError(ErrInvalidArgument, op, h, fmt.Errorf("maxLen %d", maxLen))
	}
	buf := make([]byte, maxLen)
	n, err := s.eng.RecvMsg(h.id(), buf)
	if err != nil {
		return nil, newError(ErrIO, op, h, err)
	}
	return buf[:n], nil
}

// Write submits data as one message on h. Failures leave h open.
func (s *SRT) Write(h Handle, data []byte) (int, error) {
	const op = "write"
	if !s.reg.has(h) {
		return 0, newError(ErrHandleInvalid, op, h, nil)
	}
	n, err := s.eng.SendMsg(h.id(), data)
	if err != nil {
		return 0, newError(ErrIO, op, h, err)
	}
	return n, nil
}

// GetSockState reports the engine state of h.
func (s *SRT) GetSockState(h Handle) (SockStatus, error) {
	if !s.reg.has(h) {
		return StatusNonExist, newError(ErrHandleInvalid, "getsockstate", h, nil)
	}
	return s.eng.GetSockState(h.id()), nil
}

// LocalAddr returns the address h is bound to.
func (s *SRT) LocalAddr(h Handle) (*net.UDPAddr, error) {
	return s.address(h, "sockname", s.eng.SockName)
}

// PeerAddr returns the address of h's peer.
func (s *SRT) PeerAddr(h Handle) (*net.UDPAddr, error) {
	return s.address(h, "peername", s.eng.PeerName)
}

func (s *SRT) address(h Handle, op string, get func(engine.SocketID) (*net.UDPAddr, error)) (*net.UDPAddr, error) {
	if !s.reg.has(h) {
		return nil, newError(ErrHandleInvalid, op, h, nil)
	}
	addr, err := get(h.id())
	if err != nil {
		return nil, newError(ErrIO, op, h, err)
	}
	return addr, nil
}

// IsClosedError reports whether err means the handle or its connection is
// gone rather than a retryable condition.
func IsClosedError(err error) bool {
	if errors.Is(err, ErrHandleInvalid) {
		return true
	}
	switch ErrorCode(err) {
	case engine.ErrnoConnLost, engine.ErrnoNoConn, engine.ErrnoInvSock, engine.ErrnoSClosed:
		return true
	}
	return false
}
