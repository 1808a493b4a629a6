package engine

import (
	"encoding/binary"
	"net"
)

// NativeEndian is the byte order used for integer option buffers.
// It matches the in-memory layout the native C engine expects.
var NativeEndian = binary.NativeEndian

// Engine is the primitive call set of the transport engine.
//
// Every method that can fail returns an *Error captured at the failing
// call. Blocking behavior of Accept, Connect, RecvMsg and SendMsg follows the
// per-socket OptRcvSyn/OptSndSyn flags and timeouts. Close must unblock any
// concurrently blocked call on the same socket, which then fails with
// ErrnoConnLost.
type Engine interface {
	// Socket allocates a new socket in StatusInit.
	Socket() (SocketID, error)

	// Bind binds the socket to a local IPv4 address.
	Bind(s SocketID, addr *net.UDPAddr) error

	// Listen switches a bound socket to StatusListening.
	Listen(s SocketID, backlog int) error

	// Connect starts (and, in blocking mode, completes) an outbound connection.
	Connect(s SocketID, addr *net.UDPAddr) error

	// Accept takes the next pending connection from a listening socket.
	Accept(s SocketID) (SocketID, *net.UDPAddr, error)

	// Close closes the socket. The id is invalid afterwards.
	Close(s SocketID) error

	// RecvMsg copies up to len(buf) bytes of the next message into buf.
	RecvMsg(s SocketID, buf []byte) (int, error)

	// SendMsg submits one message.
	SendMsg(s SocketID, data []byte) (int, error)

	// GetSockFlag reads an option into buf and returns the number of bytes
	// written.
	GetSockFlag(s SocketID, opt SockOpt, buf []byte) (int, error)

	// SetSockFlag writes an option from buf.
	SetSockFlag(s SocketID, opt SockOpt, buf []byte) error

	// SockName returns the local address a socket is bound to.
	SockName(s SocketID) (*net.UDPAddr, error)

	// PeerName returns the address of a connected socket's peer.
	PeerName(s SocketID) (*net.UDPAddr, error)

	// GetSockState reports the current state. Unknown ids report
	// StatusNonExist.
	GetSockState(s SocketID) SockStatus

	// EpollCreate allocates a readiness group.
	EpollCreate() (int, error)

	// EpollAddUsock adds or updates a socket's interest mask in a group.
	EpollAddUsock(eid int, s SocketID, events EpollFlag) error

	// EpollRemoveUsock removes a socket from a group.
	EpollRemoveUsock(eid int, s SocketID) error

	// EpollUWait fills events with ready sockets, waiting at most timeoutMs
	// milliseconds (negative waits forever). It returns the number of
	// entries filled; zero on timeout.
	EpollUWait(eid int, events []EpollEvent, timeoutMs int64) (int, error)

	// EpollRelease destroys a group.
	EpollRelease(eid int) error

	// BStats fills out with the socket's statistics. With clear set, the
	// interval counters are reset after the read.
	BStats(s SocketID, out *TraceBStats, clear bool) error

	// SetLogLevel sets the engine log level (syslog scale 0-7).
	SetLogLevel(level int)

	// Cleanup releases every engine resource.
	Cleanup() error
}
