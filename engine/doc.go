// Package engine defines the primitive call surface of a reliable,
// low-latency datagram transport engine (an SRT-compatible engine) and the
// enumerations shared between the engine and the srtsock facade.
//
// The Engine interface mirrors the fixed set of native primitives:
//
//	Socket, Bind, Listen, Connect, Accept, Close,
//	SendMsg, RecvMsg, GetSockFlag, SetSockFlag, SockName, PeerName, GetSockState,
//	EpollCreate, EpollAddUsock, EpollRemoveUsock, EpollUWait, EpollRelease,
//	BStats, SetLogLevel, Cleanup
//
// Implementations:
//
//   - transport.Engine: pure-Go engine over UDP (default)
//   - libsrt.Engine: cgo binding to the libsrt C library (build tag "libsrt")
//
// # Errors
//
// Native engines report failures through an out-of-band last-error slot
// that is only valid until the next call on the same thread. Engine
// implementations capture that slot at the failing call and return it as
// an *Error carrying the numeric Errno and the engine's message text, so
// nothing above this package ever reads the slot itself.
//
// # Option buffers
//
// GetSockFlag and SetSockFlag take untyped byte buffers, exactly like the
// native call. The caller is responsible for choosing the buffer width that
// matches the option; integer values use host byte order (NativeEndian).
package engine
