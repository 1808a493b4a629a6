// Package transport provides a pure-Go implementation of the engine.Engine
// primitive surface over UDP.
//
// # Architecture
//
// Every bound address owns one multiplexer: a UDP socket with a read loop
// that demultiplexes datagrams by destination socket id. A listening socket
// shares its multiplexer with every socket it accepts, so closing the
// listener does not disturb established connections.
//
//	eng := transport.NewEngine(transport.DefaultConfig())
//	defer eng.Cleanup()
//
//	ln, _ := eng.Socket()
//	_ = eng.Bind(ln, &net.UDPAddr{IP: net.IPv4zero, Port: 9000})
//	_ = eng.Listen(ln, 10)
//
//	c, _ := eng.Socket()
//	_ = eng.Connect(c, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000})
//	peer, _, _ := eng.Accept(ln)
//
// # Wire format
//
// Each datagram carries a 17-byte header followed by the payload:
//
//	type(1) | destination id(4) | source id(4) | sequence(4) | timestamp µs(4)
//
// Connection setup is a single request/response exchange retried every
// HandshakeInterval until OptConnTimeO elapses. When a passphrase is set the
// exchange runs a Noise NNpsk0 handshake keyed by PBKDF2(passphrase, salt);
// data packets are then sealed with the resulting ChaCha20-Poly1305 keys
// using the packet sequence number as nonce.
//
// # Liveness
//
// A maintenance loop sends keepalives, retries pending handshakes and
// marks connections broken when the peer is silent for OptPeerIdleTO.
//
// # Scope
//
// The engine targets loopback and LAN use. It does not retransmit lost
// packets, shape bandwidth, or deliver on timestamps; those behaviors belong
// to the native engine (see engine/libsrt).
package transport
