// Package srtsock is a socket-style facade over a reliable, low-latency
// datagram transport engine with an SRT-compatible primitive surface.
//
// Callers work with integer handles: create, bind, listen, connect, accept,
// read, write and close them, get and set typed options, poll many handles
// for readiness in one call and read per-handle statistics. Reliable
// delivery itself (handshake, retransmission, encryption, timing) lives in
// the engine.
//
// # Getting Started
//
//	srt, err := srtsock.New(srtsock.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srt.Dispose()
//
//	ln, _ := srt.CreateSocket(false)
//	if err := srt.Bind(ln, "0.0.0.0", 9000); err != nil {
//	    log.Fatal(err) // ln is already closed
//	}
//	if err := srt.Listen(ln, 16); err != nil {
//	    log.Fatal(err)
//	}
//	conn, err := srt.Accept(ln) // ln stays open for the next Accept
//
// # Engines
//
// The built-in pure-Go engine ("transport") is used by default. Other
// engines register themselves with RegisterEngine and are selected with
// Options.Engine; building with -tags libsrt and importing
// github.com/opd-ai/srtsock/engine/libsrt adds the "libsrt" engine.
//
// # Options
//
// Options are tagged values (IntValue, Int64Value, BoolValue, TextValue).
// Each option id has a declared kind in the descriptor table and a value of
// another kind is refused with ErrOptionType before the engine is called.
//
//	err := srt.SetSockOpt(h, srtsock.OptLatency, srtsock.IntValue(200))
//	v, err := srt.GetSockOpt(h, srtsock.OptStreamID)
//
// # Readiness
//
// Poll groups report which handles are readable, writable or failed, so a
// single goroutine can drive many connections without blocking in Read:
//
//	g, _ := srt.EpollCreate()
//	_ = srt.EpollAddUsock(g, conn, srtsock.EpollIn|srtsock.EpollErr)
//	events, err := srt.EpollUWait(g, 100)
//
// # Errors
//
// Every failure is an *Error. Its Kind is one of the Err* sentinels and can
// be tested with errors.Is; Code and Message carry the engine's error code
// and text captured at the failing call. Bind, Listen and Connect close the
// handle when the engine rejects them. Read and Write never do.
//
// # Concurrency
//
// The facade may be used from several goroutines. Close is the only way to
// cancel a blocked call: the blocked call returns an ErrIO failure. The
// async package serializes every call onto a single worker for hosts that
// want one.
package srtsock
