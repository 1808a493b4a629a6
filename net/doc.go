// Package net adapts SRT connections to the standard library net.Conn,
// net.Listener and net.Addr interfaces so SRT streams can be used with
// existing Go networking code such as io.Copy, bufio and net/http.
//
// The package provides:
//   - SRTAddr: net.Addr for "host:port" endpoints with an optional stream id
//   - SRTConn: net.Conn over a connected SRT handle
//   - SRTListener: net.Listener over a listening SRT handle
//   - Dial/Listen functions plus Dialer and ListenConfig for socket options
//
// Example usage:
//
//	srt, err := srtsock.New(srtsock.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srt.Dispose()
//
//	listener, err := srtnet.Listen("127.0.0.1:9000", srt)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer listener.Close()
//
//	conn, err := listener.Accept()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	io.Copy(os.Stdout, conn)
//
// SRT is message oriented. Writes larger than the negotiated payload size
// are split into several messages, and a Read shorter than the current
// message leaves the remainder for the next Read, so a connection behaves
// as a byte stream. Deadlines map to per-call receive and send timeouts.
package net
