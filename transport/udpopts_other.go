//go:build !unix

package transport

import (
	"net"

	"github.com/opd-ai/srtsock/engine"
)

// applyUDPOptions sets kernel buffer sizes; IP_TTL and IP_TOS are left at
// the system defaults on this platform.
func applyUDPOptions(conn *net.UDPConn, opts optionSet) error {
	if err := conn.SetReadBuffer(int(opts.num(engine.OptUDPRcvBuf))); err != nil {
		return err
	}
	return conn.SetWriteBuffer(int(opts.num(engine.OptUDPSndBuf)))
}
