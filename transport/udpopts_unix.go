//go:build unix

package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/opd-ai/srtsock/engine"
)

// applyUDPOptions pushes the socket-level options that map directly onto
// the UDP socket: kernel buffer sizes, IP_TTL and IP_TOS.
func applyUDPOptions(conn *net.UDPConn, opts optionSet) error {
	if err := conn.SetReadBuffer(int(opts.num(engine.OptUDPRcvBuf))); err != nil {
		return fmt.Errorf("set receive buffer: %w", err)
	}
	if err := conn.SetWriteBuffer(int(opts.num(engine.OptUDPSndBuf))); err != nil {
		return fmt.Errorf("set send buffer: %w", err)
	}

	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("raw conn: %w", err)
	}
	ttl := int(opts.num(engine.OptIPTTL))
	tos := int(opts.num(engine.OptIPTOS))
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		if sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl); sockErr != nil {
			sockErr = fmt.Errorf("IP_TTL: %w", sockErr)
			return
		}
		if tos > 0 {
			if sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, tos); sockErr != nil {
				sockErr = fmt.Errorf("IP_TOS: %w", sockErr)
			}
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
