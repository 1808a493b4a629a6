package net

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// SRTAddr implements net.Addr for SRT endpoints. StreamID is carried to the
// listener during the handshake when set.
type SRTAddr struct {
	IP       net.IP
	Port     int
	StreamID string
}

// Network returns the network name for SRT addresses.
func (a *SRTAddr) Network() string {
	return "srt"
}

// String returns host:port, as srt://host:port?streamid=... when a stream
// id is set.
func (a *SRTAddr) String() string {
	if a == nil {
		return "<nil>"
	}
	hostport := net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
	if a.StreamID == "" {
		return hostport
	}
	return "srt://" + hostport + "?streamid=" + url.QueryEscape(a.StreamID)
}

// Equal reports whether two addresses name the same endpoint and stream.
func (a *SRTAddr) Equal(other *SRTAddr) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.IP.Equal(other.IP) && a.Port == other.Port && a.StreamID == other.StreamID
}

// ResolveSRTAddr parses "host:port" or "srt://host:port?streamid=...".
// Host names are resolved to an IPv4 address; an empty host means 0.0.0.0.
func ResolveSRTAddr(address string) (*SRTAddr, error) {
	hostport := address
	var streamID string
	if strings.HasPrefix(address, "srt://") {
		u, err := url.Parse(address)
		if err != nil || u.Host == "" {
			return nil, newSRTNetError("resolve", address, ErrInvalidAddress)
		}
		hostport = u.Host
		streamID = u.Query().Get("streamid")
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return nil, newSRTNetError("resolve", address, ErrInvalidAddress)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return nil, newSRTNetError("resolve", address, ErrInvalidAddress)
	}

	ip := net.IPv4zero
	if host != "" {
		udp, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, "0"))
		if err != nil {
			return nil, newSRTNetError("resolve", address, err)
		}
		ip = udp.IP.To4()
	}
	return &SRTAddr{IP: ip, Port: port, StreamID: streamID}, nil
}

func addrFromUDP(a *net.UDPAddr) *SRTAddr {
	if a == nil {
		return nil
	}
	return &SRTAddr{IP: a.IP, Port: a.Port}
}
