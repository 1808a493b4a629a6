package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PacketType identifies the type of an engine datagram.
type PacketType byte

const (
	PacketHandshakeRequest PacketType = iota + 1
	PacketHandshakeResponse
	PacketReject
	PacketData
	PacketKeepalive
	PacketShutdown
)

func (t PacketType) String() string {
	switch t {
	case PacketHandshakeRequest:
		return "handshake-request"
	case PacketHandshakeResponse:
		return "handshake-response"
	case PacketReject:
		return "reject"
	case PacketData:
		return "data"
	case PacketKeepalive:
		return "keepalive"
	case PacketShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// HeaderSize is the fixed header length of every datagram.
const HeaderSize = 17

// MaxDatagramSize bounds what the multiplexer reads in one call.
const MaxDatagramSize = 65536

var (
	ErrShortPacket   = errors.New("packet shorter than header")
	ErrUnknownPacket = errors.New("unknown packet type")
	ErrMalformedBody = errors.New("malformed packet body")
)

// Packet is one engine datagram.
type Packet struct {
	Type      PacketType
	DstID     uint32
	SrcID     uint32
	Seq       uint32
	Timestamp uint32
	Payload   []byte
}

// Header serializes only the header; it doubles as the AEAD associated data
// for encrypted data packets.
func (p *Packet) Header() []byte {
	h := make([]byte, HeaderSize)
	h[0] = byte(p.Type)
	binary.BigEndian.PutUint32(h[1:5], p.DstID)
	binary.BigEndian.PutUint32(h[5:9], p.SrcID)
	binary.BigEndian.PutUint32(h[9:13], p.Seq)
	binary.BigEndian.PutUint32(h[13:17], p.Timestamp)
	return h
}

// Serialize converts a packet to a byte slice for transmission.
func (p *Packet) Serialize() []byte {
	return append(p.Header(), p.Payload...)
}

// ParsePacket converts a received datagram into a Packet. The payload is
// copied so the caller may reuse data.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, ErrShortPacket
	}
	t := PacketType(data[0])
	if t < PacketHandshakeRequest || t > PacketShutdown {
		return nil, ErrUnknownPacket
	}
	p := &Packet{
		Type:      t,
		DstID:     binary.BigEndian.Uint32(data[1:5]),
		SrcID:     binary.BigEndian.Uint32(data[5:9]),
		Seq:       binary.BigEndian.Uint32(data[9:13]),
		Timestamp: binary.BigEndian.Uint32(data[13:17]),
	}
	if len(data) > HeaderSize {
		p.Payload = append([]byte(nil), data[HeaderSize:]...)
	}
	return p, nil
}

const (
	hsFlagEncrypted = 1 << iota
	hsFlagMessageAPI
)

// Handshake is the body of request and response packets.
type Handshake struct {
	Version     uint32
	MinVersion  uint32
	Flags       uint8
	RcvLatency  uint32 // ms the sender wants to buffer
	PeerLatency uint32 // ms the sender asks the peer to buffer
	StreamID    string
	Salt        []byte
	Noise       []byte
}

// Encrypted reports whether the sender has a passphrase configured.
func (h *Handshake) Encrypted() bool { return h.Flags&hsFlagEncrypted != 0 }

// MarshalBinary encodes the handshake body.
func (h *Handshake) MarshalBinary() ([]byte, error) {
	if len(h.StreamID) > 0xFFFF || len(h.Salt) > 0xFF || len(h.Noise) > 0xFFFF {
		return nil, ErrMalformedBody
	}
	out := make([]byte, 0, 17+2+len(h.StreamID)+1+len(h.Salt)+2+len(h.Noise))
	out = binary.BigEndian.AppendUint32(out, h.Version)
	out = binary.BigEndian.AppendUint32(out, h.MinVersion)
	out = append(out, h.Flags)
	out = binary.BigEndian.AppendUint32(out, h.RcvLatency)
	out = binary.BigEndian.AppendUint32(out, h.PeerLatency)
	out = binary.BigEndian.AppendUint16(out, uint16(len(h.StreamID)))
	out = append(out, h.StreamID...)
	out = append(out, uint8(len(h.Salt)))
	out = append(out, h.Salt...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(h.Noise)))
	out = append(out, h.Noise...)
	return out, nil
}

// UnmarshalBinary decodes a handshake body.
func (h *Handshake) UnmarshalBinary(data []byte) error {
	r := reader{buf: data}
	h.Version = r.u32()
	h.MinVersion = r.u32()
	h.Flags = r.u8()
	h.RcvLatency = r.u32()
	h.PeerLatency = r.u32()
	h.StreamID = string(r.bytes(int(r.u16())))
	h.Salt = r.bytes(int(r.u8()))
	h.Noise = r.bytes(int(r.u16()))
	return r.err
}

// Reject is the body of a reject packet.
type Reject struct {
	Code   uint32
	Reason string
}

// MarshalBinary encodes the reject body.
func (r *Reject) MarshalBinary() ([]byte, error) {
	out := binary.BigEndian.AppendUint32(nil, r.Code)
	return append(out, r.Reason...), nil
}

// UnmarshalBinary decodes a reject body.
func (r *Reject) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return ErrMalformedBody
	}
	r.Code = binary.BigEndian.Uint32(data[:4])
	r.Reason = string(data[4:])
	return nil
}

const (
	keepaliveRequest = 0
	keepaliveReply   = 1
)

// reader decodes big-endian fields and latches the first short read.
type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.buf) {
		r.err = ErrMalformedBody
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) bytes(n int) []byte {
	b := r.take(n)
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
