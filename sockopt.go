package srtsock

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/opd-ai/srtsock/engine"
)

// OptionTableVersion identifies the engine option enumeration the table
// describes.
const OptionTableVersion = "1.4"

// TextOptionCapacity is the read buffer used for text options. Longer values
// are truncated by the engine.
const TextOptionCapacity = 512

// OptionKind is the declared value kind of an option. It fixes the buffer
// width used on the engine call.
type OptionKind int

const (
	KindInt32 OptionKind = iota
	KindInt64
	KindBool
	KindText
)

func (k OptionKind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Access is the engine's documented read/write permission for an option.
// It is informational: the engine enforces it.
type Access int

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "r"
	case WriteOnly:
		return "w"
	default:
		return "rw"
	}
}

// OptionDescriptor describes one supported option.
type OptionDescriptor struct {
	ID     SockOpt
	Name   string
	Kind   OptionKind
	MaxLen int
	Access Access
}

var optionTable = []OptionDescriptor{
	{ID: OptMSS, Name: "mss", Kind: KindInt32},
	{ID: OptSndSyn, Name: "sndsyn", Kind: KindBool},
	{ID: OptRcvSyn, Name: "rcvsyn", Kind: KindBool},
	{ID: OptISN, Name: "isn", Kind: KindInt32, Access: ReadOnly},
	{ID: OptFC, Name: "fc", Kind: KindInt32},
	{ID: OptSndBuf, Name: "sndbuf", Kind: KindInt32},
	{ID: OptRcvBuf, Name: "rcvbuf", Kind: KindInt32},
	{ID: OptLinger, Name: "linger", Kind: KindInt32},
	{ID: OptUDPSndBuf, Name: "udp_sndbuf", Kind: KindInt32},
	{ID: OptUDPRcvBuf, Name: "udp_rcvbuf", Kind: KindInt32},
	{ID: OptRendezvous, Name: "rendezvous", Kind: KindBool},
	{ID: OptSndTimeO, Name: "sndtimeo", Kind: KindInt32},
	{ID: OptRcvTimeO, Name: "rcvtimeo", Kind: KindInt32},
	{ID: OptReuseAddr, Name: "reuseaddr", Kind: KindBool},
	{ID: OptMaxBW, Name: "maxbw", Kind: KindInt64},
	{ID: OptState, Name: "state", Kind: KindInt32, Access: ReadOnly},
	{ID: OptEvent, Name: "event", Kind: KindInt32, Access: ReadOnly},
	{ID: OptSndData, Name: "snddata", Kind: KindInt32, Access: ReadOnly},
	{ID: OptRcvData, Name: "rcvdata", Kind: KindInt32, Access: ReadOnly},
	{ID: OptSender, Name: "sender", Kind: KindBool, Access: WriteOnly},
	{ID: OptTSBPDMode, Name: "tsbpdmode", Kind: KindBool},
	{ID: OptLatency, Name: "latency", Kind: KindInt32},
	{ID: OptInputBW, Name: "inputbw", Kind: KindInt64},
	{ID: OptOheadBW, Name: "oheadbw", Kind: KindInt32},
	{ID: OptPassphrase, Name: "passphrase", Kind: KindText, MaxLen: 79, Access: WriteOnly},
	{ID: OptPBKeyLen, Name: "pbkeylen", Kind: KindInt32},
	{ID: OptKMState, Name: "kmstate", Kind: KindInt32, Access: ReadOnly},
	{ID: OptIPTTL, Name: "ipttl", Kind: KindInt32},
	{ID: OptIPTOS, Name: "iptos", Kind: KindInt32},
	{ID: OptTLPktDrop, Name: "tlpktdrop", Kind: KindBool},
	{ID: OptSndDropDly, Name: "snddropdelay", Kind: KindInt32},
	{ID: OptNAKReport, Name: "nakreport", Kind: KindBool},
	{ID: OptVersion, Name: "version", Kind: KindInt32, Access: ReadOnly},
	{ID: OptPeerVersion, Name: "peerversion", Kind: KindInt32, Access: ReadOnly},
	{ID: OptConnTimeO, Name: "conntimeo", Kind: KindInt32},
	{ID: OptSndKMState, Name: "sndkmstate", Kind: KindInt32, Access: ReadOnly},
	{ID: OptRcvKMState, Name: "rcvkmstate", Kind: KindInt32, Access: ReadOnly},
	{ID: OptLossMaxTTL, Name: "lossmaxttl", Kind: KindInt32},
	{ID: OptRcvLatency, Name: "rcvlatency", Kind: KindInt32},
	{ID: OptPeerLatency, Name: "peerlatency", Kind: KindInt32},
	{ID: OptMinVersion, Name: "minversion", Kind: KindInt32},
	{ID: OptStreamID, Name: "streamid", Kind: KindText, MaxLen: 512},
	{ID: OptCongestion, Name: "congestion", Kind: KindText, MaxLen: 16},
	{ID: OptMessageAPI, Name: "messageapi", Kind: KindBool},
	{ID: OptPayloadSize, Name: "payloadsize", Kind: KindInt32},
	{ID: OptTransType, Name: "transtype", Kind: KindInt32, Access: WriteOnly},
	{ID: OptKMRefresh, Name: "kmrefreshrate", Kind: KindInt32},
	{ID: OptKMPreAnnce, Name: "kmpreannounce", Kind: KindInt32},
	{ID: OptEnforcedEnc, Name: "enforcedencryption", Kind: KindBool},
	{ID: OptIPv6Only, Name: "ipv6only", Kind: KindInt32},
	{ID: OptPeerIdleTO, Name: "peeridletimeo", Kind: KindInt32},
	{ID: OptPacketFilt, Name: "packetfilter", Kind: KindText, MaxLen: 512},
}

var (
	optionsByID   = make(map[SockOpt]OptionDescriptor, len(optionTable))
	optionsByName = make(map[string]OptionDescriptor, len(optionTable)+1)
)

func init() {
	for _, d := range optionTable {
		optionsByID[d.ID] = d
		optionsByName[d.Name] = d
	}
	// Deprecated spelling of latency.
	optionsByName["tsbpddelay"] = optionsByID[OptLatency]
}

// LookupOption returns the descriptor for id.
func LookupOption(id SockOpt) (OptionDescriptor, bool) {
	d, ok := optionsByID[id]
	return d, ok
}

// LookupOptionName returns the descriptor for a lower-case option name.
func LookupOptionName(name string) (OptionDescriptor, bool) {
	d, ok := optionsByName[name]
	return d, ok
}

// OptionTable returns a copy of the descriptor table ordered by id.
func OptionTable() []OptionDescriptor {
	out := make([]OptionDescriptor, len(optionTable))
	copy(out, optionTable)
	return out
}

// OptionValue is a tagged option value. The zero value is IntValue(0).
type OptionValue struct {
	kind OptionKind
	num  int64
	text string
}

// IntValue wraps a 32-bit integer option value.
func IntValue(v int32) OptionValue { return OptionValue{kind: KindInt32, num: int64(v)} }

// Int64Value wraps a 64-bit integer option value.
func Int64Value(v int64) OptionValue { return OptionValue{kind: KindInt64, num: v} }

// BoolValue wraps a boolean option value.
func BoolValue(v bool) OptionValue {
	if v {
		return OptionValue{kind: KindBool, num: 1}
	}
	return OptionValue{kind: KindBool}
}

// TextValue wraps a text option value.
func TextValue(v string) OptionValue { return OptionValue{kind: KindText, text: v} }

func (v OptionValue) Kind() OptionKind { return v.kind }

// Int32 returns the value of an IntValue; other kinds return 0.
func (v OptionValue) Int32() int32 {
	if v.kind != KindInt32 {
		return 0
	}
	return int32(v.num)
}

// Int64 returns the value of an Int64Value or IntValue.
func (v OptionValue) Int64() int64 {
	if v.kind != KindInt32 && v.kind != KindInt64 {
		return 0
	}
	return v.num
}

func (v OptionValue) Bool() bool { return v.kind == KindBool && v.num != 0 }

func (v OptionValue) Text() string { return v.text }

func (v OptionValue) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	case KindText:
		return strconv.Quote(v.text)
	default:
		return strconv.FormatInt(v.num, 10)
	}
}

// marshal encodes v at the width declared by d.
func (d OptionDescriptor) marshal(v OptionValue) ([]byte, error) {
	if v.kind != d.Kind {
		return nil, fmt.Errorf("option %s is %s, got %s", d.Name, d.Kind, v.kind)
	}
	switch d.Kind {
	case KindInt32:
		buf := make([]byte, 4)
		engine.NativeEndian.PutUint32(buf, uint32(int32(v.num)))
		return buf, nil
	case KindInt64:
		buf := make([]byte, 8)
		engine.NativeEndian.PutUint64(buf, uint64(v.num))
		return buf, nil
	case KindBool:
		return []byte{byte(v.num)}, nil
	default:
		if d.MaxLen > 0 && len(v.text) > d.MaxLen {
			return nil, fmt.Errorf("option %s text exceeds %d bytes", d.Name, d.MaxLen)
		}
		return []byte(v.text), nil
	}
}

// buffer returns the read buffer for d's kind.
func (d OptionDescriptor) buffer() []byte {
	switch d.Kind {
	case KindInt32:
		return make([]byte, 4)
	case KindInt64:
		return make([]byte, 8)
	case KindBool:
		return make([]byte, 1)
	default:
		return make([]byte, TextOptionCapacity)
	}
}

// unmarshal decodes n bytes the engine wrote into buf.
func (d OptionDescriptor) unmarshal(buf []byte, n int) (OptionValue, error) {
	switch d.Kind {
	case KindInt32:
		if n < 4 {
			return OptionValue{}, fmt.Errorf("option %s: engine wrote %d bytes", d.Name, n)
		}
		return IntValue(int32(engine.NativeEndian.Uint32(buf))), nil
	case KindInt64:
		if n < 8 {
			return OptionValue{}, fmt.Errorf("option %s: engine wrote %d bytes", d.Name, n)
		}
		return Int64Value(int64(engine.NativeEndian.Uint64(buf))), nil
	case KindBool:
		if n < 1 {
			return OptionValue{}, fmt.Errorf("option %s: engine wrote no bytes", d.Name)
		}
		return BoolValue(buf[0] != 0), nil
	default:
		if n > len(buf) {
			n = len(buf)
		}
		return TextValue(string(buf[:n])), nil
	}
}

// SetSockOpt sets an option on h. The value's kind must match the option's
// declared kind; mismatches never reach the engine.
func (s *SRT) SetSockOpt(h Handle, id SockOpt, v OptionValue) error {
	const op = "setsockopt"
	if !s.reg.has(h) {
		return newError(ErrHandleInvalid, op, h, nil)
	}
	d, ok := LookupOption(id)
	if !ok {
		return newError(ErrOptionUnsupported, op, h, fmt.Errorf("option id %d", id))
	}
	buf, err := d.marshal(v)
	if err != nil {
		return newError(ErrOptionType, op, h, err)
	}
	if err := s.eng.SetSockFlag(h.id(), id, buf); err != nil {
		NewLogger("SetSockOpt").WithHandle(h).WithField("option", d.Name).WithError(err).Debug("Engine rejected option")
		return newError(ErrOptionRejected, op, h, err)
	}
	return nil
}

// GetSockOpt reads an option from h, decoded by the option's declared kind.
// Text values longer than TextOptionCapacity are silently truncated.
func (s *SRT) GetSockOpt(h Handle, id SockOpt) (OptionValue, error) {
	const op = "getsockopt"
	if !s.reg.has(h) {
		return OptionValue{}, newError(ErrHandleInvalid, op, h, nil)
	}
	d, ok := LookupOption(id)
	if !ok {
		return OptionValue{}, newError(ErrOptionUnsupported, op, h, fmt.Errorf("option id %d", id))
	}
	buf := d.buffer()
	n, err := s.eng.GetSockFlag(h.id(), id, buf)
	if err != nil {
		return OptionValue{}, newError(ErrOptionRejected, op, h, err)
	}
	v, err := d.unmarshal(buf, n)
	if err != nil {
		return OptionValue{}, newError(ErrOptionRejected, op, h, err)
	}
	return v, nil
}

// SetSockOpts applies several options in ascending id order and stops at
// the first failure.
func (s *SRT) SetSockOpts(h Handle, values map[SockOpt]OptionValue) error {
	ids := make([]SockOpt, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := s.SetSockOpt(h, id, values[id]); err != nil {
			return err
		}
	}
	return nil
}
