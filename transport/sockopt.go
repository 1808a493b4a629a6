package transport

import (
	"time"

	"github.com/opd-ai/srtsock/engine"
)

// EngineVersion is reported through OptVersion and sent in handshakes.
const EngineVersion = 0x010403

// MaxPayloadSize is the largest message a single datagram may carry.
const MaxPayloadSize = 1456

type optKind int

const (
	optInt32 optKind = iota
	optInt64
	optBool
	optText
)

type optAccess int

const (
	optReadWrite optAccess = iota
	optReadOnly
	optWriteOnly
)

// optDef describes how the engine stores and validates one option.
type optDef struct {
	kind   optKind
	access optAccess
	// pre options can only change before the socket connects or listens.
	pre    bool
	maxLen int
	def    int64
	text   string
	valid  func(v int64) bool
}

func between(lo, hi int64) func(int64) bool {
	return func(v int64) bool { return v >= lo && v <= hi }
}

func oneOf(values ...int64) func(int64) bool {
	return func(v int64) bool {
		for _, want := range values {
			if v == want {
				return true
			}
		}
		return false
	}
}

var optDefs = map[engine.SockOpt]optDef{
	engine.OptMSS:         {kind: optInt32, pre: true, def: 1500, valid: between(76, 1500)},
	engine.OptSndSyn:      {kind: optBool, def: 1},
	engine.OptRcvSyn:      {kind: optBool, def: 1},
	engine.OptISN:         {kind: optInt32, access: optReadOnly},
	engine.OptFC:          {kind: optInt32, pre: true, def: 25600, valid: between(32, 1<<31-1)},
	engine.OptSndBuf:      {kind: optInt32, pre: true, def: 12058624, valid: between(1, 1<<31-1)},
	engine.OptRcvBuf:      {kind: optInt32, pre: true, def: 12058624, valid: between(1, 1<<31-1)},
	engine.OptLinger:      {kind: optInt32, def: 180, valid: between(0, 1<<31-1)},
	engine.OptUDPSndBuf:   {kind: optInt32, pre: true, def: 65536, valid: between(1, 1<<31-1)},
	engine.OptUDPRcvBuf:   {kind: optInt32, pre: true, def: 65536, valid: between(1, 1<<31-1)},
	engine.OptRendezvous:  {kind: optBool, pre: true},
	engine.OptSndTimeO:    {kind: optInt32, def: -1, valid: between(-1, 1<<31-1)},
	engine.OptRcvTimeO:    {kind: optInt32, def: -1, valid: between(-1, 1<<31-1)},
	engine.OptReuseAddr:   {kind: optBool, pre: true, def: 1},
	engine.OptMaxBW:       {kind: optInt64, def: -1, valid: between(-1, 1<<63-1)},
	engine.OptState:       {kind: optInt32, access: optReadOnly},
	engine.OptEvent:       {kind: optInt32, access: optReadOnly},
	engine.OptSndData:     {kind: optInt32, access: optReadOnly},
	engine.OptRcvData:     {kind: optInt32, access: optReadOnly},
	engine.OptSender:      {kind: optBool, access: optWriteOnly, pre: true},
	engine.OptTSBPDMode:   {kind: optBool, pre: true, def: 1},
	engine.OptLatency:     {kind: optInt32, pre: true, def: 120, valid: between(0, 1<<31-1)},
	engine.OptInputBW:     {kind: optInt64, valid: between(0, 1<<63-1)},
	engine.OptOheadBW:     {kind: optInt32, def: 25, valid: between(5, 100)},
	engine.OptPassphrase:  {kind: optText, access: optWriteOnly, pre: true, maxLen: 79},
	engine.OptPBKeyLen:    {kind: optInt32, pre: true, valid: oneOf(0, 16, 24, 32)},
	engine.OptKMState:     {kind: optInt32, access: optReadOnly},
	engine.OptIPTTL:       {kind: optInt32, pre: true, def: 64, valid: between(1, 255)},
	engine.OptIPTOS:       {kind: optInt32, pre: true, valid: between(0, 255)},
	engine.OptTLPktDrop:   {kind: optBool, pre: true, def: 1},
	engine.OptSndDropDly:  {kind: optInt32, def: 0, valid: between(-1, 1<<31-1)},
	engine.OptNAKReport:   {kind: optBool, pre: true, def: 1},
	engine.OptVersion:     {kind: optInt32, access: optReadOnly},
	engine.OptPeerVersion: {kind: optInt32, access: optReadOnly},
	engine.OptConnTimeO:   {kind: optInt32, pre: true, def: 3000, valid: between(0, 1<<31-1)},
	engine.OptSndKMState:  {kind: optInt32, access: optReadOnly},
	engine.OptRcvKMState:  {kind: optInt32, access: optReadOnly},
	engine.OptLossMaxTTL:  {kind: optInt32, valid: between(0, 1<<31-1)},
	engine.OptRcvLatency:  {kind: optInt32, pre: true, def: 120, valid: between(0, 1<<31-1)},
	engine.OptPeerLatency: {kind: optInt32, pre: true, def: 0, valid: between(0, 1<<31-1)},
	engine.OptMinVersion:  {kind: optInt32, pre: true, def: 0x010000},
	engine.OptStreamID:    {kind: optText, pre: true, maxLen: 512},
	engine.OptCongestion:  {kind: optText, pre: true, maxLen: 16, text: "live"},
	engine.OptMessageAPI:  {kind: optBool, pre: true, def: 1},
	engine.OptPayloadSize: {kind: optInt32, pre: true, def: 1316, valid: between(0, MaxPayloadSize)},
	engine.OptTransType:   {kind: optInt32, access: optWriteOnly, pre: true, valid: oneOf(int64(engine.TransTypeLive), int64(engine.TransTypeFile))},
	engine.OptKMRefresh:   {kind: optInt32, pre: true, def: 0x1000000, valid: between(0, 1<<31-1)},
	engine.OptKMPreAnnce:  {kind: optInt32, pre: true, def: 0x1000, valid: between(0, 1<<31-1)},
	engine.OptEnforcedEnc: {kind: optBool, pre: true, def: 1},
	engine.OptIPv6Only:    {kind: optInt32, pre: true, def: -1, valid: between(-1, 1)},
	engine.OptPeerIdleTO:  {kind: optInt32, pre: true, def: 5000, valid: between(0, 1<<31-1)},
	engine.OptPacketFilt:  {kind: optText, pre: true, maxLen: 512},
}

// optionSet holds the stored (non-computed) option values of one socket.
type optionSet struct {
	nums  map[engine.SockOpt]int64
	texts map[engine.SockOpt]string
}

func defaultOptions() optionSet {
	o := optionSet{
		nums:  make(map[engine.SockOpt]int64),
		texts: make(map[engine.SockOpt]string),
	}
	for id, od := range optDefs {
		if od.access == optReadOnly {
			continue
		}
		if od.kind == optText {
			o.texts[id] = od.text
		} else {
			o.nums[id] = od.def
		}
	}
	return o
}

// clone copies the set; accepted sockets inherit the listener's options.
func (o optionSet) clone() optionSet {
	c := optionSet{
		nums:  make(map[engine.SockOpt]int64, len(o.nums)),
		texts: make(map[engine.SockOpt]string, len(o.texts)),
	}
	for k, v := range o.nums {
		c.nums[k] = v
	}
	for k, v := range o.texts {
		c.texts[k] = v
	}
	return c
}

func (o optionSet) num(id engine.SockOpt) int64  { return o.nums[id] }
func (o optionSet) flag(id engine.SockOpt) bool  { return o.nums[id] != 0 }
func (o optionSet) str(id engine.SockOpt) string { return o.texts[id] }

// deadline converts a millisecond timeout option into an absolute deadline.
// The zero time means no deadline.
func (o optionSet) deadline(id engine.SockOpt, from time.Time) time.Time {
	v := o.nums[id]
	if v < 0 {
		return time.Time{}
	}
	return from.Add(time.Duration(v) * time.Millisecond)
}

// GetSockFlag implements engine.Engine.
func (e *Engine) GetSockFlag(id engine.SocketID, opt engine.SockOpt, buf []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	od, ok := optDefs[opt]
	if !ok {
		return 0, engine.NewError(engine.ErrnoInvOp, "unknown option")
	}
	if od.access == optWriteOnly {
		return 0, engine.NewError(engine.ErrnoInvOp, "option is write-only")
	}

	if od.kind == optText {
		return copy(buf, s.opts.str(opt)), nil
	}
	v := e.numericOption(s, opt)
	switch od.kind {
	case optInt32:
		if len(buf) < 4 {
			return 0, engine.NewError(engine.ErrnoInvParam, "buffer too small")
		}
		engine.NativeEndian.PutUint32(buf, uint32(int32(v)))
		return 4, nil
	case optInt64:
		if len(buf) < 8 {
			return 0, engine.NewError(engine.ErrnoInvParam, "buffer too small")
		}
		engine.NativeEndian.PutUint64(buf, uint64(v))
		return 8, nil
	default:
		if len(buf) < 1 {
			return 0, engine.NewError(engine.ErrnoInvParam, "buffer too small")
		}
		buf[0] = 0
		if v != 0 {
			buf[0] = 1
		}
		return 1, nil
	}
}

// numericOption resolves computed options and falls back to the stored set.
// Caller holds e.mu.
func (e *Engine) numericOption(s *socket, opt engine.SockOpt) int64 {
	switch opt {
	case engine.OptISN:
		return int64(s.isn)
	case engine.OptState:
		return int64(s.status)
	case engine.OptEvent:
		return int64(s.readiness())
	case engine.OptSndData:
		return 0
	case engine.OptRcvData:
		return int64(s.queuedMessages())
	case engine.OptKMState, engine.OptSndKMState, engine.OptRcvKMState:
		return int64(s.kmState)
	case engine.OptVersion:
		return EngineVersion
	case engine.OptPeerVersion:
		return int64(s.peerVersion)
	case engine.OptLatency:
		return s.opts.num(engine.OptRcvLatency)
	default:
		return s.opts.num(opt)
	}
}

// SetSockFlag implements engine.Engine.
func (e *Engine) SetSockFlag(id engine.SocketID, opt engine.SockOpt, buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	od, ok := optDefs[opt]
	if !ok {
		return engine.NewError(engine.ErrnoInvOp, "unknown option")
	}
	if od.access == optReadOnly {
		return engine.NewError(engine.ErrnoInvOp, "option is read-only")
	}
	if od.pre {
		switch s.status {
		case engine.StatusListening:
			return engine.NewError(engine.ErrnoBoundSock, "option must be set before listen")
		case engine.StatusConnecting, engine.StatusConnected, engine.StatusBroken:
			return engine.NewError(engine.ErrnoConnSock, "option must be set before connect")
		}
	}

	if od.kind == optText {
		if len(buf) > od.maxLen {
			return engine.NewError(engine.ErrnoInvParam, "value too long")
		}
		text := string(buf)
		if err := validateText(opt, text); err != nil {
			return err
		}
		s.opts.texts[opt] = text
		return nil
	}

	v, err := decodeNumeric(od.kind, buf)
	if err != nil {
		return err
	}
	if od.valid != nil && !od.valid(v) {
		return engine.NewError(engine.ErrnoInvParam, "value out of range")
	}
	e.applyNumeric(s, opt, v)
	return nil
}

func decodeNumeric(kind optKind, buf []byte) (int64, error) {
	switch kind {
	case optInt32:
		if len(buf) != 4 {
			return 0, engine.NewError(engine.ErrnoInvParam, "expected 4-byte value")
		}
		return int64(int32(engine.NativeEndian.Uint32(buf))), nil
	case optInt64:
		switch len(buf) {
		case 8:
			return int64(engine.NativeEndian.Uint64(buf)), nil
		case 4:
			return int64(int32(engine.NativeEndian.Uint32(buf))), nil
		}
		return 0, engine.NewError(engine.ErrnoInvParam, "expected 8-byte value")
	default:
		switch len(buf) {
		case 1:
			return int64(buf[0] & 1), nil
		case 4:
			if engine.NativeEndian.Uint32(buf) != 0 {
				return 1, nil
			}
			return 0, nil
		}
		return 0, engine.NewError(engine.ErrnoInvParam, "expected boolean value")
	}
}

func validateText(opt engine.SockOpt, text string) error {
	switch opt {
	case engine.OptPassphrase:
		if text != "" && (len(text) < 10 || len(text) > 79) {
			return engine.NewError(engine.ErrnoInvParam, "passphrase must be 10-79 characters")
		}
	case engine.OptCongestion:
		if text != "live" && text != "file" {
			return engine.NewError(engine.ErrnoInvParam, "unknown congestion controller")
		}
	}
	return nil
}

// applyNumeric stores v, expanding options that set several values at once.
// Caller holds e.mu.
func (e *Engine) applyNumeric(s *socket, opt engine.SockOpt, v int64) {
	switch opt {
	case engine.OptLatency:
		s.opts.nums[engine.OptRcvLatency] = v
		s.opts.nums[engine.OptPeerLatency] = v
	case engine.OptTransType:
		if int32(v) == engine.TransTypeFile {
			s.opts.nums[engine.OptTSBPDMode] = 0
			s.opts.nums[engine.OptTLPktDrop] = 0
			s.opts.nums[engine.OptPayloadSize] = MaxPayloadSize
			s.opts.texts[engine.OptCongestion] = "file"
		} else {
			s.opts.nums[engine.OptTSBPDMode] = 1
			s.opts.nums[engine.OptTLPktDrop] = 1
			s.opts.nums[engine.OptPayloadSize] = optDefs[engine.OptPayloadSize].def
			s.opts.texts[engine.OptCongestion] = "live"
		}
		s.opts.nums[opt] = v
	default:
		s.opts.nums[opt] = v
	}
	// Blocking mode or timeouts may have changed under a waiter.
	e.signal()
}
