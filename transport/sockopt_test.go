package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock/engine"
)

func TestSockOptDefaults(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.Socket()
	require.NoError(t, err)

	tests := []struct {
		opt  engine.SockOpt
		want int32
	}{
		{engine.OptMSS, 1500},
		{engine.OptLatency, 120},
		{engine.OptPayloadSize, 1316},
		{engine.OptConnTimeO, 3000},
		{engine.OptPeerIdleTO, 5000},
		{engine.OptRcvTimeO, -1},
		{engine.OptState, int32(engine.StatusInit)},
		{engine.OptVersion, EngineVersion},
		{engine.OptKMState, engine.KMStateUnsecured},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getInt(t, e, s, tt.opt), "option %d", tt.opt)
	}

	buf := make([]byte, 1)
	n, err := e.GetSockFlag(s, engine.OptRcvSyn, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(1), buf[0])

	buf = make([]byte, 8)
	n, err = e.GetSockFlag(s, engine.OptMaxBW, buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, int64(-1), int64(engine.NativeEndian.Uint64(buf)))

	text := make([]byte, 512)
	n, err = e.GetSockFlag(s, engine.OptCongestion, text)
	require.NoError(t, err)
	assert.Equal(t, "live", string(text[:n]))
}

func TestSockOptSetGet(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.Socket()
	require.NoError(t, err)

	setInt(t, e, s, engine.OptLatency, 250)
	assert.Equal(t, int32(250), getInt(t, e, s, engine.OptLatency))
	assert.Equal(t, int32(250), getInt(t, e, s, engine.OptRcvLatency))
	assert.Equal(t, int32(250), getInt(t, e, s, engine.OptPeerLatency))

	setBool(t, e, s, engine.OptSndSyn, false)
	buf := []byte{0xFF}
	_, err = e.GetSockFlag(s, engine.OptSndSyn, buf)
	require.NoError(t, err)
	assert.Equal(t, byte(0), buf[0])

	// Booleans are also accepted as 4-byte integers.
	wide := make([]byte, 4)
	engine.NativeEndian.PutUint32(wide, 1)
	require.NoError(t, e.SetSockFlag(s, engine.OptSndSyn, wide))

	setText(t, e, s, engine.OptStreamID, "#!::r=cam1")
	text := make([]byte, 512)
	n, err := e.GetSockFlag(s, engine.OptStreamID, text)
	require.NoError(t, err)
	assert.Equal(t, "#!::r=cam1", string(text[:n]))

	// Text longer than the caller's buffer is truncated.
	short := make([]byte, 4)
	n, err = e.GetSockFlag(s, engine.OptStreamID, short)
	require.NoError(t, err)
	assert.Equal(t, "#!::", string(short[:n]))

	setInt(t, e, s, engine.OptTransType, engine.TransTypeFile)
	assert.Equal(t, int32(MaxPayloadSize), getInt(t, e, s, engine.OptPayloadSize))
}

func TestSockOptRejections(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.Socket()
	require.NoError(t, err)

	four := func(v int32) []byte {
		b := make([]byte, 4)
		engine.NativeEndian.PutUint32(b, uint32(v))
		return b
	}

	tests := []struct {
		name string
		opt  engine.SockOpt
		buf  []byte
		want engine.Errno
	}{
		{"read-only", engine.OptState, four(1), engine.ErrnoInvOp},
		{"unknown", engine.SockOpt(38), four(1), engine.ErrnoInvOp},
		{"wrong width", engine.OptMSS, []byte{1, 2}, engine.ErrnoInvParam},
		{"out of range", engine.OptMSS, four(10), engine.ErrnoInvParam},
		{"bad key length", engine.OptPBKeyLen, four(17), engine.ErrnoInvParam},
		{"short passphrase", engine.OptPassphrase, []byte("short"), engine.ErrnoInvParam},
		{"long stream id", engine.OptStreamID, make([]byte, 513), engine.ErrnoInvParam},
		{"bad congestion", engine.OptCongestion, []byte("cubic"), engine.ErrnoInvParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireCode(t, tt.want, e.SetSockFlag(s, tt.opt, tt.buf))
		})
	}

	_, err = e.GetSockFlag(s, engine.OptPassphrase, make([]byte, 512))
	requireCode(t, engine.ErrnoInvOp, err)
	_, err = e.GetSockFlag(s, engine.OptMSS, make([]byte, 2))
	requireCode(t, engine.ErrnoInvParam, err)
}

func TestSockOptPreOptionsAfterConnect(t *testing.T) {
	e := newTestEngine(t)
	ln, client, server := connectPair(t, e)

	b := make([]byte, 4)
	engine.NativeEndian.PutUint32(b, 200)
	requireCode(t, engine.ErrnoConnSock, e.SetSockFlag(client, engine.OptLatency, b))
	requireCode(t, engine.ErrnoBoundSock, e.SetSockFlag(ln, engine.OptLatency, b))

	// Runtime options are still accepted.
	setInt(t, e, server, engine.OptRcvTimeO, 100)
	assert.Equal(t, int32(100), getInt(t, e, server, engine.OptRcvTimeO))
}

func TestSockOptNegotiatedOnAccept(t *testing.T) {
	e := newTestEngine(t)
	ln, addr := startListener(t, e, 4, func(id engine.SocketID) {
		setInt(t, e, id, engine.OptRcvLatency, 80)
	})

	c, err := e.Socket()
	require.NoError(t, err)
	setText(t, e, c, engine.OptStreamID, "feed-1")
	setInt(t, e, c, engine.OptPeerLatency, 300)
	require.NoError(t, e.Connect(c, addr))
	s, _, err := e.Accept(ln)
	require.NoError(t, err)

	text := make([]byte, 512)
	n, err := e.GetSockFlag(s, engine.OptStreamID, text)
	require.NoError(t, err)
	assert.Equal(t, "feed-1", string(text[:n]))

	// The caller asked for 300ms of receiver buffering on the listener side.
	assert.Equal(t, int32(300), getInt(t, e, s, engine.OptRcvLatency))
	assert.Equal(t, int32(300), getInt(t, e, c, engine.OptPeerLatency))
}
