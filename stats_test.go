package srtsock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock/engine"
)

func TestStatsClearKeepsTotals(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, port := listenLoopback(t, s)
	c := dialLoopback(t, s, port)
	peer, err := s.Accept(ln)
	require.NoError(t, err)

	for _, msg := range []string{"one", "two", "three"} {
		_, err := s.Write(c, []byte(msg))
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		st, err := s.Stats(peer, false)
		return err == nil && st.Cumulative.PktRecv == 3
	}, time.Second, 5*time.Millisecond)

	first, err := s.Stats(c, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Cumulative.PktSent)
	assert.Equal(t, int64(3), first.Interval.PktSent)
	assert.Equal(t, uint64(11), first.Cumulative.ByteSent)

	second, err := s.Stats(c, false)
	require.NoError(t, err)
	assert.Zero(t, second.Interval.PktSent)
	assert.Zero(t, second.Interval.ByteSent)
	assert.GreaterOrEqual(t, second.Cumulative.PktSent, first.Cumulative.PktSent)
	assert.GreaterOrEqual(t, second.Timestamp, first.Timestamp)

	recv, err := s.Stats(peer, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), recv.Cumulative.ByteRecv)
	assert.Equal(t, int32(3), recv.Instant.PktRcvBuf)
}

func TestStatsBrokenConnection(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, port := listenLoopback(t, s)
	c := dialLoopback(t, s, port)
	peer, err := s.Accept(ln)
	require.NoError(t, err)

	require.NoError(t, s.Close(c))
	require.Eventually(t, func() bool {
		state, err := s.GetSockState(peer)
		return err == nil && state == StatusBroken
	}, time.Second, 5*time.Millisecond)

	_, err = s.Stats(peer, false)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Equal(t, engine.ErrnoConnLost, ErrorCode(err))

	_, err = s.Stats(c, false)
	assert.True(t, errors.Is(err, ErrHandleInvalid))
}

func TestSnapshotMapping(t *testing.T) {
	s, m := newMockSRT(t, nil)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)
	m.stats = engine.TraceBStats{
		MsTimeStamp:  1500,
		PktSentTotal: 10,
		PktSent:      4,
		PktRecv:      2,
		MsRTT:        12.5,
		ByteMSS:      1500,
		MbpsSendRate: 1.25,
	}

	st, err := s.Stats(h, true)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, st.Timestamp)
	assert.Equal(t, int64(10), st.Cumulative.PktSent)
	assert.Equal(t, int64(4), st.Interval.PktSent)
	assert.Equal(t, 1.25, st.Interval.MbpsSendRate)
	assert.Equal(t, 12.5, st.Instant.MsRTT)
	assert.Equal(t, int32(1500), st.Instant.ByteMSS)

	st, err = s.Stats(h, false)
	require.NoError(t, err)
	assert.Zero(t, st.Interval.PktSent)
	assert.Zero(t, st.Interval.PktRecv)
	assert.Equal(t, int64(10), st.Cumulative.PktSent)
}
