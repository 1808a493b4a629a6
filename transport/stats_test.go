package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock/engine"
)

func TestBStatsCounters(t *testing.T) {
	e := newTestEngine(t)
	_, client, server := connectPair(t, e)

	for _, msg := range []string{"a", "bb", "ccc"} {
		_, err := e.SendMsg(client, []byte(msg))
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		var st engine.TraceBStats
		return e.BStats(server, &st, false) == nil && st.PktRecvTotal == 3
	}, time.Second, 5*time.Millisecond)

	var st engine.TraceBStats
	require.NoError(t, e.BStats(client, &st, true))
	assert.Equal(t, int64(3), st.PktSentTotal)
	assert.Equal(t, int64(3), st.PktSent)
	assert.Equal(t, uint64(6), st.ByteSentTotal)
	assert.Equal(t, int32(1500), st.ByteMSS)

	// Clearing resets interval counters but never the totals.
	require.NoError(t, e.BStats(client, &st, false))
	assert.Equal(t, int64(0), st.PktSent)
	assert.Equal(t, int64(3), st.PktSentTotal)

	require.NoError(t, e.BStats(server, &st, false))
	assert.Equal(t, int64(3), st.PktRecv)
	assert.Equal(t, uint64(6), st.ByteRecvTotal)
	assert.Equal(t, int32(3), st.PktRcvBuf)
	assert.Equal(t, int32(6), st.ByteRcvBuf)
	assert.Equal(t, int32(0), st.PktRcvLossTotal)
}

func TestBStatsErrors(t *testing.T) {
	e := newTestEngine(t)
	_, client, server := connectPair(t, e)

	var st engine.TraceBStats
	requireCode(t, engine.ErrnoInvSock, e.BStats(engine.SocketID(999), &st, false))

	require.NoError(t, e.Close(client))
	require.Eventually(t, func() bool {
		return e.GetSockState(server) == engine.StatusBroken
	}, time.Second, 5*time.Millisecond)
	requireCode(t, engine.ErrnoConnLost, e.BStats(server, &st, false))
}

func TestLossAccounting(t *testing.T) {
	e := newTestEngine(t)
	_, client, server := connectPair(t, e)

	// Skip two sequence numbers on the sender to simulate loss.
	e.mu.Lock()
	e.sockets[client].sndSeq += 2
	e.mu.Unlock()

	_, err := e.SendMsg(client, []byte("after gap"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		var st engine.TraceBStats
		return e.BStats(server, &st, false) == nil && st.PktRecvTotal == 1
	}, time.Second, 5*time.Millisecond)

	var st engine.TraceBStats
	require.NoError(t, e.BStats(server, &st, false))
	assert.Equal(t, int32(2), st.PktRcvLossTotal)
}
