package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock/engine"
)

func TestEpollListenerReadiness(t *testing.T) {
	e := newTestEngine(t)
	ln, addr := startListener(t, e, 4, nil)

	eid, err := e.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, e.EpollAddUsock(eid, ln, engine.EpollIn|engine.EpollErr))

	events := make([]engine.EpollEvent, 8)
	n, err := e.EpollUWait(eid, events, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	c, err := e.Socket()
	require.NoError(t, err)
	require.NoError(t, e.Connect(c, addr))

	n, err = e.EpollUWait(eid, events, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, engine.EpollEvent{Socket: ln, Events: engine.EpollIn}, events[0])

	_, _, err = e.Accept(ln)
	require.NoError(t, err)
	n, err = e.EpollUWait(eid, events, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEpollDataReadiness(t *testing.T) {
	e := newTestEngine(t)
	_, client, server := connectPair(t, e)

	eid, err := e.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, e.EpollAddUsock(eid, server, engine.EpollIn))

	events := make([]engine.EpollEvent, 8)
	start := time.Now()
	n, err := e.EpollUWait(eid, events, 60)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	_, err = e.SendMsg(client, []byte("ping"))
	require.NoError(t, err)
	n, err = e.EpollUWait(eid, events, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, server, events[0].Socket)
	assert.Equal(t, engine.EpollIn, events[0].Events)

	// Level-triggered: still ready until the message is read.
	n, err = e.EpollUWait(eid, events, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.RecvMsg(server, make([]byte, 16))
	require.NoError(t, err)
	n, err = e.EpollUWait(eid, events, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEpollEdgeTriggered(t *testing.T) {
	e := newTestEngine(t)
	_, client, server := connectPair(t, e)

	eid, err := e.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, e.EpollAddUsock(eid, server, engine.EpollIn|engine.EpollET))

	_, err = e.SendMsg(client, []byte("one"))
	require.NoError(t, err)

	events := make([]engine.EpollEvent, 8)
	n, err := e.EpollUWait(eid, events, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = e.EpollUWait(eid, events, 30)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "edge already reported")

	// Draining and refilling produces a new edge.
	_, err = e.RecvMsg(server, make([]byte, 16))
	require.NoError(t, err)
	n, err = e.EpollUWait(eid, events, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = e.SendMsg(client, []byte("two"))
	require.NoError(t, err)
	n, err = e.EpollUWait(eid, events, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEpollBoundedByBuffer(t *testing.T) {
	e := newTestEngine(t)
	ln, addr := startListener(t, e, 8, nil)

	eid, err := e.EpollCreate()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		c, err := e.Socket()
		require.NoError(t, err)
		require.NoError(t, e.Connect(c, addr))
		s, _, err := e.Accept(ln)
		require.NoError(t, err)
		require.NoError(t, e.EpollAddUsock(eid, s, engine.EpollOut))
	}

	events := make([]engine.EpollEvent, 2)
	n, err := e.EpollUWait(eid, events, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEpollClosedSocketIsDropped(t *testing.T) {
	e := newTestEngine(t)
	_, _, server := connectPair(t, e)

	eid, err := e.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, e.EpollAddUsock(eid, server, engine.EpollOut))
	require.NoError(t, e.Close(server))

	events := make([]engine.EpollEvent, 4)
	n, err := e.EpollUWait(eid, events, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = e.EpollUWait(eid, events, -1)
	requireCode(t, engine.ErrnoPollEmpty, err)
}

func TestEpollErrors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.EpollUWait(99, make([]engine.EpollEvent, 1), 0)
	requireCode(t, engine.ErrnoInvPollID, err)

	eid, err := e.EpollCreate()
	require.NoError(t, err)
	requireCode(t, engine.ErrnoInvSock, e.EpollAddUsock(eid, engine.SocketID(4242), engine.EpollIn))

	s, err := e.Socket()
	require.NoError(t, err)
	requireCode(t, engine.ErrnoInvPollID, e.EpollAddUsock(eid+1, s, engine.EpollIn))

	require.NoError(t, e.EpollRelease(eid))
	requireCode(t, engine.ErrnoInvPollID, e.EpollRelease(eid))
}

func TestEpollReleaseWakesWaiter(t *testing.T) {
	e := newTestEngine(t)
	ln, err := e.Socket()
	require.NoError(t, err)
	require.NoError(t, e.Bind(ln, &net.UDPAddr{IP: loopback}))
	require.NoError(t, e.Listen(ln, 1))

	eid, err := e.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, e.EpollAddUsock(eid, ln, engine.EpollIn))

	done := make(chan error, 1)
	go func() {
		_, err := e.EpollUWait(eid, make([]engine.EpollEvent, 1), -1)
		done <- err
	}()
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, e.EpollRelease(eid))

	select {
	case err := <-done:
		requireCode(t, engine.ErrnoInvPollID, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
}
