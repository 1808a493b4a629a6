package srtsock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock/engine"
)

func TestEpollUWaitTimeoutIsEmpty(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, _ := listenLoopback(t, s)

	g, err := s.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, s.EpollAddUsock(g, ln, EpollIn|EpollErr))

	start := time.Now()
	events, err := s.EpollUWait(g, 50)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestEpollReportsAcceptAndData(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, port := listenLoopback(t, s)

	g, err := s.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, s.EpollAddUsock(g, ln, EpollIn|EpollErr))

	c := dialLoopback(t, s, port)
	events, err := s.EpollUWait(g, 1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ReadinessEvent{Handle: ln, Events: EpollIn}, events[0])

	peer, err := s.Accept(ln)
	require.NoError(t, err)
	require.NoError(t, s.EpollAddUsock(g, peer, EpollIn|EpollErr))

	_, err = s.Write(c, []byte("ping"))
	require.NoError(t, err)
	events, err = s.EpollUWait(g, 1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, peer, events[0].Handle)
	assert.Equal(t, EpollIn, events[0].Events)

	// Updating the mask replaces the interest set.
	require.NoError(t, s.EpollAddUsock(g, peer, EpollOut))
	events, err = s.EpollUWait(g, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EpollOut, events[0].Events)

	require.NoError(t, s.EpollRemoveUsock(g, peer))
	events, err = s.EpollUWait(g, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEpollUWaitBound(t *testing.T) {
	s, m := newMockSRT(t, nil)
	g, err := s.EpollCreate()
	require.NoError(t, err)

	for i := 0; i < MaxPollEvents+10; i++ {
		h, err := s.CreateSocket(false)
		require.NoError(t, err)
		m.events = append(m.events, engine.EpollEvent{Socket: engine.SocketID(h), Events: engine.EpollOut})
	}
	events, err := s.EpollUWait(g, -1)
	require.NoError(t, err)
	assert.Equal(t, MaxPollEvents, m.waitLen)
	assert.Len(t, events, MaxPollEvents)

	opts := NewOptions()
	opts.MaxPollEvents = 4
	small, sm := newMockSRT(t, opts)
	g, err = small.EpollCreate()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		h, err := small.CreateSocket(false)
		require.NoError(t, err)
		sm.events = append(sm.events, engine.EpollEvent{Socket: engine.SocketID(h), Events: engine.EpollIn})
	}
	events, err = small.EpollUWait(g, 0)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestEpollDropsClosedHandles(t *testing.T) {
	s, m := newMockSRT(t, nil)
	g, err := s.EpollCreate()
	require.NoError(t, err)
	a, err := s.CreateSocket(false)
	require.NoError(t, err)
	b, err := s.CreateSocket(false)
	require.NoError(t, err)
	m.events = []engine.EpollEvent{
		{Socket: engine.SocketID(a), Events: engine.EpollIn},
		{Socket: engine.SocketID(b), Events: engine.EpollErr},
	}
	require.NoError(t, s.Close(a))

	events, err := s.EpollUWait(g, 0)
	require.NoError(t, err)
	assert.Equal(t, []ReadinessEvent{{Handle: b, Events: EpollErr}}, events)
}

func TestEpollErrors(t *testing.T) {
	s, m := newMockSRT(t, nil)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)

	err = s.EpollAddUsock(PollGroup(99), h, EpollIn)
	assert.True(t, errors.Is(err, ErrHandleInvalid))
	assert.Equal(t, engine.ErrnoInvPollID, ErrorCode(err))

	_, err = s.EpollUWait(PollGroup(99), 0)
	assert.True(t, errors.Is(err, ErrHandleInvalid))

	g, err := s.EpollCreate()
	require.NoError(t, err)
	require.NoError(t, s.EpollRelease(g))
	assert.True(t, errors.Is(s.EpollRelease(g), ErrHandleInvalid))

	m.failNext("epoll_create", engine.ErrnoResource, "")
	_, err = s.EpollCreate()
	assert.True(t, errors.Is(err, ErrAllocation))
}
