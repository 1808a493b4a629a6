package srtsock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock/engine"
)

func TestEndToEndTwoAccepts(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, port := listenLoopback(t, s)

	clients := []Handle{dialLoopback(t, s, port), dialLoopback(t, s, port)}

	for i, c := range clients {
		peer, err := s.Accept(ln)
		require.NoError(t, err, "accept %d", i)
		assert.NotEqual(t, ln, peer)

		state, err := s.GetSockState(ln)
		require.NoError(t, err)
		assert.Equal(t, StatusListening, state, "listener stays open after accept %d", i)

		n, err := s.Write(c, []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		got, err := s.Read(peer, 1024)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))

		state, err = s.GetSockState(peer)
		require.NoError(t, err)
		assert.Equal(t, StatusConnected, state)
	}

	roles := make(map[Role]int)
	for _, info := range s.Handles() {
		roles[info.Role]++
	}
	assert.Equal(t, map[Role]int{RoleListener: 1, RoleOutbound: 2, RoleAccepted: 2}, roles)
}

func TestShortReadKeepsRemainder(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, port := listenLoopback(t, s)
	c := dialLoopback(t, s, port)
	peer, err := s.Accept(ln)
	require.NoError(t, err)

	_, err = s.Write(c, []byte("abcdefgh"))
	require.NoError(t, err)

	first, err := s.Read(peer, 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(first))
	rest, err := s.Read(peer, 100)
	require.NoError(t, err)
	assert.Equal(t, "defgh", string(rest))
}

func TestCloseThenInvalid(t *testing.T) {
	s := newLoopbackSRT(t)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)
	require.NoError(t, s.Close(h))

	g, err := s.EpollCreate()
	require.NoError(t, err)

	checks := map[string]error{
		"close":      s.Close(h),
		"bind":       s.Bind(h, "127.0.0.1", 0),
		"listen":     s.Listen(h, 1),
		"connect":    s.Connect(h, "127.0.0.1", 9),
		"setsockopt": s.SetSockOpt(h, OptLatency, IntValue(1)),
		"epoll_add":  s.EpollAddUsock(g, h, EpollIn),
	}
	_, checks["accept"] = s.Accept(h)
	_, checks["read"] = s.Read(h, 10)
	_, checks["write"] = s.Write(h, []byte("x"))
	_, checks["getsockopt"] = s.GetSockOpt(h, OptLatency)
	_, checks["state"] = s.GetSockState(h)
	_, checks["stats"] = s.Stats(h, false)

	for op, err := range checks {
		assert.True(t, errors.Is(err, ErrHandleInvalid), "%s: %v", op, err)
	}
}

func TestCloseIsolation(t *testing.T) {
	s := newLoopbackSRT(t)
	a, err := s.CreateSocket(false)
	require.NoError(t, err)
	b, err := s.CreateSocket(false)
	require.NoError(t, err)

	require.NoError(t, s.Close(a))
	assert.True(t, errors.Is(s.Close(a), ErrHandleInvalid))

	state, err := s.GetSockState(b)
	require.NoError(t, err)
	assert.Equal(t, StatusInit, state)
	require.NoError(t, s.SetSockOpt(b, OptLatency, IntValue(300)))
}

func TestConcurrentCloseSucceedsOnce(t *testing.T) {
	s := newLoopbackSRT(t)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Close(h)
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.True(t, errors.Is(err, ErrHandleInvalid))
		}
	}
	assert.Equal(t, 1, ok)
}

func TestCloseUnblocksRead(t *testing.T) {
	s := newLoopbackSRT(t)
	ln, port := listenLoopback(t, s)
	dialLoopback(t, s, port)
	peer, err := s.Accept(ln)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Read(peer, 64)
		done <- err
	}()
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Close(peer))

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, IsClosedError(err))
	case <-time.After(time.Second):
		t.Fatal("read was not unblocked by close")
	}
}

func TestDistinctHandles(t *testing.T) {
	s := newLoopbackSRT(t)
	seen := make(map[Handle]bool)
	for i := 0; i < 64; i++ {
		h, err := s.CreateSocket(i%2 == 0)
		require.NoError(t, err)
		assert.False(t, seen[h], "handle %d reused while open", h)
		seen[h] = true
	}
	assert.Len(t, s.Handles(), 64)
}

func TestBindAddressValidation(t *testing.T) {
	s, m := newMockSRT(t, nil)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)

	for _, addr := range []string{"", "localhost", "1.2.3", "256.1.1.1", "01.2.3.4", "::1", "::ffff:1.2.3.4", "1.2.3.4 "} {
		err := s.Bind(h, addr, 9000)
		assert.True(t, errors.Is(err, ErrAddressParse), "address %q", addr)
	}
	for _, port := range []int{-1, 65536} {
		assert.True(t, errors.Is(s.Bind(h, "0.0.0.0", port), ErrAddressParse), "port %d", port)
	}
	assert.Empty(t, m.callsOf("bind"))
	assert.Empty(t, m.callsOf("close"), "parse failures leave the handle open")

	require.NoError(t, s.Bind(h, "0.0.0.0", 0))
}

func TestSetupFailureClosesHandle(t *testing.T) {
	tests := []struct {
		name string
		op   string
		call func(s *SRT, h Handle) error
		kind error
	}{
		{"bind", "bind", func(s *SRT, h Handle) error { return s.Bind(h, "127.0.0.1", 9000) }, ErrBind},
		{"listen", "listen", func(s *SRT, h Handle) error { return s.Listen(h, 5) }, ErrListen},
		{"connect", "connect", func(s *SRT, h Handle) error { return s.Connect(h, "127.0.0.1", 9000) }, ErrConnect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newMockSRT(t, nil)
			h, err := s.CreateSocket(false)
			require.NoError(t, err)
			m.failNext(tt.op, engine.ErrnoConnRej, "from "+tt.op)

			err = tt.call(s, h)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))

			var fe *Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, engine.ErrnoConnRej, fe.Code)
			assert.Contains(t, fe.Message, "from "+tt.op)

			ops := m.ops()
			assert.Equal(t, []string{"socket", tt.op, "close"}, ops)
			_, err = s.GetSockState(h)
			assert.True(t, errors.Is(err, ErrHandleInvalid))
		})
	}
}

func TestDataPathFailureKeepsHandle(t *testing.T) {
	s, m := newMockSRT(t, nil)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)

	m.failNext("recvmsg", engine.ErrnoAsyncRcv, "")
	_, err = s.Read(h, 16)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Equal(t, engine.ErrnoAsyncRcv, ErrorCode(err))

	m.failNext("sendmsg", engine.ErrnoLargeMsg, "")
	_, err = s.Write(h, []byte("x"))
	assert.True(t, errors.Is(err, ErrIO))

	assert.Empty(t, m.callsOf("close"))
	_, err = s.GetSockState(h)
	assert.NoError(t, err)

	_, err = s.Read(h, 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestAcceptFailureKeepsListener(t *testing.T) {
	s, m := newMockSRT(t, nil)
	ln, err := s.CreateSocket(false)
	require.NoError(t, err)
	m.failNext("accept", engine.ErrnoAsyncRcv, "")

	_, err = s.Accept(ln)
	assert.True(t, errors.Is(err, ErrConnect))
	assert.Equal(t, "accept", err.(*Error).Op)
	assert.Empty(t, m.callsOf("close"))
}

func TestConnectAddressStrictness(t *testing.T) {
	s, m := newMockSRT(t, nil)
	h, err := s.CreateSocket(false)
	require.NoError(t, err)
	assert.True(t, errors.Is(s.Connect(h, "not-an-ip", 9000), ErrAddressParse))
	assert.True(t, errors.Is(s.Connect(h, "127.0.0.1", 0), ErrAddressParse))
	assert.Empty(t, m.callsOf("connect"))

	opts := NewOptions()
	opts.LenientConnectAddress = true
	lenient, lm := newMockSRT(t, opts)
	h, err = lenient.CreateSocket(false)
	require.NoError(t, err)
	require.NoError(t, lenient.Connect(h, "not-an-ip", 9000))
	calls := lm.callsOf("connect")
	require.Len(t, calls, 1)
	assert.Equal(t, []byte{0, 0, 0, 0}, calls[0].Buf)
}

func TestLenientConnectRejectedByEngine(t *testing.T) {
	opts := testOptions()
	opts.LenientConnectAddress = true
	s, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Dispose() })

	h, err := s.CreateSocket(false)
	require.NoError(t, err)
	err = s.Connect(h, "garbage", 9000)
	assert.True(t, errors.Is(err, ErrConnect))
	assert.Equal(t, engine.ErrnoInvParam, ErrorCode(err))
	assert.Empty(t, s.Handles())
}

func TestCreateSocketSender(t *testing.T) {
	s, m := newMockSRT(t, nil)
	_, err := s.CreateSocket(true)
	require.NoError(t, err)

	calls := m.callsOf("setsockflag")
	require.Len(t, calls, 1)
	assert.Equal(t, OptSender, calls[0].Opt)
	assert.Equal(t, []byte{1}, calls[0].Buf)
	assert.True(t, s.Handles()[0].Sender)

	m.failNext("socket", engine.ErrnoResource, "")
	h, err := s.CreateSocket(false)
	assert.True(t, errors.Is(err, ErrAllocation))
	assert.Equal(t, InvalidSock, h)
}

func TestCreateSocketSenderFailureCloses(t *testing.T) {
	s, m := newMockSRT(t, nil)
	m.failNext("setsockflag", engine.ErrnoInvOp, "")
	_, err := s.CreateSocket(true)
	assert.True(t, errors.Is(err, ErrAllocation))
	assert.Equal(t, []string{"socket", "setsockflag", "close"}, m.ops())
	assert.Empty(t, s.Handles())
}

func TestCreateSocketAppliesDefaults(t *testing.T) {
	opts := NewOptions()
	opts.SocketOptions = map[string]interface{}{
		"latency":  200,
		"rcvsyn":   false,
		"streamid": "feed",
	}
	s, m := newMockSRT(t, opts)
	_, err := s.CreateSocket(false)
	require.NoError(t, err)

	calls := m.callsOf("setsockflag")
	require.Len(t, calls, 3)
	assert.Equal(t, OptRcvSyn, calls[0].Opt)
	assert.Equal(t, OptLatency, calls[1].Opt)
	assert.Equal(t, OptStreamID, calls[2].Opt)
}
