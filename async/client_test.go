package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock"
)

func newTestSRT(t *testing.T) *srtsock.SRT {
	t.Helper()
	opts := srtsock.NewOptions()
	opts.Transport.HandshakeInterval = 20 * time.Millisecond
	opts.Transport.KeepaliveInterval = 100 * time.Millisecond
	opts.Transport.MaintenanceInterval = 10 * time.Millisecond
	opts.Transport.ReadDeadline = 50 * time.Millisecond
	opts.Transport.PBKDF2Iterations = 16
	srt, err := srtsock.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srt.Dispose() })
	return srt
}

func newTestClient(t *testing.T, srt *srtsock.SRT) *Client {
	t.Helper()
	c := NewClient(srt)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// blockWorker occupies the worker until the returned release func is
// called.
func blockWorker(t *testing.T, c *Client) func() {
	t.Helper()
	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = call(context.Background(), c, "gate", false, func(*srtsock.SRT) (struct{}, error) {
			close(started)
			<-gate
			return struct{}{}, nil
		})
	}()
	<-started
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return release
}

func waitPending(t *testing.T, c *Client, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Pending() == n }, time.Second, time.Millisecond)
}

func TestCallsRunInFIFOOrder(t *testing.T) {
	c := newTestClient(t, newTestSRT(t))
	release := blockWorker(t, c)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := call(context.Background(), c, "record", false, func(*srtsock.SRT) (int, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return i, nil
			})
			assert.NoError(t, err)
		}(i)
		waitPending(t, c, i+1)
	}

	release()
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestAbandonedCallStillRuns(t *testing.T) {
	c := newTestClient(t, newTestSRT(t))
	c.Timeout = 30 * time.Millisecond
	release := blockWorker(t, c)

	ran := make(chan struct{})
	_, err := call(context.Background(), c, "late", true, func(*srtsock.SRT) (int, error) {
		close(ran)
		return 1, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCallTimeout)

	release()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("abandoned call never ran")
	}
}

func TestContextCancelStopsWaiting(t *testing.T) {
	c := newTestClient(t, newTestSRT(t))
	blockWorker(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := c.CreateSocket(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrCallTimeout)

	_, err = c.CreateSocket(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseFailsQueuedCalls(t *testing.T) {
	c := newTestClient(t, newTestSRT(t))
	release := blockWorker(t, c)

	errs := make(chan error, 1)
	go func() {
		_, err := c.EpollCreate(context.Background())
		errs <- err
	}()
	waitPending(t, c, 1)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	release()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClientClosed)
	case <-time.After(time.Second):
		t.Fatal("queued call not failed on close")
	}

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit")
	}

	_, err := c.CreateSocket(context.Background(), false)
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestFacadeErrorsPassThrough(t *testing.T) {
	c := newTestClient(t, newTestSRT(t))
	ctx := context.Background()

	err := c.CloseSocket(ctx, srtsock.Handle(4242))
	assert.ErrorIs(t, err, srtsock.ErrHandleInvalid)

	h, err := c.CreateSocket(ctx, false)
	require.NoError(t, err)
	err = c.Bind(ctx, h, "not-an-ip", 9000)
	assert.ErrorIs(t, err, srtsock.ErrAddressParse)

	err = c.SetLogLevel(ctx, 9)
	assert.ErrorIs(t, err, srtsock.ErrInvalidArgument)
}

func TestLoopbackSession(t *testing.T) {
	srt := newTestSRT(t)
	server := newTestClient(t, srt)
	client := newTestClient(t, srt)
	ctx := context.Background()

	ln, err := server.CreateSocket(ctx, false)
	require.NoError(t, err)
	require.NoError(t, server.Bind(ctx, ln, "127.0.0.1", 0))
	require.NoError(t, server.Listen(ctx, ln, 4))
	addr, err := server.LocalAddr(ctx, ln)
	require.NoError(t, err)

	accepted := make(chan srtsock.Handle, 1)
	go func() {
		acceptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		h, err := server.Accept(acceptCtx, ln)
		assert.NoError(t, err)
		accepted <- h
	}()

	conn, err := client.CreateSocket(ctx, true)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx, conn, "127.0.0.1", addr.Port))

	var peer srtsock.Handle
	select {
	case peer = <-accepted:
	case <-time.After(3 * time.Second):
		t.Fatal("accept timed out")
	}

	state, err := client.GetSockState(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, srtsock.StatusConnected, state)

	g, err := server.EpollCreate(ctx)
	require.NoError(t, err)
	require.NoError(t, server.EpollAddUsock(ctx, g, peer, srtsock.EpollIn|srtsock.EpollErr))

	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i)
	}
	var writes int
	n, err := client.WriteChunks(ctx, conn, payload, 1316, func(int) { writes++ })
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, 3, writes)

	events, err := server.EpollUWait(ctx, g, 1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, peer, events[0].Handle)

	chunks, err := server.ReadChunks(ctx, peer, len(payload), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, srtsock.JoinChunks(chunks))

	v, err := client.GetSockOpt(ctx, conn, srtsock.OptPayloadSize)
	require.NoError(t, err)
	assert.Equal(t, int32(1316), v.Int32())
	require.NoError(t, client.SetSockOpt(ctx, conn, srtsock.OptRcvTimeO, srtsock.IntValue(100)))

	snap, err := client.Stats(ctx, conn, true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.Cumulative.PktSent, int64(3))

	require.NoError(t, server.EpollRemoveUsock(ctx, g, peer))
	require.NoError(t, server.EpollRelease(ctx, g))
	require.NoError(t, client.CloseSocket(ctx, conn))
	require.NoError(t, server.CloseSocket(ctx, peer))

	require.NoError(t, server.Dispose(ctx))
	select {
	case <-server.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Dispose")
	}
	assert.Empty(t, srt.Handles())
	assert.True(t, errors.Is(server.SetLogLevel(ctx, 3), ErrClientClosed))
}
