package async

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/srtsock"
)

// DefaultTimeout bounds how long a call waits for the worker when the
// caller's context has no deadline.
const DefaultTimeout = 3 * time.Second

var (
	// ErrClientClosed is returned for calls made after Close and for calls
	// still queued when the worker stopped.
	ErrClientClosed = errors.New("async client closed")

	// ErrCallTimeout is returned when the caller stopped waiting for a
	// result. The primitive itself may still complete on the worker.
	ErrCallTimeout = errors.New("timeout exceeded while awaiting result from worker")
)

// job is one queued primitive. run receives ErrClientClosed instead of
// running when the worker is shutting down.
type job struct {
	op  string
	run func(stopped error)
}

// Client serializes facade calls onto a single worker goroutine.
type Client struct {
	srt *srtsock.SRT

	// Timeout applies to calls whose context has no deadline. Zero selects
	// DefaultTimeout; a negative value waits indefinitely.
	Timeout time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue
	closed  bool
	done    chan struct{}
}

// NewClient creates a client for srt and starts its worker.
func NewClient(srt *srtsock.SRT) *Client {
	c := &Client{
		srt:     srt,
		pending: queue.New(),
		done:    make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	go c.worker()
	return c
}

// SRT returns the wrapped facade.
func (c *Client) SRT() *srtsock.SRT {
	return c.srt
}

func (c *Client) worker() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.done)

	for {
		c.mu.Lock()
		for c.pending.Length() == 0 && !c.closed {
			c.cond.Wait()
		}
		if c.closed {
			rest := c.drainLocked()
			c.mu.Unlock()
			for _, j := range rest {
				j.run(ErrClientClosed)
			}
			return
		}
		j := c.pending.Remove().(*job)
		c.mu.Unlock()

		j.run(nil)
	}
}

// drainLocked empties the queue. Caller holds c.mu.
func (c *Client) drainLocked() []*job {
	rest := make([]*job, 0, c.pending.Length())
	for c.pending.Length() > 0 {
		rest = append(rest, c.pending.Remove().(*job))
	}
	return rest
}

func (c *Client) enqueue(j *job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	c.pending.Add(j)
	c.cond.Signal()
	return nil
}

// Pending returns the number of calls waiting for the worker.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Length()
}

// Close stops the worker once the running call returns. Calls still queued
// fail with ErrClientClosed. Close does not dispose the facade.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"package":  "async",
	}).Debug("Async worker stopping")
	return nil
}

// Done is closed when the worker has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) waitContext(ctx context.Context, useTimeout bool) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || !useTimeout {
		return ctx, func() {}
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout < 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

type result[T any] struct {
	val T
	err error
}

// call runs fn on the worker and waits for its result.
func call[T any](ctx context.Context, c *Client, op string, useTimeout bool, fn func(*srtsock.SRT) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("async %s: %w", op, err)
	}

	out := make(chan result[T], 1)
	j := &job{op: op, run: func(stopped error) {
		if stopped != nil {
			out <- result[T]{err: stopped}
			return
		}
		v, err := fn(c.srt)
		out <- result[T]{val: v, err: err}
	}}
	if err := c.enqueue(j); err != nil {
		return zero, fmt.Errorf("async %s: %w", op, err)
	}

	waitCtx, cancel := c.waitContext(ctx, useTimeout)
	defer cancel()

	select {
	case r := <-out:
		return r.val, r.err
	case <-waitCtx.Done():
		logrus.WithFields(logrus.Fields{
			"function": op,
			"package":  "async",
			"error":    waitCtx.Err().Error(),
		}).Debug("Abandoned wait for worker result")
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, fmt.Errorf("async %s: %w", op, ErrCallTimeout)
		}
		return zero, fmt.Errorf("async %s: %w", op, waitCtx.Err())
	}
}

// exec is call for primitives without a value.
func exec(ctx context.Context, c *Client, op string, fn func(*srtsock.SRT) error) error {
	_, err := call(ctx, c, op, true, func(s *srtsock.SRT) (struct{}, error) {
		return struct{}{}, fn(s)
	})
	return err
}
