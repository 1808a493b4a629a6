package async

import (
	"context"
	"net"

	"github.com/opd-ai/srtsock"
)

// CreateSocket runs SRT.CreateSocket on the worker.
func (c *Client) CreateSocket(ctx context.Context, asSender bool) (srtsock.Handle, error) {
	return call(ctx, c, "CreateSocket", true, func(s *srtsock.SRT) (srtsock.Handle, error) {
		return s.CreateSocket(asSender)
	})
}

// Bind runs SRT.Bind on the worker.
func (c *Client) Bind(ctx context.Context, h srtsock.Handle, address string, port int) error {
	return exec(ctx, c, "Bind", func(s *srtsock.SRT) error {
		return s.Bind(h, address, port)
	})
}

// Listen runs SRT.Listen on the worker.
func (c *Client) Listen(ctx context.Context, h srtsock.Handle, backlog int) error {
	return exec(ctx, c, "Listen", func(s *srtsock.SRT) error {
		return s.Listen(h, backlog)
	})
}

// Connect runs SRT.Connect on the worker.
func (c *Client) Connect(ctx context.Context, h srtsock.Handle, address string, port int) error {
	return exec(ctx, c, "Connect", func(s *srtsock.SRT) error {
		return s.Connect(h, address, port)
	})
}

// Accept runs SRT.Accept on the worker. Only ctx bounds the wait.
func (c *Client) Accept(ctx context.Context, h srtsock.Handle) (srtsock.Handle, error) {
	return call(ctx, c, "Accept", false, func(s *srtsock.SRT) (srtsock.Handle, error) {
		return s.Accept(h)
	})
}

// CloseSocket runs SRT.Close on the worker.
func (c *Client) CloseSocket(ctx context.Context, h srtsock.Handle) error {
	return exec(ctx, c, "Close", func(s *srtsock.SRT) error {
		return s.Close(h)
	})
}

// Read runs SRT.Read on the worker.
func (c *Client) Read(ctx context.Context, h srtsock.Handle, maxLen int) ([]byte, error) {
	return call(ctx, c, "Read", true, func(s *srtsock.SRT) ([]byte, error) {
		return s.Read(h, maxLen)
	})
}

// Write runs SRT.Write on the worker.
func (c *Client) Write(ctx context.Context, h srtsock.Handle, data []byte) (int, error) {
	return call(ctx, c, "Write", true, func(s *srtsock.SRT) (int, error) {
		return s.Write(h, data)
	})
}

// SetSockOpt runs SRT.SetSockOpt on the worker.
func (c *Client) SetSockOpt(ctx context.Context, h srtsock.Handle, id srtsock.SockOpt, v srtsock.OptionValue) error {
	return exec(ctx, c, "SetSockOpt", func(s *srtsock.SRT) error {
		return s.SetSockOpt(h, id, v)
	})
}

// GetSockOpt runs SRT.GetSockOpt on the worker.
func (c *Client) GetSockOpt(ctx context.Context, h srtsock.Handle, id srtsock.SockOpt) (srtsock.OptionValue, error) {
	return call(ctx, c, "GetSockOpt", true, func(s *srtsock.SRT) (srtsock.OptionValue, error) {
		return s.GetSockOpt(h, id)
	})
}

// GetSockState runs SRT.GetSockState on the worker.
func (c *Client) GetSockState(ctx context.Context, h srtsock.Handle) (srtsock.SockStatus, error) {
	return call(ctx, c, "GetSockState", true, func(s *srtsock.SRT) (srtsock.SockStatus, error) {
		return s.GetSockState(h)
	})
}

// LocalAddr runs SRT.LocalAddr on the worker.
func (c *Client) LocalAddr(ctx context.Context, h srtsock.Handle) (*net.UDPAddr, error) {
	return call(ctx, c, "LocalAddr", true, func(s *srtsock.SRT) (*net.UDPAddr, error) {
		return s.LocalAddr(h)
	})
}

// EpollCreate runs SRT.EpollCreate on the worker.
func (c *Client) EpollCreate(ctx context.Context) (srtsock.PollGroup, error) {
	return call(ctx, c, "EpollCreate", true, func(s *srtsock.SRT) (srtsock.PollGroup, error) {
		return s.EpollCreate()
	})
}

// EpollAddUsock runs SRT.EpollAddUsock on the worker.
func (c *Client) EpollAddUsock(ctx context.Context, g srtsock.PollGroup, h srtsock.Handle, events srtsock.EpollFlag) error {
	return exec(ctx, c, "EpollAddUsock", func(s *srtsock.SRT) error {
		return s.EpollAddUsock(g, h, events)
	})
}

// EpollRemoveUsock runs SRT.EpollRemoveUsock on the worker.
func (c *Client) EpollRemoveUsock(ctx context.Context, g srtsock.PollGroup, h srtsock.Handle) error {
	return exec(ctx, c, "EpollRemoveUsock", func(s *srtsock.SRT) error {
		return s.EpollRemoveUsock(g, h)
	})
}

// EpollUWait runs SRT.EpollUWait on the worker. The wait is bounded by
// timeoutMs and ctx, not by the default call timeout.
func (c *Client) EpollUWait(ctx context.Context, g srtsock.PollGroup, timeoutMs int) ([]srtsock.ReadinessEvent, error) {
	return call(ctx, c, "EpollUWait", false, func(s *srtsock.SRT) ([]srtsock.ReadinessEvent, error) {
		return s.EpollUWait(g, timeoutMs)
	})
}

// EpollRelease runs SRT.EpollRelease on the worker.
func (c *Client) EpollRelease(ctx context.Context, g srtsock.PollGroup) error {
	return exec(ctx, c, "EpollRelease", func(s *srtsock.SRT) error {
		return s.EpollRelease(g)
	})
}

// Stats runs SRT.Stats on the worker.
func (c *Client) Stats(ctx context.Context, h srtsock.Handle, clear bool) (srtsock.StatsSnapshot, error) {
	return call(ctx, c, "Stats", true, func(s *srtsock.SRT) (srtsock.StatsSnapshot, error) {
		return s.Stats(h, clear)
	})
}

// SetLogLevel runs SRT.SetLogLevel on the worker.
func (c *Client) SetLogLevel(ctx context.Context, level int) error {
	return exec(ctx, c, "SetLogLevel", func(s *srtsock.SRT) error {
		return s.SetLogLevel(level)
	})
}

// Dispose runs SRT.Dispose on the worker and then stops it.
func (c *Client) Dispose(ctx context.Context) error {
	err := exec(ctx, c, "Dispose", func(s *srtsock.SRT) error {
		return s.Dispose()
	})
	_ = c.Close()
	return err
}
