package srtsock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ListenBacklog is the backlog a Server listens with.
const ListenBacklog = 128

// DefaultPollInterval bounds each readiness wait of Server.Serve.
const DefaultPollInterval = 100 * time.Millisecond

// Connection is an accepted connection owned by a Server.
type Connection struct {
	// ID traces the connection in logs; handles are reused by the engine.
	ID     uuid.UUID
	Handle Handle
	Peer   *net.UDPAddr

	srt          *SRT
	server       *Server
	gotFirstData atomic.Bool
	closed       atomic.Bool
}

// Read reads up to maxLen bytes of the next message.
func (c *Connection) Read(maxLen int) ([]byte, error) {
	return c.srt.Read(c.Handle, maxLen)
}

// Write sends data as one message. It must fit the payload size.
func (c *Connection) Write(data []byte) (int, error) {
	return c.srt.Write(c.Handle, data)
}

// GotFirstData reports whether OnData has fired for this connection.
func (c *Connection) GotFirstData() bool {
	return c.gotFirstData.Load()
}

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	return c.closed.Load()
}

// Close closes the connection and removes it from its server. Later calls
// return nil.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.server.forget(c.Handle)
	return c.srt.Close(c.Handle)
}

// Server accepts connections on one listening handle and dispatches
// readiness through a poll group. Callbacks run on the Serve goroutine and
// must be set before Open.
type Server struct {
	// OnConnection is called for every accepted connection.
	OnConnection func(*Connection)
	// OnData is called each time a connection is readable.
	OnData func(*Connection)
	// OnDisconnect is called after a broken connection has been closed.
	OnDisconnect func(*Connection)
	// PollInterval bounds each wait so Serve observes cancellation.
	PollInterval time.Duration

	srt      *SRT
	address  string
	port     int
	listener Handle
	group    PollGroup

	mu     sync.Mutex
	conns  map[Handle]*Connection
	opened bool
	closed bool
}

// NewServer creates the listening handle for address:port. Set socket
// options with SetSockOpts, then call Open.
func NewServer(srt *SRT, address string, port int) (*Server, error) {
	if port <= 0 || port > 65535 {
		return nil, newError(ErrAddressParse, "server", InvalidSock, fmt.Errorf("port %d out of range", port))
	}
	if address == "" {
		address = "0.0.0.0"
	}
	h, err := srt.CreateSocket(false)
	if err != nil {
		return nil, err
	}
	return &Server{
		PollInterval: DefaultPollInterval,
		srt:          srt,
		address:      address,
		port:         port,
		listener:     h,
		group:        -1,
		conns:        make(map[Handle]*Connection),
	}, nil
}

// Handle returns the listening handle.
func (s *Server) Handle() Handle {
	return s.listener
}

// SetSockOpts configures the listening handle. Accepted connections inherit
// its options.
func (s *Server) SetSockOpts(values map[SockOpt]OptionValue) error {
	return s.srt.SetSockOpts(s.listener, values)
}

// Open binds, listens and subscribes the listener for IN and ERR events.
func (s *Server) Open() error {
	logger := NewLogger("Server.Open").WithField("address", s.address).WithField("port", s.port)
	if err := s.srt.Bind(s.listener, s.address, s.port); err != nil {
		return err
	}
	if err := s.srt.Listen(s.listener, ListenBacklog); err != nil {
		return err
	}
	g, err := s.srt.EpollCreate()
	if err != nil {
		return err
	}
	if err := s.srt.EpollAddUsock(g, s.listener, EpollIn|EpollErr); err != nil {
		_ = s.srt.EpollRelease(g)
		return err
	}
	s.mu.Lock()
	s.group = g
	s.opened = true
	s.mu.Unlock()

	logger.WithHandle(s.listener).Info("Server listening")
	return nil
}

// Addr returns the bound address, useful after binding port 0.
func (s *Server) Addr() (*net.UDPAddr, error) {
	return s.srt.LocalAddr(s.listener)
}

// Serve dispatches readiness events until ctx is done or Close is called.
// It returns ctx.Err() on cancellation and nil after Close.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	opened, group := s.opened, s.group
	s.mu.Unlock()
	if !opened {
		return newError(ErrInvalidArgument, "serve", s.listener, errors.New("server not open"))
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		events, err := s.srt.EpollUWait(group, int(interval/time.Millisecond))
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return err
		}
		for _, ev := range events {
			s.handleEvent(ev)
		}
	}
}

func (s *Server) handleEvent(ev ReadinessEvent) {
	logger := NewLogger("Server.handleEvent").WithHandle(ev.Handle).WithField("events", ev.Events.String())
	state, err := s.srt.GetSockState(ev.Handle)
	if err != nil {
		logger.WithError(err).Debug("Event for a closed handle")
		return
	}

	if ev.Handle == s.listener {
		if state == StatusListening {
			s.accept()
		}
		return
	}

	conn := s.Connection(ev.Handle)
	if conn == nil {
		logger.Warn("Event for a handle that is not a connection")
		return
	}
	switch state {
	case StatusBroken, StatusNonExist, StatusClosed:
		logger.WithField("connection", conn.ID.String()).Debug("Client disconnected")
		if err := conn.Close(); err != nil {
			logger.WithError(err).Debug("Close of broken connection failed")
		}
		if s.OnDisconnect != nil {
			s.OnDisconnect(conn)
		}
	default:
		if s.OnData != nil {
			s.OnData(conn)
		}
		conn.gotFirstData.Store(true)
	}
}

func (s *Server) accept() {
	logger := NewLogger("Server.accept").WithHandle(s.listener)
	h, err := s.srt.Accept(s.listener)
	if err != nil {
		logger.WithError(err).Warn("Accept failed")
		return
	}
	if err := s.srt.EpollAddUsock(s.group, h, EpollIn|EpollErr); err != nil {
		logger.WithError(err).Warn("Subscribing accepted connection failed")
		_ = s.srt.Close(h)
		return
	}
	peer, err := s.srt.PeerAddr(h)
	if err != nil {
		logger.WithError(err).Debug("Peer address unavailable")
	}
	conn := &Connection{
		ID:     uuid.New(),
		Handle: h,
		Peer:   peer,
		srt:    s.srt,
		server: s,
	}
	s.mu.Lock()
	s.conns[h] = conn
	s.mu.Unlock()

	logger.WithField("connection", conn.ID.String()).WithField("handle", int32(h)).Debug("Accepted client connection")
	if s.OnConnection != nil {
		s.OnConnection(conn)
	}
}

func (s *Server) forget(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, h)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Connection returns the open connection for h, or nil.
func (s *Server) Connection(h Handle) *Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[h]
}

// Connections returns the open connections ordered by handle.
func (s *Server) Connections() []*Connection {
	s.mu.Lock()
	out := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Close closes every connection, the listener and the poll group. A
// running Serve returns nil.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	group, opened := s.group, s.opened
	s.mu.Unlock()

	for _, c := range s.Connections() {
		_ = c.Close()
	}
	err := s.srt.Close(s.listener)
	if opened {
		if relErr := s.srt.EpollRelease(group); relErr != nil && err == nil {
			err = relErr
		}
	}
	NewLogger("Server.Close").WithHandle(s.listener).Info("Server closed")
	return err
}
