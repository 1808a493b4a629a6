package transport

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/srtsock/engine"
)

// Engine is a pure-Go engine.Engine over UDP. All socket state lives behind
// a single mutex; blocking calls release it while they wait for a state
// change broadcast.
type Engine struct {
	cfg *Config

	mu       sync.Mutex
	changed  chan struct{}
	sockets  map[engine.SocketID]*socket
	nextID   engine.SocketID
	muxes    map[string]*mux
	epolls   map[int]*epoll
	nextPoll int
	logLevel int
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ engine.Engine = (*Engine)(nil)

// NewEngine creates an engine and starts its maintenance loop. A nil cfg
// selects DefaultConfig.
func NewEngine(cfg *Config) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:      cfg.withDefaults(),
		changed:  make(chan struct{}),
		sockets:  make(map[engine.SocketID]*socket),
		nextID:   engine.SocketID(rand.Int31n(1<<29) + 1<<29),
		muxes:    make(map[string]*mux),
		epolls:   make(map[int]*epoll),
		logLevel: 3,
		ctx:      ctx,
		cancel:   cancel,
	}

	e.wg.Add(1)
	go e.maintain()

	logrus.WithFields(logrus.Fields{
		"function": "NewEngine",
		"package":  "transport",
	}).Debug("Transport engine started")
	return e
}

// signal wakes every waiter. Caller holds e.mu.
func (e *Engine) signal() {
	close(e.changed)
	e.changed = make(chan struct{})
}

// waitLocked releases e.mu until the next signal or until deadline passes.
// It returns false on timeout. A zero deadline waits indefinitely.
// Caller holds e.mu.
func (e *Engine) waitLocked(deadline time.Time) bool {
	ch := e.changed
	e.mu.Unlock()
	defer e.mu.Lock()

	if deadline.IsZero() {
		select {
		case <-ch:
		case <-e.ctx.Done():
		}
		return true
	}

	wait := time.Until(deadline)
	if wait <= 0 {
		return false
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-e.ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

// lookup returns the live socket for id. Caller holds e.mu.
func (e *Engine) lookup(id engine.SocketID) (*socket, error) {
	s, ok := e.sockets[id]
	if !ok {
		return nil, engine.NewError(engine.ErrnoInvSock, "")
	}
	return s, nil
}

// allocID hands out socket ids downward from a random start, skipping ids
// that are still in use. Caller holds e.mu.
func (e *Engine) allocID() engine.SocketID {
	for {
		e.nextID--
		if e.nextID <= 0 {
			e.nextID = 1<<30 - 1
		}
		if _, used := e.sockets[e.nextID]; !used {
			return e.nextID
		}
	}
}

// Socket implements engine.Engine.
func (e *Engine) Socket() (engine.SocketID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown {
		return engine.InvalidSock, engine.NewError(engine.ErrnoResource, "engine is shut down")
	}
	id := e.allocID()
	e.sockets[id] = newSocket(id, defaultOptions(), time.Now())

	NewLogger("Socket").WithSocket(id).Debug("Socket created")
	return id, nil
}

// Bind implements engine.Engine.
func (e *Engine) Bind(id engine.SocketID, addr *net.UDPAddr) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	switch s.status {
	case engine.StatusInit:
	case engine.StatusOpened:
		return engine.NewError(engine.ErrnoBoundSock, "")
	default:
		return engine.NewError(engine.ErrnoConnSock, "")
	}
	if addr == nil {
		return engine.NewError(engine.ErrnoInvParam, "nil address")
	}
	return e.bindLocked(s, addr)
}

// bindLocked attaches s to a multiplexer for addr. Caller holds e.mu.
func (e *Engine) bindLocked(s *socket, addr *net.UDPAddr) error {
	m, err := e.acquireMux(addr, s.opts)
	if err != nil {
		return err
	}
	s.mux = m
	s.local = m.addr
	s.status = engine.StatusOpened

	NewLogger("Bind").WithSocket(s.id).WithField("local_addr", m.addr.String()).Debug("Socket bound")
	return nil
}

// Listen implements engine.Engine.
func (e *Engine) Listen(id engine.SocketID, backlog int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	if backlog <= 0 {
		return engine.NewError(engine.ErrnoInvParam, "backlog must be positive")
	}
	if s.opts.flag(engine.OptRendezvous) {
		return engine.NewError(engine.ErrnoRdvNoServ, "")
	}
	switch s.status {
	case engine.StatusInit:
		return engine.NewError(engine.ErrnoUnboundSock, "")
	case engine.StatusOpened:
	case engine.StatusListening:
		s.backlogMax = backlog
		return nil
	default:
		return engine.NewError(engine.ErrnoConnSock, "")
	}
	if s.mux.listener != nil {
		return engine.NewError(engine.ErrnoDupListen, "")
	}

	s.mux.listener = s
	s.backlog = queue.New()
	s.backlogMax = backlog
	s.pending = make(map[peerKey]*socket)
	s.status = engine.StatusListening

	NewLogger("Listen").WithSocket(id).WithField("backlog", backlog).Debug("Socket listening")
	return nil
}

// Connect implements engine.Engine. With OptRcvSyn disabled it returns as
// soon as the first request is sent; completion is then observable through
// the socket state or epoll.
func (e *Engine) Connect(id engine.SocketID, addr *net.UDPAddr) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	switch s.status {
	case engine.StatusInit, engine.StatusOpened:
	case engine.StatusListening:
		return engine.NewError(engine.ErrnoInvOp, "cannot connect a listening socket")
	default:
		return engine.NewError(engine.ErrnoConnSock, "")
	}
	if s.opts.flag(engine.OptRendezvous) {
		return engine.NewError(engine.ErrnoInvOp, "rendezvous mode is not supported")
	}
	if addr == nil || addr.IP == nil || addr.IP.IsUnspecified() || addr.Port == 0 {
		return engine.NewError(engine.ErrnoInvParam, "invalid peer address")
	}

	if s.mux == nil {
		local, err := net.ResolveUDPAddr("udp", e.cfg.AutoBindAddress)
		if err != nil {
			return engine.NewError(engine.ErrnoSockFail, err.Error())
		}
		if err := e.bindLocked(s, local); err != nil {
			return err
		}
	}

	if err := e.startHandshake(s, addr); err != nil {
		return err
	}
	if !s.opts.flag(engine.OptRcvSyn) {
		return nil
	}

	deadline := s.connStart.Add(time.Duration(s.opts.num(engine.OptConnTimeO)) * time.Millisecond)
	for {
		switch {
		case s.closed:
			return engine.NewError(engine.ErrnoSClosed, "")
		case s.status == engine.StatusConnected:
			return nil
		case s.connErr != nil:
			return s.connErr
		}
		if !e.waitLocked(deadline) && s.status == engine.StatusConnecting {
			s.breakConnection(engine.NewError(engine.ErrnoNoServer, ""))
			e.signal()
		}
	}
}

// startHandshake records the peer and sends the first connection request.
// Caller holds e.mu.
func (e *Engine) startHandshake(s *socket, addr *net.UDPAddr) error {
	now := time.Now()
	hs := Handshake{
		Version:     EngineVersion,
		MinVersion:  uint32(s.opts.num(engine.OptMinVersion)),
		RcvLatency:  uint32(s.opts.num(engine.OptRcvLatency)),
		PeerLatency: uint32(s.opts.num(engine.OptPeerLatency)),
		StreamID:    s.opts.str(engine.OptStreamID),
	}
	if s.opts.flag(engine.OptMessageAPI) {
		hs.Flags |= hsFlagMessageAPI
	}
	if pass := s.opts.str(engine.OptPassphrase); pass != "" {
		kx, err := startKeyExchange(pass, e.cfg.PBKDF2Iterations)
		if err != nil {
			return engine.NewError(engine.ErrnoSecFail, err.Error())
		}
		s.kx = kx
		hs.Flags |= hsFlagEncrypted
		hs.Salt = kx.salt
		hs.Noise = kx.msg
	}
	body, err := hs.MarshalBinary()
	if err != nil {
		return engine.NewError(engine.ErrnoInvParam, err.Error())
	}

	s.isn = rand.Uint32() & 0x7FFFFFFF
	s.sndSeq = s.isn
	s.peer = addr
	s.status = engine.StatusConnecting
	s.connStart = now
	s.lastRequest = now
	s.connErr = nil
	pkt := &Packet{
		Type:      PacketHandshakeRequest,
		SrcID:     uint32(s.id),
		Seq:       s.isn,
		Timestamp: s.timestamp(now),
		Payload:   body,
	}
	s.request = pkt.Serialize()
	if err := s.mux.write(s.request, addr); err != nil {
		s.status = engine.StatusOpened
		return engine.NewError(engine.ErrnoConnSetup, err.Error())
	}

	NewLogger("Connect").WithSocket(s.id).WithField("remote_addr", addr.String()).Debug("Connection request sent")
	return nil
}

// Accept implements engine.Engine.
func (e *Engine) Accept(id engine.SocketID) (engine.SocketID, *net.UDPAddr, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return engine.InvalidSock, nil, err
	}
	if s.status != engine.StatusListening {
		return engine.InvalidSock, nil, engine.NewError(engine.ErrnoNoListen, "")
	}
	for {
		for s.backlog.Length() > 0 {
			c := s.backlog.Remove().(*socket)
			if c.closed {
				continue
			}
			NewLogger("Accept").WithSocket(c.id).WithField("listener", id).Debug("Connection accepted")
			return c.id, c.peer, nil
		}
		if s.closed {
			return engine.InvalidSock, nil, engine.NewError(engine.ErrnoSClosed, "")
		}
		if !s.opts.flag(engine.OptRcvSyn) {
			return engine.InvalidSock, nil, engine.NewError(engine.ErrnoAsyncRcv, "")
		}
		e.waitLocked(time.Time{})
		if e.shutdown && !s.closed {
			return engine.InvalidSock, nil, engine.NewError(engine.ErrnoSClosed, "")
		}
	}
}

// Close implements engine.Engine.
func (e *Engine) Close(id engine.SocketID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	e.closeLocked(s)
	e.signal()
	return nil
}

// closeLocked tears a socket down: the peer is told, queued connections of
// a listener are closed, registrations are dropped and the id is retired.
// Caller holds e.mu.
func (e *Engine) closeLocked(s *socket) {
	now := time.Now()
	if s.status == engine.StatusConnected && s.mux != nil {
		e.sendControl(s, PacketShutdown, nil, now)
	}
	if s.status == engine.StatusListening {
		for s.backlog.Length() > 0 {
			if c := s.backlog.Remove().(*socket); !c.closed {
				e.closeLocked(c)
			}
		}
		if s.mux.listener == s {
			s.mux.listener = nil
		}
	}
	if s.parent != nil {
		delete(s.parent.pending, s.parentKey)
		s.parent = nil
	}

	s.closed = true
	s.status = engine.StatusClosed
	delete(e.sockets, s.id)
	for _, ep := range e.epolls {
		delete(ep.subs, s.id)
	}
	if s.mux != nil {
		e.releaseMux(s.mux)
	}

	NewLogger("Close").WithSocket(s.id).Debug("Socket closed")
}

// RecvMsg implements engine.Engine.
func (e *Engine) RecvMsg(id engine.SocketID, buf []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, engine.NewError(engine.ErrnoInvParam, "empty buffer")
	}
	if s.status == engine.StatusListening {
		return 0, engine.NewError(engine.ErrnoInvOp, "cannot read from a listening socket")
	}

	deadline := s.opts.deadline(engine.OptRcvTimeO, time.Now())
	for {
		if s.hasData() {
			return s.dequeue(buf), nil
		}
		if s.closed {
			return 0, engine.NewError(engine.ErrnoConnLost, "")
		}
		switch s.status {
		case engine.StatusConnected, engine.StatusConnecting:
		case engine.StatusBroken:
			return 0, engine.NewError(engine.ErrnoConnLost, "")
		default:
			return 0, engine.NewError(engine.ErrnoNoConn, "")
		}
		if !s.opts.flag(engine.OptRcvSyn) {
			return 0, engine.NewError(engine.ErrnoAsyncRcv, "")
		}
		if !e.waitLocked(deadline) {
			return 0, engine.NewError(engine.ErrnoTimeout, "")
		}
	}
}

// SendMsg implements engine.Engine. A message is one datagram, so sending
// never waits for buffer space.
func (e *Engine) SendMsg(id engine.SocketID, data []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	switch s.status {
	case engine.StatusConnected:
	case engine.StatusBroken:
		return 0, engine.NewError(engine.ErrnoConnLost, "")
	default:
		return 0, engine.NewError(engine.ErrnoNoConn, "")
	}
	if len(data) == 0 {
		return 0, engine.NewError(engine.ErrnoInvParam, "empty message")
	}
	limit := int(s.opts.num(engine.OptPayloadSize))
	if limit == 0 {
		limit = MaxPayloadSize
	}
	if len(data) > limit {
		return 0, engine.NewError(engine.ErrnoLargeMsg, fmt.Sprintf("%d > %d", len(data), limit))
	}

	now := time.Now()
	pkt := &Packet{
		Type:      PacketData,
		DstID:     uint32(s.peerID),
		SrcID:     uint32(s.id),
		Seq:       s.sndSeq,
		Timestamp: s.timestamp(now),
		Payload:   data,
	}
	if s.session != nil {
		pkt.Payload = s.session.seal(pkt.Header(), data, pkt.Seq)
	}
	if err := s.mux.write(pkt.Serialize(), s.peer); err != nil {
		s.record(func(c *counters) { c.pktSndDrop++ })
		return 0, engine.NewError(engine.ErrnoConnFail, err.Error())
	}
	s.sndSeq++
	s.lastSent = now
	s.record(func(c *counters) {
		c.pktSent++
		c.byteSent += uint64(len(data))
	})
	return len(data), nil
}

// GetSockState implements engine.Engine. Unknown ids report NONEXIST.
func (e *Engine) GetSockState(id engine.SocketID) engine.SockStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sockets[id]
	if !ok {
		return engine.StatusNonExist
	}
	return s.status
}

// SetLogLevel implements engine.Engine.
func (e *Engine) SetLogLevel(level int) {
	e.mu.Lock()
	e.logLevel = level
	e.mu.Unlock()
	logrus.SetLevel(engine.LogrusLevel(level))
}

// Cleanup implements engine.Engine: every socket is closed, every poll
// group released and background goroutines stopped.
func (e *Engine) Cleanup() error {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return nil
	}
	e.shutdown = true
	var loops []chan struct{}
	for _, m := range e.muxes {
		loops = append(loops, m.done)
	}
	for _, s := range e.sockets {
		e.closeLocked(s)
	}
	e.epolls = make(map[int]*epoll)
	e.signal()
	e.mu.Unlock()

	e.cancel()
	for _, done := range loops {
		<-done
	}
	e.wg.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Cleanup",
		"package":  "transport",
	}).Debug("Transport engine stopped")
	return nil
}

// maintain runs the retry and liveness tick until Cleanup.
func (e *Engine) maintain() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.MaintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case now := <-ticker.C:
			e.tick(now)
		}
	}
}

// tick resends pending handshakes, sends keepalives and expires silent
// peers.
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := false
	for _, s := range e.sockets {
		switch s.status {
		case engine.StatusConnecting:
			timeout := time.Duration(s.opts.num(engine.OptConnTimeO)) * time.Millisecond
			if now.Sub(s.connStart) >= timeout {
				s.breakConnection(engine.NewError(engine.ErrnoNoServer, ""))
				changed = true
				NewLogger("tick").WithSocket(s.id).Debug("Connection request timed out")
				continue
			}
			if now.Sub(s.lastRequest) >= e.cfg.HandshakeInterval {
				s.lastRequest = now
				if err := s.mux.write(s.request, s.peer); err != nil {
					NewLogger("tick").WithSocket(s.id).WithError(err).Debug("Handshake resend failed")
				}
			}
		case engine.StatusConnected:
			idle := time.Duration(s.opts.num(engine.OptPeerIdleTO)) * time.Millisecond
			if now.Sub(s.lastHeard) >= idle {
				s.status = engine.StatusBroken
				changed = true
				NewLogger("tick").WithSocket(s.id).Info("Peer idle timeout, connection broken")
				continue
			}
			if now.Sub(s.lastSent) >= e.cfg.KeepaliveInterval {
				e.sendKeepalive(s, keepaliveRequest, s.timestamp(now), now)
			}
		}
	}
	if changed {
		e.signal()
	}
}

// SockName implements engine.Engine.
func (e *Engine) SockName(id engine.SocketID) (*net.UDPAddr, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	if s.local == nil {
		return nil, engine.NewError(engine.ErrnoUnboundSock, "")
	}
	return cloneAddr(s.local), nil
}

// PeerName implements engine.Engine.
func (e *Engine) PeerName(id engine.SocketID) (*net.UDPAddr, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	if s.peer == nil || (s.status != engine.StatusConnected && s.status != engine.StatusBroken) {
		return nil, engine.NewError(engine.ErrnoNoConn, "")
	}
	return cloneAddr(s.peer), nil
}

func cloneAddr(a *net.UDPAddr) *net.UDPAddr {
	return &net.UDPAddr{IP: append(net.IP(nil), a.IP...), Port: a.Port, Zone: a.Zone}
}
