package srtsock

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock/engine"
)

// ---------------------------------------------------------------------------
// mockEngine records every primitive call and fails on demand.
// ---------------------------------------------------------------------------

type mockCall struct {
	Op     string
	Socket engine.SocketID
	Opt    engine.SockOpt
	Buf    []byte
}

type mockEngine struct {
	mu        sync.Mutex
	calls     []mockCall
	next      engine.SocketID
	open      map[engine.SocketID]bool
	flags     map[engine.SocketID]map[engine.SockOpt][]byte
	fail      map[string]*engine.Error
	groups    map[int]bool
	nextGroup int
	events    []engine.EpollEvent
	waitLen   int
	stats     engine.TraceBStats
	state     engine.SockStatus
	level     int
	cleaned   bool
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		next:   100,
		open:   make(map[engine.SocketID]bool),
		flags:  make(map[engine.SocketID]map[engine.SockOpt][]byte),
		fail:   make(map[string]*engine.Error),
		groups: make(map[int]bool),
		state:  engine.StatusInit,
	}
}

var _ engine.Engine = (*mockEngine)(nil)

// failNext makes every later call of op fail with code.
func (m *mockEngine) failNext(op string, code engine.Errno, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = engine.NewError(code, detail)
}

func (m *mockEngine) record(op string, s engine.SocketID, opt engine.SockOpt, buf []byte) *engine.Error {
	var cp []byte
	if buf != nil {
		cp = append([]byte(nil), buf...)
	}
	m.calls = append(m.calls, mockCall{Op: op, Socket: s, Opt: opt, Buf: cp})
	return m.fail[op]
}

// ops returns the recorded operation names.
func (m *mockEngine) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Op
	}
	return out
}

func (m *mockEngine) callsOf(op string) []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockCall
	for _, c := range m.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockEngine) checkOpen(s engine.SocketID) error {
	if !m.open[s] {
		return engine.NewError(engine.ErrnoInvSock, "")
	}
	return nil
}

func (m *mockEngine) Socket() (engine.SocketID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("socket", engine.InvalidSock, 0, nil); err != nil {
		return engine.InvalidSock, err
	}
	id := m.next
	m.next++
	m.open[id] = true
	m.flags[id] = make(map[engine.SockOpt][]byte)
	return id, nil
}

func (m *mockEngine) Bind(s engine.SocketID, _ *net.UDPAddr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("bind", s, 0, nil); err != nil {
		return err
	}
	return m.checkOpen(s)
}

func (m *mockEngine) Listen(s engine.SocketID, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("listen", s, 0, nil); err != nil {
		return err
	}
	return m.checkOpen(s)
}

func (m *mockEngine) Connect(s engine.SocketID, addr *net.UDPAddr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("connect", s, 0, addr.IP.To4()); err != nil {
		return err
	}
	return m.checkOpen(s)
}

func (m *mockEngine) Accept(s engine.SocketID) (engine.SocketID, *net.UDPAddr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("accept", s, 0, nil); err != nil {
		return engine.InvalidSock, nil, err
	}
	if err := m.checkOpen(s); err != nil {
		return engine.InvalidSock, nil, err
	}
	id := m.next
	m.next++
	m.open[id] = true
	m.flags[id] = make(map[engine.SockOpt][]byte)
	return id, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}, nil
}

func (m *mockEngine) Close(s engine.SocketID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("close", s, 0, nil); err != nil {
		return err
	}
	if err := m.checkOpen(s); err != nil {
		return err
	}
	delete(m.open, s)
	return nil
}

func (m *mockEngine) RecvMsg(s engine.SocketID, buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("recvmsg", s, 0, nil); err != nil {
		return 0, err
	}
	return copy(buf, "mock"), m.checkOpen(s)
}

func (m *mockEngine) SendMsg(s engine.SocketID, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("sendmsg", s, 0, data); err != nil {
		return 0, err
	}
	return len(data), m.checkOpen(s)
}

func (m *mockEngine) GetSockFlag(s engine.SocketID, opt engine.SockOpt, buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("getsockflag", s, opt, nil); err != nil {
		return 0, err
	}
	if err := m.checkOpen(s); err != nil {
		return 0, err
	}
	return copy(buf, m.flags[s][opt]), nil
}

func (m *mockEngine) SetSockFlag(s engine.SocketID, opt engine.SockOpt, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("setsockflag", s, opt, buf); err != nil {
		return err
	}
	if err := m.checkOpen(s); err != nil {
		return err
	}
	m.flags[s][opt] = append([]byte(nil), buf...)
	return nil
}

func (m *mockEngine) SockName(s engine.SocketID) (*net.UDPAddr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("sockname", s, 0, nil)
	return &net.UDPAddr{IP: net.IPv4zero, Port: 9000}, m.checkOpen(s)
}

func (m *mockEngine) PeerName(s engine.SocketID) (*net.UDPAddr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("peername", s, 0, nil)
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}, m.checkOpen(s)
}

func (m *mockEngine) GetSockState(s engine.SocketID) engine.SockStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("getsockstate", s, 0, nil)
	if !m.open[s] {
		return engine.StatusNonExist
	}
	return m.state
}

func (m *mockEngine) EpollCreate() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("epoll_create", engine.InvalidSock, 0, nil); err != nil {
		return -1, err
	}
	m.nextGroup++
	m.groups[m.nextGroup] = true
	return m.nextGroup, nil
}

func (m *mockEngine) EpollAddUsock(eid int, s engine.SocketID, _ engine.EpollFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("epoll_add_usock", s, 0, nil); err != nil {
		return err
	}
	if !m.groups[eid] {
		return engine.NewError(engine.ErrnoInvPollID, "")
	}
	return m.checkOpen(s)
}

func (m *mockEngine) EpollRemoveUsock(eid int, s engine.SocketID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("epoll_remove_usock", s, 0, nil); err != nil {
		return err
	}
	if !m.groups[eid] {
		return engine.NewError(engine.ErrnoInvPollID, "")
	}
	return nil
}

func (m *mockEngine) EpollUWait(eid int, events []engine.EpollEvent, _ int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("epoll_uwait", engine.InvalidSock, 0, nil); err != nil {
		return 0, err
	}
	if !m.groups[eid] {
		return 0, engine.NewError(engine.ErrnoInvPollID, "")
	}
	m.waitLen = len(events)
	return copy(events, m.events), nil
}

func (m *mockEngine) EpollRelease(eid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("epoll_release", engine.InvalidSock, 0, nil); err != nil {
		return err
	}
	if !m.groups[eid] {
		return engine.NewError(engine.ErrnoInvPollID, "")
	}
	delete(m.groups, eid)
	return nil
}

func (m *mockEngine) BStats(s engine.SocketID, out *engine.TraceBStats, clear bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("bstats", s, 0, nil); err != nil {
		return err
	}
	if err := m.checkOpen(s); err != nil {
		return err
	}
	*out = m.stats
	if clear {
		m.stats.PktSent = 0
		m.stats.PktRecv = 0
	}
	return nil
}

func (m *mockEngine) SetLogLevel(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

func (m *mockEngine) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaned = true
	return nil
}

// ---------------------------------------------------------------------------
// Facade constructors for tests.
// ---------------------------------------------------------------------------

func newMockSRT(t *testing.T, opts *Options) (*SRT, *mockEngine) {
	t.Helper()
	m := newMockEngine()
	s, err := NewWithEngine(m, opts)
	require.NoError(t, err)
	return s, m
}

// testOptions selects the pure-Go engine with fast timers.
func testOptions() *Options {
	opts := NewOptions()
	opts.Transport.HandshakeInterval = 20 * time.Millisecond
	opts.Transport.KeepaliveInterval = 100 * time.Millisecond
	opts.Transport.MaintenanceInterval = 10 * time.Millisecond
	opts.Transport.ReadDeadline = 50 * time.Millisecond
	opts.Transport.PBKDF2Iterations = 16
	return opts
}

func newLoopbackSRT(t *testing.T) *SRT {
	t.Helper()
	s, err := New(testOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Dispose() })
	return s
}

// listenLoopback creates a listener on 127.0.0.1 with an ephemeral port.
func listenLoopback(t *testing.T, s *SRT) (Handle, int) {
	t.Helper()
	ln, err := s.CreateSocket(false)
	require.NoError(t, err)
	require.NoError(t, s.Bind(ln, "127.0.0.1", 0))
	require.NoError(t, s.Listen(ln, 8))
	addr, err := s.LocalAddr(ln)
	require.NoError(t, err)
	return ln, addr.Port
}

func dialLoopback(t *testing.T, s *SRT, port int) Handle {
	t.Helper()
	h, err := s.CreateSocket(true)
	require.NoError(t, err)
	require.NoError(t, s.Connect(h, "127.0.0.1", port))
	return h
}
