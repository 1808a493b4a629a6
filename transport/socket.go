package transport

import (
	"net"
	"time"

	"github.com/eapache/queue"

	"github.com/opd-ai/srtsock/engine"
)

// socket is the engine-side state of one socket id. Every field is guarded
// by Engine.mu.
type socket struct {
	id      engine.SocketID
	status  engine.SockStatus
	opts    optionSet
	created time.Time

	mux    *mux
	local  *net.UDPAddr
	peer   *net.UDPAddr
	peerID engine.SocketID

	// closed is set once Close runs; waiters holding the pointer observe it
	// after the id has left the socket table.
	closed bool

	// listener state
	backlog    *queue.Queue // *socket awaiting Accept
	backlogMax int
	pending    map[peerKey]*socket

	// accepted sockets remember the listener entry that admitted them
	parent    *socket
	parentKey peerKey

	// receive queue of whole messages; head holds the unread remainder of a
	// message partially consumed by a short read.
	rcvq     *queue.Queue
	head     []byte
	rcvBytes int

	isn        uint32
	sndSeq     uint32
	rcvSeq     uint32
	rcvSeqInit bool

	// connection setup
	connStart   time.Time
	lastRequest time.Time
	request     []byte // serialized handshake request, resent until answered
	response    []byte // serialized handshake response, resent on duplicates
	kx          *initiator
	connErr     *engine.Error
	peerVersion uint32

	session *session
	kmState int32

	lastHeard time.Time
	lastSent  time.Time
	rtt       time.Duration

	total    counters
	interval counters
	ivStart  time.Time
}

// peerKey identifies a caller across handshake retries.
type peerKey struct {
	addr string
	id   engine.SocketID
}

func newSocket(id engine.SocketID, opts optionSet, now time.Time) *socket {
	return &socket{
		id:      id,
		status:  engine.StatusInit,
		opts:    opts,
		created: now,
		rcvq:    queue.New(),
		ivStart: now,
	}
}

func (s *socket) queuedMessages() int {
	n := s.rcvq.Length()
	if s.head != nil {
		n++
	}
	return n
}

func (s *socket) hasData() bool {
	return s.head != nil || s.rcvq.Length() > 0
}

// enqueue appends a received message, dropping it when the receive buffer
// is full. It reports whether the message was kept.
func (s *socket) enqueue(msg []byte) bool {
	if s.rcvBytes+len(msg) > int(s.opts.num(engine.OptRcvBuf)) {
		return false
	}
	s.rcvq.Add(msg)
	s.rcvBytes += len(msg)
	return true
}

// dequeue copies the current message into buf. A message longer than buf
// is delivered in pieces; the remainder stays at the head of the queue.
func (s *socket) dequeue(buf []byte) int {
	msg := s.head
	if msg == nil {
		msg = s.rcvq.Remove().([]byte)
	}
	n := copy(buf, msg)
	if n < len(msg) {
		s.head = msg[n:]
	} else {
		s.head = nil
	}
	s.rcvBytes -= n
	return n
}

// readiness computes the level-triggered epoll flags of the socket.
func (s *socket) readiness() engine.EpollFlag {
	if s.closed {
		return engine.EpollErr
	}
	var ev engine.EpollFlag
	switch s.status {
	case engine.StatusListening:
		if s.backlog != nil && s.backlog.Length() > 0 {
			ev |= engine.EpollIn
		}
	case engine.StatusConnected:
		if s.hasData() {
			ev |= engine.EpollIn
		}
		ev |= engine.EpollOut
	case engine.StatusBroken:
		if s.hasData() {
			ev |= engine.EpollIn
		}
		ev |= engine.EpollErr
	case engine.StatusClosing, engine.StatusClosed, engine.StatusNonExist:
		ev |= engine.EpollErr
	}
	return ev
}

// breakConnection moves a connected or connecting socket to BROKEN.
func (s *socket) breakConnection(reason *engine.Error) {
	switch s.status {
	case engine.StatusConnecting:
		s.connErr = reason
		s.status = engine.StatusBroken
	case engine.StatusConnected:
		s.status = engine.StatusBroken
	}
}

// timestamp is the µs clock carried in packet headers.
func (s *socket) timestamp(now time.Time) uint32 {
	return uint32(now.Sub(s.created).Microseconds())
}
