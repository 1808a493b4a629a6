package transport

import (
	"slices"
	"time"

	"github.com/opd-ai/srtsock/engine"
)

// epoll is one readiness group.
type epoll struct {
	id   int
	subs map[engine.SocketID]*subscription
}

type subscription struct {
	events engine.EpollFlag
	// reported holds the flags last delivered for edge-triggered entries.
	reported engine.EpollFlag
}

const allEvents = engine.EpollIn | engine.EpollOut | engine.EpollErr

// EpollCreate implements engine.Engine.
func (e *Engine) EpollCreate() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown {
		return -1, engine.NewError(engine.ErrnoResource, "engine is shut down")
	}
	e.nextPoll++
	e.epolls[e.nextPoll] = &epoll{id: e.nextPoll, subs: make(map[engine.SocketID]*subscription)}
	return e.nextPoll, nil
}

func (e *Engine) lookupEpoll(eid int) (*epoll, error) {
	ep, ok := e.epolls[eid]
	if !ok {
		return nil, engine.NewError(engine.ErrnoInvPollID, "")
	}
	return ep, nil
}

// EpollAddUsock implements engine.Engine. Adding an already registered
// socket replaces its event mask. An empty mask subscribes to everything.
func (e *Engine) EpollAddUsock(eid int, id engine.SocketID, events engine.EpollFlag) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ep, err := e.lookupEpoll(eid)
	if err != nil {
		return err
	}
	if _, err := e.lookup(id); err != nil {
		return err
	}
	if events&^engine.EpollET == 0 {
		events |= allEvents
	}
	ep.subs[id] = &subscription{events: events}
	e.signal()
	return nil
}

// EpollRemoveUsock implements engine.Engine.
func (e *Engine) EpollRemoveUsock(eid int, id engine.SocketID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ep, err := e.lookupEpoll(eid)
	if err != nil {
		return err
	}
	delete(ep.subs, id)
	return nil
}

// EpollUWait implements engine.Engine. A negative timeout waits until at
// least one event is ready; zero polls once.
func (e *Engine) EpollUWait(eid int, events []engine.EpollEvent, timeoutMs int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ep, err := e.lookupEpoll(eid)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, engine.NewError(engine.ErrnoInvParam, "empty event buffer")
	}
	if len(ep.subs) == 0 && timeoutMs < 0 {
		return 0, engine.NewError(engine.ErrnoPollEmpty, "")
	}

	var deadline time.Time
	if timeoutMs >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	for {
		if n := e.collect(ep, events); n > 0 {
			return n, nil
		}
		if timeoutMs == 0 || e.shutdown {
			return 0, nil
		}
		if !e.waitLocked(deadline) {
			return 0, nil
		}
		if e.epolls[eid] != ep {
			return 0, engine.NewError(engine.ErrnoInvPollID, "released while waiting")
		}
	}
}

// collect fills events with ready subscriptions in socket id order and
// prunes registrations of sockets that no longer exist. Caller holds e.mu.
func (e *Engine) collect(ep *epoll, events []engine.EpollEvent) int {
	ids := make([]engine.SocketID, 0, len(ep.subs))
	for id := range ep.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	n := 0
	for _, id := range ids {
		sub := ep.subs[id]
		s, ok := e.sockets[id]
		if !ok {
			delete(ep.subs, id)
			continue
		}
		fire := s.readiness() & sub.events
		if sub.events&engine.EpollET != 0 {
			fresh := fire &^ sub.reported
			sub.reported = fire
			fire = fresh
		}
		if fire == 0 {
			continue
		}
		events[n] = engine.EpollEvent{Socket: id, Events: fire}
		n++
		if n == len(events) {
			break
		}
	}
	return n
}

// EpollRelease implements engine.Engine.
func (e *Engine) EpollRelease(eid int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookupEpoll(eid); err != nil {
		return err
	}
	delete(e.epolls, eid)
	e.signal()
	return nil
}
