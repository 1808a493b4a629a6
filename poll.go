package srtsock

import (
	"fmt"

	"github.com/opd-ai/srtsock/engine"
)

// PollGroup identifies a readiness group. Groups are engine objects; a
// handle closed while registered is treated as removed.
type PollGroup int

// ReadinessEvent is one handle reported ready by EpollUWait.
type ReadinessEvent struct {
	Handle Handle
	Events EpollFlag
}

// EpollCreate allocates a readiness group.
func (s *SRT) EpollCreate() (PollGroup, error) {
	eid, err := s.eng.EpollCreate()
	if err != nil {
		return -1, newError(ErrAllocation, "epoll_create", InvalidSock, err)
	}
	g := PollGroup(eid)
	s.reg.addGroup(g)
	return g, nil
}

// EpollAddUsock adds h to g, or updates its interest mask if already there.
// A zero mask subscribes to every event.
func (s *SRT) EpollAddUsock(g PollGroup, h Handle, events EpollFlag) error {
	const op = "epoll_add_usock"
	if !s.reg.has(h) {
		return newError(ErrHandleInvalid, op, h, nil)
	}
	if err := s.eng.EpollAddUsock(int(g), h.id(), events); err != nil {
		return newError(ErrHandleInvalid, op, h, err)
	}
	return nil
}

// EpollRemoveUsock removes h from g.
func (s *SRT) EpollRemoveUsock(g PollGroup, h Handle) error {
	if err := s.eng.EpollRemoveUsock(int(g), h.id()); err != nil {
		return newError(ErrHandleInvalid, "epoll_remove_usock", h, err)
	}
	return nil
}

// EpollUWait waits up to timeoutMs milliseconds (negative waits forever) and
// returns at most Options.MaxPollEvents ready handles. A timeout returns an
// empty slice and no error. Handles closed through this facade are never
// reported.
func (s *SRT) EpollUWait(g PollGroup, timeoutMs int) ([]ReadinessEvent, error) {
	const op = "epoll_uwait"
	buf := make([]engine.EpollEvent, s.opts.MaxPollEvents)
	n, err := s.eng.EpollUWait(int(g), buf, int64(timeoutMs))
	if err != nil {
		if engine.CodeOf(err) == engine.ErrnoTimeout {
			return []ReadinessEvent{}, nil
		}
		return nil, newError(ErrHandleInvalid, op, InvalidSock, fmt.Errorf("group %d: %w", g, err))
	}
	out := make([]ReadinessEvent, 0, n)
	for _, ev := range buf[:n] {
		h := Handle(ev.Socket)
		if !s.reg.has(h) {
			continue
		}
		out = append(out, ReadinessEvent{Handle: h, Events: ev.Events})
	}
	return out, nil
}

// EpollRelease destroys g.
func (s *SRT) EpollRelease(g PollGroup) error {
	s.reg.removeGroup(g)
	if err := s.eng.EpollRelease(int(g)); err != nil {
		return newError(ErrHandleInvalid, "epoll_release", InvalidSock, fmt.Errorf("group %d: %w", g, err))
	}
	return nil
}
