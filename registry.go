package srtsock

import (
	"sort"
	"sync"
	"time"
)

// Role is the part a handle plays, fixed by the call that gave it one.
type Role int

const (
	RoleUnbound Role = iota
	RoleBound
	RoleListener
	RoleOutbound
	RoleAccepted
)

func (r Role) String() string {
	switch r {
	case RoleUnbound:
		return "unbound"
	case RoleBound:
		return "bound"
	case RoleListener:
		return "listener"
	case RoleOutbound:
		return "outbound"
	case RoleAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// HandleInfo describes one open handle.
type HandleInfo struct {
	Handle  Handle
	Role    Role
	Sender  bool
	Created time.Time
}

// registry owns the set of open handles and poll groups. Its lock is never
// held across an engine call that can block.
type registry struct {
	mu      sync.RWMutex
	handles map[Handle]*HandleInfo
	groups  map[PollGroup]struct{}
}

func newRegistry() *registry {
	return &registry{
		handles: make(map[Handle]*HandleInfo),
		groups:  make(map[PollGroup]struct{}),
	}
}

func (r *registry) add(h Handle, role Role, sender bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h] = &HandleInfo{Handle: h, Role: role, Sender: sender, Created: time.Now()}
}

// remove reports whether h was open. Only one of several concurrent
// removals of the same handle succeeds.
func (r *registry) remove(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[h]; !ok {
		return false
	}
	delete(r.handles, h)
	return true
}

func (r *registry) has(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handles[h]
	return ok
}

func (r *registry) setRole(h Handle, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.handles[h]; ok {
		info.Role = role
	}
}

// snapshot returns the open handles ordered by creation, then handle.
func (r *registry) snapshot() []HandleInfo {
	r.mu.RLock()
	out := make([]HandleInfo, 0, len(r.handles))
	for _, info := range r.handles {
		out = append(out, *info)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].Handle < out[j].Handle
	})
	return out
}

func (r *registry) addGroup(g PollGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g] = struct{}{}
}

func (r *registry) removeGroup(g PollGroup) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[g]; !ok {
		return false
	}
	delete(r.groups, g)
	return true
}

func (r *registry) groupList() []PollGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PollGroup, 0, len(r.groups))
	for g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
