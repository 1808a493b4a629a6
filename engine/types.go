package engine

import "strings"

// SocketID identifies an engine socket.
type SocketID int32

const (
	// InvalidSock is returned in place of a SocketID on failure.
	InvalidSock SocketID = -1

	// ResultError is the generic native failure result.
	ResultError = -1

	// ResultOK is the generic native success result.
	ResultOK = 0
)

// SockStatus is the engine-reported lifecycle state of a socket.
type SockStatus int

const (
	StatusInit SockStatus = iota + 1
	StatusOpened
	StatusListening
	StatusConnecting
	StatusConnected
	StatusBroken
	StatusClosing
	StatusClosed
	StatusNonExist
)

var statusNames = map[SockStatus]string{
	StatusInit:       "INIT",
	StatusOpened:     "OPENED",
	StatusListening:  "LISTENING",
	StatusConnecting: "CONNECTING",
	StatusConnected:  "CONNECTED",
	StatusBroken:     "BROKEN",
	StatusClosing:    "CLOSING",
	StatusClosed:     "CLOSED",
	StatusNonExist:   "NONEXIST",
}

// String returns the SRTS_ name without prefix.
func (s SockStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether no further traffic is possible in this state.
func (s SockStatus) Terminal() bool {
	return s == StatusBroken || s == StatusClosed || s == StatusNonExist
}

// EpollFlag is a readiness interest or event bitmask.
type EpollFlag uint32

const (
	EpollNone EpollFlag = 0x0
	EpollIn   EpollFlag = 0x1
	EpollOut  EpollFlag = 0x4
	EpollErr  EpollFlag = 0x8
	EpollET   EpollFlag = 1 << 31
)

// String renders the set bits, e.g. "IN|ERR".
func (f EpollFlag) String() string {
	if f == EpollNone {
		return "NONE"
	}
	var parts []string
	if f&EpollIn != 0 {
		parts = append(parts, "IN")
	}
	if f&EpollOut != 0 {
		parts = append(parts, "OUT")
	}
	if f&EpollErr != 0 {
		parts = append(parts, "ERR")
	}
	if f&EpollET != 0 {
		parts = append(parts, "ET")
	}
	return strings.Join(parts, "|")
}

// EpollEvent is one entry reported by EpollUWait.
type EpollEvent struct {
	Socket SocketID
	Events EpollFlag
}
