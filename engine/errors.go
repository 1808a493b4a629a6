package engine

import (
	"errors"
	"fmt"
)

// Errno is the engine's numeric error code (SRT_ERRNO).
type Errno int

const (
	ErrnoUnknown     Errno = -1
	ErrnoSuccess     Errno = 0
	ErrnoConnSetup   Errno = 1000
	ErrnoNoServer    Errno = 1001
	ErrnoConnRej     Errno = 1002
	ErrnoSockFail    Errno = 1003
	ErrnoSecFail     Errno = 1004
	ErrnoSClosed     Errno = 1005
	ErrnoConnFail    Errno = 2000
	ErrnoConnLost    Errno = 2001
	ErrnoNoConn      Errno = 2002
	ErrnoResource    Errno = 3000
	ErrnoThread      Errno = 3001
	ErrnoNoBuf       Errno = 3002
	ErrnoSysObj      Errno = 3003
	ErrnoInvOp       Errno = 5000
	ErrnoBoundSock   Errno = 5001
	ErrnoConnSock    Errno = 5002
	ErrnoInvParam    Errno = 5003
	ErrnoInvSock     Errno = 5004
	ErrnoUnboundSock Errno = 5005
	ErrnoNoListen    Errno = 5006
	ErrnoRdvNoServ   Errno = 5007
	ErrnoRdvUnbound  Errno = 5008
	ErrnoInvalMsgAPI Errno = 5009
	ErrnoInvalBufAPI Errno = 5010
	ErrnoDupListen   Errno = 5011
	ErrnoLargeMsg    Errno = 5012
	ErrnoInvPollID   Errno = 5013
	ErrnoPollEmpty   Errno = 5014
	ErrnoAsyncFail   Errno = 6000
	ErrnoAsyncSnd    Errno = 6001
	ErrnoAsyncRcv    Errno = 6002
	ErrnoTimeout     Errno = 6003
	ErrnoCongest     Errno = 6004
	ErrnoPeerErr     Errno = 7000
)

var errnoText = map[Errno]string{
	ErrnoSuccess:     "Success",
	ErrnoConnSetup:   "Connection setup failure",
	ErrnoNoServer:    "Connection setup failure: connection timed out",
	ErrnoConnRej:     "Connection setup failure: connection rejected",
	ErrnoSockFail:    "Connection setup failure: unable to create/configure SRT socket",
	ErrnoSecFail:     "Connection setup failure: abort for security reasons",
	ErrnoSClosed:     "Connection setup failure: socket closed during operation",
	ErrnoConnFail:    "Connection failure",
	ErrnoConnLost:    "Connection was broken",
	ErrnoNoConn:      "Connection does not exist",
	ErrnoResource:    "System resource failure",
	ErrnoThread:      "System resource failure: unable to create new threads",
	ErrnoNoBuf:       "System resource failure: unable to allocate buffers",
	ErrnoSysObj:      "System resource failure: unable to allocate a system object",
	ErrnoInvOp:       "Operation not supported",
	ErrnoBoundSock:   "Operation not supported: Cannot do this operation on a BOUND socket",
	ErrnoConnSock:    "Operation not supported: Cannot do this operation on a CONNECTED socket",
	ErrnoInvParam:    "Operation not supported: Bad parameters",
	ErrnoInvSock:     "Operation not supported: Invalid socket ID",
	ErrnoUnboundSock: "Operation not supported: Cannot do this operation on an UNBOUND socket",
	ErrnoNoListen:    "Operation not supported: Socket is not in listening state",
	ErrnoRdvNoServ:   "Operation not supported: Listen/accept is not supported in rendezvous connection setup",
	ErrnoRdvUnbound:  "Operation not supported: Cannot call connect on UNBOUND socket in rendezvous connection setup",
	ErrnoInvalMsgAPI: "Operation not supported: Incorrect use of Message API (sendmsg/recvmsg)",
	ErrnoInvalBufAPI: "Operation not supported: Incorrect use of Buffer API (send/recv) or File API (sendfile/recvfile)",
	ErrnoDupListen:   "Operation not supported: Another socket is already listening on the same port",
	ErrnoLargeMsg:    "Operation not supported: Message is too large to send",
	ErrnoInvPollID:   "Operation not supported: Invalid epoll ID",
	ErrnoPollEmpty:   "Operation not supported: All sockets removed from epoll waiting set",
	ErrnoAsyncFail:   "Non-blocking call failure",
	ErrnoAsyncSnd:    "Non-blocking call failure: no buffer available for sending",
	ErrnoAsyncRcv:    "Non-blocking call failure: no data available for reading",
	ErrnoTimeout:     "Non-blocking call failure: transmission timed out",
	ErrnoCongest:     "Non-blocking call failure: early congestion notification",
	ErrnoPeerErr:     "The peer side has signaled an error",
}

// String returns the engine's standard message for the code.
func (e Errno) String() string {
	if text, ok := errnoText[e]; ok {
		return text
	}
	return "Unknown error"
}

// Error is a captured engine failure: the numeric code and the message text
// that were current immediately after the failing call.
type Error struct {
	Code Errno
	Text string
}

func (e *Error) Error() string {
	if e.Text == "" {
		return e.Code.String()
	}
	return e.Text
}

// NewError creates an *Error with the standard text for code, optionally
// extended with detail.
func NewError(code Errno, detail string) *Error {
	text := code.String()
	if detail != "" {
		text = fmt.Sprintf("%s: %s", text, detail)
	}
	return &Error{Code: code, Text: text}
}

// CodeOf extracts the Errno from err, or ErrnoUnknown when err is not an
// engine error.
func CodeOf(err error) Errno {
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr.Code
	}
	if err == nil {
		return ErrnoSuccess
	}
	return ErrnoUnknown
}
