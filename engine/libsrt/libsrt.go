//go:build libsrt && cgo

// Package libsrt binds engine.Engine to the native libsrt C library.
//
// Build with:
//
//	go build -tags libsrt ./...
//
// libsrt reports failures through a thread-local last-error slot. Every
// call here runs with the goroutine locked to its OS thread and reads the
// slot before unlocking, so the captured *engine.Error always belongs to
// the call that failed.
package libsrt

/*
#cgo pkg-config: srt
#include <stdlib.h>
#include <string.h>
#include <arpa/inet.h>
#include <srt/srt.h>

static int srtsock_bind4(SRTSOCKET s, uint32_t ip, int port) {
	struct sockaddr_in sa;
	memset(&sa, 0, sizeof sa);
	sa.sin_family = AF_INET;
	sa.sin_port = htons((uint16_t)port);
	sa.sin_addr.s_addr = ip;
	return srt_bind(s, (struct sockaddr*)&sa, sizeof sa);
}

static int srtsock_connect4(SRTSOCKET s, uint32_t ip, int port) {
	struct sockaddr_in sa;
	memset(&sa, 0, sizeof sa);
	sa.sin_family = AF_INET;
	sa.sin_port = htons((uint16_t)port);
	sa.sin_addr.s_addr = ip;
	return srt_connect(s, (struct sockaddr*)&sa, sizeof sa);
}

static void srtsock_unpack4(struct sockaddr_storage* ss, uint32_t* ip, int* port) {
	struct sockaddr_in* sa = (struct sockaddr_in*)ss;
	*ip = sa->sin_addr.s_addr;
	*port = ntohs(sa->sin_port);
}

static SRTSOCKET srtsock_accept4(SRTSOCKET s, uint32_t* ip, int* port) {
	struct sockaddr_storage ss;
	int len = sizeof ss;
	SRTSOCKET c = srt_accept(s, (struct sockaddr*)&ss, &len);
	if (c != SRT_INVALID_SOCK) {
		srtsock_unpack4(&ss, ip, port);
	}
	return c;
}

static int srtsock_name4(SRTSOCKET s, int peer, uint32_t* ip, int* port) {
	struct sockaddr_storage ss;
	int len = sizeof ss;
	int rc = peer ? srt_getpeername(s, (struct sockaddr*)&ss, &len)
	              : srt_getsockname(s, (struct sockaddr*)&ss, &len);
	if (rc != SRT_ERROR) {
		srtsock_unpack4(&ss, ip, port);
	}
	return rc;
}
*/
import "C"

import (
	"net"
	"runtime"
	"unsafe"

	"github.com/opd-ai/srtsock/engine"
)

// Engine is the native engine. Create it with New; the library is started
// once per Engine and cleaned up by Cleanup.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

// New starts the native library.
func New() (*Engine, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_startup() < 0 {
		return nil, lastError()
	}
	return &Engine{}, nil
}

// lastError reads the thread-local error slot. The caller must still be
// locked to the thread that made the failing call.
func lastError() *engine.Error {
	var sysErrno C.int
	code := C.srt_getlasterror(&sysErrno)
	return &engine.Error{
		Code: engine.Errno(code),
		Text: C.GoString(C.srt_getlasterror_str()),
	}
}

func ipv4(addr *net.UDPAddr) (C.uint32_t, bool) {
	ip := addr.IP.To4()
	if ip == nil {
		return 0, false
	}
	return C.uint32_t(engine.NativeEndian.Uint32(ip)), true
}

func udpAddr(ip C.uint32_t, port C.int) *net.UDPAddr {
	b := make(net.IP, 4)
	engine.NativeEndian.PutUint32(b, uint32(ip))
	return &net.UDPAddr{IP: b, Port: int(port)}
}

func sock(s engine.SocketID) C.SRTSOCKET { return C.SRTSOCKET(s) }

// Socket implements engine.Engine.
func (e *Engine) Socket() (engine.SocketID, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s := C.srt_create_socket()
	if s == C.SRT_INVALID_SOCK {
		return engine.InvalidSock, lastError()
	}
	return engine.SocketID(s), nil
}

// Bind implements engine.Engine.
func (e *Engine) Bind(s engine.SocketID, addr *net.UDPAddr) error {
	ip, ok := ipv4(addr)
	if !ok {
		return engine.NewError(engine.ErrnoInvParam, "IPv4 address required")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srtsock_bind4(sock(s), ip, C.int(addr.Port)) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

// Listen implements engine.Engine.
func (e *Engine) Listen(s engine.SocketID, backlog int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_listen(sock(s), C.int(backlog)) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

// Connect implements engine.Engine.
func (e *Engine) Connect(s engine.SocketID, addr *net.UDPAddr) error {
	ip, ok := ipv4(addr)
	if !ok {
		return engine.NewError(engine.ErrnoInvParam, "IPv4 address required")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srtsock_connect4(sock(s), ip, C.int(addr.Port)) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

// Accept implements engine.Engine.
func (e *Engine) Accept(s engine.SocketID) (engine.SocketID, *net.UDPAddr, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var ip C.uint32_t
	var port C.int
	c := C.srtsock_accept4(sock(s), &ip, &port)
	if c == C.SRT_INVALID_SOCK {
		return engine.InvalidSock, nil, lastError()
	}
	return engine.SocketID(c), udpAddr(ip, port), nil
}

// Close implements engine.Engine.
func (e *Engine) Close(s engine.SocketID) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_close(sock(s)) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

// RecvMsg implements engine.Engine.
func (e *Engine) RecvMsg(s engine.SocketID, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, engine.NewError(engine.ErrnoInvParam, "empty buffer")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := C.srt_recvmsg(sock(s), (*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf)))
	if n == C.SRT_ERROR {
		return 0, lastError()
	}
	return int(n), nil
}

// SendMsg implements engine.Engine.
func (e *Engine) SendMsg(s engine.SocketID, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, engine.NewError(engine.ErrnoInvParam, "empty message")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := C.srt_sendmsg2(sock(s), (*C.char)(unsafe.Pointer(&data[0])), C.int(len(data)), nil)
	if n == C.SRT_ERROR {
		return 0, lastError()
	}
	return int(n), nil
}

// GetSockFlag implements engine.Engine.
func (e *Engine) GetSockFlag(s engine.SocketID, opt engine.SockOpt, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, engine.NewError(engine.ErrnoInvParam, "empty buffer")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	size := C.int(len(buf))
	if C.srt_getsockflag(sock(s), C.SRT_SOCKOPT(opt), unsafe.Pointer(&buf[0]), &size) == C.SRT_ERROR {
		return 0, lastError()
	}
	return int(size), nil
}

// SetSockFlag implements engine.Engine.
func (e *Engine) SetSockFlag(s engine.SocketID, opt engine.SockOpt, buf []byte) error {
	var ptr unsafe.Pointer
	if len(buf) > 0 {
		ptr = unsafe.Pointer(&buf[0])
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_setsockflag(sock(s), C.SRT_SOCKOPT(opt), ptr, C.int(len(buf))) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

func (e *Engine) name(s engine.SocketID, peer bool) (*net.UDPAddr, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var ip C.uint32_t
	var port C.int
	var which C.int
	if peer {
		which = 1
	}
	if C.srtsock_name4(sock(s), which, &ip, &port) == C.SRT_ERROR {
		return nil, lastError()
	}
	return udpAddr(ip, port), nil
}

// SockName implements engine.Engine.
func (e *Engine) SockName(s engine.SocketID) (*net.UDPAddr, error) { return e.name(s, false) }

// PeerName implements engine.Engine.
func (e *Engine) PeerName(s engine.SocketID) (*net.UDPAddr, error) { return e.name(s, true) }

// GetSockState implements engine.Engine.
func (e *Engine) GetSockState(s engine.SocketID) engine.SockStatus {
	return engine.SockStatus(C.srt_getsockstate(sock(s)))
}

// EpollCreate implements engine.Engine.
func (e *Engine) EpollCreate() (int, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	eid := C.srt_epoll_create()
	if eid < 0 {
		return -1, lastError()
	}
	return int(eid), nil
}

// EpollAddUsock implements engine.Engine.
func (e *Engine) EpollAddUsock(eid int, s engine.SocketID, events engine.EpollFlag) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ev := C.int(int32(events))
	if C.srt_epoll_add_usock(C.int(eid), sock(s), &ev) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

// EpollRemoveUsock implements engine.Engine.
func (e *Engine) EpollRemoveUsock(eid int, s engine.SocketID) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_epoll_remove_usock(C.int(eid), sock(s)) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

// EpollUWait implements engine.Engine.
func (e *Engine) EpollUWait(eid int, events []engine.EpollEvent, timeoutMs int64) (int, error) {
	if len(events) == 0 {
		return 0, engine.NewError(engine.ErrnoInvParam, "empty event buffer")
	}
	native := make([]C.SRT_EPOLL_EVENT, len(events))

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := C.srt_epoll_uwait(C.int(eid), &native[0], C.int(len(native)), C.int64_t(timeoutMs))
	if n < 0 {
		err := lastError()
		if err.Code == engine.ErrnoTimeout {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < int(n); i++ {
		events[i] = engine.EpollEvent{
			Socket: engine.SocketID(native[i].fd),
			Events: engine.EpollFlag(uint32(native[i].events)),
		}
	}
	return int(n), nil
}

// EpollRelease implements engine.Engine.
func (e *Engine) EpollRelease(eid int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_epoll_release(C.int(eid)) == C.SRT_ERROR {
		return lastError()
	}
	return nil
}

// BStats implements engine.Engine.
func (e *Engine) BStats(s engine.SocketID, out *engine.TraceBStats, clear bool) error {
	var clr C.int
	if clear {
		clr = 1
	}
	var st C.SRT_TRACEBSTATS

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_bstats(sock(s), &st, clr) == C.SRT_ERROR {
		return lastError()
	}
	copyStats(out, &st)
	return nil
}

// SetLogLevel implements engine.Engine.
func (e *Engine) SetLogLevel(level int) {
	C.srt_setloglevel(C.int(level))
}

// Cleanup implements engine.Engine.
func (e *Engine) Cleanup() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.srt_cleanup() != 0 {
		return lastError()
	}
	return nil
}
