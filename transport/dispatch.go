package transport

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/opd-ai/srtsock/engine"
)

// dispatch routes one parsed datagram received on m.
func (e *Engine) dispatch(m *mux, p *Packet, from *net.UDPAddr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown {
		return
	}
	if p.Type == PacketHandshakeRequest && p.DstID == 0 {
		e.handleRequest(m, p, from)
		return
	}

	s, ok := e.sockets[engine.SocketID(p.DstID)]
	if !ok || s.mux != m {
		NewLogger("dispatch").
			WithField("packet_type", p.Type.String()).
			WithField("dst", p.DstID).
			Debug("Dropping packet for unknown socket")
		return
	}

	now := time.Now()
	switch p.Type {
	case PacketHandshakeResponse:
		e.handleResponse(s, p, from, now)
	case PacketReject:
		e.handleReject(s, p)
	case PacketData:
		e.handleData(s, p, from, now)
	case PacketKeepalive:
		e.handleKeepalive(s, p, from, now)
	case PacketShutdown:
		if s.fromPeer(p, from) && s.status == engine.StatusConnected {
			s.status = engine.StatusBroken
			e.signal()
			NewLogger("dispatch").WithSocket(s.id).Debug("Peer closed the connection")
		}
	}
}

// fromPeer reports whether p came from the established peer of s.
func (s *socket) fromPeer(p *Packet, from *net.UDPAddr) bool {
	return s.peer != nil &&
		engine.SocketID(p.SrcID) == s.peerID &&
		s.peer.Port == from.Port &&
		s.peer.IP.Equal(from.IP)
}

// handleRequest admits a caller into the listener's backlog.
// Caller holds e.mu.
func (e *Engine) handleRequest(m *mux, p *Packet, from *net.UDPAddr) {
	ln := m.listener
	if ln == nil || ln.status != engine.StatusListening {
		NewLogger("handleRequest").WithField("remote_addr", from.String()).Debug("No listener for connection request")
		return
	}

	var hs Handshake
	if err := hs.UnmarshalBinary(p.Payload); err != nil {
		NewLogger("handleRequest").WithField("remote_addr", from.String()).WithError(err).Debug("Malformed connection request")
		return
	}

	key := peerKey{addr: from.String(), id: engine.SocketID(p.SrcID)}
	if c, ok := ln.pending[key]; ok {
		// The caller missed our response.
		if err := m.write(c.response, from); err != nil {
			NewLogger("handleRequest").WithSocket(c.id).WithError(err).Debug("Response resend failed")
		}
		return
	}

	if ln.backlog.Length() >= ln.backlogMax {
		e.reject(m, p, from, engine.ErrnoConnRej, "backlog full")
		return
	}
	if hs.Version < uint32(ln.opts.num(engine.OptMinVersion)) {
		e.reject(m, p, from, engine.ErrnoConnRej, "peer version too old")
		return
	}
	if hs.MinVersion > EngineVersion {
		e.reject(m, p, from, engine.ErrnoConnRej, "local version too old")
		return
	}

	kmState, sess, reply, reason := e.acceptKeyExchange(ln, &hs)
	if reason != "" {
		e.reject(m, p, from, engine.ErrnoConnRej, reason)
		return
	}

	now := time.Now()
	c := newSocket(e.allocID(), ln.opts.clone(), now)
	c.opts.texts[engine.OptStreamID] = hs.StreamID
	c.opts.nums[engine.OptRcvLatency] = max(c.opts.num(engine.OptRcvLatency), int64(hs.PeerLatency))
	c.opts.nums[engine.OptPeerLatency] = max(c.opts.num(engine.OptPeerLatency), int64(hs.RcvLatency))
	c.status = engine.StatusConnected
	c.mux = m
	c.local = m.addr
	c.peer = from
	c.peerID = engine.SocketID(p.SrcID)
	c.peerVersion = hs.Version
	c.isn = rand.Uint32() & 0x7FFFFFFF
	c.sndSeq = c.isn
	c.rcvSeq = p.Seq
	c.rcvSeqInit = true
	c.session = sess
	c.kmState = kmState
	c.lastHeard = now
	c.lastSent = now
	c.parent = ln
	c.parentKey = key
	m.refs++

	resp := Handshake{
		Version:     EngineVersion,
		MinVersion:  uint32(c.opts.num(engine.OptMinVersion)),
		RcvLatency:  uint32(c.opts.num(engine.OptRcvLatency)),
		PeerLatency: uint32(c.opts.num(engine.OptPeerLatency)),
		Noise:       reply,
	}
	if ln.opts.str(engine.OptPassphrase) != "" {
		resp.Flags |= hsFlagEncrypted
	}
	body, err := resp.MarshalBinary()
	if err != nil {
		NewLogger("handleRequest").WithError(err).Error("Failed to encode handshake response")
		m.refs--
		return
	}
	pkt := &Packet{
		Type:      PacketHandshakeResponse,
		DstID:     p.SrcID,
		SrcID:     uint32(c.id),
		Seq:       c.isn,
		Timestamp: c.timestamp(now),
		Payload:   body,
	}
	c.response = pkt.Serialize()

	e.sockets[c.id] = c
	ln.pending[key] = c
	ln.backlog.Add(c)
	if err := m.write(c.response, from); err != nil {
		NewLogger("handleRequest").WithSocket(c.id).WithError(err).Debug("Response send failed")
	}
	e.signal()

	NewLogger("handleRequest").
		WithSocket(c.id).
		WithField("listener", ln.id).
		WithField("remote_addr", from.String()).
		Debug("Connection admitted to backlog")
}

// acceptKeyExchange applies the listener's passphrase policy to a request.
// A non-empty reason means the request must be rejected.
func (e *Engine) acceptKeyExchange(ln *socket, hs *Handshake) (kmState int32, sess *session, reply []byte, reason string) {
	pass := ln.opts.str(engine.OptPassphrase)
	enforced := ln.opts.flag(engine.OptEnforcedEnc)

	switch {
	case pass == "" && !hs.Encrypted():
		return engine.KMStateUnsecured, nil, nil, ""
	case pass != "" && hs.Encrypted():
		reply, sess, err := respondKeyExchange(pass, hs.Salt, hs.Noise, e.cfg.PBKDF2Iterations)
		if err == nil {
			return engine.KMStateSecured, sess, reply, ""
		}
		if !errors.Is(err, ErrBadSecret) {
			NewLogger("acceptKeyExchange").WithError(err).Warn("Key exchange failed")
			return engine.KMStateBadSecret, nil, nil, "key exchange failed"
		}
		if enforced {
			return engine.KMStateBadSecret, nil, nil, "bad secret"
		}
		return engine.KMStateBadSecret, nil, nil, ""
	default:
		if enforced {
			return engine.KMStateNoSecret, nil, nil, "encryption mismatch"
		}
		return engine.KMStateNoSecret, nil, nil, ""
	}
}

func (e *Engine) reject(m *mux, p *Packet, to *net.UDPAddr, code engine.Errno, reason string) {
	body, _ := (&Reject{Code: uint32(code), Reason: reason}).MarshalBinary()
	pkt := &Packet{Type: PacketReject, DstID: p.SrcID, Payload: body}
	if err := m.write(pkt.Serialize(), to); err != nil {
		NewLogger("reject").WithError(err).Debug("Reject send failed")
	}
	NewLogger("reject").WithField("remote_addr", to.String()).WithField("reason", reason).Info("Connection request rejected")
}

// handleResponse completes a pending connect. Caller holds e.mu.
func (e *Engine) handleResponse(s *socket, p *Packet, from *net.UDPAddr, now time.Time) {
	if s.status != engine.StatusConnecting || s.peer == nil || s.peer.Port != from.Port || !s.peer.IP.Equal(from.IP) {
		return
	}
	var hs Handshake
	if err := hs.UnmarshalBinary(p.Payload); err != nil {
		NewLogger("handleResponse").WithSocket(s.id).WithError(err).Debug("Malformed handshake response")
		return
	}

	s.peerID = engine.SocketID(p.SrcID)
	s.peerVersion = hs.Version

	enforced := s.opts.flag(engine.OptEnforcedEnc)
	switch {
	case s.kx != nil && hs.Encrypted():
		sess, err := s.kx.finish(hs.Noise)
		if err != nil {
			s.kmState = engine.KMStateBadSecret
			break
		}
		s.session = sess
		s.kmState = engine.KMStateSecured
	case s.kx != nil || hs.Encrypted():
		s.kmState = engine.KMStateNoSecret
	default:
		s.kmState = engine.KMStateUnsecured
	}
	s.kx = nil
	s.request = nil

	if enforced && (s.kmState == engine.KMStateBadSecret || s.kmState == engine.KMStateNoSecret) {
		e.sendControl(s, PacketShutdown, nil, now)
		s.breakConnection(engine.NewError(engine.ErrnoConnRej, "encryption mismatch"))
		e.signal()
		return
	}

	s.opts.nums[engine.OptRcvLatency] = int64(hs.PeerLatency)
	s.opts.nums[engine.OptPeerLatency] = int64(hs.RcvLatency)
	s.rcvSeq = p.Seq
	s.rcvSeqInit = true
	s.lastHeard = now
	s.lastSent = now
	s.status = engine.StatusConnected
	e.signal()

	NewLogger("handleResponse").WithSocket(s.id).WithField("peer", s.peerID).Debug("Connection established")
}

// handleReject fails a pending connect. Caller holds e.mu.
func (e *Engine) handleReject(s *socket, p *Packet) {
	if s.status != engine.StatusConnecting {
		return
	}
	var r Reject
	if err := r.UnmarshalBinary(p.Payload); err != nil {
		return
	}
	s.breakConnection(engine.NewError(engine.ErrnoConnRej, r.Reason))
	e.signal()
}

// handleData queues an inbound message. Caller holds e.mu.
func (e *Engine) handleData(s *socket, p *Packet, from *net.UDPAddr, now time.Time) {
	if !s.fromPeer(p, from) {
		return
	}
	s.lastHeard = now
	if s.status != engine.StatusConnected {
		return
	}

	payload := p.Payload
	switch {
	case s.session != nil:
		pt, err := s.session.open(p.Header(), payload, p.Seq)
		if err != nil {
			s.record(func(c *counters) {
				c.pktRcvUndecrypt++
				c.byteRcvUndecrypt += uint64(len(payload))
			})
			return
		}
		payload = pt
	case s.kmState == engine.KMStateBadSecret || s.kmState == engine.KMStateNoSecret:
		s.record(func(c *counters) {
			c.pktRcvUndecrypt++
			c.byteRcvUndecrypt += uint64(len(payload))
		})
		return
	}

	if !s.rcvSeqInit {
		s.rcvSeq = p.Seq
		s.rcvSeqInit = true
	}
	if gap := int32(p.Seq - s.rcvSeq); gap > 0 {
		s.record(func(c *counters) {
			c.pktRcvLoss += gap
			c.byteRcvLoss += uint64(gap) * uint64(len(payload))
		})
		s.rcvSeq = p.Seq + 1
	} else if gap == 0 {
		s.rcvSeq++
	}

	if !s.enqueue(payload) {
		s.record(func(c *counters) {
			c.pktRcvDrop++
			c.byteRcvDrop += uint64(len(payload))
		})
		return
	}
	s.record(func(c *counters) {
		c.pktRecv++
		c.byteRecv += uint64(len(payload))
	})
	e.signal()
}

// handleKeepalive answers probes and updates the RTT estimate from echoes.
// Caller holds e.mu.
func (e *Engine) handleKeepalive(s *socket, p *Packet, from *net.UDPAddr, now time.Time) {
	if !s.fromPeer(p, from) || len(p.Payload) < 5 {
		return
	}
	s.lastHeard = now
	echo := binary.BigEndian.Uint32(p.Payload[1:5])
	switch p.Payload[0] {
	case keepaliveRequest:
		e.sendKeepalive(s, keepaliveReply, echo, now)
	case keepaliveReply:
		sample := time.Duration(s.timestamp(now)-echo) * time.Microsecond
		if s.rtt == 0 {
			s.rtt = sample
		} else {
			s.rtt = (7*s.rtt + sample) / 8
		}
	}
}

// sendKeepalive sends a probe or an echo carrying the probe's timestamp.
// Caller holds e.mu.
func (e *Engine) sendKeepalive(s *socket, kind byte, echo uint32, now time.Time) {
	body := make([]byte, 5)
	body[0] = kind
	binary.BigEndian.PutUint32(body[1:], echo)
	e.sendControl(s, PacketKeepalive, body, now)
}

// sendControl sends a non-data packet to the established peer.
// Caller holds e.mu.
func (e *Engine) sendControl(s *socket, t PacketType, body []byte, now time.Time) {
	if s.mux == nil || s.peer == nil {
		return
	}
	pkt := &Packet{
		Type:      t,
		DstID:     uint32(s.peerID),
		SrcID:     uint32(s.id),
		Timestamp: s.timestamp(now),
		Payload:   body,
	}
	if err := s.mux.write(pkt.Serialize(), s.peer); err != nil {
		NewLogger("sendControl").WithSocket(s.id).WithField("packet_type", t.String()).WithError(err).Debug("Control send failed")
		return
	}
	s.lastSent = now
}
