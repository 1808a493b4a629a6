package transport

import (
	"time"

	"github.com/opd-ai/srtsock/engine"
)

// counters is one set of traffic counters. Each socket keeps a lifetime
// set and an interval set reset by BStats(clear=true).
type counters struct {
	pktSent          int64
	pktRecv          int64
	pktSndDrop       int32
	pktRcvLoss       int32
	pktRcvDrop       int32
	pktRcvUndecrypt  int32
	byteSent         uint64
	byteRecv         uint64
	byteRcvLoss      uint64
	byteRcvDrop      uint64
	byteRcvUndecrypt uint64
}

// record applies update to both counter sets.
func (s *socket) record(update func(c *counters)) {
	update(&s.total)
	update(&s.interval)
}

// BStats implements engine.Engine.
func (e *Engine) BStats(id engine.SocketID, out *engine.TraceBStats, clear bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	if s.status == engine.StatusBroken {
		return engine.NewError(engine.ErrnoConnLost, "")
	}
	if out == nil {
		return engine.NewError(engine.ErrnoInvParam, "nil stats record")
	}

	now := time.Now()
	*out = engine.TraceBStats{MsTimeStamp: now.Sub(s.created).Milliseconds()}

	out.PktSentTotal = s.total.pktSent
	out.PktRecvTotal = s.total.pktRecv
	out.PktSndDropTotal = s.total.pktSndDrop
	out.PktRcvLossTotal = s.total.pktRcvLoss
	out.PktRcvDropTotal = s.total.pktRcvDrop
	out.PktRcvUndecryptTotal = s.total.pktRcvUndecrypt
	out.ByteSentTotal = s.total.byteSent
	out.ByteRecvTotal = s.total.byteRecv
	out.ByteRcvLossTotal = s.total.byteRcvLoss
	out.ByteRcvDropTotal = s.total.byteRcvDrop
	out.ByteRcvUndecryptTotal = s.total.byteRcvUndecrypt

	out.PktSent = s.interval.pktSent
	out.PktRecv = s.interval.pktRecv
	out.PktSndDrop = s.interval.pktSndDrop
	out.PktRcvLoss = s.interval.pktRcvLoss
	out.PktRcvDrop = s.interval.pktRcvDrop
	out.PktRcvUndecrypt = s.interval.pktRcvUndecrypt
	out.ByteSent = s.interval.byteSent
	out.ByteRecv = s.interval.byteRecv
	out.ByteRcvLoss = s.interval.byteRcvLoss
	out.ByteRcvDrop = s.interval.byteRcvDrop
	out.ByteRcvUndecrypt = s.interval.byteRcvUndecrypt
	if elapsed := now.Sub(s.ivStart).Seconds(); elapsed > 0 {
		out.MbpsSendRate = float64(s.interval.byteSent) * 8 / elapsed / 1e6
		out.MbpsRecvRate = float64(s.interval.byteRecv) * 8 / elapsed / 1e6
	}

	e.fillGauges(s, out)

	if clear {
		s.interval = counters{}
		s.ivStart = now
	}
	return nil
}

// fillGauges sets the instantaneous fields. Caller holds e.mu.
func (e *Engine) fillGauges(s *socket, out *engine.TraceBStats) {
	payload := s.opts.num(engine.OptPayloadSize)
	if payload == 0 {
		payload = MaxPayloadSize
	}
	if maxBW := s.opts.num(engine.OptMaxBW); maxBW > 0 {
		out.MbpsMaxBW = float64(maxBW) * 8 / 1e6
		out.UsPktSndPeriod = float64(payload+HeaderSize) * 1e6 / float64(maxBW)
	}
	fc := int32(s.opts.num(engine.OptFC))
	queued := int32(s.queuedMessages())

	out.MsRTT = float64(s.rtt.Microseconds()) / 1000
	out.MbpsBandwidth = out.MbpsRecvRate
	out.PktFlowWindow = fc - queued
	out.PktCongestionWindow = fc
	out.ByteAvailSndBuf = int32(s.opts.num(engine.OptSndBuf))
	out.ByteAvailRcvBuf = int32(s.opts.num(engine.OptRcvBuf)) - int32(s.rcvBytes)
	out.ByteMSS = int32(s.opts.num(engine.OptMSS))
	out.PktRcvBuf = queued
	out.ByteRcvBuf = int32(s.rcvBytes)
	out.MsSndTsbPdDelay = int32(s.opts.num(engine.OptPeerLatency))
	out.MsRcvTsbPdDelay = int32(s.opts.num(engine.OptRcvLatency))
}
