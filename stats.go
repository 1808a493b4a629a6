package srtsock

import (
	"time"

	"github.com/opd-ai/srtsock/engine"
)

// Counters is a set of packet and byte counters.
type Counters struct {
	PktSent          int64
	PktRecv          int64
	PktSndLoss       int32
	PktRcvLoss       int32
	PktRetrans       int32
	PktSentACK       int32
	PktRecvACK       int32
	PktSentNAK       int32
	PktRecvNAK       int32
	PktSndDrop       int32
	PktRcvDrop       int32
	PktRcvUndecrypt  int32
	ByteSent         uint64
	ByteRecv         uint64
	ByteRcvLoss      uint64
	ByteRetrans      uint64
	ByteSndDrop      uint64
	ByteRcvDrop      uint64
	ByteRcvUndecrypt uint64
	UsSndDuration    int64
}

// IntervalStats holds counters local to the current interval. They restart
// from zero after a Stats call with clearAfterRead.
type IntervalStats struct {
	Counters
	PktRcvRetrans int32
	MbpsSendRate  float64
	MbpsRecvRate  float64
}

// Gauges are instantaneous readings.
type Gauges struct {
	UsPktSndPeriod      float64
	PktFlowWindow       int32
	PktCongestionWindow int32
	PktFlightSize       int32
	MsRTT               float64
	MbpsBandwidth       float64
	ByteAvailSndBuf     int32
	ByteAvailRcvBuf     int32
	MbpsMaxBW           float64
	ByteMSS             int32
	PktSndBuf           int32
	ByteSndBuf          int32
	MsSndBuf            int32
	MsSndTsbPdDelay     int32
	PktRcvBuf           int32
	ByteRcvBuf          int32
	MsRcvBuf            int32
	MsRcvTsbPdDelay     int32
}

// StatsSnapshot is one statistics reading of a handle.
type StatsSnapshot struct {
	// Timestamp is the socket age at the time of the reading.
	Timestamp  time.Duration
	Cumulative Counters
	Interval   IntervalStats
	Instant    Gauges
}

// Stats reads h's statistics. With clearAfterRead, the interval counters are
// reset as part of the same engine call; cumulative counters never reset.
func (s *SRT) Stats(h Handle, clearAfterRead bool) (StatsSnapshot, error) {
	const op = "bstats"
	if !s.reg.has(h) {
		return StatsSnapshot{}, newError(ErrHandleInvalid, op, h, nil)
	}
	var raw engine.TraceBStats
	if err := s.eng.BStats(h.id(), &raw, clearAfterRead); err != nil {
		return StatsSnapshot{}, newError(ErrIO, op, h, err)
	}
	return snapshotFrom(&raw), nil
}

func snapshotFrom(r *engine.TraceBStats) StatsSnapshot {
	return StatsSnapshot{
		Timestamp: time.Duration(r.MsTimeStamp) * time.Millisecond,
		Cumulative: Counters{
			PktSent:          r.PktSentTotal,
			PktRecv:          r.PktRecvTotal,
			PktSndLoss:       r.PktSndLossTotal,
			PktRcvLoss:       r.PktRcvLossTotal,
			PktRetrans:       r.PktRetransTotal,
			PktSentACK:       r.PktSentACKTotal,
			PktRecvACK:       r.PktRecvACKTotal,
			PktSentNAK:       r.PktSentNAKTotal,
			PktRecvNAK:       r.PktRecvNAKTotal,
			PktSndDrop:       r.PktSndDropTotal,
			PktRcvDrop:       r.PktRcvDropTotal,
			PktRcvUndecrypt:  r.PktRcvUndecryptTotal,
			ByteSent:         r.ByteSentTotal,
			ByteRecv:         r.ByteRecvTotal,
			ByteRcvLoss:      r.ByteRcvLossTotal,
			ByteRetrans:      r.ByteRetransTotal,
			ByteSndDrop:      r.ByteSndDropTotal,
			ByteRcvDrop:      r.ByteRcvDropTotal,
			ByteRcvUndecrypt: r.ByteRcvUndecryptTotal,
			UsSndDuration:    r.UsSndDurationTotal,
		},
		Interval: IntervalStats{
			Counters: Counters{
				PktSent:          r.PktSent,
				PktRecv:          r.PktRecv,
				PktSndLoss:       r.PktSndLoss,
				PktRcvLoss:       r.PktRcvLoss,
				PktRetrans:       r.PktRetrans,
				PktSentACK:       r.PktSentACK,
				PktRecvACK:       r.PktRecvACK,
				PktSentNAK:       r.PktSentNAK,
				PktRecvNAK:       r.PktRecvNAK,
				PktSndDrop:       r.PktSndDrop,
				PktRcvDrop:       r.PktRcvDrop,
				PktRcvUndecrypt:  r.PktRcvUndecrypt,
				ByteSent:         r.ByteSent,
				ByteRecv:         r.ByteRecv,
				ByteRcvLoss:      r.ByteRcvLoss,
				ByteRetrans:      r.ByteRetrans,
				ByteSndDrop:      r.ByteSndDrop,
				ByteRcvDrop:      r.ByteRcvDrop,
				ByteRcvUndecrypt: r.ByteRcvUndecrypt,
				UsSndDuration:    r.UsSndDuration,
			},
			PktRcvRetrans: r.PktRcvRetrans,
			MbpsSendRate:  r.MbpsSendRate,
			MbpsRecvRate:  r.MbpsRecvRate,
		},
		Instant: Gauges{
			UsPktSndPeriod:      r.UsPktSndPeriod,
			PktFlowWindow:       r.PktFlowWindow,
			PktCongestionWindow: r.PktCongestionWindow,
			PktFlightSize:       r.PktFlightSize,
			MsRTT:               r.MsRTT,
			MbpsBandwidth:       r.MbpsBandwidth,
			ByteAvailSndBuf:     r.ByteAvailSndBuf,
			ByteAvailRcvBuf:     r.ByteAvailRcvBuf,
			MbpsMaxBW:           r.MbpsMaxBW,
			ByteMSS:             r.ByteMSS,
			PktSndBuf:           r.PktSndBuf,
			ByteSndBuf:          r.ByteSndBuf,
			MsSndBuf:            r.MsSndBuf,
			MsSndTsbPdDelay:     r.MsSndTsbPdDelay,
			PktRcvBuf:           r.PktRcvBuf,
			ByteRcvBuf:          r.ByteRcvBuf,
			MsRcvBuf:            r.MsRcvBuf,
			MsRcvTsbPdDelay:     r.MsRcvTsbPdDelay,
		},
	}
}
