//go:build libsrt && cgo

package libsrt

/*
#include <srt/srt.h>
*/
import "C"

import "github.com/opd-ai/srtsock/engine"

func copyStats(out *engine.TraceBStats, st *C.SRT_TRACEBSTATS) {
	*out = engine.TraceBStats{
		MsTimeStamp: int64(st.msTimeStamp),

		PktSentTotal:          int64(st.pktSentTotal),
		PktRecvTotal:          int64(st.pktRecvTotal),
		PktSndLossTotal:       int32(st.pktSndLossTotal),
		PktRcvLossTotal:       int32(st.pktRcvLossTotal),
		PktRetransTotal:       int32(st.pktRetransTotal),
		PktSentACKTotal:       int32(st.pktSentACKTotal),
		PktRecvACKTotal:       int32(st.pktRecvACKTotal),
		PktSentNAKTotal:       int32(st.pktSentNAKTotal),
		PktRecvNAKTotal:       int32(st.pktRecvNAKTotal),
		PktSndDropTotal:       int32(st.pktSndDropTotal),
		PktRcvDropTotal:       int32(st.pktRcvDropTotal),
		PktRcvUndecryptTotal:  int32(st.pktRcvUndecryptTotal),
		ByteSentTotal:         uint64(st.byteSentTotal),
		ByteRecvTotal:         uint64(st.byteRecvTotal),
		ByteRcvLossTotal:      uint64(st.byteRcvLossTotal),
		ByteRetransTotal:      uint64(st.byteRetransTotal),
		ByteSndDropTotal:      uint64(st.byteSndDropTotal),
		ByteRcvDropTotal:      uint64(st.byteRcvDropTotal),
		ByteRcvUndecryptTotal: uint64(st.byteRcvUndecryptTotal),
		UsSndDurationTotal:    int64(st.usSndDurationTotal),

		PktSent:          int64(st.pktSent),
		PktRecv:          int64(st.pktRecv),
		PktSndLoss:       int32(st.pktSndLoss),
		PktRcvLoss:       int32(st.pktRcvLoss),
		PktRetrans:       int32(st.pktRetrans),
		PktRcvRetrans:    int32(st.pktRcvRetrans),
		PktSentACK:       int32(st.pktSentACK),
		PktRecvACK:       int32(st.pktRecvACK),
		PktSentNAK:       int32(st.pktSentNAK),
		PktRecvNAK:       int32(st.pktRecvNAK),
		PktSndDrop:       int32(st.pktSndDrop),
		PktRcvDrop:       int32(st.pktRcvDrop),
		PktRcvUndecrypt:  int32(st.pktRcvUndecrypt),
		ByteSent:         uint64(st.byteSent),
		ByteRecv:         uint64(st.byteRecv),
		ByteRcvLoss:      uint64(st.byteRcvLoss),
		ByteRetrans:      uint64(st.byteRetrans),
		ByteSndDrop:      uint64(st.byteSndDrop),
		ByteRcvDrop:      uint64(st.byteRcvDrop),
		ByteRcvUndecrypt: uint64(st.byteRcvUndecrypt),
		MbpsSendRate:     float64(st.mbpsSendRate),
		MbpsRecvRate:     float64(st.mbpsRecvRate),
		UsSndDuration:    int64(st.usSndDuration),

		UsPktSndPeriod:      float64(st.usPktSndPeriod),
		PktFlowWindow:       int32(st.pktFlowWindow),
		PktCongestionWindow: int32(st.pktCongestionWindow),
		PktFlightSize:       int32(st.pktFlightSize),
		MsRTT:               float64(st.msRTT),
		MbpsBandwidth:       float64(st.mbpsBandwidth),
		ByteAvailSndBuf:     int32(st.byteAvailSndBuf),
		ByteAvailRcvBuf:     int32(st.byteAvailRcvBuf),
		MbpsMaxBW:           float64(st.mbpsMaxBW),
		ByteMSS:             int32(st.byteMSS),
		PktSndBuf:           int32(st.pktSndBuf),
		ByteSndBuf:          int32(st.byteSndBuf),
		MsSndBuf:            int32(st.msSndBuf),
		MsSndTsbPdDelay:     int32(st.msSndTsbPdDelay),
		PktRcvBuf:           int32(st.pktRcvBuf),
		ByteRcvBuf:          int32(st.byteRcvBuf),
		MsRcvBuf:            int32(st.msRcvBuf),
		MsRcvTsbPdDelay:     int32(st.msRcvTsbPdDelay),
	}
}
