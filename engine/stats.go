package engine

// TraceBStats is the engine's raw statistics record for one socket
// (a subset of the native CBytePerfMon layout).
//
// Fields ending in Total are cumulative over the socket lifetime. Fields
// without a suffix are local to the current interval and reset when BStats
// is called with clear. Fields prefixed with a unit and no interval meaning
// (MsRTT, MbpsBandwidth, ByteAvail*, *Buf) are instantaneous gauges.
type TraceBStats struct {
	MsTimeStamp int64 // time since the socket was created, ms

	// cumulative
	PktSentTotal          int64
	PktRecvTotal          int64
	PktSndLossTotal       int32
	PktRcvLossTotal       int32
	PktRetransTotal       int32
	PktSentACKTotal       int32
	PktRecvACKTotal       int32
	PktSentNAKTotal       int32
	PktRecvNAKTotal       int32
	PktSndDropTotal       int32
	PktRcvDropTotal       int32
	PktRcvUndecryptTotal  int32
	ByteSentTotal         uint64
	ByteRecvTotal         uint64
	ByteRcvLossTotal      uint64
	ByteRetransTotal      uint64
	ByteSndDropTotal      uint64
	ByteRcvDropTotal      uint64
	ByteRcvUndecryptTotal uint64
	UsSndDurationTotal    int64

	// interval
	PktSent          int64
	PktRecv          int64
	PktSndLoss       int32
	PktRcvLoss       int32
	PktRetrans       int32
	PktRcvRetrans    int32
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
	MbpsSendRate     float64
	MbpsRecvRate     float64
	UsSndDuration    int64

	// instantaneous
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
