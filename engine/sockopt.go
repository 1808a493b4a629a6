package engine

// SockOpt identifies a socket option. Values match the native enumeration.
type SockOpt int32

const (
	OptMSS         SockOpt = 0  // maximum transfer unit
	OptSndSyn      SockOpt = 1  // sending is blocking
	OptRcvSyn      SockOpt = 2  // receiving (and connect/accept) is blocking
	OptISN         SockOpt = 3  // initial sequence number, read only
	OptFC          SockOpt = 4  // flight flag size (window)
	OptSndBuf      SockOpt = 5  // send buffer size
	OptRcvBuf      SockOpt = 6  // receive buffer size
	OptLinger      SockOpt = 7  // linger on close, seconds
	OptUDPSndBuf   SockOpt = 8  // UDP send buffer size
	OptUDPRcvBuf   SockOpt = 9  // UDP receive buffer size
	OptRendezvous  SockOpt = 12 // rendezvous connection mode
	OptSndTimeO    SockOpt = 13 // send timeout, ms
	OptRcvTimeO    SockOpt = 14 // receive timeout, ms
	OptReuseAddr   SockOpt = 15 // reuse an existing bound port
	OptMaxBW       SockOpt = 16 // maximum bandwidth, bytes/s (int64)
	OptState       SockOpt = 17 // socket state, read only
	OptEvent       SockOpt = 18 // pending epoll events, read only
	OptSndData     SockOpt = 19 // bytes in the send buffer, read only
	OptRcvData     SockOpt = 20 // bytes available to recv, read only
	OptSender      SockOpt = 21 // sender mode
	OptTSBPDMode   SockOpt = 22 // timestamp-based packet delivery
	OptLatency     SockOpt = 23 // sets both receiver and peer latency, ms
	OptInputBW     SockOpt = 24 // estimated input rate (int64)
	OptOheadBW     SockOpt = 25 // overhead over input rate, percent
	OptPassphrase  SockOpt = 26 // crypto passphrase, write only
	OptPBKeyLen    SockOpt = 27 // crypto key length {0,16,24,32}
	OptKMState     SockOpt = 28 // key material state, read only
	OptIPTTL       SockOpt = 29 // IP time to live
	OptIPTOS       SockOpt = 30 // IP type of service
	OptTLPktDrop   SockOpt = 31 // too-late packet drop
	OptSndDropDly  SockOpt = 32 // extra sender drop delay, ms
	OptNAKReport   SockOpt = 33 // periodic NAK reports
	OptVersion     SockOpt = 34 // local version, read only
	OptPeerVersion SockOpt = 35 // peer version, read only
	OptConnTimeO   SockOpt = 36 // connect timeout, ms
	OptSndKMState  SockOpt = 40 // sender key material state, read only
	OptRcvKMState  SockOpt = 41 // receiver key material state, read only
	OptLossMaxTTL  SockOpt = 42 // reorder tolerance, packets
	OptRcvLatency  SockOpt = 43 // receiver latency, ms
	OptPeerLatency SockOpt = 44 // minimum latency requested from peer, ms
	OptMinVersion  SockOpt = 45 // minimum peer version
	OptStreamID    SockOpt = 46 // stream id passed to the accepted socket
	OptCongestion  SockOpt = 47 // congestion controller name
	OptMessageAPI  SockOpt = 48 // message API in file mode
	OptPayloadSize SockOpt = 49 // max payload per packet
	OptTransType   SockOpt = 50 // transmission type (live/file)
	OptKMRefresh   SockOpt = 51 // packets between key refreshes
	OptKMPreAnnce  SockOpt = 52 // packets of key pre-announcement
	OptEnforcedEnc SockOpt = 53 // reject on encryption mismatch
	OptIPv6Only    SockOpt = 54 // IPV6_V6ONLY
	OptPeerIdleTO  SockOpt = 55 // peer idle timeout, ms
	OptPacketFilt  SockOpt = 60 // packet filter configuration

	// OptTSBPDDelay is the deprecated alias of OptLatency.
	OptTSBPDDelay = OptLatency
)

// Transmission types for OptTransType.
const (
	TransTypeLive int32 = 0
	TransTypeFile int32 = 1
)

// Key material states reported by OptKMState, OptSndKMState, OptRcvKMState.
const (
	KMStateUnsecured int32 = 0
	KMStateSecuring  int32 = 1
	KMStateSecured   int32 = 2
	KMStateNoSecret  int32 = 3
	KMStateBadSecret int32 = 4
)
