package srtsock

import "github.com/opd-ai/srtsock/engine"

// Handle identifies an open socket. Values are assigned by the engine.
type Handle int32

// InvalidSock is the handle value returned alongside errors.
const InvalidSock Handle = Handle(engine.InvalidSock)

// ResultError is the engine's generic failure result.
const ResultError = engine.ResultError

func (h Handle) id() engine.SocketID { return engine.SocketID(h) }

// SockStatus is the engine-reported lifecycle state of a handle.
type SockStatus = engine.SockStatus

const (
	StatusInit       = engine.StatusInit
	StatusOpened     = engine.StatusOpened
	StatusListening  = engine.StatusListening
	StatusConnecting = engine.StatusConnecting
	StatusConnected  = engine.StatusConnected
	StatusBroken     = engine.StatusBroken
	StatusClosing    = engine.StatusClosing
	StatusClosed     = engine.StatusClosed
	StatusNonExist   = engine.StatusNonExist
)

// EpollFlag is a readiness interest or event mask.
type EpollFlag = engine.EpollFlag

const (
	EpollIn  = engine.EpollIn
	EpollOut = engine.EpollOut
	EpollErr = engine.EpollErr
	EpollET  = engine.EpollET
)

// SockOpt identifies a socket option.
type SockOpt = engine.SockOpt

const (
	OptMSS         = engine.OptMSS
	OptSndSyn      = engine.OptSndSyn
	OptRcvSyn      = engine.OptRcvSyn
	OptISN         = engine.OptISN
	OptFC          = engine.OptFC
	OptSndBuf      = engine.OptSndBuf
	OptRcvBuf      = engine.OptRcvBuf
	OptLinger      = engine.OptLinger
	OptUDPSndBuf   = engine.OptUDPSndBuf
	OptUDPRcvBuf   = engine.OptUDPRcvBuf
	OptRendezvous  = engine.OptRendezvous
	OptSndTimeO    = engine.OptSndTimeO
	OptRcvTimeO    = engine.OptRcvTimeO
	OptReuseAddr   = engine.OptReuseAddr
	OptMaxBW       = engine.OptMaxBW
	OptState       = engine.OptState
	OptEvent       = engine.OptEvent
	OptSndData     = engine.OptSndData
	OptRcvData     = engine.OptRcvData
	OptSender      = engine.OptSender
	OptTSBPDMode   = engine.OptTSBPDMode
	OptLatency     = engine.OptLatency
	OptTSBPDDelay  = engine.OptTSBPDDelay
	OptInputBW     = engine.OptInputBW
	OptOheadBW     = engine.OptOheadBW
	OptPassphrase  = engine.OptPassphrase
	OptPBKeyLen    = engine.OptPBKeyLen
	OptKMState     = engine.OptKMState
	OptIPTTL       = engine.OptIPTTL
	OptIPTOS       = engine.OptIPTOS
	OptTLPktDrop   = engine.OptTLPktDrop
	OptSndDropDly  = engine.OptSndDropDly
	OptNAKReport   = engine.OptNAKReport
	OptVersion     = engine.OptVersion
	OptPeerVersion = engine.OptPeerVersion
	OptConnTimeO   = engine.OptConnTimeO
	OptSndKMState  = engine.OptSndKMState
	OptRcvKMState  = engine.OptRcvKMState
	OptLossMaxTTL  = engine.OptLossMaxTTL
	OptRcvLatency  = engine.OptRcvLatency
	OptPeerLatency = engine.OptPeerLatency
	OptMinVersion  = engine.OptMinVersion
	OptStreamID    = engine.OptStreamID
	OptCongestion  = engine.OptCongestion
	OptMessageAPI  = engine.OptMessageAPI
	OptPayloadSize = engine.OptPayloadSize
	OptTransType   = engine.OptTransType
	OptKMRefresh   = engine.OptKMRefresh
	OptKMPreAnnce  = engine.OptKMPreAnnce
	OptEnforcedEnc = engine.OptEnforcedEnc
	OptIPv6Only    = engine.OptIPv6Only
	OptPeerIdleTO  = engine.OptPeerIdleTO
	OptPacketFilt  = engine.OptPacketFilt
)

// Transmission types for OptTransType.
const (
	TransTypeLive = engine.TransTypeLive
	TransTypeFile = engine.TransTypeFile
)
