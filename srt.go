package srtsock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/srtsock/engine"
)

// SRT is a facade instance over one engine. Its methods may be called from
// multiple goroutines; the handle registry is internally locked.
type SRT struct {
	eng      engine.Engine
	opts     *Options
	defaults map[SockOpt]OptionValue
	reg      *registry

	disposeOnce sync.Once
	disposeErr  error
}

// New creates a facade over the engine named by opts.Engine. A nil opts
// selects NewOptions.
func New(opts *Options) (*SRT, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, newError(ErrInvalidArgument, "new", InvalidSock, err)
	}
	eng, err := newEngine(opts)
	if err != nil {
		return nil, newError(ErrAllocation, "new", InvalidSock, err)
	}
	return newSRT(eng, opts)
}

// NewWithEngine creates a facade over an existing engine. Dispose cleans the
// engine up.
func NewWithEngine(eng engine.Engine, opts *Options) (*SRT, error) {
	if eng == nil {
		return nil, newError(ErrInvalidArgument, "new", InvalidSock, errors.New("nil engine"))
	}
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, newError(ErrInvalidArgument, "new", InvalidSock, err)
	}
	return newSRT(eng, opts)
}

func newSRT(eng engine.Engine, opts *Options) (*SRT, error) {
	defaults, err := opts.socketDefaults()
	if err != nil {
		return nil, newError(ErrInvalidArgument, "new", InvalidSock, err)
	}
	s := &SRT{
		eng:      eng,
		opts:     opts,
		defaults: defaults,
		reg:      newRegistry(),
	}
	eng.SetLogLevel(opts.LogLevel)
	logrus.SetLevel(engine.LogrusLevel(opts.LogLevel))

	logrus.WithFields(logrus.Fields{
		"function": "New",
		"package":  "srtsock",
		"engine":   opts.Engine,
	}).Debug("Facade created")
	return s, nil
}

// Engine returns the underlying engine.
func (s *SRT) Engine() engine.Engine {
	return s.eng
}

// Options returns the options the facade was created with.
func (s *SRT) Options() *Options {
	return s.opts
}

// Handles returns a snapshot of every open handle.
func (s *SRT) Handles() []HandleInfo {
	return s.reg.snapshot()
}

// SetLogLevel sets the engine log level on the syslog scale (0-7) and
// mirrors it into the process logrus level.
func (s *SRT) SetLogLevel(level int) error {
	if level < 0 || level > 7 {
		return newError(ErrInvalidArgument, "setloglevel", InvalidSock,
			fmt.Errorf("log level %d out of range 0-7", level))
	}
	s.eng.SetLogLevel(level)
	logrus.SetLevel(engine.LogrusLevel(level))
	return nil
}

// Dispose closes every open handle, releases every poll group and cleans up
// the engine. Later calls return the first result.
func (s *SRT) Dispose() error {
	s.disposeOnce.Do(func() {
		logger := NewLogger("Dispose")
		for _, info := range s.reg.snapshot() {
			if err := s.Close(info.Handle); err != nil {
				logger.WithHandle(info.Handle).WithError(err).Debug("Close during dispose failed")
			}
		}
		for _, g := range s.reg.groupList() {
			if err := s.EpollRelease(g); err != nil {
				logger.WithField("group", int(g)).WithError(err).Debug("Release during dispose failed")
			}
		}
		if err := s.eng.Cleanup(); err != nil {
			s.disposeErr = newError(ErrIO, "cleanup", InvalidSock, err)
		}
		logger.Info("Facade disposed")
	})
	return s.disposeErr
}
