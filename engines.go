package srtsock

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opd-ai/srtsock/engine"
	"github.com/opd-ai/srtsock/transport"
)

// EngineTransport is the name of the built-in pure-Go engine.
const EngineTransport = "transport"

// EngineFactory creates an engine from facade options.
type EngineFactory func(opts *Options) (engine.Engine, error)

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFactory{
		EngineTransport: func(opts *Options) (engine.Engine, error) {
			return transport.NewEngine(opts.transportConfig()), nil
		},
	}
)

// RegisterEngine makes an engine available under name for Options.Engine.
// Engine packages call it from init, e.g. engine/libsrt registers "libsrt".
func RegisterEngine(name string, factory EngineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if factory == nil {
		panic("srtsock: RegisterEngine factory is nil")
	}
	engines[name] = factory
}

// Engines lists the registered engine names.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newEngine(opts *Options) (engine.Engine, error) {
	enginesMu.RLock()
	factory, ok := engines[opts.Engine]
	enginesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown engine %q", opts.Engine)
	}
	return factory(opts)
}
