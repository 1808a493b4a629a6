//go:build libsrt && cgo

package libsrt

import (
	"github.com/opd-ai/srtsock"
	"github.com/opd-ai/srtsock/engine"
)

// EngineName is the name under which the libsrt engine registers. Select it
// with Options.Engine after importing this package for its side effect.
const EngineName = "libsrt"

func init() {
	srtsock.RegisterEngine(EngineName, func(*srtsock.Options) (engine.Engine, error) {
		e, err := New()
		if err != nil {
			return nil, err
		}
		return e, nil
	})
}
