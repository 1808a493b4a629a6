package transport

import "time"

// Config holds engine-wide tunables. Per-socket behavior is controlled with
// socket options instead.
type Config struct {
	// AutoBindAddress is used when Connect is called on an unbound socket.
	AutoBindAddress string

	// HandshakeInterval is the retry period for connection requests.
	HandshakeInterval time.Duration

	// KeepaliveInterval is the idle period after which a keepalive is sent.
	KeepaliveInterval time.Duration

	// MaintenanceInterval is the tick of the liveness/retry loop.
	MaintenanceInterval time.Duration

	// ReadDeadline bounds each multiplexer read so the loop can observe
	// shutdown.
	ReadDeadline time.Duration

	// PBKDF2Iterations is the key derivation cost for passphrases.
	PBKDF2Iterations int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		AutoBindAddress:     "0.0.0.0:0",
		HandshakeInterval:   250 * time.Millisecond,
		KeepaliveInterval:   time.Second,
		MaintenanceInterval: 50 * time.Millisecond,
		ReadDeadline:        100 * time.Millisecond,
		PBKDF2Iterations:    2048,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.AutoBindAddress == "" {
		out.AutoBindAddress = def.AutoBindAddress
	}
	if out.HandshakeInterval <= 0 {
		out.HandshakeInterval = def.HandshakeInterval
	}
	if out.KeepaliveInterval <= 0 {
		out.KeepaliveInterval = def.KeepaliveInterval
	}
	if out.MaintenanceInterval <= 0 {
		out.MaintenanceInterval = def.MaintenanceInterval
	}
	if out.ReadDeadline <= 0 {
		out.ReadDeadline = def.ReadDeadline
	}
	if out.PBKDF2Iterations <= 0 {
		out.PBKDF2Iterations = def.PBKDF2Iterations
	}
	return &out
}
