package srtsock

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/srtsock/transport"
)

// MaxPollEvents is the default bound on events returned by one EpollUWait.
const MaxPollEvents = 1024

// Options contains configuration for a facade instance.
type Options struct {
	// Engine names the registered engine to create (see RegisterEngine).
	Engine string `yaml:"engine"`
	// LogLevel is the initial engine log level, syslog scale 0-7.
	LogLevel int `yaml:"log_level"`
	// MaxPollEvents caps the events returned by one EpollUWait call.
	MaxPollEvents int `yaml:"max_poll_events"`
	// LenientConnectAddress turns a malformed Connect address into 0.0.0.0
	// instead of failing with ErrAddressParse.
	LenientConnectAddress bool `yaml:"lenient_connect_address"`
	// SocketOptions are applied to every socket right after CreateSocket,
	// keyed by option name (see OptionTable).
	SocketOptions map[string]interface{} `yaml:"socket_options"`
	// Transport configures the built-in pure-Go engine.
	Transport TransportOptions `yaml:"transport"`
}

// TransportOptions mirrors transport.Config for YAML files.
type TransportOptions struct {
	AutoBindAddress     string        `yaml:"auto_bind_address"`
	HandshakeInterval   time.Duration `yaml:"handshake_interval"`
	KeepaliveInterval   time.Duration `yaml:"keepalive_interval"`
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
	ReadDeadline        time.Duration `yaml:"read_deadline"`
	PBKDF2Iterations    int           `yaml:"pbkdf2_iterations"`
}

// NewOptions creates a new default options.
func NewOptions() *Options {
	cfg := transport.DefaultConfig()
	return &Options{
		Engine:        EngineTransport,
		LogLevel:      5,
		MaxPollEvents: MaxPollEvents,
		Transport: TransportOptions{
			AutoBindAddress:     cfg.AutoBindAddress,
			HandshakeInterval:   cfg.HandshakeInterval,
			KeepaliveInterval:   cfg.KeepaliveInterval,
			MaintenanceInterval: cfg.MaintenanceInterval,
			ReadDeadline:        cfg.ReadDeadline,
			PBKDF2Iterations:    cfg.PBKDF2Iterations,
		},
	}
}

// LoadOptions reads YAML options from path on top of NewOptions defaults.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML options on top of NewOptions defaults.
func ParseOptions(data []byte) (*Options, error) {
	opts := NewOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate checks ranges and resolves every socket option name.
func (o *Options) Validate() error {
	if o.LogLevel < 0 || o.LogLevel > 7 {
		return fmt.Errorf("log_level %d out of range 0-7", o.LogLevel)
	}
	if o.MaxPollEvents <= 0 {
		return fmt.Errorf("max_poll_events must be positive, got %d", o.MaxPollEvents)
	}
	if _, err := o.socketDefaults(); err != nil {
		return err
	}
	return nil
}

// socketDefaults converts SocketOptions into typed values.
func (o *Options) socketDefaults() (map[SockOpt]OptionValue, error) {
	out := make(map[SockOpt]OptionValue, len(o.SocketOptions))
	names := make([]string, 0, len(o.SocketOptions))
	for name := range o.SocketOptions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d, ok := LookupOptionName(name)
		if !ok {
			return nil, fmt.Errorf("socket_options: unknown option %q", name)
		}
		v, err := valueFromConfig(d, o.SocketOptions[name])
		if err != nil {
			return nil, fmt.Errorf("socket_options: %s: %w", name, err)
		}
		out[d.ID] = v
	}
	return out, nil
}

// valueFromConfig converts a decoded YAML scalar to the descriptor's kind.
func valueFromConfig(d OptionDescriptor, raw interface{}) (OptionValue, error) {
	switch d.Kind {
	case KindInt32, KindInt64:
		var n int64
		switch v := raw.(type) {
		case int:
			n = int64(v)
		case int64:
			n = v
		case uint64:
			n = int64(v)
		default:
			return OptionValue{}, fmt.Errorf("want integer, got %T", raw)
		}
		if d.Kind == KindInt64 {
			return Int64Value(n), nil
		}
		if n < -1<<31 || n > 1<<31-1 {
			return OptionValue{}, fmt.Errorf("%d overflows int32", n)
		}
		return IntValue(int32(n)), nil
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return OptionValue{}, fmt.Errorf("want bool, got %T", raw)
		}
		return BoolValue(b), nil
	default:
		s, ok := raw.(string)
		if !ok {
			return OptionValue{}, fmt.Errorf("want string, got %T", raw)
		}
		return TextValue(s), nil
	}
}

// transportConfig builds the pure-Go engine configuration.
func (o *Options) transportConfig() *transport.Config {
	t := o.Transport
	return &transport.Config{
		AutoBindAddress:     t.AutoBindAddress,
		HandshakeInterval:   t.HandshakeInterval,
		KeepaliveInterval:   t.KeepaliveInterval,
		MaintenanceInterval: t.MaintenanceInterval,
		ReadDeadline:        t.ReadDeadline,
		PBKDF2Iterations:    t.PBKDF2Iterations,
	}
}
