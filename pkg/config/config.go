package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when config validation fails.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full server configuration.
type Config struct {
	// Server identifies this server and where it listens.
	Server ServerConfig `yaml:"server"`

	// Subscriptions bound the client-requested subscription parameters.
	Subscriptions SubscriptionConfig `yaml:"subscriptions"`

	// Discovery configures mDNS advertisement.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Log configures the event log.
	Log LogConfig `yaml:"log"`
}

// ServerConfig identifies the server application.
type ServerConfig struct {
	// ApplicationName is the human-readable server name.
	ApplicationName string `yaml:"application_name"`

	// ApplicationURI is the globally unique application identifier.
	ApplicationURI string `yaml:"application_uri"`

	// EndpointURL is the endpoint clients connect to.
	EndpointURL string `yaml:"endpoint_url"`

	// SessionTimeout is the idle timeout granted to sessions.
	SessionTimeout time.Duration `yaml:"session_timeout"`
}

// SubscriptionConfig bounds the parameters clients may request.
type SubscriptionConfig struct {
	// MaxPerSession caps the number of subscriptions one session may hold.
	MaxPerSession int `yaml:"max_per_session"`

	// MinPublishingInterval is the smallest accepted publishing interval.
	MinPublishingInterval time.Duration `yaml:"min_publishing_interval"`

	// MaxLifetimeCount caps the requested lifetime count.
	MaxLifetimeCount uint32 `yaml:"max_lifetime_count"`

	// MaxKeepAliveCount caps the requested keep-alive count.
	MaxKeepAliveCount uint32 `yaml:"max_keep_alive_count"`

	// MaxPublishRequests caps a session's queue of outstanding publish
	// requests.
	MaxPublishRequests int `yaml:"max_publish_requests"`

	// TickInterval is the publish driver's timer period.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// DiscoveryConfig configures mDNS advertisement of the endpoint.
type DiscoveryConfig struct {
	// Enabled turns mDNS advertisement on.
	Enabled bool `yaml:"enabled"`

	// InstanceName is the service instance name; defaults to the
	// application name when empty.
	InstanceName string `yaml:"instance_name"`

	// Port is the advertised TCP port.
	Port int `yaml:"port"`
}

// LogConfig configures the event log.
type LogConfig struct {
	// File is the event log path. Empty disables file logging.
	File string `yaml:"file"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ApplicationName: "opcua-server",
			ApplicationURI:  "urn:opcua:server",
			EndpointURL:     "opc.tcp://localhost:4840",
			SessionTimeout:  time.Minute,
		},
		Subscriptions: SubscriptionConfig{
			MaxPerSession:         50,
			MinPublishingInterval: 50 * time.Millisecond,
			MaxLifetimeCount:      10000,
			MaxKeepAliveCount:     1000,
			MaxPublishRequests:    100,
			TickInterval:          100 * time.Millisecond,
		},
		Discovery: DiscoveryConfig{
			Enabled: false,
			Port:    4840,
		},
	}
}

// Load reads the YAML file at path and merges it over the defaults. A
// missing file is not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.EndpointURL == "" {
		return fmt.Errorf("%w: server.endpoint_url must not be empty", ErrInvalidConfig)
	}
	if c.Server.ApplicationURI == "" {
		return fmt.Errorf("%w: server.application_uri must not be empty", ErrInvalidConfig)
	}
	if c.Server.SessionTimeout <= 0 {
		return fmt.Errorf("%w: server.session_timeout must be positive", ErrInvalidConfig)
	}
	if c.Subscriptions.MaxPerSession <= 0 {
		return fmt.Errorf("%w: subscriptions.max_per_session must be positive", ErrInvalidConfig)
	}
	if c.Subscriptions.MinPublishingInterval <= 0 {
		return fmt.Errorf("%w: subscriptions.min_publishing_interval must be positive", ErrInvalidConfig)
	}
	if c.Subscriptions.MaxKeepAliveCount == 0 {
		return fmt.Errorf("%w: subscriptions.max_keep_alive_count must be positive", ErrInvalidConfig)
	}
	if c.Subscriptions.MaxLifetimeCount < 3*c.Subscriptions.MaxKeepAliveCount {
		return fmt.Errorf("%w: subscriptions.max_lifetime_count must cover three keep-alive periods", ErrInvalidConfig)
	}
	if c.Subscriptions.MaxPublishRequests <= 0 {
		return fmt.Errorf("%w: subscriptions.max_publish_requests must be positive", ErrInvalidConfig)
	}
	if c.Subscriptions.TickInterval <= 0 {
		return fmt.Errorf("%w: subscriptions.tick_interval must be positive", ErrInvalidConfig)
	}
	if c.Discovery.Enabled && (c.Discovery.Port <= 0 || c.Discovery.Port > 65535) {
		return fmt.Errorf("%w: discovery.port out of range", ErrInvalidConfig)
	}
	return nil
}
