package config

import "time"

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Handshake HandshakeConfig `yaml:"handshake"`
	Queue     QueueConfig     `yaml:"queue"`
	Health    HealthConfig    `yaml:"health"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig points at the RSO backend.
type ServerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"` // per-request HTTP timeout
}

// HandshakeConfig controls startup probing.
type HandshakeConfig struct {
	Acknowledgment string        `yaml:"acknowledgment"` // body expected from GET <server.url>
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	AwaitTimeout   time.Duration `yaml:"await_timeout"`
}

// QueueConfig sizes the request worker pool.
type QueueConfig struct {
	Workers        int `yaml:"workers"`
	DeliveryBuffer int `yaml:"delivery_buffer"`
}

// HealthConfig holds health server settings.
type HealthConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

const (
	DefaultServerURL      = "http://localhost:8989"
	DefaultAcknowledgment = "AY2024"
	DefaultMaxAttempts    = 8
	DefaultRetryDelay     = 1000 * time.Millisecond
	DefaultAwaitTimeout   = 2 * time.Second
)

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = DefaultServerURL
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 10 * time.Second
	}
	if cfg.Handshake.Acknowledgment == "" {
		cfg.Handshake.Acknowledgment = DefaultAcknowledgment
	}
	if cfg.Handshake.MaxAttempts == 0 {
		cfg.Handshake.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Handshake.RetryDelay == 0 {
		cfg.Handshake.RetryDelay = DefaultRetryDelay
	}
	if cfg.Handshake.AwaitTimeout == 0 {
		cfg.Handshake.AwaitTimeout = DefaultAwaitTimeout
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 4
	}
	if cfg.Queue.DeliveryBuffer == 0 {
		cfg.Queue.DeliveryBuffer = 16
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
