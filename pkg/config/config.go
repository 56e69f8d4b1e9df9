// Package config loads server configuration from a YAML file, environment
// variables and command-line flags. Precedence is flags over env over file;
// every knob has a usable default so a bare `carechat` starts a local server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Security SecurityConfig `yaml:"security"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  LoggingConfig  `yaml:"logging"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// ServerConfig holds http, storage and tls settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds CORS, rate limiting and API key settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	APIKeys []string `yaml:"api_keys"`
}

// ExchangeConfig points at the remote question-answering service.
type ExchangeConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
}

// LimitsConfig caps inbound payloads.
type LimitsConfig struct {
	MaxQuestionBytes SizeBytes `yaml:"max_question_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Sink  string `yaml:"sink"`
}

// SnapshotConfig controls the periodic conversation blob snapshot runner.
// Disabled unless a cron expression is set and Enabled is true.
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Keep    int    `yaml:"keep"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// KeySet returns the configured API keys as a lookup set.
func (c *Config) KeySet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Security.APIKeys))
	for _, k := range c.Security.APIKeys {
		if k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}

// ExchangeTimeout returns the configured exchange timeout or zero when unset
// so the client applies its own default.
func (c *Config) ExchangeTimeout() time.Duration {
	return c.Exchange.Timeout.Duration()
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Exchange.Endpoint == "" {
		return fmt.Errorf("exchange endpoint is required")
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("tls requires both cert_file and key_file")
	}
	if c.Snapshot.Enabled && c.Snapshot.Cron == "" {
		return fmt.Errorf("snapshot enabled but no cron expression set")
	}
	return nil
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
