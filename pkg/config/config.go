// Package config loads the YAML configuration of an autograph server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-autograph/pkg/logging"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the full server configuration.
type Config struct {
	Listen  string         `yaml:"listen"`
	Store   StoreConfig    `yaml:"store"`
	API     APIConfig      `yaml:"api"`
	Theme   ThemeConfig    `yaml:"theme"`
	Log     logging.Config `yaml:"log"`
	Events  EventsConfig   `yaml:"events"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// StoreConfig selects the graph store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// APIConfig configures the JSON API.
type APIConfig struct {
	Version string `yaml:"version"`
}

// ThemeConfig names the page theme and its variant.
type ThemeConfig struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
}

// EventsConfig enables change events on a NATS server.
type EventsConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Enabled reports whether events should be published.
func (c EventsConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a configuration serving an in-memory store on :8080.
func Default() Config {
	return Config{
		Listen: ":8080",
		Store:  StoreConfig{Driver: DriverMemory},
		API:    APIConfig{Version: "v1"},
		Log:    logging.Config{Level: "info"},
		Events: EventsConfig{SubjectPrefix: "autograph"},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}

// Option adjusts a configuration after it is loaded.
type Option func(*Config)

// WithListen overrides the listen address.
func WithListen(addr string) Option {
	return func(c *Config) {
		if addr != "" {
			c.Listen = addr
		}
	}
}

// WithStore overrides the store driver and DSN.
func WithStore(driver, dsn string) Option {
	return func(c *Config) {
		if driver != "" {
			c.Store.Driver = driver
		}
		if dsn != "" {
			c.Store.DSN = dsn
		}
	}
}

// WithDebug enables development logging.
func WithDebug(debug bool) Option {
	return func(c *Config) {
		if debug {
			c.Log.Debug = true
			c.Log.Level = "debug"
		}
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string, options ...Option) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Apply(Default(), options...)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, options...)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte, options ...Option) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return Apply(cfg, options...)
}

// Apply runs options over cfg and validates the result.
func Apply(cfg Config, options ...Option) (Config, error) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values a server cannot start without.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("config: invalid listen address %q: %w", c.Listen, err)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("config: sqlite store needs a dsn")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if v := strings.TrimSpace(c.API.Version); v == "" || strings.Contains(v, "/") {
		return fmt.Errorf("config: invalid api version %q", c.API.Version)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("config: metrics path %q must start with /", c.Metrics.Path)
	}
	return nil
}
