// Package config loads the settings of the np2rpc command from a YAML (or
// JSON) file and NP2_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file settings.
const (
	EnvRedisAddr    = "NP2_REDIS_ADDR"
	EnvRedisPass    = "NP2_REDIS_PASSWORD"
	EnvRedisDB      = "NP2_REDIS_DB"
	EnvRedisPrefix  = "NP2_REDIS_PREFIX"
	EnvTimeout      = "NP2_BACKEND_TIMEOUT"
	EnvSchema       = "NP2_SCHEMA" // comma separated module files
	EnvLogLevel     = "NP2_LOG_LEVEL"
	EnvWithDefaults = "NP2_WITH_DEFAULTS"
	EnvHTTPListen   = "NP2_HTTP_LISTEN"
)

// Config is the full set of settings.
type Config struct {
	Redis        RedisConfig   `yaml:"redis" json:"redis"`
	Backend      BackendConfig `yaml:"backend" json:"backend"`
	Schema       []string      `yaml:"schema" json:"schema"`
	Log          LogConfig     `yaml:"log" json:"log"`
	WithDefaults string        `yaml:"with_defaults" json:"with_defaults"`
	HTTP         HTTPConfig    `yaml:"http" json:"http"`
	Metrics      MetricsConfig `yaml:"metrics" json:"metrics"`
}

// RedisConfig locates the Redis server shared with the backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// BackendConfig tunes backend calls.
type BackendConfig struct {
	Timeout Duration `yaml:"timeout" json:"timeout"`
	Workers int      `yaml:"workers" json:"workers"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// HTTPConfig configures the HTTP front end. Rate and Burst bound the calls
// per second of each session; a zero Rate disables limiting.
type HTTPConfig struct {
	Listen string  `yaml:"listen" json:"listen"`
	Rate   float64 `yaml:"rate" json:"rate"`
	Burst  int     `yaml:"burst" json:"burst"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Duration is a time.Duration written as "5s" in config files.
type Duration time.Duration

// UnmarshalYAML accepts duration strings.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

// UnmarshalJSON accepts duration strings.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.set(s)
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "np2:",
		},
		Backend: BackendConfig{
			Timeout: Duration(5 * time.Second),
			Workers: 4,
		},
		Log:          LogConfig{Level: "info"},
		WithDefaults: string(domain.WithDefaultsExplicit),
		HTTP: HTTPConfig{
			Listen: ":8830",
			Rate:   20,
			Burst:  40,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if strings.ToLower(filepath.Ext(path)) == ".json" {
			err = json.Unmarshal(data, &cfg)
		} else {
			err = yaml.Unmarshal(data, &cfg)
		}
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvRedisPass); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup(EnvRedisDB); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		c.Redis.DB = db
	}
	if v, ok := lookup(EnvRedisPrefix); ok {
		c.Redis.Prefix = v
	}
	if v, ok := lookup(EnvTimeout); ok {
		if err := c.Backend.Timeout.set(v); err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
	}
	if v, ok := lookup(EnvSchema); ok {
		c.Schema = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Schema = append(c.Schema, p)
			}
		}
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvWithDefaults); ok {
		c.WithDefaults = v
	}
	if v, ok := lookup(EnvHTTPListen); ok {
		c.HTTP.Listen = v
	}
	return nil
}

// Validate checks values that cannot be checked while decoding.
func (c Config) Validate() error {
	if _, err := domain.ParseWithDefaultsMode(c.WithDefaults); err != nil {
		return err
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.HTTP.Rate < 0 || c.HTTP.Burst < 0 {
		return fmt.Errorf("http rate and burst must not be negative")
	}
	return nil
}

// Mode returns the configured with-defaults mode.
func (c Config) Mode() domain.WithDefaultsMode {
	mode, err := domain.ParseWithDefaultsMode(c.WithDefaults)
	if err != nil {
		return domain.WithDefaultsExplicit
	}
	return mode
}
