package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jiazengp/peekd/internal/application/engine"
	"github.com/jiazengp/peekd/internal/domain/policy"
)

// Config holds service configuration. Environment variables set the base
// values; an optional YAML file (PEEKD_CONFIG) overlays the lifecycle knobs
// and is the unit of hot reload.
type Config struct {
	ServerAddr      string
	DatabaseURL     string
	ConfigFile      string
	OperatorKeyHash string

	RequestTimeout  time.Duration
	AutoAcceptDelay time.Duration
	Cooldown        time.Duration
	MaxSessions     int
	MaxPeekDistance float64
	PolicyRule      string
}

// fileOverlay mirrors the reloadable subset of Config. Pointer fields
// distinguish "absent" from zero so a file may override only some knobs.
type fileOverlay struct {
	RequestTimeout  *string  `yaml:"request_timeout"`
	AutoAcceptDelay *string  `yaml:"auto_accept_delay"`
	Cooldown        *string  `yaml:"cooldown"`
	MaxSessions     *int     `yaml:"max_sessions"`
	MaxPeekDistance *float64 `yaml:"max_peek_distance"`
	PolicyRule      *string  `yaml:"policy_rule"`
}

// Load reads configuration from environment, then overlays the YAML file
// when one is configured.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:      getenv("SERVER_ADDR", "0.0.0.0:8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ConfigFile:      os.Getenv("PEEKD_CONFIG"),
		OperatorKeyHash: os.Getenv("OPERATOR_KEY_HASH"),
		RequestTimeout:  parseDuration(getenv("REQUEST_TIMEOUT", "60s"), 60*time.Second),
		AutoAcceptDelay: parseDuration(getenv("AUTO_ACCEPT_DELAY", "10s"), 10*time.Second),
		Cooldown:        parseDuration(getenv("COOLDOWN", "30s"), 30*time.Second),
		MaxSessions:     parseInt(getenv("MAX_SESSIONS", "0"), 0),
		MaxPeekDistance: parseFloat(getenv("MAX_PEEK_DISTANCE", "64"), 64),
		PolicyRule:      os.Getenv("POLICY_RULE"),
	}
	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	if _, err := policy.CompileRule(cfg.PolicyRule); err != nil {
		return nil, fmt.Errorf("invalid POLICY_RULE: %w", err)
	}
	return cfg, nil
}

// Reload re-reads the YAML overlay on top of the receiver's current values
// and returns a new Config. Environment-derived fields are carried over
// unchanged.
func (c *Config) Reload() (*Config, error) {
	cp := *c
	if cp.ConfigFile == "" {
		return &cp, nil
	}
	if err := cp.applyFile(cp.ConfigFile); err != nil {
		return nil, err
	}
	if _, err := policy.CompileRule(cp.PolicyRule); err != nil {
		return nil, fmt.Errorf("invalid policy_rule: %w", err)
	}
	return &cp, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var o fileOverlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if o.RequestTimeout != nil {
		d, err := time.ParseDuration(*o.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if o.AutoAcceptDelay != nil {
		d, err := time.ParseDuration(*o.AutoAcceptDelay)
		if err != nil {
			return fmt.Errorf("auto_accept_delay: %w", err)
		}
		c.AutoAcceptDelay = d
	}
	if o.Cooldown != nil {
		d, err := time.ParseDuration(*o.Cooldown)
		if err != nil {
			return fmt.Errorf("cooldown: %w", err)
		}
		c.Cooldown = d
	}
	if o.MaxSessions != nil {
		c.MaxSessions = *o.MaxSessions
	}
	if o.MaxPeekDistance != nil {
		c.MaxPeekDistance = *o.MaxPeekDistance
	}
	if o.PolicyRule != nil {
		c.PolicyRule = *o.PolicyRule
	}
	return nil
}

// EngineConfig compiles the policy rule and maps the lifecycle knobs onto
// the engine's live configuration.
func (c *Config) EngineConfig() (engine.Config, error) {
	rule, err := policy.CompileRule(c.PolicyRule)
	if err != nil {
		return engine.Config{}, fmt.Errorf("compile policy rule: %w", err)
	}
	return engine.Config{
		RequestTimeout:  c.RequestTimeout,
		AutoAcceptDelay: c.AutoAcceptDelay,
		Cooldown:        c.Cooldown,
		MaxSessions:     c.MaxSessions,
		MaxDistance:     c.MaxPeekDistance,
		Rule:            rule,
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
