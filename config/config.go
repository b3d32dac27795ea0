// Package config loads and validates the application configuration from a
// JSON file, with environment variable overrides for deployment-specific
// settings like upstream URLs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mumair738/airdrop-checker-sub011/errors"
	"github.com/mumair738/airdrop-checker-sub011/pkg/cache"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig  `json:"server"`
	Metrics   MetricsConfig `json:"metrics"`
	Cache     cache.Config  `json:"cache"`
	Endpoints EndpointsTTL  `json:"endpoints"`
	Chain     ChainConfig   `json:"chain"`
}

// ServerConfig defines the API server settings.
type ServerConfig struct {
	Addr        string   `json:"addr"`
	EnableCORS  bool     `json:"enable_cors"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
}

// MetricsConfig defines the Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

// ChainConfig defines the upstream node and indexer settings.
type ChainConfig struct {
	RPCURL         string        `json:"rpc_url"`
	IndexerURL     string        `json:"indexer_url"`
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries     int           `json:"max_retries"`
}

// EndpointsTTL maps well-known key namespaces (e.g. "portfolio",
// "airdrop-check") to the TTL their entries are cached with. The Default
// TTL applies to namespaces without an explicit entry.
type EndpointsTTL struct {
	Default time.Duration            `json:"default"`
	TTLs    map[string]time.Duration `json:"ttls"`
}

// TTLFor returns the configured TTL for a key namespace, falling back to
// the default.
func (e EndpointsTTL) TTLFor(namespace string) time.Duration {
	if ttl, ok := e.TTLs[namespace]; ok {
		return ttl
	}
	return e.Default
}

// Default returns the built-in configuration: sensible for local
// development, overridden by file and environment in deployment.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			EnableCORS:  true,
			CORSOrigins: []string{"*"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Cache: cache.DefaultConfig(),
		Endpoints: EndpointsTTL{
			Default: time.Minute,
			TTLs: map[string]time.Duration{
				"airdrop-check":  10 * time.Minute,
				"portfolio":      2 * time.Minute,
				"token-price":    time.Minute,
				"token-balances": 2 * time.Minute,
				"gas-price":      15 * time.Second,
			},
		},
		Chain: ChainConfig{
			RPCURL:         "http://localhost:8545",
			IndexerURL:     "http://localhost:8090",
			RequestTimeout: 10 * time.Second,
			MaxRetries:     3,
		},
	}
}

// Load reads the configuration file at path, layered over Default(), then
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", fmt.Sprintf("read %s", path))
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", fmt.Sprintf("parse %s", path))
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides deployment-specific settings from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("AIRDROP_RPC_URL"); v != "" {
		c.Chain.RPCURL = v
	}
	if v := os.Getenv("AIRDROP_INDEXER_URL"); v != "" {
		c.Chain.IndexerURL = v
	}
	if v := os.Getenv("AIRDROP_LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "server.addr is required")
	}
	if c.Chain.RPCURL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "chain.rpc_url is required")
	}
	if c.Chain.IndexerURL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "chain.indexer_url is required")
	}
	if c.Chain.RequestTimeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("chain.request_timeout cannot be negative, got %v", c.Chain.RequestTimeout))
	}
	if c.Chain.MaxRetries < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("chain.max_retries cannot be negative, got %d", c.Chain.MaxRetries))
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("metrics.port must be a valid port, got %d", c.Metrics.Port))
	}
	if c.Endpoints.Default <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("endpoints.default must be positive, got %v", c.Endpoints.Default))
	}
	for ns, ttl := range c.Endpoints.TTLs {
		if ttl <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
				fmt.Sprintf("endpoints.ttls[%s] must be positive, got %v", ns, ttl))
		}
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return nil
}

// UnmarshalJSON supports duration strings (e.g. "10s") for the nested
// duration fields in addition to nanosecond integers.
func (c *ChainConfig) UnmarshalJSON(data []byte) error {
	type Alias ChainConfig

	aux := &struct {
		RequestTimeout json.RawMessage `json:"request_timeout,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.RequestTimeout) > 0 {
		timeout, err := cache.ParseDurationField(aux.RequestTimeout, "request_timeout")
		if err != nil {
			return err
		}
		c.RequestTimeout = timeout
	}
	return nil
}

// UnmarshalJSON parses the endpoints section, accepting duration strings for
// both the default and the per-namespace TTLs.
func (e *EndpointsTTL) UnmarshalJSON(data []byte) error {
	var raw struct {
		Default json.RawMessage            `json:"default,omitempty"`
		TTLs    map[string]json.RawMessage `json:"ttls,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Default) > 0 {
		d, err := cache.ParseDurationField(raw.Default, "endpoints.default")
		if err != nil {
			return err
		}
		e.Default = d
	}
	if raw.TTLs != nil {
		e.TTLs = make(map[string]time.Duration, len(raw.TTLs))
		for ns, field := range raw.TTLs {
			d, err := cache.ParseDurationField(field, "endpoints.ttls."+ns)
			if err != nil {
				return err
			}
			e.TTLs[ns] = d
		}
	}
	return nil
}
