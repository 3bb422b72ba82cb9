// Package config loads SpecBridge configuration from TOML files with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/specbridge/specbridge/internal/common"
)

// Config holds all SpecBridge configuration.
type Config struct {
	Server  ServerConfig         `toml:"server"`
	Spec    SpecConfig           `toml:"spec"`
	Tools   ToolsConfig          `toml:"tools"`
	API     APIConfig            `toml:"api"`
	Logging common.LoggingConfig `toml:"logging"`
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Port string `toml:"port"`
}

// SpecConfig holds spec-source settings. TLS verification here is independent
// of API-call verification.
type SpecConfig struct {
	URL                string `toml:"url"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	Retries            int    `toml:"retries"`
	Timeout            string `toml:"timeout"`
}

// GetTimeout parses and returns the fetch timeout duration.
func (c *SpecConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ToolsConfig holds catalog-construction settings.
type ToolsConfig struct {
	Whitelist     string `toml:"whitelist"`       // comma-separated path rules
	NamePrefix    string `toml:"name_prefix"`     // prepended to every tool name
	NameMaxLength int    `toml:"name_max_length"` // custom cap, effective only below 64
}

// APIConfig holds downstream API call settings.
type APIConfig struct {
	BaseURLOverride  string `toml:"base_url_override"` // comma-separated candidate URLs
	Key              string `toml:"key"`
	AuthType         string `toml:"auth_type"`   // bearer, api-key, none
	AuthHeader       string `toml:"auth_header"` // header name for api-key mode
	KeyLocation      string `toml:"key_location"`
	StripParam       string `toml:"strip_param"`
	ExtraHeaders     string `toml:"extra_headers"` // "Header: Value" per line
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`
	Timeout          string `toml:"timeout"`
	MaxResponseBytes int64  `toml:"max_response_bytes"`
}

// GetTimeout parses and returns the call timeout duration.
func (c *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// BaseURLCandidates splits the base URL override into trimmed candidates.
func (c *APIConfig) BaseURLCandidates() []string {
	if c.BaseURLOverride == "" {
		return nil
	}
	parts := strings.Split(c.BaseURLOverride, ",")
	candidates := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// Load reads configuration from a TOML file (missing files are fine) and
// applies environment overrides on top of defaults.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			// File not found — use defaults
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// The names match the original proxy deployments this replaces.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAPI_SPEC_URL"); v != "" {
		cfg.Spec.URL = v
	}
	if v := os.Getenv("IGNORE_SSL_SPEC"); v != "" {
		cfg.Spec.InsecureSkipVerify = truthy(v)
	}
	if v := os.Getenv("IGNORE_SSL_TOOLS"); v != "" {
		cfg.API.InsecureSkipVerify = truthy(v)
	}
	if v := os.Getenv("TOOL_WHITELIST"); v != "" {
		cfg.Tools.Whitelist = v
	}
	if v := os.Getenv("TOOL_NAME_PREFIX"); v != "" {
		cfg.Tools.NamePrefix = v
	}
	if v := os.Getenv("TOOL_NAME_MAX_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tools.NameMaxLength = n
		}
	}
	if v := os.Getenv("SERVER_URL_OVERRIDE"); v != "" {
		cfg.API.BaseURLOverride = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("API_AUTH_TYPE"); v != "" {
		cfg.API.AuthType = v
	}
	if v := os.Getenv("API_AUTH_HEADER"); v != "" {
		cfg.API.AuthHeader = v
	}
	if v := os.Getenv("API_KEY_LOCATION"); v != "" {
		cfg.API.KeyLocation = v
	}
	if v := os.Getenv("STRIP_PARAM"); v != "" {
		cfg.API.StripParam = v
	}
	if v := os.Getenv("EXTRA_HEADERS"); v != "" {
		cfg.API.ExtraHeaders = v
	}
	if v := os.Getenv("SPECBRIDGE_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("SPECBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
