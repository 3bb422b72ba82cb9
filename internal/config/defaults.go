package config

import "github.com/specbridge/specbridge/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "SpecBridge",
			Port: "4270",
		},
		Spec: SpecConfig{
			Retries: 3,
			Timeout: "10s",
		},
		Tools: ToolsConfig{},
		API: APIConfig{
			AuthType:         "bearer",
			AuthHeader:       "Authorization",
			Timeout:          "30s",
			MaxResponseBytes: 10 * 1024 * 1024,
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console"},
		},
	}
}
