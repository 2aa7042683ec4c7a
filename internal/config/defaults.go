package config

import "github.com/voiceforge/forge-gateway/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      8000,
			Host:      "localhost",
			PublicURL: "http://localhost:8000",
		},
		Documents: DocumentsConfig{
			Tools:    "config/tools.yaml",
			Services: "config/services.yaml",
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Outputs: []string{"console", "file"},
		},
	}
}
