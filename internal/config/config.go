package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/voiceforge/forge-gateway/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig         `toml:"server"`
	Documents DocumentsConfig      `toml:"documents"`
	Logging   common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
	// PublicURL is the externally reachable base URL of this gateway
	// (e.g. an ngrok tunnel). Reported on /api/status.
	PublicURL string `toml:"public_url"`
}

// DocumentsConfig points at the declarative documents the gateway serves from.
type DocumentsConfig struct {
	Tools    string `toml:"tools"`    // YAML tool definitions
	Services string `toml:"services"` // YAML service directory (optional)
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies FORGE_* environment variable overrides to config.
// PUBLIC_SERVER_URL is honored without the FORGE_ prefix because the calling
// platform's tunnel tooling exports it under that name.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("FORGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FORGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if publicURL := os.Getenv("PUBLIC_SERVER_URL"); publicURL != "" {
		config.Server.PublicURL = publicURL
	}
	if tools := os.Getenv("FORGE_TOOLS_DOCUMENT"); tools != "" {
		config.Documents.Tools = tools
	}
	if services := os.Getenv("FORGE_SERVICES_DOCUMENT"); services != "" {
		config.Documents.Services = services
	}
	if level := os.Getenv("FORGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks mandatory configuration and returns a list of issues.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}
	if c.Documents.Tools == "" {
		issues = append(issues, "documents.tools must point at a tool definition file")
	}
	return issues
}
