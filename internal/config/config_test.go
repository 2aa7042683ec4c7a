package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forge-gateway.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile("")
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if cfg.Documents.Tools != "config/tools.yaml" {
		t.Errorf("expected default tools document, got %s", cfg.Documents.Tools)
	}
}

func TestLoadFromFile_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9100

[documents]
tools = "custom/tools.yaml"
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	// Unset keys keep their defaults.
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected host localhost, got %s", cfg.Server.Host)
	}
	if cfg.Documents.Tools != "custom/tools.yaml" {
		t.Errorf("expected custom tools document, got %s", cfg.Documents.Tools)
	}
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	first := writeConfig(t, "[server]\nport = 9100\n")
	second := writeConfig(t, "[server]\nport = 9200\n")

	cfg, err := LoadFromFiles(first, second)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("expected later file to win, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	t.Setenv("FORGE_SERVER_PORT", "9300")
	t.Setenv("PUBLIC_SERVER_URL", "https://tunnel.example.com")
	t.Setenv("FORGE_LOG_LEVEL", "debug")

	path := writeConfig(t, "[server]\nport = 9100\n")
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 9300 {
		t.Errorf("expected env port 9300, got %d", cfg.Server.Port)
	}
	if cfg.Server.PublicURL != "https://tunnel.example.com" {
		t.Errorf("expected env public URL, got %s", cfg.Server.PublicURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env log level, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile_InvalidEnvPortIgnored(t *testing.T) {
	t.Setenv("FORGE_SERVER_PORT", "not-a-number")

	cfg, err := LoadFromFile("")
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port for invalid env value, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 9400, "0.0.0.0")
	if cfg.Server.Port != 9400 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected flag overrides applied, got %d/%s", cfg.Server.Port, cfg.Server.Host)
	}

	// Zero values leave the config untouched.
	ApplyFlagOverrides(cfg, 0, "")
	if cfg.Server.Port != 9400 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected zero-value flags ignored, got %d/%s", cfg.Server.Port, cfg.Server.Host)
	}
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("expected default config to validate, got %v", issues)
	}

	cfg.Server.Port = 0
	cfg.Documents.Tools = ""
	issues := cfg.Validate()
	if len(issues) != 2 {
		t.Errorf("expected 2 issues, got %v", issues)
	}
}
