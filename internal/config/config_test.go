package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Name != "SpecBridge" {
		t.Errorf("Server.Name = %q, want SpecBridge", cfg.Server.Name)
	}
	if cfg.Server.Port != "4270" {
		t.Errorf("Server.Port = %q, want 4270", cfg.Server.Port)
	}
	if cfg.Spec.Retries != 3 {
		t.Errorf("Spec.Retries = %d, want 3", cfg.Spec.Retries)
	}
	if cfg.Spec.GetTimeout() != 10*time.Second {
		t.Errorf("Spec timeout = %v, want 10s", cfg.Spec.GetTimeout())
	}
	if cfg.API.AuthType != "bearer" {
		t.Errorf("API.AuthType = %q, want bearer", cfg.API.AuthType)
	}
	if cfg.API.GetTimeout() != 30*time.Second {
		t.Errorf("API timeout = %v, want 30s", cfg.API.GetTimeout())
	}
	if cfg.API.MaxResponseBytes != 10*1024*1024 {
		t.Errorf("API.MaxResponseBytes = %d, want 10MB", cfg.API.MaxResponseBytes)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specbridge.toml")
	content := `
[server]
name = "MyBridge"
port = "9999"

[spec]
url = "https://example.com/openapi.json"

[tools]
whitelist = "/pets,/tasks"
name_prefix = "my_"

[api]
auth_type = "api-key"
auth_header = "X-Api-Key"
key = "abc"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Name != "MyBridge" {
		t.Errorf("Server.Name = %q, want MyBridge", cfg.Server.Name)
	}
	if cfg.Spec.URL != "https://example.com/openapi.json" {
		t.Errorf("Spec.URL = %q", cfg.Spec.URL)
	}
	if cfg.Tools.NamePrefix != "my_" {
		t.Errorf("Tools.NamePrefix = %q, want my_", cfg.Tools.NamePrefix)
	}
	if cfg.API.AuthHeader != "X-Api-Key" {
		t.Errorf("API.AuthHeader = %q, want X-Api-Key", cfg.API.AuthHeader)
	}
	// Unset file values keep defaults.
	if cfg.Spec.Retries != 3 {
		t.Errorf("Spec.Retries = %d, want default 3", cfg.Spec.Retries)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Server.Name != "SpecBridge" {
		t.Errorf("Server.Name = %q, want default", cfg.Server.Name)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[[[not toml"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OPENAPI_SPEC_URL", "https://env.example.com/spec.yaml")
	t.Setenv("TOOL_WHITELIST", "/only")
	t.Setenv("TOOL_NAME_PREFIX", "env_")
	t.Setenv("TOOL_NAME_MAX_LENGTH", "40")
	t.Setenv("SERVER_URL_OVERRIDE", "https://api.env.example.com")
	t.Setenv("API_KEY", "env-key")
	t.Setenv("API_AUTH_TYPE", "api-key")
	t.Setenv("API_KEY_LOCATION", "query.token")
	t.Setenv("STRIP_PARAM", "session")
	t.Setenv("IGNORE_SSL_SPEC", "true")
	t.Setenv("IGNORE_SSL_TOOLS", "1")
	t.Setenv("SPECBRIDGE_PORT", "8088")
	t.Setenv("SPECBRIDGE_LOG_LEVEL", "debug")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Spec.URL != "https://env.example.com/spec.yaml" {
		t.Errorf("Spec.URL = %q", cfg.Spec.URL)
	}
	if !cfg.Spec.InsecureSkipVerify {
		t.Error("IGNORE_SSL_SPEC=true should enable spec TLS skip")
	}
	if !cfg.API.InsecureSkipVerify {
		t.Error("IGNORE_SSL_TOOLS=1 should enable API TLS skip")
	}
	if cfg.Tools.Whitelist != "/only" {
		t.Errorf("Tools.Whitelist = %q", cfg.Tools.Whitelist)
	}
	if cfg.Tools.NameMaxLength != 40 {
		t.Errorf("Tools.NameMaxLength = %d, want 40", cfg.Tools.NameMaxLength)
	}
	if cfg.API.BaseURLOverride != "https://api.env.example.com" {
		t.Errorf("API.BaseURLOverride = %q", cfg.API.BaseURLOverride)
	}
	if cfg.API.KeyLocation != "query.token" {
		t.Errorf("API.KeyLocation = %q", cfg.API.KeyLocation)
	}
	if cfg.Server.Port != "8088" {
		t.Errorf("Server.Port = %q, want 8088", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestBaseURLCandidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if got := cfg.API.BaseURLCandidates(); got != nil {
		t.Errorf("empty override should yield nil, got %v", got)
	}

	cfg.API.BaseURLOverride = " https://a.example.com , https://b.example.com ,,"
	got := cfg.API.BaseURLCandidates()
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("BaseURLCandidates = %v", got)
	}
}
