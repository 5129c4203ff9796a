package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"statcan-proxy/src/config"
)

func writeConfig(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mk: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func clearEnv(t *testing.T) {
	for _, k := range []string{config.EnvPort, config.EnvClientURL, config.EnvUpstreamURL, config.EnvBackendURL, config.EnvTimeout} {
		t.Setenv(k, "")
	}
}

func TestLoadOrDefault_DefaultPathRespected(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	clearEnv(t)
	writeConfig(t, filepath.Join(tmp, ".statcan-proxy", "config.yaml"), "server:\n  port: 4100\n")

	cfg := LoadOrDefault("")
	if cfg.Server.Port != 4100 {
		t.Fatalf("did not load default path config, port=%d", cfg.Server.Port)
	}
	if cfg.Upstream.URL != config.DefaultUpstreamURL {
		t.Fatalf("missing upstream section should keep defaults, got %s", cfg.Upstream.URL)
	}
}

func TestLoadOrDefault_BadExplicitPathFallsBack(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	clearEnv(t)
	bad := filepath.Join(tmp, "bad.yaml")
	writeConfig(t, bad, "server: [not, a, map]\n")

	cfg := LoadOrDefault(bad)
	if cfg.Server.Port != config.DefaultPort {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadOrDefault_EnvOverridesFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	clearEnv(t)
	path := filepath.Join(tmp, "cfg.yaml")
	writeConfig(t, path, "server:\n  port: 4100\n  allowed_origin: \"http://localhost:3000\"\n")
	t.Setenv(config.EnvPort, "5000")
	t.Setenv(config.EnvClientURL, "https://housing.example.ca")

	cfg := LoadOrDefault(path)
	if cfg.Server.Port != 5000 {
		t.Fatalf("PORT should override file, got %d", cfg.Server.Port)
	}
	if cfg.Server.AllowedOrigin != "https://housing.example.ca" {
		t.Fatalf("CLIENT_URL should override file, got %s", cfg.Server.AllowedOrigin)
	}
}

func TestLoadForServerAndClient_FlagsOverrideEverything(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	clearEnv(t)
	t.Setenv(config.EnvPort, "5000")

	cfg := LoadForServer("", 6000, "http://localhost:8080")
	if cfg.Server.Port != 6000 || cfg.Server.AllowedOrigin != "http://localhost:8080" {
		t.Fatalf("flags not applied: %+v", cfg.Server)
	}

	cfg = LoadForServer("", 0, "")
	if cfg.Server.Port != 5000 {
		t.Fatalf("zero port flag should keep env port, got %d", cfg.Server.Port)
	}

	cfg = LoadForClient("", "http://proxy.internal:3001")
	if cfg.Client.BackendURL != "http://proxy.internal:3001" {
		t.Fatalf("backend flag not applied: %s", cfg.Client.BackendURL)
	}
}
