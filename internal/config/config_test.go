package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PRAYERLIST_API_URL", "PRAYERLIST_TIMEOUT", "PRAYERLIST_DATA_DIR", "PRAYERLIST_SERVER_ADDR",
		"PRAYERLIST_LOG_LEVEL", "PRAYERLIST_LOG_FILE", "PRAYERLIST_LOG_CONSOLE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.LogLevel != "INFO" {
		t.Fatalf("LogLevel = %q, want INFO", cfg.LogLevel)
	}
}

func TestLoadFile_ParsesYAMLAndEnvWins(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("api_url: https://api.example.com\ntimeout: 3s\nremember: true\nlog_level: DEBUG\n")
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.APIURL != "https://api.example.com" || cfg.Timeout != 3*time.Second || !cfg.Remember {
		t.Fatalf("cfg = %+v, want file values", cfg)
	}

	t.Setenv("PRAYERLIST_API_URL", "http://override:9000")
	t.Setenv("PRAYERLIST_TIMEOUT", "2500")
	cfg, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.APIURL != "http://override:9000" {
		t.Fatalf("APIURL = %q, want env override", cfg.APIURL)
	}
	if cfg.Timeout != 2500*time.Millisecond {
		t.Fatalf("Timeout = %v, want 2.5s", cfg.Timeout)
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: [unterminated"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile returned nil error, want parse error")
	}
}

func TestSave_RoundTripsToSamePath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	cfg.APIURL = "http://saved:1"
	cfg.LogConsole = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	again, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if again.APIURL != "http://saved:1" || !again.LogConsole {
		t.Fatalf("reloaded cfg = %+v, want saved values", again)
	}
}
