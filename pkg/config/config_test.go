package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const tomlSample = `
[general]
interval = "30s"
fetch_timeout = "10s"
log_level = "debug"

[modules.filesystem]
interval = "2m"
mountpoints = ["/", "/home"]

[modules.weather]
api_key = "abc123"
locations = ["San Diego, CA, US"]
use_celsius = true
`

const yamlSample = `
general:
  interval: 30s
  fetch_timeout: 10s
modules:
  network:
    interval: 1s
    interfaces: [eth0, wlan0]
  quakes:
    radius_km: 250
    min_magnitude: 2.5
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "config.toml", tomlSample))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.General.Interval.Duration != 30*time.Second {
		t.Errorf("interval = %v, want 30s", cfg.General.Interval.Duration)
	}
	if cfg.General.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.General.LogLevel)
	}
	if got := cfg.Modules.Filesystem.Mountpoints; len(got) != 2 || got[0] != "/" {
		t.Errorf("mountpoints = %v", got)
	}
	if cfg.Modules.Filesystem.Interval.Duration != 2*time.Minute {
		t.Errorf("filesystem interval = %v", cfg.Modules.Filesystem.Interval.Duration)
	}
	if !cfg.Modules.Weather.UseCelsius || cfg.Modules.Weather.APIKey != "abc123" {
		t.Errorf("weather section = %+v", cfg.Modules.Weather)
	}
}

func TestLoadYAML(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "config.yaml", yamlSample))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.General.FetchTimeout.Duration != 10*time.Second {
		t.Errorf("fetch timeout = %v", cfg.General.FetchTimeout.Duration)
	}
	if got := cfg.Modules.Network.Interfaces; len(got) != 2 || got[1] != "wlan0" {
		t.Errorf("interfaces = %v", got)
	}
	if cfg.Modules.Quakes.RadiusKM != 250 {
		t.Errorf("radius = %v", cfg.Modules.Quakes.RadiusKM)
	}
	// Untouched section keeps its default.
	if cfg.Modules.Quakes.Limit != 20 {
		t.Errorf("quakes limit = %d, want default 20", cfg.Modules.Quakes.Limit)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := LoadFromFile(writeConfig(t, "config.ini", "x")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.General.Interval.Duration != 60*time.Second {
		t.Errorf("default interval = %v", cfg.General.Interval.Duration)
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "env-key")
	cfg, err := LoadFromFile(writeConfig(t, "config.toml", tomlSample))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Modules.Weather.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.Modules.Weather.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.General.Interval = Duration{}
	if err := bad.Validate(); err == nil {
		t.Error("zero interval should fail validation")
	}

	bad = DefaultConfig()
	bad.General.LogLevel = "loud"
	if err := bad.Validate(); err == nil {
		t.Error("unknown log level should fail validation")
	}
}

func TestDurationParsing(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("parsed = %v", d.Duration)
	}
	if err := d.UnmarshalText([]byte("-5s")); err == nil {
		t.Error("negative duration should fail")
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("garbage duration should fail")
	}
}
