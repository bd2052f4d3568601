package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/bar-pulse/config.toml
//  2. $XDG_CONFIG_HOME/bar-pulse/config.yaml
//  3. The same pair under ~/.config when XDG_CONFIG_HOME is set elsewhere.
//
// If no file exists, returns DefaultConfig().
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific path, dispatching on
// the file extension (.toml, .yaml, .yml).
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(f)
	case ".toml":
		return loadTOML(f)
	default:
		return nil, fmt.Errorf("config: unsupported extension %q (want .toml, .yaml, or .yml)", filepath.Ext(path))
	}
}

func loadTOML(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse toml: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadYAML(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides checks environment variables and overrides config
// values, so secrets can stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		cfg.Modules.Weather.APIKey = v
	}
	if v := os.Getenv("BARPULSE_CACHE_DIR"); v != "" {
		cfg.General.CacheDir = v
	}
	if v := os.Getenv("BARPULSE_LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		paths = append(paths, filepath.Join(xdg, "bar-pulse", name))
	}

	// If XDG_CONFIG_HOME was explicitly set, also try the default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
			paths = append(paths, filepath.Join(defaultXDG, "bar-pulse", name))
		}
	}
	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgCacheHome returns XDG_CACHE_HOME or ~/.cache as fallback.
func xdgCacheHome(home string) string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".cache")
}
