package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration shared by every module. A module only
// reads its own section plus General.
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Modules ModulesConfig `toml:"modules" yaml:"modules"`
}

// GeneralConfig holds settings common to the whole agent family.
type GeneralConfig struct {
	// Interval is the default refresh cadence; modules may override it
	// per section or via the -interval flag.
	Interval Duration `toml:"interval" yaml:"interval"`

	// FetchTimeout bounds one provider fetch.
	FetchTimeout Duration `toml:"fetch_timeout" yaml:"fetch_timeout"`

	// CacheDir holds statefiles and instance locks.
	CacheDir string `toml:"cache_dir" yaml:"cache_dir"`

	// LogDir holds the per-module logfiles.
	LogDir string `toml:"log_dir" yaml:"log_dir"`

	// LogLevel is "debug", "info", "warn", or "error".
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// ModulesConfig holds the per-module sections.
type ModulesConfig struct {
	CPU        CPUConfig        `toml:"cpu" yaml:"cpu"`
	Memory     MemoryConfig     `toml:"memory" yaml:"memory"`
	Filesystem FilesystemConfig `toml:"filesystem" yaml:"filesystem"`
	Network    NetworkConfig    `toml:"network" yaml:"network"`
	Weather    WeatherConfig    `toml:"weather" yaml:"weather"`
	Stocks     StocksConfig     `toml:"stocks" yaml:"stocks"`
	Quakes     QuakesConfig     `toml:"quakes" yaml:"quakes"`
	Updates    UpdatesConfig    `toml:"updates" yaml:"updates"`
}

type CPUConfig struct {
	Interval Duration `toml:"interval" yaml:"interval"`
}

type MemoryConfig struct {
	Interval Duration `toml:"interval" yaml:"interval"`
}

type FilesystemConfig struct {
	Interval    Duration `toml:"interval" yaml:"interval"`
	Mountpoints []string `toml:"mountpoints" yaml:"mountpoints"`
}

type NetworkConfig struct {
	Interval   Duration `toml:"interval" yaml:"interval"`
	Interfaces []string `toml:"interfaces" yaml:"interfaces"`
}

type WeatherConfig struct {
	Interval   Duration `toml:"interval" yaml:"interval"`
	APIKey     string   `toml:"api_key" yaml:"api_key"`
	Locations  []string `toml:"locations" yaml:"locations"`
	UseCelsius bool     `toml:"use_celsius" yaml:"use_celsius"`
}

type StocksConfig struct {
	Interval Duration `toml:"interval" yaml:"interval"`
	Symbols  []string `toml:"symbols" yaml:"symbols"`
}

type QuakesConfig struct {
	Interval     Duration `toml:"interval" yaml:"interval"`
	Latitude     float64  `toml:"latitude" yaml:"latitude"`
	Longitude    float64  `toml:"longitude" yaml:"longitude"`
	RadiusKM     float64  `toml:"radius_km" yaml:"radius_km"`
	MinMagnitude float64  `toml:"min_magnitude" yaml:"min_magnitude"`
	Limit        int      `toml:"limit" yaml:"limit"`
}

type UpdatesConfig struct {
	Interval Duration `toml:"interval" yaml:"interval"`
	// Manager forces a package manager ("apt", "dnf", "pacman", "brew")
	// instead of auto-detection.
	Manager string `toml:"manager" yaml:"manager"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		General: GeneralConfig{
			Interval:     Duration{60 * time.Second},
			FetchTimeout: Duration{30 * time.Second},
			CacheDir:     filepath.Join(xdgCacheHome(home), "bar-pulse"),
			LogDir:       filepath.Join(xdgCacheHome(home), "bar-pulse"),
			LogLevel:     "info",
		},
		Modules: ModulesConfig{
			CPU:        CPUConfig{Interval: Duration{5 * time.Second}},
			Memory:     MemoryConfig{Interval: Duration{10 * time.Second}},
			Filesystem: FilesystemConfig{Interval: Duration{60 * time.Second}},
			Network:    NetworkConfig{Interval: Duration{3 * time.Second}},
			Weather:    WeatherConfig{Interval: Duration{5 * time.Minute}},
			Stocks:     StocksConfig{Interval: Duration{10 * time.Minute}},
			Quakes: QuakesConfig{
				Interval:     Duration{15 * time.Minute},
				RadiusKM:     160,
				MinMagnitude: 0.1,
				Limit:        20,
			},
			Updates: UpdatesConfig{Interval: Duration{time.Hour}},
		},
	}
}

// Validate rejects configurations the agent cannot start with.
func (c *Config) Validate() error {
	if c.General.Interval.Duration <= 0 {
		return fmt.Errorf("general.interval must be positive, got %v", c.General.Interval.Duration)
	}
	if c.General.FetchTimeout.Duration <= 0 {
		return fmt.Errorf("general.fetch_timeout must be positive, got %v", c.General.FetchTimeout.Duration)
	}
	switch c.General.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.General.LogLevel)
	}
	if c.Modules.Quakes.Limit < 0 {
		return fmt.Errorf("quakes.limit must not be negative")
	}
	return nil
}
