package sn

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MonitorConfig configures a monitor-side process (cmd/snmonitor and
// similar tools): which display to watch and how verbosely to log.
type MonitorConfig struct {
	Display  string `yaml:"display"`
	LogLevel string `yaml:"log_level"`
}

// LauncherConfig configures a launcher-side process: the default
// launcher name attached to every launch ID it builds, and whether it
// advertises cancel support by default.
type LauncherConfig struct {
	LauncherName          string `yaml:"launcher_name"`
	DefaultSupportsCancel bool   `yaml:"default_supports_cancel"`
	LogLevel              string `yaml:"log_level"`
}

// DefaultMonitorConfig mirrors what NewDisplay/Open would pick on their
// own, so a config file is optional.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{Display: os.Getenv("DISPLAY"), LogLevel: "info"}
}

// LoadMonitorConfig reads and parses a YAML monitor config file. A missing
// path returns DefaultMonitorConfig with no error, matching the "config is
// optional" posture of the rest of this package's ambient stack.
func LoadMonitorConfig(path string) (MonitorConfig, error) {
	cfg := DefaultMonitorConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("sn: reading monitor config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("sn: parsing monitor config %s: %w", path, err)
	}
	if cfg.Display == "" {
		cfg.Display = os.Getenv("DISPLAY")
	}
	return cfg, nil
}

// LoadLauncherConfig reads and parses a YAML launcher config file, with
// the same optional-file posture as LoadMonitorConfig.
func LoadLauncherConfig(path string) (LauncherConfig, error) {
	cfg := LauncherConfig{LauncherName: "sn-launch", LogLevel: "info"}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("sn: reading launcher config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("sn: parsing launcher config %s: %w", path, err)
	}
	return cfg, nil
}
