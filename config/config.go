package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ByteMirror/mailmt/log"
)

const ConfigFileName = "config.json"

// configDirEnv overrides the configuration directory.
const configDirEnv = "MAILMT_CONFIG_DIR"

// GetConfigDir returns the path to the application's configuration directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mailmt"), nil
}

// Config represents the application configuration
type Config struct {
	// MaxThreads caps how many per-submission workers may run at once. 0 means unlimited.
	MaxThreads int `json:"max_threads"`
	// ProgressWidth is the width in cells of each activity progress bar.
	ProgressWidth int `json:"progress_width"`
	// ErrorDismissMs is how long an error toast stays on screen.
	ErrorDismissMs int `json:"error_dismiss_ms"`
	// StatusLogIntervalMs rate-limits debug logging of status updates.
	StatusLogIntervalMs int `json:"status_log_interval_ms"`
	// DefaultRemote is the remote fetched from without asking for confirmation.
	DefaultRemote string `json:"default_remote"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxThreads:          0,
		ProgressWidth:       30,
		ErrorDismissMs:      5000,
		StatusLogIntervalMs: 1000,
		DefaultRemote:       "origin",
	}
}

// ErrorDismiss returns ErrorDismissMs as a duration.
func (c *Config) ErrorDismiss() time.Duration {
	return time.Duration(c.ErrorDismissMs) * time.Millisecond
}

// StatusLogInterval returns StatusLogIntervalMs as a duration.
func (c *Config) StatusLogInterval() time.Duration {
	return time.Duration(c.StatusLogIntervalMs) * time.Millisecond
}

// normalize replaces out-of-range values with their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.MaxThreads < 0 {
		c.MaxThreads = def.MaxThreads
	}
	if c.ProgressWidth <= 0 {
		c.ProgressWidth = def.ProgressWidth
	}
	if c.ErrorDismissMs <= 0 {
		c.ErrorDismissMs = def.ErrorDismissMs
	}
	if c.StatusLogIntervalMs <= 0 {
		c.StatusLogIntervalMs = def.StatusLogIntervalMs
	}
	if c.DefaultRemote == "" {
		c.DefaultRemote = def.DefaultRemote
	}
}

// LoadConfig loads the configuration from disk. If it cannot be done, we return the default configuration.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			defaultCfg := DefaultConfig()
			if saveErr := SaveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return defaultCfg
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		log.ErrorLog.Printf("failed to parse config file: %v", err)
		return DefaultConfig()
	}
	config.normalize()

	return config
}

// SaveConfig writes the configuration to disk, creating the directory if needed.
func SaveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return atomicWriteFile(filepath.Join(configDir, ConfigFileName), data, 0644)
}
