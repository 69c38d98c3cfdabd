package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds user preferences
type Config struct {
	ConfirmDelete bool `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete

	// Sync behaviour
	ChangePollSeconds int `yaml:"change_poll_seconds" json:"change_poll_seconds"` // How often to poll for remote change hints
	ProbeSeconds      int `yaml:"probe_seconds" json:"probe_seconds"`             // How often to probe connectivity

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".taskrelay", "logs", "taskrelay.log")
	}

	return &Config{
		ConfirmDelete:     true,
		ChangePollSeconds: getEnvInt("TASKRELAY_CHANGE_POLL_SECONDS", 30),
		ProbeSeconds:      getEnvInt("TASKRELAY_PROBE_SECONDS", 15),
		LogLevel:          getEnv("TASKRELAY_LOG_LEVEL", "INFO"),
		LogFile:           getEnv("TASKRELAY_LOG_FILE", logPath),
		LogConsole:        getEnv("TASKRELAY_LOG_CONSOLE", "false") == "true",
	}
}

// ChangePollInterval returns the change-hint polling interval.
func (c *Config) ChangePollInterval() time.Duration {
	return time.Duration(c.ChangePollSeconds) * time.Second
}

// ProbeInterval returns the connectivity probe interval.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeSeconds) * time.Second
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Load loads config from ~/.taskrelay/config.yaml
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(home, ".taskrelay", "config.yaml")

	// Check if exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Return defaults if no config
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.taskrelay/config.yaml
func (c *Config) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".taskrelay")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
