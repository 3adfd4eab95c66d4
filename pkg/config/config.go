/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Well-known channel identifiers shared by the server and its clients
const (
	DefaultShmKey    = 37239092
	DefaultCapacity  = 4096
	DefaultSemaphore = "shmkv.lock"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the shmkv configuration
type Config struct {
	Table       Table       `yaml:"table"`
	Channel     Channel     `yaml:"channel"`
	Logging     Logging     `yaml:"logging"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Table contains hash table configuration
type Table struct {
	Size int `yaml:"size"`
}

// Channel contains shared memory channel configuration
type Channel struct {
	ShmKey       int           `yaml:"shm_key"`
	Capacity     int           `yaml:"capacity"`
	Semaphore    string        `yaml:"semaphore"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ResetLock    bool          `yaml:"reset_lock"`
}

// Logging contains logging configuration
type Logging struct {
	Level     string `yaml:"level"`
	DumpTable bool   `yaml:"dump_table"`
}

// Diagnostics contains the optional HTTP diagnostics endpoint configuration
type Diagnostics struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Table: Table{
			Size: 16,
		},
		Channel: Channel{
			ShmKey:    DefaultShmKey,
			Capacity:  DefaultCapacity,
			Semaphore: DefaultSemaphore,
		},
		Logging: Logging{
			Level: "info",
		},
		Diagnostics: Diagnostics{
			Bind: "127.0.0.1",
			Port: 9400,
		},
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Table.Size < 1 {
		return fmt.Errorf("%w: table size must be positive, got %d", ErrInvalidConfig, c.Table.Size)
	}
	if c.Channel.Capacity < 8 {
		return fmt.Errorf("%w: channel capacity must be at least 8 bytes, got %d", ErrInvalidConfig, c.Channel.Capacity)
	}
	if c.Channel.Semaphore == "" {
		return fmt.Errorf("%w: semaphore name is required", ErrInvalidConfig)
	}
	if filepath.Base(c.Channel.Semaphore) != c.Channel.Semaphore {
		return fmt.Errorf("%w: semaphore name %q must not contain path separators", ErrInvalidConfig, c.Channel.Semaphore)
	}
	if c.Channel.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval must not be negative", ErrInvalidConfig)
	}
	if c.Diagnostics.Enabled && (c.Diagnostics.Port < 1 || c.Diagnostics.Port > 65535) {
		return fmt.Errorf("%w: diagnostics port %d out of range", ErrInvalidConfig, c.Diagnostics.Port)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./shmkv.yaml"
	}

	// For Linux/macOS, use ~/.config/shmkv/config.yaml
	return filepath.Join(homeDir, ".config", "shmkv", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
