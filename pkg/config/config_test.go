package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 16, config.Table.Size)
	assert.Equal(t, 37239092, config.Channel.ShmKey)
	assert.Equal(t, 4096, config.Channel.Capacity)
	assert.Equal(t, "shmkv.lock", config.Channel.Semaphore)
	assert.Equal(t, time.Duration(0), config.Channel.PollInterval)
	assert.False(t, config.Channel.ResetLock)
	assert.Equal(t, "info", config.Logging.Level)
	assert.False(t, config.Logging.DumpTable)
	assert.False(t, config.Diagnostics.Enabled)
	assert.Equal(t, "127.0.0.1", config.Diagnostics.Bind)
	assert.Equal(t, 9400, config.Diagnostics.Port)

	assert.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero table size", func(c *Config) { c.Table.Size = 0 }},
		{"negative table size", func(c *Config) { c.Table.Size = -4 }},
		{"tiny capacity", func(c *Config) { c.Channel.Capacity = 4 }},
		{"empty semaphore", func(c *Config) { c.Channel.Semaphore = "" }},
		{"semaphore with path", func(c *Config) { c.Channel.Semaphore = "../etc/x" }},
		{"negative poll interval", func(c *Config) { c.Channel.PollInterval = -time.Second }},
		{"diagnostics port", func(c *Config) {
			c.Diagnostics.Enabled = true
			c.Diagnostics.Port = 0
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			Table: Table{Size: 128},
			Channel: Channel{
				ShmKey:       1234,
				Capacity:     8192,
				Semaphore:    "custom.lock",
				PollInterval: 5 * time.Millisecond,
				ResetLock:    true,
			},
			Logging: Logging{
				Level:     "debug",
				DumpTable: true,
			},
			Diagnostics: Diagnostics{
				Enabled: true,
				Bind:    "0.0.0.0",
				Port:    9000,
			},
		}

		err := SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "partial.yaml")
		err := os.WriteFile(configPath, []byte("table:\n  size: 4\nchannel:\n  poll_interval: 1ms\n"), 0644)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 4, loadedConfig.Table.Size)
		assert.Equal(t, time.Millisecond, loadedConfig.Channel.PollInterval)
		assert.Equal(t, DefaultShmKey, loadedConfig.Channel.ShmKey)
		assert.Equal(t, DefaultSemaphore, loadedConfig.Channel.Semaphore)
		assert.Equal(t, "info", loadedConfig.Logging.Level)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := DefaultConfig()

	err := SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "shmkv")
	assert.Contains(t, path, ".yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err := os.WriteFile(existingPath, []byte("test"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLField(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var raw map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &raw))

	assert.Equal(t, 37239092, raw["channel"]["shm_key"])
	assert.Equal(t, "shmkv.lock", raw["channel"]["semaphore"])
	assert.Equal(t, 16, raw["table"]["size"])
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	// a regular file where a directory is expected fails even for root
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	invalidPath := filepath.Join(blocker, "sub", "config.yaml")

	err := SaveConfig(config, invalidPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
