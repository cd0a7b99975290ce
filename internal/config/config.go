// Package config manages user-level configuration for the honhon CLI
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config represents the user's honhon CLI configuration
type Config struct {
	// APIBaseURL overrides the registration service address
	APIBaseURL string `json:"api_base_url,omitempty"`

	// LastUser remembers the most recently registered account so the
	// login view can be prefilled
	LastUser *UserInfo `json:"last_user,omitempty"`

	// Preferences stores user preferences
	Preferences Preferences `json:"preferences"`

	// Version of the config schema
	Version string `json:"version"`
}

// UserInfo stores the identity of a registered user. It never holds a
// password.
type UserInfo struct {
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	RegisteredAt string `json:"registered_at,omitempty"`
}

// Preferences stores user preferences
type Preferences struct {
	// ColorOutput controls whether to use colored output
	ColorOutput bool `json:"color_output"`

	// ShowPasswords starts password fields unmasked
	ShowPasswords bool `json:"show_passwords"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// configPath returns the path to the config file
func configPath() (string, error) {
	var configDir string

	// Check XDG_CONFIG_HOME first for testing and Linux compatibility
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		configDir = xdgConfig
	} else {
		var err error
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to get config directory: %w", err)
		}
	}

	return filepath.Join(configDir, "honhon", "config.json"), nil
}

// Load loads the configuration from disk or creates a new one
func Load() (*Config, error) {
	var err error
	once.Do(func() {
		instance, err = load()
	})

	if err != nil {
		// Allow a later call to retry, e.g. after the directory is fixed
		once = sync.Once{}
		return nil, err
	}

	return instance, nil
}

// load reads the config from disk or creates default
func load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is controlled via configPath()
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a default configuration
func defaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Preferences: Preferences{
			ColorOutput:   true,
			ShowPasswords: false,
		},
	}
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	mu.Lock()
	defer mu.Unlock()

	path, err := configPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically by writing to temp file then renaming
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// GetAPIBaseURL returns the configured service address, or "" for the default
func (c *Config) GetAPIBaseURL() string {
	mu.RLock()
	defer mu.RUnlock()
	return c.APIBaseURL
}

// SetAPIBaseURL sets the service address
func (c *Config) SetAPIBaseURL(url string) error {
	mu.Lock()
	c.APIBaseURL = url
	mu.Unlock()

	return c.Save()
}

// GetLastUser returns the most recently registered user
func (c *Config) GetLastUser() *UserInfo {
	mu.RLock()
	defer mu.RUnlock()
	if c.LastUser == nil {
		return nil
	}
	u := *c.LastUser
	return &u
}

// SetLastUser records the most recently registered user
func (c *Config) SetLastUser(user *UserInfo) error {
	mu.Lock()
	c.LastUser = user
	mu.Unlock()

	return c.Save()
}

// ClearLastUser forgets the most recently registered user
func (c *Config) ClearLastUser() error {
	return c.SetLastUser(nil)
}

// Reset resets the configuration to defaults
func (c *Config) Reset() error {
	mu.Lock()
	*c = *defaultConfig()
	mu.Unlock()

	return c.Save()
}
