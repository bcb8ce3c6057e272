package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"

	_ "embed"
)

var configOnce sync.Once

var globalConfig *Config

var customConfigPath string // Custom config path set via --config flag

//go:embed config.sample.json
var sampleConfig []byte

const (
	CONFIG_DIR_PATH  = "ibonocollect"
	CONFIG_FILE_PATH = "config.json"
	CONFIG_DIR_PERM  = 0755
	CONFIG_FILE_PERM = 0644
)

// Config represents the application configuration.
type Config struct {
	// RemoteURL is the base URL of the remote record service.
	RemoteURL string `json:"remote_url" validate:"required,url"`

	// DatabasePath overrides the default XDG location of the local
	// SQLite database. Empty means the default.
	DatabasePath string `json:"database_path,omitempty"`

	// UI selects the entry interface.
	UI string `json:"ui" validate:"oneof=cli tui"`

	// DateFormat is a Go time format string, defaults to "2006-01-02"
	DateFormat string `json:"date_format,omitempty"`

	Sync SyncConfig `json:"sync"`
}

// SyncConfig controls background synchronization.
type SyncConfig struct {
	// Enabled turns the connectivity probe and automatic sync on.
	Enabled bool `json:"enabled"`

	// ProbeIntervalSeconds is how often connectivity is probed while
	// the TUI or watch mode runs. 0 means the default (30s).
	ProbeIntervalSeconds int `json:"probe_interval_seconds,omitempty" validate:"min=0"`
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

func (c *Config) GetDateFormat() string {
	if c.DateFormat == "" {
		return "2006-01-02" // Default to yyyy-mm-dd
	}
	return c.DateFormat
}

// ProbeInterval returns the connectivity probe interval in seconds.
func (c *Config) ProbeInterval() int {
	if c.Sync.ProbeIntervalSeconds == 0 {
		return 30
	}
	return c.Sync.ProbeIntervalSeconds
}

// SetCustomConfigPath sets a custom config path to use instead of the
// default user config directory. If path is a directory, config.json
// inside it is used. This must be called before the first GetConfig().
func SetCustomConfigPath(path string) {
	if path == "" || path == "." {
		customConfigPath = filepath.Join(".", CONFIG_DIR_PATH, CONFIG_FILE_PATH)
		return
	}
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		customConfigPath = filepath.Join(path, CONFIG_FILE_PATH)
	} else {
		customConfigPath = path
	}
}

func GetConfig() *Config {
	configOnce.Do(func() {
		config, err := loadUserOrSampleConfig()
		if err != nil {
			log.Fatal(err)
		}
		globalConfig = config
	})
	return globalConfig
}

func loadUserOrSampleConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	configData, err := configDataFromPath(configPath)
	if err != nil {
		return nil, err
	}
	return ParseConfig(configData, configPath)
}

func GetConfigPath() (string, error) {
	if customConfigPath != "" {
		// A custom path may not exist yet; it is still where the config
		// will be created.
		return customConfigPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, CONFIG_FILE_PATH), nil
}

// configDataFromPath reads the config file, creating it from the
// embedded sample on first run.
func configDataFromPath(configPath string) ([]byte, error) {
	data, err := os.ReadFile(configPath)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), CONFIG_DIR_PERM); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, sampleConfig, CONFIG_FILE_PERM); err != nil {
		return nil, fmt.Errorf("failed to write sample config: %w", err)
	}
	return sampleConfig, nil
}

// ParseConfig parses and validates raw config JSON.
func ParseConfig(configData []byte, configPath string) (*Config, error) {
	var configObj Config
	if err := json.Unmarshal(configData, &configObj); err != nil {
		return nil, fmt.Errorf("invalid JSON in config file %s: %w", configPath, err)
	}
	if err := configObj.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %s: %w", configPath, err)
	}
	return &configObj, nil
}
