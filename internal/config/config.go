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
	APIURL     string        `yaml:"api_url" json:"api_url"`         // Base URL of the prayer API
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`         // Per-request timeout
	DataDir    string        `yaml:"data_dir" json:"data_dir"`       // Where state.db lives
	Remember   bool          `yaml:"remember" json:"remember"`       // Save credentials for silent re-login by default
	PushToken  string        `yaml:"push_token" json:"push_token"`   // Device token registered after login, optional
	ServerAddr string        `yaml:"server_addr" json:"server_addr"` // Listen address for prayerlist-server

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	path string
}

const (
	defaultAPIURL  = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
	appDirName     = ".prayerlist"
)

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := ""
	logPath := ""
	if home != "" {
		dataDir = filepath.Join(home, appDirName)
		logPath = filepath.Join(dataDir, "logs", "prayerlist.log")
	}

	return &Config{
		APIURL:     getEnv("PRAYERLIST_API_URL", defaultAPIURL),
		Timeout:    getDuration("PRAYERLIST_TIMEOUT", defaultTimeout),
		DataDir:    getEnv("PRAYERLIST_DATA_DIR", dataDir),
		ServerAddr: getEnv("PRAYERLIST_SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("PRAYERLIST_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("PRAYERLIST_LOG_FILE", logPath),
		LogConsole: getEnv("PRAYERLIST_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// DefaultPath returns ~/.prayerlist/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName, "config.yaml"), nil
}

// Load loads config from ~/.prayerlist/config.yaml
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads config from path, returning defaults when the file is missing.
// Environment variables still win over file values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.normalize()

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIURL = getEnv("PRAYERLIST_API_URL", c.APIURL)
	c.Timeout = getDuration("PRAYERLIST_TIMEOUT", c.Timeout)
	c.DataDir = getEnv("PRAYERLIST_DATA_DIR", c.DataDir)
	c.ServerAddr = getEnv("PRAYERLIST_SERVER_ADDR", c.ServerAddr)
	c.LogLevel = getEnv("PRAYERLIST_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("PRAYERLIST_LOG_FILE", c.LogFile)
	if v := os.Getenv("PRAYERLIST_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true"
	}
}

func (c *Config) normalize() {
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// StatePath returns the SQLite file holding persisted session state.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

// Save saves config to the file it was loaded from (default ~/.prayerlist/config.yaml)
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
