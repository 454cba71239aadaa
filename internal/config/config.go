// Package config provides configuration loading for focusd.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/focusd/internal/model"
)

// Config is the full focusd configuration. Precedence is defaults, then
// the YAML file, then FOCUSD_* environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Timer    TimerConfig    `yaml:"timer"`
	Client   ClientConfig   `yaml:"client"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig configures the sqlite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TimerConfig holds the phase durations stamped onto newly created lists.
type TimerConfig struct {
	SessionSeconds    int `yaml:"session_seconds"`
	ShortBreakSeconds int `yaml:"short_break_seconds"`
	LongBreakSeconds  int `yaml:"long_break_seconds"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	User    string `yaml:"user"`
}

func DefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "focusd.db"},
		Timer: TimerConfig{
			SessionSeconds:    model.DefaultSessionSeconds,
			ShortBreakSeconds: model.DefaultShortBreakSeconds,
			LongBreakSeconds:  model.DefaultLongBreakSeconds,
		},
		Client: ClientConfig{
			BaseURL: "http://127.0.0.1:8080",
			User:    "default",
		},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Timer.SessionSeconds <= 0 {
		return fmt.Errorf("timer.session_seconds must be positive")
	}
	if c.Timer.ShortBreakSeconds <= 0 {
		return fmt.Errorf("timer.short_break_seconds must be positive")
	}
	if c.Timer.LongBreakSeconds <= 0 {
		return fmt.Errorf("timer.long_break_seconds must be positive")
	}
	if strings.TrimSpace(c.Client.BaseURL) == "" {
		return fmt.Errorf("client.base_url is required")
	}
	if strings.TrimSpace(c.Client.User) == "" {
		return fmt.Errorf("client.user is required")
	}
	return nil
}

// LoadFromFile parses a YAML config file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Load resolves the effective configuration: defaults, optionally layered
// with the named file, then environment overrides, then validation. An
// empty path skips the file layer.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if v, ok := getEnvString("FOCUSD_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvString("FOCUSD_DB_PATH"); ok {
		c.Database.Path = v
	}
	if v, ok := getEnvInt("FOCUSD_SESSION_SECONDS"); ok && v > 0 {
		c.Timer.SessionSeconds = v
	}
	if v, ok := getEnvInt("FOCUSD_SHORT_BREAK_SECONDS"); ok && v > 0 {
		c.Timer.ShortBreakSeconds = v
	}
	if v, ok := getEnvInt("FOCUSD_LONG_BREAK_SECONDS"); ok && v > 0 {
		c.Timer.LongBreakSeconds = v
	}
	if v, ok := getEnvString("FOCUSD_BASE_URL"); ok {
		c.Client.BaseURL = v
	}
	if v, ok := getEnvString("FOCUSD_USER"); ok {
		c.Client.User = v
	}
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
