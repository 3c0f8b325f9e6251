package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// Config holds all client, cache and dev server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Client    ClientConfig    `yaml:"client"`
	Cache     CacheConfig     `yaml:"cache"`
	Session   SessionConfig   `yaml:"session"`
	Logging   logger.Config   `yaml:"logging"`
	DevServer DevServerConfig `yaml:"dev_server"`
	Feed      []string        `yaml:"feed"` // content keys shown by the TUI, "{type}:{id}"
}

// ServerConfig contains backend connection settings
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ClientConfig tunes the request/token layer
type ClientConfig struct {
	RequestTimeout    time.Duration `yaml:"request_timeout"` // per attempt
	MaxAttempts       int           `yaml:"max_attempts"`
	BackoffInitial    time.Duration `yaml:"backoff_initial"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	TokenRefreshSkew  time.Duration `yaml:"token_refresh_skew"`
}

// CacheConfig tunes the interaction cache
type CacheConfig struct {
	GuardWindow     time.Duration `yaml:"guard_window"`
	CommentPageSize int           `yaml:"comment_page_size"`
}

// SessionConfig locates the persisted session
type SessionConfig struct {
	Path string `yaml:"path"`
}

// DevServerConfig configures the local development backend
type DevServerConfig struct {
	Addr      string        `yaml:"addr"`
	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
	// RefreshWindow bounds how long after issue a token may be refreshed
	RefreshWindow     time.Duration     `yaml:"refresh_window"`
	RequestsPerSecond float64           `yaml:"requests_per_second"` // per user, 0 disables
	Burst             int               `yaml:"burst"`
	Users             map[string]string `yaml:"users"` // username -> password
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080/api/v1",
		},
		Client: ClientConfig{
			RequestTimeout:    10 * time.Second,
			MaxAttempts:       3,
			BackoffInitial:    300 * time.Millisecond,
			BackoffMax:        3 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
			TokenRefreshSkew:  30 * time.Second,
		},
		Cache: CacheConfig{
			GuardWindow:     3 * time.Second,
			CommentPageSize: 20,
		},
		Session: SessionConfig{
			Path: filepath.Join(defaultConfigDir(), "session.db"),
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		DevServer: DevServerConfig{
			Addr:              "localhost:8080",
			JWTSecret:         "mediahub-dev-secret",
			JWTIssuer:         "mediahub-dev",
			JWTExpiry:         15 * time.Minute,
			RefreshWindow:     7 * 24 * time.Hour,
			RequestsPerSecond: 50,
			Burst:             100,
			Users: map[string]string{
				"demo":  "demo-password",
				"alice": "alice-password",
			},
		},
		Feed: []string{
			"video:intro",
			"track:theme-song",
			"post:welcome",
			"video:trailer",
			"forum:general",
		},
	}
}

// Load loads configuration from file, falling back to defaults.
// Values missing from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findConfigFile()
	}

	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate rejects values the client cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Client.MaxAttempts < 1 {
		return fmt.Errorf("client.max_attempts must be at least 1")
	}
	if c.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client.request_timeout must be positive")
	}
	if c.Cache.GuardWindow < 0 {
		return fmt.Errorf("cache.guard_window must not be negative")
	}
	if c.Cache.CommentPageSize <= 0 || c.Cache.CommentPageSize > 100 {
		return fmt.Errorf("cache.comment_page_size must be between 1 and 100")
	}
	if _, err := c.FeedKeys(); err != nil {
		return err
	}
	return nil
}

// FeedKeys parses the feed entries. Every entry must be "{type}:{id}" with a
// known content type.
func (c *Config) FeedKeys() ([]models.ContentKey, error) {
	keys := make([]models.ContentKey, 0, len(c.Feed))
	for _, entry := range c.Feed {
		k := models.ParseContentKey(strings.TrimSpace(entry))
		t, ok := models.ParseContentType(string(k.Type))
		if !ok || k.ID == "" {
			return nil, fmt.Errorf("feed entry %q must be {type}:{id} with a known type", entry)
		}
		keys = append(keys, models.MakeKey(k.ID, t))
	}
	return keys, nil
}

// Save saves configuration to file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultPath is where `mediahub config init` writes
func DefaultPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mediahub"
	}
	return filepath.Join(home, ".config", "mediahub")
}

// findConfigFile searches for config in standard locations
func findConfigFile() string {
	locations := []string{
		"./mediahub.yaml",
		"./config/mediahub.yaml",
		DefaultPath(),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}
