package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvBaseURL     = "EXPENSE_TRACKER_BASE_URL"
	EnvCurrency    = "EXPENSE_TRACKER_CURRENCY"
	EnvLogLevel    = "EXPENSE_TRACKER_LOG_LEVEL"
	EnvSessionFile = "EXPENSE_TRACKER_SESSION_FILE"
)

type Config struct {
	// BaseURL is the API root, e.g. https://host/api
	BaseURL string `yaml:"base_url,omitempty"`

	// Currency is an ISO 4217 code used when formatting amounts.
	// Empty means detect from the locale, falling back to USD.
	Currency string `yaml:"currency,omitempty"`

	// Categories offered as hints when adding expenses and budgets
	Categories []string `yaml:"categories,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error)
	LogLevel string `yaml:"log_level,omitempty"`

	// SessionFile is where the auth token is persisted
	SessionFile string `yaml:"session_file,omitempty"`
}

// DefaultConfigPath returns the default config file path (~/.expense-tracker/config.yaml)
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".expense-tracker", "config.yaml")
}

// NewDefaultConfig returns the config used when no file exists.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigOrDefault loads path if it exists and falls back to defaults
// otherwise. An explicitly given path must exist.
func LoadConfigOrDefault(path string, explicit bool) (*Config, error) {
	if path == "" {
		return NewDefaultConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		return NewDefaultConfig(), nil
	}
	return LoadConfig(path)
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file from the working directory (if any) and lets
// EXPENSE_TRACKER_* variables override file values. Variables already set in
// the process environment win over .env entries.
func (c *Config) ApplyEnv(dotenvFiles ...string) error {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvCurrency); v != "" {
		c.Currency = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		c.SessionFile = v
	}
	return c.Validate()
}

// Validate checks the values that would otherwise fail later in a confusing way.
func (c *Config) Validate() error {
	var problems []string

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid base_url %q: %v", c.BaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			problems = append(problems, fmt.Sprintf("invalid base_url scheme %q: must be http or https", u.Scheme))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		problems = append(problems, fmt.Sprintf("invalid log_level %q", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsKnownCategory reports whether category is one of the configured categories.
func (c *Config) IsKnownCategory(category string) bool {
	if c == nil {
		return false
	}
	for _, known := range c.Categories {
		if known == category {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if len(c.Categories) == 0 {
		c.Categories = append([]string(nil), DefaultCategories...)
	}
	if c.SessionFile == "" {
		c.SessionFile = DefaultSessionPath()
	}
}
