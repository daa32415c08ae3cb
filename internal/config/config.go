// Package config loads the bookshelf client settings from defaults, an
// optional YAML file and the environment, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfigPath = "BOOKSHELF_CONFIG"
	EnvAPIURL     = "BOOKSHELF_API_URL"
	EnvTimeout    = "BOOKSHELF_TIMEOUT"
	EnvRPS        = "BOOKSHELF_RPS"
	EnvLogLevel   = "BOOKSHELF_LOG_LEVEL"
	EnvUserAgent  = "BOOKSHELF_USER_AGENT"
)

// Config holds the client settings.
type Config struct {
	APIURL    string  `yaml:"api_url"`
	Timeout   string  `yaml:"timeout"`
	RPS       float64 `yaml:"rps"`
	LogLevel  string  `yaml:"log_level"`
	UserAgent string  `yaml:"user_agent"`
}

// DefaultConfig points at a json-server running locally.
func DefaultConfig() *Config {
	return &Config{
		APIURL:    "http://localhost:3000",
		Timeout:   "15s",
		RPS:       5,
		LogLevel:  "info",
		UserAgent: "bookshelf/1.0",
	}
}

// LoadEnvFiles loads .env and .env.local from the working directory.
func LoadEnvFiles() {
	// Do not override environment provided by the runtime.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration. path falls back to $BOOKSHELF_CONFIG; a
// missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	LoadEnvFiles()
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	c.APIURL = getEnv(EnvAPIURL, c.APIURL)
	c.Timeout = getEnv(EnvTimeout, c.Timeout)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.UserAgent = getEnv(EnvUserAgent, c.UserAgent)
	if v := os.Getenv(EnvRPS); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRPS, err)
		}
		c.RPS = rps
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must not be negative, got %v", c.RPS)
	}
	return nil
}

// GetTimeout returns the per-request timeout.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
