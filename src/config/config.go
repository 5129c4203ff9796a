package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"statcan-proxy/src/internal/common"
)

// Defaults match the web client's development setup
const (
	DefaultPort             = 3001
	DefaultAllowedOrigin    = "http://localhost:3000"
	DefaultUpstreamURL      = "https://www150.statcan.gc.ca/t1/wds/rest/getDataFromVectorsAndLatestNPeriods"
	DefaultTimeout          = 30 * time.Second
	DefaultMaxResponseBytes = 10 << 20
)

// Environment variables that override file values
const (
	EnvPort        = "PORT"
	EnvClientURL   = "CLIENT_URL"
	EnvUpstreamURL = "STATCAN_URL"
	EnvBackendURL  = "BACKEND_URL"
	EnvTimeout     = "STATCAN_TIMEOUT"
)

// Config holds proxy and aggregation client settings
type Config struct {
	Server   *ServerConfig   `yaml:"server"`
	Upstream *UpstreamConfig `yaml:"upstream"`
	Client   *ClientConfig   `yaml:"client"`
}

// ServerConfig configures the proxy's listener and cross-origin boundary
type ServerConfig struct {
	Port          int    `yaml:"port"`
	AllowedOrigin string `yaml:"allowed_origin"`
	Compress      bool   `yaml:"compress"`
}

// UpstreamConfig points at the provider's bulk vector endpoint
type UpstreamConfig struct {
	URL              string        `yaml:"url"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxResponseBytes int64         `yaml:"max_response_bytes"`
}

// ClientConfig configures the aggregation client's view of the proxy
type ClientConfig struct {
	BackendURL string        `yaml:"backend_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoadConfig loads configuration from a YAML file. Missing sections fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.fillDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateDefaultConfig generates a default configuration file
func GenerateDefaultConfig(path string) error {
	return SaveConfig(GetDefaultConfig(), path)
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".statcan-proxy", "config.yaml")
}

// GetDefaultConfig returns the configuration used when no file is present
func GetDefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Port:          DefaultPort,
			AllowedOrigin: DefaultAllowedOrigin,
			Compress:      true,
		},
		Upstream: &UpstreamConfig{
			URL:              DefaultUpstreamURL,
			Timeout:          DefaultTimeout,
			MaxResponseBytes: DefaultMaxResponseBytes,
		},
		Client: &ClientConfig{
			BackendURL: fmt.Sprintf("http://localhost:%d", DefaultPort),
			Timeout:    DefaultTimeout,
		},
	}
}

// ApplyEnv overlays the Env* variables onto c
func (c *Config) ApplyEnv() {
	c.fillDefaults()
	c.Server.Port = common.GetEnvInt(EnvPort, c.Server.Port)
	c.Server.AllowedOrigin = common.GetEnv(EnvClientURL, c.Server.AllowedOrigin)
	c.Upstream.URL = common.GetEnv(EnvUpstreamURL, c.Upstream.URL)
	c.Upstream.Timeout = common.GetEnvDuration(EnvTimeout, c.Upstream.Timeout)
	c.Client.BackendURL = common.GetEnv(EnvBackendURL, c.Client.BackendURL)
}

// ListenAddr returns the host:port form of the configured port
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server == nil || c.Upstream == nil || c.Client == nil {
		return fmt.Errorf("server, upstream and client sections are required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	if err := validateOrigin(c.Server.AllowedOrigin); err != nil {
		return err
	}

	if err := validateHTTPURL("upstream url", c.Upstream.URL); err != nil {
		return err
	}

	if c.Upstream.Timeout < 0 || c.Client.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	if c.Upstream.MaxResponseBytes <= 0 {
		return fmt.Errorf("upstream max_response_bytes must be positive")
	}

	return validateHTTPURL("client backend_url", c.Client.BackendURL)
}

func (c *Config) fillDefaults() {
	def := GetDefaultConfig()
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Upstream == nil {
		c.Upstream = def.Upstream
	}
	if c.Client == nil {
		c.Client = def.Client
	}
	if c.Upstream.MaxResponseBytes == 0 {
		c.Upstream.MaxResponseBytes = DefaultMaxResponseBytes
	}
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be http or https, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", field, raw)
	}
	return nil
}

// validateOrigin accepts a bare scheme://host[:port]; browsers never send a path in Origin
func validateOrigin(origin string) error {
	if origin == "" {
		return fmt.Errorf("server allowed_origin is required")
	}
	if err := validateHTTPURL("server allowed_origin", origin); err != nil {
		return err
	}
	if u, _ := url.Parse(origin); strings.Trim(u.Path, "/") != "" {
		return fmt.Errorf("server allowed_origin must not contain a path: %q", origin)
	}
	return nil
}

// NormalizeOrigin strips a trailing slash so header comparisons are exact
func NormalizeOrigin(origin string) string {
	return strings.TrimRight(origin, "/")
}
