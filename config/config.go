// Package config defines the taskchat application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level taskchat configuration.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	DataDir  string         `json:"data_dir" yaml:"data_dir"`
	LogLevel string         `json:"log_level" yaml:"log_level"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":8080"
}

// AuthConfig controls API authentication.
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`
}

// ProviderConfig selects and configures the intent interpreter backend.
type ProviderConfig struct {
	Name    string `json:"name" yaml:"name"` // "cohere" or "mock"
	APIKey  string `json:"api_key,omitempty" yaml:"api_key"`
	Model   string `json:"model,omitempty" yaml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Provider: ProviderConfig{
			Name: "cohere",
		},
		DataDir:  "./data",
		LogLevel: "info",
	}
}

// Load reads a YAML config file and returns the parsed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
