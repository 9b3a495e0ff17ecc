// Package config provides configuration loading for paleofed using Viper.
// Configuration is loaded from YAML files with automatic environment variable binding.
//
// Environment variables use the PALEOFED_ prefix and underscore-separated keys:
//   - PALEOFED_SERVER_HOST -> server.host
//   - PALEOFED_SERVER_PORT -> server.port
//   - PALEOFED_UPSTREAM_PALEOBIO_BASE_URL -> upstream.paleobio_base_url
//   - PALEOFED_API_ENABLED -> api.enabled
package config

import (
	"os"
	"strconv"
	"strings"
)

// WorkersMode records how server.workers was given.
type WorkersMode int

const (
	// WorkersAuto means server.workers was "auto", empty, or not a positive integer.
	WorkersAuto WorkersMode = iota
	// WorkersFixed means server.workers gave a positive integer count.
	WorkersFixed
)

// WorkerSetting is the parsed server.workers value. It is loaded and exposed
// on Config; nothing in this module sizes a worker pool from it.
type WorkerSetting struct {
	Mode  WorkersMode
	Value int
}

func (w WorkerSetting) String() string {
	if w.Mode == WorkersAuto {
		return "auto"
	}
	return strconv.Itoa(w.Value)
}

// ServerConfig holds the server.* settings. They are loaded and validated,
// but the HTTP listener binds APIConfig's Host and Port, not these.
type ServerConfig struct {
	Host       string        `yaml:"host"    mapstructure:"host"`
	Port       int           `yaml:"port"    mapstructure:"port"`
	Workers    WorkerSetting `yaml:"-"       mapstructure:"-"`
	WorkersRaw string        `yaml:"workers" mapstructure:"workers"`
}

// UpstreamConfig locates the two federated data sources and the shared
// composite-query budget applied across both.
type UpstreamConfig struct {
	PaleobioBaseURL   string `yaml:"paleobio_base_url"   mapstructure:"paleobio_base_url"   json:"paleobio_base_url"`
	QuaternaryBaseURL string `yaml:"quaternary_base_url" mapstructure:"quaternary_base_url" json:"quaternary_base_url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"     mapstructure:"timeout_seconds"     json:"timeout_seconds"`
	MaxRetries        int    `yaml:"max_retries"         mapstructure:"max_retries"         json:"max_retries"`
	RequestTimeout    string `yaml:"request_timeout"     mapstructure:"request_timeout"     json:"request_timeout"` // per-GET client timeout, e.g. "10s"
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             json:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"        json:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"       json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"      json:"extra_fields,omitempty"`
}

// ConfigStoreConfig locates the SQLite-backed vocabulary/output-block store.
type ConfigStoreConfig struct {
	Path string `yaml:"path" mapstructure:"path" json:"path"`
}

// APIConfig contains management API settings.
//
// Note: APIKey is intentionally treated as a secret and should not be
// returned by API endpoints.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"      mapstructure:"server"`
	Upstream    UpstreamConfig    `yaml:"upstream"    mapstructure:"upstream"`
	Logging     LoggingConfig     `yaml:"logging"     mapstructure:"logging"`
	ConfigStore ConfigStoreConfig `yaml:"configstore" mapstructure:"configstore"`
	API         APIConfig         `yaml:"api"         mapstructure:"api"`
}

// ResolveConfigPath determines the config file path from flag or environment.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("PALEOFED_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable overrides.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (PALEOFED_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
