// Package config provides configuration loading and validation for paleofed.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/paleofedd/main.go)
//  2. Environment variables (PALEOFED_* prefix)
//  3. YAML config file (if specified with --config)
//  4. Hardcoded defaults
//
// Environment variables are mapped from PALEOFED_CATEGORY_SETTING format,
// e.g., PALEOFED_SERVER_HOST maps to server.host in YAML.
//
// All configuration is validated during Load() to ensure correctness early.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arourke/paleofed/internal/helpers"
	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Uses PALEOFED_ prefix: PALEOFED_SERVER_HOST -> server.host
	v.SetEnvPrefix("PALEOFED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8420)
	v.SetDefault("server.workers", "auto")

	// Upstream defaults
	v.SetDefault("upstream.paleobio_base_url", "https://paleobiodb.org/data1.2")
	v.SetDefault("upstream.quaternary_base_url", "https://api.neotomadb.org/v2.0")
	v.SetDefault("upstream.timeout_seconds", 30)
	v.SetDefault("upstream.max_retries", 2)
	v.SetDefault("upstream.request_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	// Configstore defaults
	v.SetDefault("configstore.path", "paleofed.db")

	// API listener defaults: bound to localhost. The gateway always serves
	// on api.host/api.port; api.enabled only switches on the port check in
	// normalizeConfig.
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.api_key", "")
}

// loadFromSource loads configuration from file and environment.
func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	loadServerConfig(v, cfg)
	loadUpstreamConfig(v, cfg)
	loadLoggingConfig(v, cfg)
	loadConfigStoreConfig(v, cfg)
	loadAPIConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadServerConfig(v *viper.Viper, cfg *Config) {
	cfg.Server.Host = v.GetString("server.host")
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.WorkersRaw = v.GetString("server.workers")
	cfg.Server.Workers = parseWorkers(cfg.Server.WorkersRaw)
}

func loadUpstreamConfig(v *viper.Viper, cfg *Config) {
	cfg.Upstream.PaleobioBaseURL = strings.TrimSuffix(v.GetString("upstream.paleobio_base_url"), "/")
	cfg.Upstream.QuaternaryBaseURL = strings.TrimSuffix(v.GetString("upstream.quaternary_base_url"), "/")
	cfg.Upstream.TimeoutSeconds = v.GetInt("upstream.timeout_seconds")
	cfg.Upstream.MaxRetries = v.GetInt("upstream.max_retries")
	cfg.Upstream.RequestTimeout = v.GetString("upstream.request_timeout")
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadConfigStoreConfig(v *viper.Viper, cfg *Config) {
	cfg.ConfigStore.Path = v.GetString("configstore.path")
}

func loadAPIConfig(v *viper.Viper, cfg *Config) {
	cfg.API.Enabled = v.GetBool("api.enabled")
	cfg.API.Host = v.GetString("api.host")
	cfg.API.Port = v.GetInt("api.port")
	cfg.API.APIKey = v.GetString("api.api_key")
}

// parseWorkers converts the workers string to WorkerSetting.
func parseWorkers(raw string) WorkerSetting {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == "auto" {
		return WorkerSetting{Mode: WorkersAuto}
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return WorkerSetting{Mode: WorkersFixed, Value: n}
	}
	return WorkerSetting{Mode: WorkersAuto}
}

// normalizeConfig validates and normalizes the configuration.
func normalizeConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be 1..65535")
	}

	if cfg.Upstream.PaleobioBaseURL == "" {
		return errors.New("upstream.paleobio_base_url must be set")
	}
	if cfg.Upstream.QuaternaryBaseURL == "" {
		return errors.New("upstream.quaternary_base_url must be set")
	}
	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = 30
	}
	cfg.Upstream.TimeoutSeconds = helpers.ClampInt(cfg.Upstream.TimeoutSeconds, 1, 300)
	cfg.Upstream.MaxRetries = helpers.ClampInt(cfg.Upstream.MaxRetries, 0, 10)
	if cfg.Upstream.RequestTimeout == "" {
		cfg.Upstream.RequestTimeout = "10s"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	if cfg.ConfigStore.Path == "" {
		cfg.ConfigStore.Path = "paleofed.db"
	}

	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	return nil
}
