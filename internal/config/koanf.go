// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from every environment variable koanf considers, so
// TRACKCORE_SERVER_PORT maps to the config path server.port.
const EnvPrefix = "TRACKCORE_"

// ConfigPathEnvVar overrides the config file search below when set.
const ConfigPathEnvVar = "TRACKCORE_CONFIG_PATH"

// DefaultConfigPaths lists config file locations searched in order; the
// first one found is loaded.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trackcore/config.yaml",
}

func defaultConfig() *Config {
	return &Config{
		Acquirer: AcquirerConfig{
			PassiveMode:              false,
			RetryLimit:               3,
			RetryBackoff:             2000 * time.Millisecond,
			MaxRetryInterval:         6000 * time.Millisecond,
			HighRes:                  false,
			ScratchDir:               "/var/tmp/trackcore",
			PreferredWaveformVariant: "rgb",
		},
		Cache: CacheConfig{
			LRUCapacity: 100,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			SessionTimeout:    24 * time.Hour,
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
			CasbinModel:       defaultCasbinModel,
			CasbinPolicy:      defaultCasbinPolicy,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds a Config from compiled-in defaults, an optional YAML file, and
// environment variables (in that order of increasing precedence), then
// validates it. A validation failure is a startup error, never a silent
// fallback to defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps a stripped, lowercased environment variable name to its
// koanf config path. An explicit table (rather than a blanket "_" -> "."
// replace) is needed because several config keys are themselves
// underscore-separated (retry_limit, lru_capacity, ...).
var envMappings = map[string]string{
	"passive_mode":               "acquirer.passive_mode",
	"retry_limit":                "acquirer.retry_limit",
	"retry_backoff":              "acquirer.retry_backoff",
	"max_retry_interval":         "acquirer.max_retry_interval",
	"high_res":                   "acquirer.high_res",
	"scratch_dir":                "acquirer.scratch_dir",
	"preferred_waveform_variant": "acquirer.preferred_waveform_variant",
	"lru_capacity":               "cache.lru_capacity",
	"server_host":                "server.host",
	"server_port":                "server.port",
	"server_timeout":             "server.timeout",
	"jwt_secret":                 "security.jwt_secret",
	"session_timeout":            "security.session_timeout",
	"admin_username":             "security.admin_username",
	"admin_password_hash":        "security.admin_password_hash",
	"rate_limit_requests":        "security.rate_limit_requests",
	"rate_limit_window":          "security.rate_limit_window",
	"casbin_model":               "security.casbin_model",
	"casbin_policy":              "security.casbin_policy",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
}

// envTransformFunc maps TRACKCORE_SERVER_PORT -> server.port via envMappings,
// falling back to a lowercase passthrough for anything unrecognized so koanf
// still surfaces an unknown key rather than silently dropping it.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if path, ok := envMappings[key]; ok {
		return path
	}
	return key
}
