// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package config loads the coordination core's process-wide tunables from
// layered sources (compiled-in defaults, an optional YAML file, environment
// variables) via koanf, and validates the result with go-playground/validator
// before any component is allowed to start against it.
package config

import "time"

// Config holds every tunable the coordination core and its control API read
// at startup or hot-reload. Nothing outside this struct should read an
// environment variable directly.
type Config struct {
	Acquirer AcquirerConfig `koanf:"acquirer"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// AcquirerConfig governs the database/analysis acquirer's retry schedule and
// passive-mode guard (spec.md §6 defaults).
type AcquirerConfig struct {
	// PassiveMode, when true, stops the resolver from making live dbserver
	// requests for any slot other than COLLECTION; finders still serve from
	// the hot cache, LRU and registered providers. The acquirer's file
	// fetches are not affected.
	PassiveMode bool `koanf:"passive_mode"`
	// RetryLimit bounds file-fetch retry attempts (default 3).
	RetryLimit int `koanf:"retry_limit" validate:"min=1,max=10"`
	// RetryBackoff (default 2s) is loaded and validated but not read by the
	// acquirer, whose delay before retry n is a fixed n*2s.
	RetryBackoff time.Duration `koanf:"retry_backoff" validate:"min=1ms"`
	// MaxRetryInterval (default 6s) is loaded and validated but not read by
	// the acquirer, whose retry delay is capped at a fixed 6s.
	MaxRetryInterval time.Duration `koanf:"max_retry_interval" validate:"min=1ms"`
	// HighRes is loaded but not read by any component; the live dbserver
	// album-art request always asks for high-resolution art.
	HighRes bool `koanf:"high_res"`
	// ScratchDir is the root directory the acquirer stages fetched files
	// under; on clean shutdown the files the acquirer still tracks there are
	// deleted, and the directory itself is left in place.
	ScratchDir string `koanf:"scratch_dir" validate:"required"`
	// PreferredWaveformVariant is tried first in the waveform source-
	// preference fallback chain before RGB, then monochrome blue.
	PreferredWaveformVariant string `koanf:"preferred_waveform_variant" validate:"oneof=blue rgb 3-band"`
}

// CacheConfig governs the album-art LRU's capacity.
type CacheConfig struct {
	// LRUCapacity is the maximum number of album-art entries retained
	// beyond the hot cache (default 100).
	LRUCapacity int `koanf:"lru_capacity" validate:"min=1"`
}

// ServerConfig governs the control API's HTTP bind address.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1ms"`
}

// SecurityConfig governs the control API's admin authentication/authorization.
type SecurityConfig struct {
	// JWTSecret signs and verifies admin session tokens.
	JWTSecret string `koanf:"jwt_secret" validate:"required,min=16"`
	// SessionTimeout bounds how long an issued admin JWT remains valid.
	SessionTimeout time.Duration `koanf:"session_timeout" validate:"min=1m"`
	// AdminUsername is the single configured operator account.
	AdminUsername string `koanf:"admin_username" validate:"required"`
	// AdminPasswordHash is a bcrypt hash of the operator password; never the
	// plaintext password itself.
	AdminPasswordHash string `koanf:"admin_password_hash" validate:"required"`
	// RateLimitRequests/RateLimitWindow configure chi/httprate on admin routes.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
	// CasbinModel/CasbinPolicy are inline casbin model/policy text. Kept
	// inline (rather than file paths) so the default config needs no
	// filesystem layout beyond ScratchDir.
	CasbinModel  string `koanf:"casbin_model" validate:"required"`
	CasbinPolicy string `koanf:"casbin_policy" validate:"required"`
}

// LoggingConfig governs the zerolog sink.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Validate checks every field against its validator tags, returning an
// error that wraps a *validation.Error describing all failures at once
// rather than the first.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	return nil
}
