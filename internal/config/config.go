// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Channelpulse server.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Storage StorageConfig `koanf:"storage"`
	Cache   CacheConfig   `koanf:"cache"`
	Ingest  IngestConfig  `koanf:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	Timeout            time.Duration `koanf:"timeout"`
	CORSOrigins        []string      `koanf:"cors_origins"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"` // 0 disables rate limiting
	MaxUploadBytes     int64         `koanf:"max_upload_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// StorageConfig holds BadgerDB and remote blob settings.
//
// When RemoteURL is set, export objects are fetched over HTTP from that base
// URL instead of the local BadgerDB blob store. Snapshot metadata always
// lives in BadgerDB.
type StorageConfig struct {
	Path          string        `koanf:"path"`
	InMemory      bool          `koanf:"in_memory"`
	RemoteURL     string        `koanf:"remote_url"`
	RemoteTimeout time.Duration `koanf:"remote_timeout"`
	GCInterval    time.Duration `koanf:"gc_interval"`
}

// CacheConfig bounds the parsed-snapshot cache.
type CacheConfig struct {
	MaxEntries int `koanf:"max_entries"`
}

// IngestConfig throttles export fetches.
type IngestConfig struct {
	FetchRatePerSec float64 `koanf:"fetch_rate_per_sec"` // 0 disables throttling
	FetchBurst      int     `koanf:"fetch_burst"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8480,
			Timeout:            30 * time.Second,
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 300,
			MaxUploadBytes:     8 << 20, // 8MB, far above any real traffic export
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Path:          "/data/channelpulse",
			InMemory:      false,
			RemoteURL:     "",
			RemoteTimeout: 10 * time.Second,
			GCInterval:    10 * time.Minute,
		},
		Cache: CacheConfig{
			MaxEntries: 20,
		},
		Ingest: IngestConfig{
			FetchRatePerSec: 20,
			FetchBurst:      5,
		},
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateStorage,
		c.validateCache,
		c.validateIngest,
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.Server.RateLimitPerMinute)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH is required unless STORAGE_IN_MEMORY is set")
	}
	if c.Storage.GCInterval < time.Minute {
		return fmt.Errorf("STORAGE_GC_INTERVAL must be at least 1m, got %s", c.Storage.GCInterval)
	}
	if c.Storage.RemoteURL != "" && c.Storage.RemoteTimeout <= 0 {
		return fmt.Errorf("REMOTE_BLOB_TIMEOUT must be positive when REMOTE_BLOB_URL is set")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1, got %d", c.Cache.MaxEntries)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.FetchRatePerSec < 0 {
		return fmt.Errorf("INGEST_FETCH_RATE_PER_SEC must not be negative, got %v", c.Ingest.FetchRatePerSec)
	}
	if c.Ingest.FetchRatePerSec > 0 && c.Ingest.FetchBurst < 1 {
		return fmt.Errorf("INGEST_FETCH_BURST must be at least 1 when throttling is enabled, got %d", c.Ingest.FetchBurst)
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
