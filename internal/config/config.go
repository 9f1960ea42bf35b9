// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-workout-sync engine. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Sync holds engine-level tuning: batch size, dead-letter ceiling and
	// conflict log retention.
	Sync Sync `envPrefix:"SYNC_"`

	// Storage holds configuration for the local persistence backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote holds connection settings for the cloud record store.
	Remote Remote `envPrefix:"REMOTE_"`

	// Server holds network address and timeout settings for the local HTTP
	// control surface exposed to the application shell.
	Server Server `envPrefix:"SERVER_"`

	// Workers holds configuration for background worker processes
	// (the sync scheduler and the conflict pruning job).
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Sync holds engine tuning parameters.
type Sync struct {
	// BatchSize caps how many create/update records are sent in one
	// batch-save call. The cloud record store rejects batches over 400.
	// Env: SYNC_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// MaxAttempts is the dead-letter ceiling for outbox items. Items whose
	// attempt count reaches this value are no longer offered for push; they
	// remain in the queue table for inspection. Zero means retry forever.
	// Env: SYNC_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`

	// ConflictRetention is how long resolved conflict rows are kept before
	// the pruning job removes them (e.g. "720h" for 30 days).
	// Env: SYNC_CONFLICT_RETENTION
	ConflictRetention time.Duration `env:"CONFLICT_RETENTION"`
}

// Storage groups the configuration for the local persistence backend.
type Storage struct {
	// DB holds the local SQLite database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path (e.g. "workout.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Remote holds connection settings for the cloud record store API.
type Remote struct {
	// BaseURL is the root URL of the record store API
	// (e.g. "https://records.example.com").
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// Token is the bearer token presented on every remote call.
	// Env: REMOTE_TOKEN
	Token string `env:"TOKEN"`

	// RequestTimeout is the maximum duration allowed for a single outbound
	// call before the client cancels it (e.g. "15s").
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Server holds network and timeout settings for the local control API.
type Server struct {
	// HTTPAddress is the TCP address on which the control API listens,
	// in "host:port" format (e.g. "127.0.0.1:8090").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it (e.g. "30s", "1m").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SyncInterval defines how often the background scheduler triggers a
	// full sync run.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// PruneInterval defines how often the conflict retention job runs.
	// Env: WORKERS_PRUNE_INTERVAL
	PruneInterval time.Duration `env:"PRUNE_INTERVAL"`
}

// GetStructuredConfig loads, merges, and validates the engine configuration
// from all available sources in the following priority order (first source
// wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
