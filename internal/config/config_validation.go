// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"strings"
	"time"
)

// Engine defaults applied when no source provides a value. The batch ceiling
// of 400 is the cloud record store's documented limit, not a tunable.
const (
	defaultBatchSize         = 400
	defaultSyncInterval      = "5m"
	defaultPruneInterval     = "24h"
	defaultConflictRetention = "720h" // 30 days
	defaultRequestTimeout    = "30s"
	defaultRemoteTimeout     = "15s"
)

func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Sync.BatchSize <= 0 || cfg.Sync.BatchSize > defaultBatchSize {
		cfg.Sync.BatchSize = defaultBatchSize
	}
	if cfg.Sync.ConflictRetention <= 0 {
		cfg.Sync.ConflictRetention = mustDuration(defaultConflictRetention)
	}
	if cfg.Workers.SyncInterval <= 0 {
		cfg.Workers.SyncInterval = mustDuration(defaultSyncInterval)
	}
	if cfg.Workers.PruneInterval <= 0 {
		cfg.Workers.PruneInterval = mustDuration(defaultPruneInterval)
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = mustDuration(defaultRequestTimeout)
	}
	if cfg.Remote.RequestTimeout <= 0 {
		cfg.Remote.RequestTimeout = mustDuration(defaultRemoteTimeout)
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// engine invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Remote.BaseURL == "" {
		return ErrInvalidRemoteConfigs
	}

	return nil
}

// mustDuration parses a compile-time constant duration string. All inputs are
// package constants, so a parse failure is a programming error.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
