// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config loads the engine configuration from environment variables,
// command-line flags and an optional JSON file, merging the sources with
// mergo (first non-zero value wins) and validating the result.
package config
