// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from the process environment. The mapping lives in the
// `env` tags on [StructuredConfig] and its nested sections (SYNC_*, REMOTE_*
// and so on); fields without a matching variable keep their zero value so the
// builder can merge other sources over them.
func parseEnv(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
