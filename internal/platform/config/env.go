package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from PORTAL_* environment variables declared via
// `env` struct tags, e.g.
//
//	IdentityDBPath string `env:"PORTAL_IDENTITY_DB_PATH"`
//
// Tools parse the environment first and let explicit flags override the
// result.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
