package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from the process environment according to its
// `env` struct tags. Server config structs declare MIDGAME_* variables
// this way.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}
