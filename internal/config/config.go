// Package config loads iontrap settings from defaults, an optional YAML file
// and IONTRAP_* environment variables, in that order of precedence (lowest
// first).
package config

import (
	"fmt"

	"github.com/roach88/iontrap/internal/logging"
	"github.com/roach88/iontrap/internal/verifier"
)

// Config is the full set of runtime settings.
type Config struct {
	Log    logging.Config `koanf:"log"`
	Store  StoreConfig    `koanf:"store"`
	Verify VerifyConfig   `koanf:"verify"`
	Router RouterConfig   `koanf:"router"`
}

// StoreConfig points at the run log. An empty path disables persistence.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// VerifyConfig controls the fidelity check after a successful verification.
type VerifyConfig struct {
	Threshold float64 `koanf:"threshold"`
	Strict    bool    `koanf:"strict"`
}

// RouterConfig bounds the router. Zero keeps the router default.
type RouterConfig struct {
	MaxFrames int `koanf:"max_frames"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Log:    logging.DefaultConfig(),
		Verify: VerifyConfig{Threshold: verifier.DefaultThreshold},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Verify.Threshold == 0 {
		cfg.Verify.Threshold = def.Verify.Threshold
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Verify.Threshold < 0 || c.Verify.Threshold > 1 {
		return fmt.Errorf("verify.threshold %v outside [0, 1]", c.Verify.Threshold)
	}
	if c.Router.MaxFrames < 0 {
		return fmt.Errorf("router.max_frames must not be negative, got %d", c.Router.MaxFrames)
	}
	return nil
}
