// Package config reads CLI configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/born-ml/agents/internal/seed"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config is the CLI configuration.
type Config struct {
	LogLevel   string `env:"POLICYSAVER_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"POLICYSAVER_LOG_FORMAT" envDefault:"console"`
	GlobalSeed int64  `env:"POLICYSAVER_GLOBAL_SEED" envDefault:"12345"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads the first of files that exists. Variables already set
// in the environment win. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
		return nil
	}
	return nil
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	if c.LogFormat != FormatConsole && c.LogFormat != FormatJSON {
		return fmt.Errorf("POLICYSAVER_LOG_FORMAT must be %q or %q, got %q", FormatConsole, FormatJSON, c.LogFormat)
	}
	return nil
}

// Default returns the configuration used when the environment is empty.
func Default() Config {
	return Config{LogLevel: "info", LogFormat: FormatConsole, GlobalSeed: seed.DefaultGlobal}
}
