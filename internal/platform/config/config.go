// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime knob. Zero values are never used directly; Load
// and Default both fill the envDefault values.
type Config struct {
	ListenAddr string `env:"DRILL_LISTEN_ADDR" envDefault:":8080"`
	DBPath     string `env:"DRILL_DB_PATH" envDefault:"drill.db"`
	GameID     string `env:"DRILL_GAME_ID" envDefault:"default"`
	Seed       uint64 `env:"DRILL_SEED" envDefault:"0"` // 0 picks a random seed

	TickRate       time.Duration `env:"DRILL_TICK_RATE" envDefault:"100ms"`
	SnapshotEvery  time.Duration `env:"DRILL_SNAPSHOT_EVERY" envDefault:"30s"`
	RaidCheckEvery int64         `env:"DRILL_RAID_CHECK_EVERY" envDefault:"600"`
	NarrativeEvery int           `env:"DRILL_NARRATIVE_EVERY" envDefault:"300"`
	MaxIntegrity   float64       `env:"DRILL_MAX_INTEGRITY" envDefault:"100"`

	ClientSendBuffer int `env:"DRILL_CLIENT_SEND_BUFFER" envDefault:"256"`
	MaxClients       int `env:"DRILL_MAX_CLIENTS" envDefault:"64"`
	ActionBuffer     int `env:"DRILL_ACTION_BUFFER" envDefault:"64"`

	OTelEndpoint string `env:"DRILL_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"DRILL_OTEL_ENABLED" envDefault:"true"`

	NarratorProvider string  `env:"DRILL_NARRATOR_PROVIDER" envDefault:"openai"` // openai or anthropic
	NarratorModel    string  `env:"DRILL_NARRATOR_MODEL"`
	NarratorBudget   float64 `env:"DRILL_NARRATOR_BUDGET_USD" envDefault:"1.0"` // per day
	OpenAIKey        string  `env:"OPENAI_API_KEY"`
	AnthropicKey     string  `env:"ANTHROPIC_API_KEY"`
}

// Load reads an optional .env file and then parses the environment.
func Load(dotenv ...string) (Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Default returns the envDefault values without reading the environment.
func Default() Config {
	var cfg Config
	// Parsing against an empty environment only applies defaults and cannot fail.
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %s", c.TickRate)
	}
	if c.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot interval must not be negative, got %s", c.SnapshotEvery)
	}
	if c.RaidCheckEvery < 0 || c.NarrativeEvery < 0 {
		return errors.New("cadences must not be negative")
	}
	if c.MaxIntegrity <= 0 {
		return fmt.Errorf("max integrity must be positive, got %f", c.MaxIntegrity)
	}
	if c.ClientSendBuffer <= 0 || c.MaxClients <= 0 || c.ActionBuffer <= 0 {
		return errors.New("buffers and client limit must be positive")
	}
	return nil
}

// NarratorKey returns the API key for the configured provider.
func (c Config) NarratorKey() string {
	if c.NarratorProvider == "anthropic" {
		return c.AnthropicKey
	}
	return c.OpenAIKey
}

// NarratorEnabled reports whether the LLM narrator has credentials.
func (c Config) NarratorEnabled() bool {
	return c.NarratorKey() != ""
}
