// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

// Log formats accepted by LOG_FORMAT.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the process configuration
type Config struct {
	DBPath   string `env:"ADVANCEMENT_DB_PATH" envDefault:"advancement.sqlite"`
	GRPCPort int    `env:"ADVANCEMENT_GRPC_PORT" envDefault:"50051"`
	HTTPAddr string `env:"ADVANCEMENT_HTTP_ADDR" envDefault:":8080"`

	RedisAddr      string        `env:"ADVANCEMENT_REDIS_ADDR" envDefault:"localhost:6379"`
	DiceSessionTTL time.Duration `env:"ADVANCEMENT_DICE_SESSION_TTL" envDefault:"15m"`
	SpellsPath     string        `env:"ADVANCEMENT_SPELLS_PATH"`
	DnD5eAPIURL    string        `env:"ADVANCEMENT_DND5E_API_URL" envDefault:"https://www.dnd5eapi.co/api/2014/"`
	WebhookRate    float64       `env:"ADVANCEMENT_WEBHOOK_RATE" envDefault:"5"`
	WebhookBurst   int           `env:"ADVANCEMENT_WEBHOOK_BURST" envDefault:"10"`
	ImportWorkers  int           `env:"ADVANCEMENT_IMPORT_WORKERS" envDefault:"8"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads files (".env" when none are given) into the environment and
// parses the result. Missing files are not an error; variables already set
// in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "failed to read %s", f)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.InvalidArgumentf("parse env: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidateRequired("ADVANCEMENT_DB_PATH", c.DBPath, vb)
	errors.ValidateRequired("ADVANCEMENT_HTTP_ADDR", c.HTTPAddr, vb)
	errors.ValidateRequired("ADVANCEMENT_REDIS_ADDR", c.RedisAddr, vb)
	errors.ValidateRange("ADVANCEMENT_GRPC_PORT", c.GRPCPort, 1, 65535, vb)
	errors.ValidateRange("ADVANCEMENT_WEBHOOK_BURST", c.WebhookBurst, 1, 10000, vb)
	errors.ValidateRange("ADVANCEMENT_IMPORT_WORKERS", c.ImportWorkers, 1, 64, vb)
	if c.DiceSessionTTL <= 0 {
		vb.Field("ADVANCEMENT_DICE_SESSION_TTL", "must be positive")
	}
	if c.WebhookRate <= 0 {
		vb.Field("ADVANCEMENT_WEBHOOK_RATE", "must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		vb.Field("LOG_LEVEL", err.Error())
	}
	errors.ValidateEnum("LOG_FORMAT", strings.ToLower(c.LogFormat), []string{LogFormatText, LogFormatJSON}, vb)

	return vb.Build()
}

// SlogLevel is LogLevel as a slog.Level. Invalid values fall back to Info;
// Validate reports them.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.InvalidArgumentf("unknown level %q", s)
	}
	return level, nil
}
