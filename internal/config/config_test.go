package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "advancement.sqlite", cfg.DBPath)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 15*time.Minute, cfg.DiceSessionTTL)
	assert.Equal(t, 5.0, cfg.WebhookRate)
	assert.Equal(t, 10, cfg.WebhookBurst)
	assert.Empty(t, cfg.SpellsPath)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadReadsDotEnvBelowEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"ADVANCEMENT_GRPC_PORT=6000\nADVANCEMENT_DICE_SESSION_TTL=1h\nLOG_LEVEL=debug\n",
	), 0o600))
	t.Setenv("ADVANCEMENT_GRPC_PORT", "7000")
	// godotenv writes straight to the process environment
	t.Cleanup(func() {
		_ = os.Unsetenv("ADVANCEMENT_DICE_SESSION_TTL")
		_ = os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.GRPCPort, "environment wins")
	assert.Equal(t, time.Hour, cfg.DiceSessionTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("unparseable", func(t *testing.T) {
		t.Setenv("ADVANCEMENT_GRPC_PORT", "not-a-port")
		_, err := Load(missing)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env")
	})

	t.Run("out of range", func(t *testing.T) {
		t.Setenv("ADVANCEMENT_GRPC_PORT", "70000")
		t.Setenv("LOG_FORMAT", "xml")
		t.Setenv("LOG_LEVEL", "loud")
		_, err := Load(missing)
		require.Error(t, err)

		fields := errors.ValidationFields(err)
		assert.Contains(t, fields, "ADVANCEMENT_GRPC_PORT")
		assert.Contains(t, fields, "LOG_FORMAT")
		assert.Contains(t, fields, "LOG_LEVEL")
	})
}
