package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-advancement/internal/config"
	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/advancement"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
)

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg))
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, config.LogFormatJSON) {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// app is the advancement engine wired to its stores.
type app struct {
	cfg         *config.Config
	store       *character.Store
	rulebook    *rulebook.Catalog
	bus         *events.Bus
	publisher   *rpgtoolkit.Publisher
	advancement *advancement.Orchestrator
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	catalog, err := rulebook.New(&rulebook.Config{ExtraFiles: spellFiles(cfg.SpellsPath)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load rulebook")
	}

	store, err := character.NewSQLite(ctx, &character.Config{
		Path:  cfg.DBPath,
		Clock: clock.New(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open character store")
	}

	bus := events.NewBus()
	publisher, err := rpgtoolkit.NewPublisher(bus)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	orchestrator, err := advancement.New(&advancement.Config{
		CharacterRepo: store,
		Rulebook:      catalog,
		Choices:       choices.NewRegistry(),
		Publisher:     publisher,
		IDGenerator:   idgen.NewUUID(""),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:         cfg,
		store:       store,
		rulebook:    catalog,
		bus:         bus,
		publisher:   publisher,
		advancement: orchestrator,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp loads config, opens the engine for the duration of fn and closes it.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("failed to close character store", "error", err)
		}
	}()
	return fn(ctx, a)
}
