// Package advancement implements the advancement orchestrator: character
// initialization, level-ups, multiclassing and the pending-choice queue.
// Every mutation runs in one character store transaction and its events are
// published once that transaction commits.
package advancement

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
	advancementsvc "github.com/KirkDiggler/rpg-advancement/internal/services/advancement"
)

// Config holds the dependencies for the advancement orchestrator
type Config struct {
	CharacterRepo character.Repository
	Rulebook      rulebook.Repository
	Choices       *choices.Registry
	Publisher     *rpgtoolkit.Publisher
	IDGenerator   idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.Rulebook == nil {
		vb.RequiredField("Rulebook")
	}
	if c.Choices == nil {
		vb.RequiredField("Choices")
	}
	if c.Publisher == nil {
		vb.RequiredField("Publisher")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

// Orchestrator implements the advancement.Service interface
type Orchestrator struct {
	characterRepo character.Repository
	rulebook      rulebook.Repository
	choices       *choices.Registry
	publisher     *rpgtoolkit.Publisher
	idGen         idgen.Generator
	postActions   map[dnd5e.PostAction]postAction
}

// New creates a new advancement orchestrator
func New(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Orchestrator{
		characterRepo: cfg.CharacterRepo,
		rulebook:      cfg.Rulebook,
		choices:       cfg.Choices,
		publisher:     cfg.Publisher,
		idGen:         cfg.IDGenerator,
		postActions:   newPostActions(),
	}, nil
}

// Ensure Orchestrator implements the Service interface
var _ advancementsvc.Service = (*Orchestrator)(nil)

// mutate runs fn in one transaction and publishes the applier's events only
// if it commits.
func (o *Orchestrator) mutate(ctx context.Context, fn func(ctx context.Context, tx character.Tx, a *applier) error) error {
	a := o.newApplier()
	if err := o.characterRepo.InTx(ctx, func(ctx context.Context, tx character.Tx) error {
		return fn(ctx, tx, a)
	}); err != nil {
		return err
	}
	o.publisher.Publish(ctx, a.events...)
	return nil
}

// sheet loads the committed sheet of a character.
func (o *Orchestrator) sheet(ctx context.Context, characterID string) (*dnd5e.Sheet, error) {
	out, err := o.characterRepo.Get(ctx, character.GetInput{ID: characterID})
	if err != nil {
		return nil, err
	}
	return out.Sheet, nil
}
