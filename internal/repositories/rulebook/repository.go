// Package rulebook serves the read-only game content the advancement engine
// reads: classes, subclasses, races, backgrounds, features, choices, spells
// and the class level tables that tie them together.
package rulebook

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
)

// Repository exposes rulebook content. Content never changes at runtime.
type Repository interface {
	// GetClass returns errors.NotFound for unknown classes
	GetClass(ctx context.Context, classID string) (*dnd5e.Class, error)
	ListClasses(ctx context.Context) ([]*dnd5e.Class, error)

	// GetSubclass returns errors.NotFound for unknown subclasses
	GetSubclass(ctx context.Context, subclassID string) (*dnd5e.Subclass, error)
	// ListSubclasses returns the subclasses whose parent is classID.
	ListSubclasses(ctx context.Context, classID string) ([]*dnd5e.Subclass, error)

	GetRace(ctx context.Context, raceID string) (*dnd5e.Race, error)
	ListRaces(ctx context.Context) ([]*dnd5e.Race, error)
	GetSubrace(ctx context.Context, subraceID string) (*dnd5e.Subrace, error)

	GetBackground(ctx context.Context, backgroundID string) (*dnd5e.Background, error)
	ListBackgrounds(ctx context.Context) ([]*dnd5e.Background, error)

	GetFeature(ctx context.Context, featureID string) (*dnd5e.Feature, error)
	// ListFeatures returns features in group; the empty group lists all.
	ListFeatures(ctx context.Context, group string) ([]*dnd5e.Feature, error)

	// GetChoice returns an integrity error when the catalog has no entry for code.
	GetChoice(ctx context.Context, code dnd5e.ChoiceCode) (*dnd5e.AdvancementChoice, error)

	// GetClassLevel returns errors.NotFound when owner grants nothing at level.
	GetClassLevel(ctx context.Context, owner dnd5e.Source, level int) (*dnd5e.ClassLevel, error)
	// ListClassLevels returns every level row of owner in level order.
	ListClassLevels(ctx context.Context, owner dnd5e.Source) ([]*dnd5e.ClassLevel, error)

	ListSkills(ctx context.Context) ([]*dnd5e.Skill, error)
	ListLanguages(ctx context.Context) ([]*dnd5e.Language, error)
	// ListTools returns tools of one category.
	ListTools(ctx context.Context, category dnd5e.ToolCategory) ([]*dnd5e.Tool, error)
	GetTool(ctx context.Context, toolID string) (*dnd5e.Tool, error)
	ListManeuvers(ctx context.Context) ([]*dnd5e.Maneuver, error)

	GetSpell(ctx context.Context, spellID string) (*dnd5e.Spell, error)
	// ListSpells returns spells castable by classID ordered by level then
	// name; the empty classID lists all.
	ListSpells(ctx context.Context, classID string) ([]*dnd5e.Spell, error)
}

// SpellcastingTable returns the spellcasting table that governs a class,
// preferring the subclass table. It returns "" for non-casters.
func SpellcastingTable(ctx context.Context, repo Repository, classID, subclassID string) (string, error) {
	if subclassID != "" {
		sub, err := repo.GetSubclass(ctx, subclassID)
		if err != nil {
			return "", err
		}
		if sub.SpellcastingTable != "" {
			return sub.SpellcastingTable, nil
		}
	}
	class, err := repo.GetClass(ctx, classID)
	if err != nil {
		return "", err
	}
	return class.SpellcastingTable, nil
}
