// Package character persists character progression state: the identity row
// plus every per-character record the advancement engine derives.
package character

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// Repository is the entry point for character storage.
type Repository interface {
	// Create inserts the identity row.
	// Returns errors.InvalidArgument for missing fields
	// Returns errors.AlreadyExists if the ID is taken
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get loads the full sheet.
	// Returns errors.NotFound if the character doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// List returns identity rows ordered by name.
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// Delete removes a character and every derived record.
	// Returns errors.NotFound if the character doesn't exist
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// InTx runs fn inside one transaction. Any error rolls everything back.
	// Calling InTx on a Tx joins the surrounding transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of mutation primitives available inside a transaction.
// Counter changes are relative updates executed by the database.
type Tx interface {
	Repository

	Sheet(ctx context.Context, characterID string) (*dnd5e.Sheet, error)

	IncrementCharacterLevel(ctx context.Context, characterID string, by int) error
	SetSpellcastingRules(ctx context.Context, characterID, key string) error

	CreateAbilities(ctx context.Context, characterID string, abilities []dnd5e.CharacterAbility) error
	SetSavingThrow(ctx context.Context, characterID string, ability rules.Ability) error
	IncreaseAbility(ctx context.Context, characterID string, ability rules.Ability, by int) error
	SetAbilityScore(ctx context.Context, characterID string, ability rules.Ability, value int) error

	CreateSkills(ctx context.Context, characterID string, skillIDs []string) error
	SetSkillProficiency(ctx context.Context, characterID string, skillIDs []string) error
	SetSkillCompetence(ctx context.Context, characterID string, skillIDs []string) error

	AddLanguages(ctx context.Context, characterID string, languageIDs []string) error
	AddArmor(ctx context.Context, characterID string, categories []string) error
	AddWeapons(ctx context.Context, characterID string, weapons []string) error
	// AddTools ignores tools the character already has.
	AddTools(ctx context.Context, characterID string, toolIDs []string) error
	SetToolCompetence(ctx context.Context, characterID, toolID string) error

	// GrantFeature creates the feature row, or for stackable features
	// increments MaxCharges of an existing one. Reports whether a row was created.
	GrantFeature(ctx context.Context, characterID, featureID string, stackable bool) (bool, error)
	DeleteFeatures(ctx context.Context, characterID string, featureIDs []string) error

	// CreateClass returns errors.AlreadyExists if the character has the class.
	CreateClass(ctx context.Context, class *dnd5e.CharacterClass) error
	IncrementClassLevel(ctx context.Context, characterID, classID string) error
	SetSubclass(ctx context.Context, characterID, classID, subclassID string) error

	EnqueueChoice(ctx context.Context, choice *dnd5e.PendingChoice) error
	// EnsureChoice is get-or-create by (character, code, reason). An existing
	// selected choice is flipped back to pending. Reports whether a row was created.
	EnsureChoice(ctx context.Context, choice *dnd5e.PendingChoice) (bool, error)
	// CompleteChoice deletes the choice, or marks it selected when repeatable.
	CompleteChoice(ctx context.Context, characterID, choiceID string, repeatable bool) error

	// CreateDice returns errors.AlreadyExists if a pool of that type exists.
	CreateDice(ctx context.Context, characterID string, pool dnd5e.CharacterDice) error
	IncrementDice(ctx context.Context, characterID string, diceType dnd5e.DiceType, by int) error
	SetDice(ctx context.Context, characterID string, diceType dnd5e.DiceType, dice notation.Dice) error

	CountSpellSlots(ctx context.Context, characterID string) (map[int]int, error)
	AddSpellSlots(ctx context.Context, characterID string, spellLevel, count int) error

	AddKnownSpells(ctx context.Context, characterID string, spellIDs []string) error
	RemoveKnownSpells(ctx context.Context, characterID string, spellIDs []string) error
	SetKnownSpells(ctx context.Context, characterID string, spellIDs []string) error

	AddManeuvers(ctx context.Context, characterID string, maneuverIDs []string) error
	RemoveManeuvers(ctx context.Context, characterID string, maneuverIDs []string) error
	SetManeuvers(ctx context.Context, characterID string, maneuverIDs []string) error

	SetBackgroundDetails(ctx context.Context, characterID string, details dnd5e.BackgroundDetails) error
}

// CreateInput defines the input for creating a character
type CreateInput struct {
	Character *dnd5e.Character
}

// CreateOutput defines the output for creating a character
type CreateOutput struct {
	Character *dnd5e.Character
}

// GetInput defines the input for getting a character
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting a character
type GetOutput struct {
	Sheet *dnd5e.Sheet
}

// ListInput defines the input for listing characters
type ListInput struct {
	// RaceID optionally filters by race.
	RaceID string
}

// ListOutput defines the output for listing characters
type ListOutput struct {
	Characters []*dnd5e.Character
}

// DeleteInput defines the input for deleting a character
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the output for deleting a character
type DeleteOutput struct{}
