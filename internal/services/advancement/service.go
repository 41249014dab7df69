// Package advancement defines the interface for character advancement:
// creation, level-ups, multiclassing and the pending-choice queue.
package advancement

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// Service defines the interface for advancement operations
type Service interface {
	// Character lifecycle
	InitializeCharacter(ctx context.Context, input *InitializeCharacterInput) (*InitializeCharacterOutput, error)
	GetCharacter(ctx context.Context, input *GetCharacterInput) (*GetCharacterOutput, error)
	ListCharacters(ctx context.Context, input *ListCharactersInput) (*ListCharactersOutput, error)
	SetAbilityScores(ctx context.Context, input *SetAbilityScoresInput) (*SetAbilityScoresOutput, error)

	// Progression
	GrantFeature(ctx context.Context, input *GrantFeatureInput) (*GrantFeatureOutput, error)
	LevelUpClass(ctx context.Context, input *LevelUpClassInput) (*LevelUpClassOutput, error)
	InitializeMulticlass(ctx context.Context, input *InitializeMulticlassInput) (*InitializeMulticlassOutput, error)
	ListMulticlassOptions(ctx context.Context, input *ListMulticlassOptionsInput) (*ListMulticlassOptionsOutput, error)

	// Pending choices
	ListChoices(ctx context.Context, input *ListChoicesInput) (*ListChoicesOutput, error)
	GetChoiceForm(ctx context.Context, input *GetChoiceFormInput) (*GetChoiceFormOutput, error)
	ResolveChoice(ctx context.Context, input *ResolveChoiceInput) (*ResolveChoiceOutput, error)
	RejectChoice(ctx context.Context, input *RejectChoiceInput) (*RejectChoiceOutput, error)
}

// Character lifecycle types

// InitializeCharacterInput defines the request for creating a level 1 character
type InitializeCharacterInput struct {
	Name         string
	Age          int
	Gender       string
	Alignment    string
	RaceID       string
	SubraceID    string // Required when the race has subraces
	BackgroundID string
	ClassID      string
	// AbilityScores missing an ability default to rules.DefaultAbilityScore.
	AbilityScores map[rules.Ability]int
}

// InitializeCharacterOutput defines the response for creating a character
type InitializeCharacterOutput struct {
	Sheet *dnd5e.Sheet
}

// GetCharacterInput defines the request for getting a character
type GetCharacterInput struct {
	CharacterID string
}

// GetCharacterOutput defines the response for getting a character
type GetCharacterOutput struct {
	Sheet *dnd5e.Sheet
	// ProficiencyBonus is derived from the total level.
	ProficiencyBonus int
}

// ListCharactersInput defines the request for listing characters
type ListCharactersInput struct {
	RaceID string // Optional filter
}

// ListCharactersOutput defines the response for listing characters
type ListCharactersOutput struct {
	Characters []*dnd5e.Character
}

// SetAbilityScoresInput defines the request for overwriting ability scores
type SetAbilityScoresInput struct {
	CharacterID string
	Scores      map[rules.Ability]int
}

// SetAbilityScoresOutput defines the response for overwriting ability scores
type SetAbilityScoresOutput struct {
	Sheet *dnd5e.Sheet
}

// Progression types

// GrantFeatureInput defines the request for granting a feature
type GrantFeatureInput struct {
	CharacterID string
	FeatureID   string
	// Reason is passed to the feature's post action.
	Reason dnd5e.Source
}

// GrantFeatureOutput defines the response for granting a feature
type GrantFeatureOutput struct {
	Feature *dnd5e.CharacterFeature
	Sheet   *dnd5e.Sheet
}

// LevelUpClassInput defines the request for leveling one class
type LevelUpClassInput struct {
	CharacterID string
	ClassID     string
}

// LevelUpClassOutput defines the response for leveling one class
type LevelUpClassOutput struct {
	Class *dnd5e.CharacterClass
	Sheet *dnd5e.Sheet
}

// InitializeMulticlassInput defines the request for taking a new class
type InitializeMulticlassInput struct {
	CharacterID string
	ClassID     string
}

// InitializeMulticlassOutput defines the response for taking a new class
type InitializeMulticlassOutput struct {
	Class *dnd5e.CharacterClass
	Sheet *dnd5e.Sheet
}

// ListMulticlassOptionsInput defines the request for listing multiclass options
type ListMulticlassOptionsInput struct {
	CharacterID string
}

// MulticlassOption reports whether a class can be taken next.
type MulticlassOption struct {
	Class     *dnd5e.Class
	Available bool
	// Reason is an errors.Reason* value when not available.
	Reason string
}

// ListMulticlassOptionsOutput defines the response for listing multiclass options
type ListMulticlassOptionsOutput struct {
	Options []*MulticlassOption
}

// Pending choice types

// ListChoicesInput defines the request for listing pending choices
type ListChoicesInput struct {
	CharacterID string
}

// ListChoicesOutput defines the response for listing pending choices
type ListChoicesOutput struct {
	// Choices are ordered important first.
	Choices []*dnd5e.PendingChoice
}

// GetChoiceFormInput defines the request for rendering a choice
type GetChoiceFormInput struct {
	CharacterID string
	ChoiceID    string
}

// GetChoiceFormOutput defines the response for rendering a choice
type GetChoiceFormOutput struct {
	Choice *dnd5e.PendingChoice
	Form   *choices.Form
}

// ResolveChoiceInput defines the request for resolving a choice
type ResolveChoiceInput struct {
	CharacterID string
	ChoiceID    string
	Selection   choices.Selection
}

// ResolveChoiceOutput defines the response for resolving a choice
type ResolveChoiceOutput struct {
	Sheet *dnd5e.Sheet
}

// RejectChoiceInput defines the request for rejecting a choice
type RejectChoiceInput struct {
	CharacterID string
	ChoiceID    string
}

// RejectChoiceOutput defines the response for rejecting a choice
type RejectChoiceOutput struct{}
