package dnd5e

import (
	"time"

	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// Character is the identity row of a player character. Derived progression
// state lives in the per-character records aggregated by Sheet.
type Character struct {
	ID           string
	Name         string
	Age          int
	Gender       string
	Alignment    string
	RaceID       string
	SubraceID    string
	BackgroundID string
	// Level is the total level, the sum of all CharacterClass levels.
	Level int
	// SpellcastingRules is the spellcasting table key of the first class, if any.
	SpellcastingRules string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CharacterClass is one class a character has taken.
type CharacterClass struct {
	ID          string
	CharacterID string
	ClassID     string
	SubclassID  string
	Level       int
}

// CharacterAbility is a character's score in one ability.
type CharacterAbility struct {
	Ability     rules.Ability
	Value       int
	SavingThrow bool
}

// Modifier is the ability modifier of the current value.
func (a CharacterAbility) Modifier() int {
	return rules.AbilityModifier(a.Value)
}

// CharacterSkill tracks proficiency and competence in one skill.
type CharacterSkill struct {
	SkillID     string
	Proficiency bool
	// Competence doubles the proficiency bonus.
	Competence bool
}

// CharacterTool is a tool proficiency.
type CharacterTool struct {
	ToolID     string
	Competence bool
}

// CharacterFeature records a granted feature. Stackable features count
// grants in MaxCharges.
type CharacterFeature struct {
	FeatureID   string
	MaxCharges  int
	UsedCharges int
}

// DiceType names a character dice pool.
type DiceType string

// Dice pool types.
const (
	DiceHit         DiceType = "hit"
	DiceSuperiority DiceType = "superiority"
)

// CharacterDice is a resource pool such as hit dice. At most one pool per type.
type CharacterDice struct {
	Type    DiceType
	Dice    notation.Dice
	Count   int
	Maximum int
}

// Starting battle master superiority dice.
const (
	SuperiorityDieSides  = 8
	SuperiorityDiceCount = 4
)

// NewSuperiorityPool returns the pool granted with combat superiority.
func NewSuperiorityPool() CharacterDice {
	return CharacterDice{
		Type:    DiceSuperiority,
		Dice:    notation.Dice{Count: 1, Sides: SuperiorityDieSides},
		Count:   SuperiorityDiceCount,
		Maximum: SuperiorityDiceCount,
	}
}

// CharacterSpellSlot is one independently spendable spell slot.
type CharacterSpellSlot struct {
	ID    int64
	Level int
	Spent bool
}

// ChoiceStatus is the queue state of a pending choice.
type ChoiceStatus string

// Choice states. Selected applies to repeatable choices only.
const (
	ChoicePending  ChoiceStatus = "pending"
	ChoiceSelected ChoiceStatus = "selected"
)

// PendingChoice is a character's queued advancement decision.
type PendingChoice struct {
	ID          string
	CharacterID string
	Choice      AdvancementChoice
	// Reason is the class or subclass that produced the choice, when known.
	Reason    Source
	Status    ChoiceStatus
	CreatedAt time.Time
}

// BackgroundDetails are the personality picks made for the background.
type BackgroundDetails struct {
	Path  string
	Trait string
	Ideal string
	Bond  string
	Flaw  string
}

// Sheet is the full progression state of one character.
type Sheet struct {
	Character         *Character
	Classes           []*CharacterClass
	Abilities         []CharacterAbility
	Skills            []CharacterSkill
	Tools             []CharacterTool
	Languages         []string
	Armor             []string
	Weapons           []string
	Features          []CharacterFeature
	Dice              []CharacterDice
	SpellSlots        []CharacterSpellSlot
	KnownSpells       []string
	KnownManeuvers    []string
	Choices           []*PendingChoice
	BackgroundDetails *BackgroundDetails
}

// Class returns the character's class row for classID, or nil.
func (s *Sheet) Class(classID string) *CharacterClass {
	for _, c := range s.Classes {
		if c.ClassID == classID {
			return c
		}
	}
	return nil
}

// ClassBySubclass returns the class row whose subclass is subclassID, or nil.
func (s *Sheet) ClassBySubclass(subclassID string) *CharacterClass {
	for _, c := range s.Classes {
		if c.SubclassID == subclassID {
			return c
		}
	}
	return nil
}

// ClassFor returns the class row a class or subclass source refers to, or
// nil for other sources.
func (s *Sheet) ClassFor(reason Source) *CharacterClass {
	switch r := reason.(type) {
	case ClassSource:
		return s.Class(r.ClassID)
	case SubclassSource:
		return s.ClassBySubclass(r.SubclassID)
	default:
		return nil
	}
}

// AbilityScores maps each ability to its current value.
func (s *Sheet) AbilityScores() map[rules.Ability]int {
	scores := make(map[rules.Ability]int, len(s.Abilities))
	for _, a := range s.Abilities {
		scores[a.Ability] = a.Value
	}
	return scores
}

// Skill returns the skill record for skillID, or nil.
func (s *Sheet) Skill(skillID string) *CharacterSkill {
	for i := range s.Skills {
		if s.Skills[i].SkillID == skillID {
			return &s.Skills[i]
		}
	}
	return nil
}

// Tool returns the tool proficiency for toolID, or nil.
func (s *Sheet) Tool(toolID string) *CharacterTool {
	for i := range s.Tools {
		if s.Tools[i].ToolID == toolID {
			return &s.Tools[i]
		}
	}
	return nil
}

// Feature returns the feature record for featureID, or nil.
func (s *Sheet) Feature(featureID string) *CharacterFeature {
	for i := range s.Features {
		if s.Features[i].FeatureID == featureID {
			return &s.Features[i]
		}
	}
	return nil
}

// DicePool returns the pool of type t, or nil.
func (s *Sheet) DicePool(t DiceType) *CharacterDice {
	for i := range s.Dice {
		if s.Dice[i].Type == t {
			return &s.Dice[i]
		}
	}
	return nil
}

// Choice returns the pending choice with id, or nil.
func (s *Sheet) Choice(id string) *PendingChoice {
	for _, c := range s.Choices {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// BlockingChoice returns the first pending important choice, or nil.
func (s *Sheet) BlockingChoice() *PendingChoice {
	for _, c := range s.Choices {
		if c.Status == ChoicePending && c.Choice.Important {
			return c
		}
	}
	return nil
}

// SlotCounts returns the number of spell slots per spell level.
func (s *Sheet) SlotCounts() map[int]int {
	counts := make(map[int]int)
	for _, slot := range s.SpellSlots {
		counts[slot.Level]++
	}
	return counts
}

// HasLanguage reports whether the character speaks languageID.
func (s *Sheet) HasLanguage(languageID string) bool {
	return contains(s.Languages, languageID)
}

// KnowsSpell reports whether spellID is known.
func (s *Sheet) KnowsSpell(spellID string) bool {
	return contains(s.KnownSpells, spellID)
}

// KnowsManeuver reports whether maneuverID is known.
func (s *Sheet) KnowsManeuver(maneuverID string) bool {
	return contains(s.KnownManeuvers, maneuverID)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
