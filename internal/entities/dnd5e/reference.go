package dnd5e

import "github.com/KirkDiggler/rpg-advancement/internal/rules"

// Skill is a rulebook skill tied to an ability.
type Skill struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Ability rules.Ability `json:"ability"`
}

// Language is a spoken or written language.
type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToolCategory groups tools for proficiency picks.
type ToolCategory int

// Tool categories.
const (
	ToolCategoryOther   ToolCategory = 0
	ToolCategoryArtisan ToolCategory = 5
	ToolCategoryMusical ToolCategory = 10
	ToolCategoryGaming  ToolCategory = 15
)

// Tool is a tool, kit, instrument or gaming set.
type Tool struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category ToolCategory `json:"category"`
}

// Maneuver is a battle master combat maneuver.
type Maneuver struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Recharge describes when a feature's charges come back.
type Recharge int

// Recharge modes.
const (
	RechargeNever     Recharge = 0
	RechargeShortRest Recharge = 10
	RechargeLongRest  Recharge = 20
)

// Feature is a named rule effect granted by a class, subclass, race, subrace or background.
type Feature struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Group       string     `json:"group,omitempty"`
	Stackable   bool       `json:"stackable,omitempty"`
	Recharge    Recharge   `json:"recharge,omitempty"`
	PostAction  PostAction `json:"post_action,omitempty"`
	// LevelTable names a rules level table rendered as an extra class table column.
	LevelTable string `json:"level_table,omitempty"`
	Source     Source `json:"-"`
}

// AdvancementChoice is the catalog entry for a kind of decision.
type AdvancementChoice struct {
	Code       ChoiceCode `json:"code"`
	Name       string     `json:"name"`
	Text       string     `json:"text"`
	Important  bool       `json:"important,omitempty"`
	Rejectable bool       `json:"rejectable,omitempty"`
	// Repeatable choices cycle pending -> selected -> pending instead of being deleted.
	Repeatable bool `json:"repeatable,omitempty"`
	// RequiresReason choices must be enqueued with the class that produced them.
	RequiresReason bool `json:"requires_reason,omitempty"`
}

// AdvanceKind discriminates Advance.
type AdvanceKind string

// Advance kinds.
const (
	AdvanceFeature AdvanceKind = "feature"
	AdvanceChoice  AdvanceKind = "choice"
)

// Advance is one grant on a ClassLevel: either a feature or a choice.
type Advance struct {
	Kind      AdvanceKind `json:"kind"`
	FeatureID string      `json:"feature,omitempty"`
	Choice    ChoiceCode  `json:"choice,omitempty"`
}

// ClassLevel describes what a class or subclass grants at one level.
type ClassLevel struct {
	Owner       Source
	Level       int
	Proficiency int
	Advances    []Advance
}

// ArmorProficiency is an armor category a class grants.
type ArmorProficiency struct {
	Category string `json:"category"`
	// InMulticlass armor is also granted when the class is taken as a multiclass.
	InMulticlass bool `json:"in_multiclass,omitempty"`
}

// MulticlassGrants is what a class adds when taken as a second or later class.
type MulticlassGrants struct {
	Weapons []string     `json:"weapons,omitempty"`
	Choices []ChoiceCode `json:"choices,omitempty"`
}

// Class is a rulebook class.
type Class struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	HitDie                int                `json:"hit_die"`
	SavingThrows          []rules.Ability    `json:"saving_throws"`
	Skills                []string           `json:"skills,omitempty"`
	SkillProficiencyLimit int                `json:"skill_proficiency_limit"`
	Tools                 []string           `json:"tools,omitempty"`
	Armor                 []ArmorProficiency `json:"armor,omitempty"`
	Weapons               []string           `json:"weapons,omitempty"`
	SpellcastingTable     string             `json:"spellcasting_table,omitempty"`
	Multiclass            MulticlassGrants   `json:"multiclass"`
}

// Subclass is an archetype within a parent class.
type Subclass struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ClassID           string `json:"class"`
	SpellcastingTable string `json:"spellcasting_table,omitempty"`
}

// Race is a rulebook race.
type Race struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Languages []string `json:"languages,omitempty"`
	Features  []string `json:"features,omitempty"`
	Subraces  []string `json:"subraces,omitempty"`
}

// Subrace refines a race.
type Subrace struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	RaceID   string   `json:"race"`
	Features []string `json:"features,omitempty"`
}

// Background is a rulebook background, including the personality tables used
// by the background details choice.
type Background struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Skills         []string     `json:"skills,omitempty"`
	Tools          []string     `json:"tools,omitempty"`
	KnownLanguages int          `json:"known_languages,omitempty"`
	Features       []string     `json:"features,omitempty"`
	Choices        []ChoiceCode `json:"choices,omitempty"`
	PathLabel      string       `json:"path_label,omitempty"`
	Paths          []string     `json:"paths,omitempty"`
	Traits         []string     `json:"traits,omitempty"`
	Ideals         []string     `json:"ideals,omitempty"`
	Bonds          []string     `json:"bonds,omitempty"`
	Flaws          []string     `json:"flaws,omitempty"`
}

// Spell is a rulebook spell. Level 0 is a cantrip.
type Spell struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Level         int      `json:"level"`
	School        string   `json:"school,omitempty"`
	Classes       []string `json:"classes,omitempty"`
	CastingTime   string   `json:"casting_time,omitempty"`
	Range         string   `json:"range,omitempty"`
	Duration      string   `json:"duration,omitempty"`
	Ritual        bool     `json:"ritual,omitempty"`
	Concentration bool     `json:"concentration,omitempty"`
}

// IsCantrip reports whether the spell is level 0.
func (s *Spell) IsCantrip() bool {
	return s.Level == 0
}

// HasClass reports whether classID can learn the spell.
func (s *Spell) HasClass(classID string) bool {
	for _, c := range s.Classes {
		if c == classID {
			return true
		}
	}
	return false
}
