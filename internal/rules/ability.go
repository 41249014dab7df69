package rules

import "strings"

// Ability identifies one of the six ability scores.
type Ability string

// The six abilities, in sheet order.
const (
	Strength     Ability = "strength"
	Dexterity    Ability = "dexterity"
	Constitution Ability = "constitution"
	Intelligence Ability = "intelligence"
	Wisdom       Ability = "wisdom"
	Charisma     Ability = "charisma"
)

// Abilities lists every defined ability in sheet order.
func Abilities() []Ability {
	return []Ability{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}
}

// Valid reports whether a is one of the six abilities.
func (a Ability) Valid() bool {
	for _, known := range Abilities() {
		if a == known {
			return true
		}
	}
	return false
}

// Name is the capitalized display name.
func (a Ability) Name() string {
	if a == "" {
		return ""
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// Score bounds for a single ability.
const (
	MinAbilityScore     = 1
	MaxAbilityScore     = 30
	DefaultAbilityScore = 11
)

// AbilityModifier returns floor((score-10)/2). Go integer division truncates
// toward zero, so odd scores below 10 need the extra step down.
func AbilityModifier(score int) int {
	diff := score - 10
	if diff < 0 && diff%2 != 0 {
		return diff/2 - 1
	}
	return diff / 2
}
