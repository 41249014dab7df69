package rules

// MaxLevel is the highest total character level.
const MaxLevel = 20

// ProficiencyBonus returns the bonus for a total character level.
// Levels outside 1..20 are clamped.
func ProficiencyBonus(level int) int {
	switch {
	case level < 1:
		level = 1
	case level > MaxLevel:
		level = MaxLevel
	}
	return 2 + (level-1)/4
}
