package rules

// PrereqMode combines the requirements of a multiclass prerequisite.
type PrereqMode int

// Combination modes.
const (
	PrereqAll PrereqMode = iota + 1
	PrereqAny
)

// AbilityMinimum is a single (ability, minimum score) requirement.
type AbilityMinimum struct {
	Ability Ability
	Minimum int
}

// MulticlassPrerequisite is the set of ability requirements for taking a class
// as a second or later class.
type MulticlassPrerequisite struct {
	Mode         PrereqMode
	Requirements []AbilityMinimum
}

// Satisfied evaluates the prerequisite against scores. Missing abilities count as 0.
func (p MulticlassPrerequisite) Satisfied(scores map[Ability]int) bool {
	if len(p.Requirements) == 0 {
		return true
	}
	for _, req := range p.Requirements {
		met := scores[req.Ability] >= req.Minimum
		if p.Mode == PrereqAny && met {
			return true
		}
		if p.Mode != PrereqAny && !met {
			return false
		}
	}
	return p.Mode != PrereqAny
}

func all(reqs ...AbilityMinimum) MulticlassPrerequisite {
	return MulticlassPrerequisite{Mode: PrereqAll, Requirements: reqs}
}

func anyOf(reqs ...AbilityMinimum) MulticlassPrerequisite {
	return MulticlassPrerequisite{Mode: PrereqAny, Requirements: reqs}
}

func min13(a Ability) AbilityMinimum {
	return AbilityMinimum{Ability: a, Minimum: 13}
}

var multiclassPrereqs = map[string]MulticlassPrerequisite{
	"barbarian": all(min13(Strength)),
	"bard":      all(min13(Charisma)),
	"cleric":    all(min13(Wisdom)),
	"druid":     all(min13(Wisdom)),
	"fighter":   anyOf(min13(Strength), min13(Dexterity)),
	"monk":      all(min13(Dexterity), min13(Wisdom)),
	"paladin":   all(min13(Strength), min13(Charisma)),
	"ranger":    all(min13(Dexterity), min13(Wisdom)),
	"rogue":     all(min13(Dexterity)),
	"sorcerer":  all(min13(Charisma)),
	"warlock":   all(min13(Charisma)),
	"wizard":    all(min13(Intelligence)),
}

// MulticlassPrereq returns the prerequisite for a class id.
func MulticlassPrereq(classID string) (MulticlassPrerequisite, bool) {
	p, ok := multiclassPrereqs[classID]
	return p, ok
}

// MeetsMulticlassPrereq reports whether scores allow multiclassing into classID.
// Classes without a recorded prerequisite are always allowed.
func MeetsMulticlassPrereq(classID string, scores map[Ability]int) bool {
	p, ok := multiclassPrereqs[classID]
	if !ok {
		return true
	}
	return p.Satisfied(scores)
}
