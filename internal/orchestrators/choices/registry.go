package choices

import (
	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

// Registry maps every choice code to its handler. It is built once and
// never modified, so it is safe for concurrent use.
type Registry struct {
	handlers map[dnd5e.ChoiceCode]Handler
}

// NewRegistry returns the registry of the closed handler set.
func NewRegistry() *Registry {
	handlers := []Handler{
		&toolProficiency{code: dnd5e.ChoiceToolGamingSet, category: dnd5e.ToolCategoryGaming},
		&toolProficiency{code: dnd5e.ChoiceToolMusical, category: dnd5e.ToolCategoryMusical},
		&toolProficiency{code: dnd5e.ChoiceToolArtisan, category: dnd5e.ToolCategoryArtisan},
		&fightingStyle{},
		&subclassPick{code: dnd5e.ChoiceMartialArchetype, classID: dnd5e.ClassFighter},
		&subclassPick{code: dnd5e.ChoiceRoguishArchetype, classID: dnd5e.ClassRogue},
		&subclassPick{code: dnd5e.ChoiceBardCollege, classID: dnd5e.ClassBard},
		&rogueExpertise{},
		&mastermindIntrigue{},
		&expertise{},
		&maneuverPick{},
		&maneuverUpgrade{code: dnd5e.ChoiceManeuversUpgrade, addDie: true},
		&maneuverUpgrade{code: dnd5e.ChoiceManeuversImprove},
		&abilityIncrease{},
		&classSkills{},
		&backgroundLanguages{},
		&backgroundDetails{},
		&skillProficiency{},
		&knownSpells{},
		&replaceSpells{},
		&appendSpells{},
		&appendSpells{cantrips: true},
	}

	r := &Registry{handlers: make(map[dnd5e.ChoiceCode]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Code()] = h
	}
	return r
}

// Lookup returns the handler for code. A code without a handler is an
// integrity error.
func (r *Registry) Lookup(code dnd5e.ChoiceCode) (Handler, error) {
	h, ok := r.handlers[code]
	if !ok {
		return nil, errors.Integrityf("no handler for choice %s", code).
			WithMeta("choice_code", string(code))
	}
	return h, nil
}
