// Package testutils provides shared helpers for tests: a migrated sqlite
// character store, the bundled rulebook, miniredis clients and fixtures.
package testutils

import (
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

const (
	// TestCharacterName is the default character name for test fixtures
	TestCharacterName = "Thorin Oakenshield"
)

// AbilityScores returns a full score map with every ability at the default
// value, overridden by overrides.
func AbilityScores(overrides map[rules.Ability]int) map[rules.Ability]int {
	scores := make(map[rules.Ability]int, len(rules.Abilities()))
	for _, a := range rules.Abilities() {
		scores[a] = rules.DefaultAbilityScore
	}
	for a, v := range overrides {
		scores[a] = v
	}
	return scores
}
