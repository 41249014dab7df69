package testutils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// TestTime is the instant test clocks start at.
var TestTime = time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)

// OpenTestStore opens a migrated character store under t.TempDir. The store
// is closed when the test ends.
func OpenTestStore(t testing.TB, clk clock.Clock) *character.Store {
	t.Helper()
	if clk == nil {
		clk = clock.NewFixed(TestTime)
	}
	store, err := character.NewSQLite(context.Background(), &character.Config{
		Path:  filepath.Join(t.TempDir(), "advancement.db"),
		Clock: clk,
	})
	require.NoError(t, err, "failed to open sqlite store")
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// LoadTestRulebook loads the bundled rulebook content.
func LoadTestRulebook(t testing.TB) *rulebook.Catalog {
	t.Helper()
	catalog, err := rulebook.New(nil)
	require.NoError(t, err, "failed to load rulebook")
	return catalog
}

// SeedCharacter inserts a bare level 0 character row with default scores
// and no class, for tests that drive state through Tx primitives directly.
func SeedCharacter(t testing.TB, store *character.Store, id string) *dnd5e.Character {
	t.Helper()
	ctx := context.Background()
	c := &dnd5e.Character{
		ID:           id,
		Name:         TestCharacterName,
		RaceID:       "human",
		BackgroundID: "criminal",
	}
	_, err := store.Create(ctx, character.CreateInput{Character: c})
	require.NoError(t, err)

	abilities := make([]dnd5e.CharacterAbility, 0, len(rules.Abilities()))
	for _, a := range rules.Abilities() {
		abilities = append(abilities, dnd5e.CharacterAbility{Ability: a, Value: rules.DefaultAbilityScore})
	}
	require.NoError(t, store.CreateAbilities(ctx, id, abilities))
	return c
}
