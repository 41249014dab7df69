package dnd5e_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

func TestSourceKeyRoundTrip(t *testing.T) {
	sources := []dnd5e.Source{
		dnd5e.ClassSource{ClassID: "bard"},
		dnd5e.SubclassSource{SubclassID: "battle-master"},
		dnd5e.RaceSource{RaceID: "elf"},
		dnd5e.SubraceSource{SubraceID: "high-elf"},
		dnd5e.BackgroundSource{BackgroundID: "criminal"},
	}

	for _, src := range sources {
		key := dnd5e.SourceKey(src)
		parsed, err := dnd5e.ParseSourceKey(key)
		require.NoError(t, err, key)
		assert.Equal(t, src, parsed)
	}

	none, err := dnd5e.ParseSourceKey("")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Equal(t, "", dnd5e.SourceKey(nil))
}

func TestParseSourceKeyInvalid(t *testing.T) {
	for _, key := range []string{"bard", "spell:fireball", "class:"} {
		_, err := dnd5e.ParseSourceKey(key)
		assert.True(t, errors.IsInvalidArgument(err), key)
	}
}

func TestSheetLookups(t *testing.T) {
	sheet := &dnd5e.Sheet{
		Classes: []*dnd5e.CharacterClass{{ClassID: "fighter", SubclassID: "battle-master", Level: 3}},
		Choices: []*dnd5e.PendingChoice{
			{ID: "a", Status: dnd5e.ChoicePending, Choice: dnd5e.AdvancementChoice{Name: "Skills"}},
			{ID: "b", Status: dnd5e.ChoiceSelected, Choice: dnd5e.AdvancementChoice{Name: "Feat", Important: true}},
			{ID: "c", Status: dnd5e.ChoicePending, Choice: dnd5e.AdvancementChoice{Name: "Subclass", Important: true}},
		},
		SpellSlots: []dnd5e.CharacterSpellSlot{{Level: 1}, {Level: 1}, {Level: 2}},
	}

	assert.Equal(t, 3, sheet.Class("fighter").Level)
	assert.Nil(t, sheet.Class("rogue"))
	assert.Equal(t, "fighter", sheet.ClassBySubclass("battle-master").ClassID)
	assert.Equal(t, "c", sheet.BlockingChoice().ID)
	assert.Equal(t, map[int]int{1: 2, 2: 1}, sheet.SlotCounts())
}
