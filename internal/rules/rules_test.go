package rules_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

func TestAbilityModifier(t *testing.T) {
	examples := map[int]int{10: 0, 11: 0, 8: -1, 20: 5, 7: -2, 1: -5, 30: 10, 9: -1, 15: 2}
	for score, want := range examples {
		assert.Equal(t, want, rules.AbilityModifier(score), "score %d", score)
	}

	for score := rules.MinAbilityScore; score <= rules.MaxAbilityScore; score++ {
		want := int(math.Floor(float64(score-10) / 2))
		assert.Equal(t, want, rules.AbilityModifier(score), "score %d", score)
	}
}

func TestProficiencyBonus(t *testing.T) {
	testCases := []struct {
		level, bonus int
	}{
		{1, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {12, 4}, {13, 5}, {16, 5}, {17, 6}, {20, 6},
		{0, 2}, {25, 6},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.bonus, rules.ProficiencyBonus(tc.level), "level %d", tc.level)
	}
}

func TestSpellcasting(t *testing.T) {
	bard1, err := rules.Spellcasting(rules.SpellcastingBard, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, bard1.Cantrips)
	assert.Equal(t, 4, bard1.Spells)
	assert.Equal(t, []int{2}, bard1.Slots)
	assert.Equal(t, 0, bard1.ReplaceCount)

	bard10, err := rules.Spellcasting(rules.SpellcastingBard, 10)
	require.NoError(t, err)
	assert.Equal(t, 14, bard10.Spells)
	assert.Equal(t, 5, bard10.MaxSpellLevel())
	assert.Equal(t, 1, bard10.ReplaceCount)
	assert.Equal(t, 3, bard10.SlotsFor(2))
	assert.Equal(t, 0, bard10.SlotsFor(6))

	wiz17, err := rules.Spellcasting(rules.SpellcastingWizard, 17)
	require.NoError(t, err)
	assert.Equal(t, 0, wiz17.Spells)
	assert.Equal(t, []int{4, 3, 3, 3, 2, 1, 1, 1, 1}, wiz17.Slots)

	// callers may not mutate the shared table
	wiz17.Slots[0] = 99
	again, _ := rules.Spellcasting(rules.SpellcastingWizard, 17)
	assert.Equal(t, 4, again.Slots[0])
}

func TestSpellcastingSlotsNeverShrink(t *testing.T) {
	for _, key := range rules.SpellcastingTables() {
		prev, err := rules.Spellcasting(key, 1)
		require.NoError(t, err)
		for level := 2; level <= rules.MaxLevel; level++ {
			row, err := rules.Spellcasting(key, level)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(row.Slots), len(prev.Slots), "%s level %d", key, level)
			for i := range prev.Slots {
				assert.GreaterOrEqual(t, row.Slots[i], prev.Slots[i], "%s level %d slot %d", key, level, i+1)
			}
			prev = row
		}
	}
}

func TestSpellcastingMissing(t *testing.T) {
	_, err := rules.Spellcasting("sorcerer", 1)
	assert.True(t, errors.IsIntegrity(err))

	_, err = rules.Spellcasting(rules.SpellcastingBard, 21)
	assert.True(t, errors.IsIntegrity(err))
}

func TestMeetsMulticlassPrereq(t *testing.T) {
	base := func(overrides map[rules.Ability]int) map[rules.Ability]int {
		scores := map[rules.Ability]int{}
		for _, a := range rules.Abilities() {
			scores[a] = 10
		}
		for k, v := range overrides {
			scores[k] = v
		}
		return scores
	}

	testCases := []struct {
		name   string
		class  string
		scores map[rules.Ability]int
		want   bool
	}{
		{"rogue needs dexterity", "rogue", base(map[rules.Ability]int{rules.Strength: 15}), false},
		{"rogue with dexterity", "rogue", base(map[rules.Ability]int{rules.Dexterity: 13}), true},
		{"fighter by strength", "fighter", base(map[rules.Ability]int{rules.Strength: 13}), true},
		{"fighter by dexterity", "fighter", base(map[rules.Ability]int{rules.Dexterity: 14}), true},
		{"fighter neither", "fighter", base(nil), false},
		{"paladin needs both", "paladin", base(map[rules.Ability]int{rules.Strength: 13}), false},
		{"paladin with both", "paladin", base(map[rules.Ability]int{rules.Strength: 13, rules.Charisma: 13}), true},
		{"unknown class", "artificer", base(nil), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rules.MeetsMulticlassPrereq(tc.class, tc.scores))
		})
	}
}

func TestLevelTables(t *testing.T) {
	dice, err := rules.SneakAttack(3)
	require.NoError(t, err)
	assert.Equal(t, "2d6", dice)

	dice, err = rules.LevelTable(rules.TableRogueSneakAttack, 20)
	require.NoError(t, err)
	assert.Equal(t, "10d6", dice)

	_, err = rules.LevelTable("MONK_MARTIAL_ARTS", 1)
	assert.True(t, errors.IsIntegrity(err))

	_, err = rules.SneakAttack(0)
	assert.True(t, errors.IsInvalidArgument(err))

	assert.Equal(t, []string{rules.TableRogueSneakAttack}, rules.LevelTableNames())
}
