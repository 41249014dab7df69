package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
	"github.com/KirkDiggler/rpg-advancement/internal/testutils"
)

func TestParseSelection(t *testing.T) {
	got, err := parseSelection([]string{"skills=stealth, perception", "tools=thieves-tools", "empty="})
	require.NoError(t, err)
	assert.Equal(t, choices.Selection{
		"skills": {"stealth", "perception"},
		"tools":  {"thieves-tools"},
	}, got)

	_, err = parseSelection([]string{"stealth"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestParseScores(t *testing.T) {
	got, err := parseScores(map[string]int{"Strength": 15, "dexterity": 12})
	require.NoError(t, err)
	assert.Equal(t, map[rules.Ability]int{rules.Strength: 15, rules.Dexterity: 12}, got)

	_, err = parseScores(map[string]int{"luck": 10})
	require.Error(t, err)
	assert.Contains(t, errors.ValidationFields(err)["scores"], "is invalid: unknown ability luck")
}

func TestWriteClassTable(t *testing.T) {
	catalog := testutils.LoadTestRulebook(t)
	table, err := rulebook.BuildClassTable(context.Background(), catalog, "rogue", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeClassTable(&buf, table))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, rules.MaxLevel+1)
	assert.Contains(t, lines[0], rules.TableRogueSneakAttack)
	assert.Contains(t, lines[1], "Sneak Attack")
	assert.Contains(t, lines[1], "1d6")
	assert.Contains(t, lines[9], "-")
}
