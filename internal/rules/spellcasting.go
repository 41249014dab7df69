package rules

import (
	"sort"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

// Spellcasting table keys. Classes and subclasses reference these from the rulebook.
const (
	SpellcastingBard       = "bard"
	SpellcastingWizard     = "wizard"
	SpellcastingMulticlass = "multiclass"
)

// SpellcastingLevel is one row of a spellcasting progression.
type SpellcastingLevel struct {
	Cantrips int
	// Spells known; zero for prepared casters that learn from a spellbook.
	Spells int
	// Slots[i] is the number of slots of spell level i+1.
	Slots []int
	// ReplaceCount is how many known spells may be swapped on reaching this level.
	ReplaceCount int
}

// MaxSpellLevel is the highest spell level unlocked by this row.
func (r SpellcastingLevel) MaxSpellLevel() int {
	return len(r.Slots)
}

// SlotsFor returns the slot count for a spell level (1-based).
func (r SpellcastingLevel) SlotsFor(spellLevel int) int {
	if spellLevel < 1 || spellLevel > len(r.Slots) {
		return 0
	}
	return r.Slots[spellLevel-1]
}

var fullCasterSlots = [MaxLevel + 1][]int{
	1:  {2},
	2:  {3},
	3:  {4, 2},
	4:  {4, 3},
	5:  {4, 3, 2},
	6:  {4, 3, 3},
	7:  {4, 3, 3, 1},
	8:  {4, 3, 3, 2},
	9:  {4, 3, 3, 3, 1},
	10: {4, 3, 3, 3, 2},
	11: {4, 3, 3, 3, 2, 1},
	12: {4, 3, 3, 3, 2, 1},
	13: {4, 3, 3, 3, 2, 1, 1},
	14: {4, 3, 3, 3, 2, 1, 1},
	15: {4, 3, 3, 3, 2, 1, 1, 1},
	16: {4, 3, 3, 3, 2, 1, 1, 1},
	17: {4, 3, 3, 3, 2, 1, 1, 1, 1},
	18: {4, 3, 3, 3, 3, 1, 1, 1, 1},
	19: {4, 3, 3, 3, 3, 2, 1, 1, 1},
	20: {4, 3, 3, 3, 3, 2, 2, 1, 1},
}

var bardCantrips = [MaxLevel + 1]int{0, 2, 2, 2, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4}
var bardSpells = [MaxLevel + 1]int{0, 4, 5, 6, 7, 8, 9, 10, 11, 12, 14, 15, 15, 16, 18, 19, 19, 20, 22, 22, 22}
var wizardCantrips = [MaxLevel + 1]int{0, 3, 3, 3, 4, 4, 4, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}

var spellcastingTables = map[string]map[int]SpellcastingLevel{
	SpellcastingBard:       buildTable(bardCantrips[:], bardSpells[:], 1),
	SpellcastingWizard:     buildTable(wizardCantrips[:], nil, 0),
	SpellcastingMulticlass: buildTable(nil, nil, 0),
}

func buildTable(cantrips, spells []int, replace int) map[int]SpellcastingLevel {
	table := make(map[int]SpellcastingLevel, MaxLevel)
	for level := 1; level <= MaxLevel; level++ {
		row := SpellcastingLevel{Slots: fullCasterSlots[level]}
		if cantrips != nil {
			row.Cantrips = cantrips[level]
		}
		if spells != nil {
			row.Spells = spells[level]
		}
		if level > 1 {
			row.ReplaceCount = replace
		}
		table[level] = row
	}
	return table
}

// HasSpellcastingTable reports whether key names a known table.
func HasSpellcastingTable(key string) bool {
	_, ok := spellcastingTables[key]
	return ok
}

// SpellcastingTables lists the known table keys, sorted.
func SpellcastingTables() []string {
	keys := make([]string, 0, len(spellcastingTables))
	for k := range spellcastingTables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Spellcasting returns the row for (table, level). A missing table or level
// is an integrity error: rulebook content referenced a row that does not exist.
func Spellcasting(key string, level int) (SpellcastingLevel, error) {
	table, ok := spellcastingTables[key]
	if !ok {
		return SpellcastingLevel{}, errors.Integrityf("unknown spellcasting table %q", key).
			WithMeta("table", key)
	}
	row, ok := table[level]
	if !ok {
		return SpellcastingLevel{}, errors.Integrityf("spellcasting table %q has no row for level %d", key, level).
			WithMeta("table", key).
			WithMeta("level", level)
	}
	row.Slots = append([]int(nil), row.Slots...)
	return row, nil
}
