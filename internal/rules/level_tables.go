package rules

import (
	"sort"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

// Named per-level tables that features can attach to a class table column.
const (
	TableRogueSneakAttack = "ROGUE_SNEAK_ATTACK"
)

var levelTables = map[string][MaxLevel + 1]string{
	TableRogueSneakAttack: {"",
		"1d6", "1d6", "2d6", "2d6", "3d6", "3d6", "4d6", "4d6", "5d6", "5d6",
		"6d6", "6d6", "7d6", "7d6", "8d6", "8d6", "9d6", "9d6", "10d6", "10d6",
	},
}

// LevelTable returns the value of a named table at level.
func LevelTable(name string, level int) (string, error) {
	table, ok := levelTables[name]
	if !ok {
		return "", errors.Integrityf("unknown level table %q", name).WithMeta("table", name)
	}
	if level < 1 || level > MaxLevel {
		return "", errors.InvalidArgumentf("level %d out of range 1..%d", level, MaxLevel)
	}
	return table[level], nil
}

// HasLevelTable reports whether name is a known table.
func HasLevelTable(name string) bool {
	_, ok := levelTables[name]
	return ok
}

// LevelTableNames lists the known tables, sorted.
func LevelTableNames() []string {
	names := make([]string, 0, len(levelTables))
	for n := range levelTables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SneakAttack returns the rogue sneak attack dice at a rogue level.
func SneakAttack(level int) (string, error) {
	return LevelTable(TableRogueSneakAttack, level)
}
