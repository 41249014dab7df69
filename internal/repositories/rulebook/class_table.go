package rulebook

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// ClassTableRow is one level of a class table.
type ClassTableRow struct {
	Level            int
	ProficiencyBonus int
	// Features are display names, class features before subclass features.
	Features []string
	// Columns holds one value per ClassTable.Columns entry; "" before the
	// feature that introduces the column is granted.
	Columns []string
}

// ClassTable is the printable progression of a class, optionally merged with
// one of its subclasses.
type ClassTable struct {
	Class    *dnd5e.Class
	Subclass *dnd5e.Subclass
	// Columns are the level tables named by granted features, in grant order.
	Columns []string
	Rows    []*ClassTableRow
}

// BuildClassTable renders levels 1..rules.MaxLevel of classID. A non-empty
// subclassID must belong to the class.
func BuildClassTable(ctx context.Context, repo Repository, classID, subclassID string) (*ClassTable, error) {
	class, err := repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	owners := []dnd5e.Source{dnd5e.ClassSource{ClassID: class.ID}}
	table := &ClassTable{Class: class}
	if subclassID != "" {
		sub, err := repo.GetSubclass(ctx, subclassID)
		if err != nil {
			return nil, err
		}
		if sub.ClassID != class.ID {
			return nil, errors.InvalidArgumentf("subclass %s does not belong to %s", sub.ID, class.ID)
		}
		table.Subclass = sub
		owners = append(owners, dnd5e.SubclassSource{SubclassID: sub.ID})
	}

	byLevel := make(map[int][]dnd5e.Advance)
	for _, owner := range owners {
		levels, err := repo.ListClassLevels(ctx, owner)
		if err != nil {
			return nil, err
		}
		for _, cl := range levels {
			byLevel[cl.Level] = append(byLevel[cl.Level], cl.Advances...)
		}
	}

	since := make(map[string]int)
	for level := 1; level <= rules.MaxLevel; level++ {
		row := &ClassTableRow{
			Level:            level,
			ProficiencyBonus: rules.ProficiencyBonus(level),
		}
		for _, adv := range byLevel[level] {
			if adv.Kind != dnd5e.AdvanceFeature {
				continue
			}
			feature, err := repo.GetFeature(ctx, adv.FeatureID)
			if err != nil {
				return nil, err
			}
			row.Features = append(row.Features, feature.Name)
			if feature.LevelTable != "" {
				if _, ok := since[feature.LevelTable]; !ok {
					since[feature.LevelTable] = level
					table.Columns = append(table.Columns, feature.LevelTable)
				}
			}
		}
		table.Rows = append(table.Rows, row)
	}

	for _, row := range table.Rows {
		row.Columns = make([]string, len(table.Columns))
		for i, name := range table.Columns {
			if row.Level < since[name] {
				continue
			}
			value, err := rules.LevelTable(name, row.Level)
			if err != nil {
				return nil, err
			}
			row.Columns[i] = value
		}
	}

	return table, nil
}
