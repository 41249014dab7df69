package character

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

const characterColumns = `id, name, age, gender, alignment, race_id, subrace_id,
	background_id, level, spellcasting_rules, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row scanner) (*dnd5e.Character, error) {
	var (
		c                dnd5e.Character
		created, updated int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Age, &c.Gender, &c.Alignment, &c.RaceID, &c.SubraceID,
		&c.BackgroundID, &c.Level, &c.SpellcastingRules, &created, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return &c, nil
}

// Sheet loads the identity row and every derived record.
func (s *Store) Sheet(ctx context.Context, characterID string) (*dnd5e.Sheet, error) {
	if characterID == "" {
		return nil, errors.InvalidArgument("character ID cannot be empty")
	}

	c, err := scanCharacter(s.q.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = ?`, characterID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, characterNotFound(characterID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load character")
	}

	sheet := &dnd5e.Sheet{Character: c}
	loaders := []func(context.Context, *dnd5e.Sheet) error{
		s.loadClasses,
		s.loadAbilities,
		s.loadSkills,
		s.loadTools,
		s.loadStrings(`SELECT language_id FROM character_languages WHERE character_id = ? ORDER BY language_id`,
			func(sh *dnd5e.Sheet, v []string) { sh.Languages = v }),
		s.loadStrings(`SELECT category FROM character_armor WHERE character_id = ? ORDER BY category`,
			func(sh *dnd5e.Sheet, v []string) { sh.Armor = v }),
		s.loadStrings(`SELECT weapon FROM character_weapons WHERE character_id = ? ORDER BY weapon`,
			func(sh *dnd5e.Sheet, v []string) { sh.Weapons = v }),
		s.loadFeatures,
		s.loadDice,
		s.loadSpellSlots,
		s.loadStrings(`SELECT spell_id FROM character_known_spells WHERE character_id = ? ORDER BY spell_id`,
			func(sh *dnd5e.Sheet, v []string) { sh.KnownSpells = v }),
		s.loadStrings(`SELECT maneuver_id FROM character_maneuvers WHERE character_id = ? ORDER BY maneuver_id`,
			func(sh *dnd5e.Sheet, v []string) { sh.KnownManeuvers = v }),
		s.loadChoices,
		s.loadBackgroundDetails,
	}
	for _, load := range loaders {
		if err := load(ctx, sheet); err != nil {
			return nil, err
		}
	}

	return sheet, nil
}

// each runs scan over every row of query.
func (s *Store) each(ctx context.Context, query, characterID string, scan func(scanner) error) error {
	rows, err := s.q.QueryContext(ctx, query, characterID)
	if err != nil {
		return errors.Wrap(err, "failed to query character records")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate character records")
	}
	return nil
}

func (s *Store) loadStrings(query string, set func(*dnd5e.Sheet, []string)) func(context.Context, *dnd5e.Sheet) error {
	return func(ctx context.Context, sheet *dnd5e.Sheet) error {
		var values []string
		err := s.each(ctx, query, sheet.Character.ID, func(row scanner) error {
			var v string
			if err := row.Scan(&v); err != nil {
				return errors.Wrap(err, "failed to scan value")
			}
			values = append(values, v)
			return nil
		})
		if err != nil {
			return err
		}
		set(sheet, values)
		return nil
	}
}

func (s *Store) loadClasses(ctx context.Context, sheet *dnd5e.Sheet) error {
	return s.each(ctx,
		`SELECT id, character_id, class_id, subclass_id, level FROM character_classes
		 WHERE character_id = ? ORDER BY rowid`,
		sheet.Character.ID, func(row scanner) error {
			var c dnd5e.CharacterClass
			if err := row.Scan(&c.ID, &c.CharacterID, &c.ClassID, &c.SubclassID, &c.Level); err != nil {
				return errors.Wrap(err, "failed to scan class")
			}
			sheet.Classes = append(sheet.Classes, &c)
			return nil
		})
}

func (s *Store) loadAbilities(ctx context.Context, sheet *dnd5e.Sheet) error {
	byAbility := make(map[rules.Ability]dnd5e.CharacterAbility)
	err := s.each(ctx,
		`SELECT ability, value, saving_throw FROM character_abilities WHERE character_id = ?`,
		sheet.Character.ID, func(row scanner) error {
			var (
				a       dnd5e.CharacterAbility
				ability string
			)
			if err := row.Scan(&ability, &a.Value, &a.SavingThrow); err != nil {
				return errors.Wrap(err, "failed to scan ability")
			}
			a.Ability = rules.Ability(ability)
			byAbility[a.Ability] = a
			return nil
		})
	if err != nil {
		return err
	}

	// Canonical STR..CHA order.
	for _, ability := range rules.Abilities() {
		if a, ok := byAbility[ability]; ok {
			sheet.Abilities = append(sheet.Abilities, a)
		}
	}
	return nil
}

func (s *Store) loadSkills(ctx context.Context, sheet *dnd5e.Sheet) error {
	return s.each(ctx,
		`SELECT skill_id, proficiency, competence FROM character_skills WHERE character_id = ? ORDER BY skill_id`,
		sheet.Character.ID, func(row scanner) error {
			var sk dnd5e.CharacterSkill
			if err := row.Scan(&sk.SkillID, &sk.Proficiency, &sk.Competence); err != nil {
				return errors.Wrap(err, "failed to scan skill")
			}
			sheet.Skills = append(sheet.Skills, sk)
			return nil
		})
}

func (s *Store) loadTools(ctx context.Context, sheet *dnd5e.Sheet) error {
	return s.each(ctx,
		`SELECT tool_id, competence FROM character_tools WHERE character_id = ? ORDER BY tool_id`,
		sheet.Character.ID, func(row scanner) error {
			var t dnd5e.CharacterTool
			if err := row.Scan(&t.ToolID, &t.Competence); err != nil {
				return errors.Wrap(err, "failed to scan tool")
			}
			sheet.Tools = append(sheet.Tools, t)
			return nil
		})
}

func (s *Store) loadFeatures(ctx context.Context, sheet *dnd5e.Sheet) error {
	return s.each(ctx,
		`SELECT feature_id, max_charges, used_charges FROM character_features
		 WHERE character_id = ? ORDER BY rowid`,
		sheet.Character.ID, func(row scanner) error {
			var f dnd5e.CharacterFeature
			if err := row.Scan(&f.FeatureID, &f.MaxCharges, &f.UsedCharges); err != nil {
				return errors.Wrap(err, "failed to scan feature")
			}
			sheet.Features = append(sheet.Features, f)
			return nil
		})
}

func (s *Store) loadDice(ctx context.Context, sheet *dnd5e.Sheet) error {
	return s.each(ctx,
		`SELECT dice_type, dice, count, maximum FROM character_dice WHERE character_id = ? ORDER BY dice_type`,
		sheet.Character.ID, func(row scanner) error {
			var (
				d          dnd5e.CharacterDice
				diceType   string
				expression string
			)
			if err := row.Scan(&diceType, &expression, &d.Count, &d.Maximum); err != nil {
				return errors.Wrap(err, "failed to scan dice")
			}
			parsed, err := notation.Parse(expression)
			if err != nil {
				return errors.Integrityf("stored %s dice %q is not valid notation", diceType, expression).
					WithMeta("character_id", sheet.Character.ID)
			}
			d.Type = dnd5e.DiceType(diceType)
			d.Dice = parsed
			sheet.Dice = append(sheet.Dice, d)
			return nil
		})
}

func (s *Store) loadSpellSlots(ctx context.Context, sheet *dnd5e.Sheet) error {
	return s.each(ctx,
		`SELECT id, level, spent FROM character_spell_slots WHERE character_id = ? ORDER BY level, id`,
		sheet.Character.ID, func(row scanner) error {
			var slot dnd5e.CharacterSpellSlot
			if err := row.Scan(&slot.ID, &slot.Level, &slot.Spent); err != nil {
				return errors.Wrap(err, "failed to scan spell slot")
			}
			sheet.SpellSlots = append(sheet.SpellSlots, slot)
			return nil
		})
}

// loadChoices returns the queue ordered important-first, then by name.
func (s *Store) loadChoices(ctx context.Context, sheet *dnd5e.Sheet) error {
	return s.each(ctx,
		`SELECT id, character_id, code, name, text, important, rejectable, repeatable,
		        requires_reason, reason, status, created_at
		 FROM character_choices WHERE character_id = ?
		 ORDER BY important DESC, name, created_at, id`,
		sheet.Character.ID, func(row scanner) error {
			var (
				pc                   dnd5e.PendingChoice
				code, reason, status string
				created              int64
			)
			if err := row.Scan(&pc.ID, &pc.CharacterID, &code, &pc.Choice.Name, &pc.Choice.Text,
				&pc.Choice.Important, &pc.Choice.Rejectable, &pc.Choice.Repeatable,
				&pc.Choice.RequiresReason, &reason, &status, &created); err != nil {
				return errors.Wrap(err, "failed to scan choice")
			}
			source, err := dnd5e.ParseSourceKey(reason)
			if err != nil {
				return errors.Integrityf("choice %s has invalid reason %q", pc.ID, reason)
			}
			pc.Choice.Code = dnd5e.ChoiceCode(code)
			pc.Reason = source
			pc.Status = dnd5e.ChoiceStatus(status)
			pc.CreatedAt = fromMillis(created)
			sheet.Choices = append(sheet.Choices, &pc)
			return nil
		})
}

func (s *Store) loadBackgroundDetails(ctx context.Context, sheet *dnd5e.Sheet) error {
	var d dnd5e.BackgroundDetails
	err := s.q.QueryRowContext(ctx,
		`SELECT path, trait, ideal, bond, flaw FROM character_background_details WHERE character_id = ?`,
		sheet.Character.ID).Scan(&d.Path, &d.Trait, &d.Ideal, &d.Bond, &d.Flaw)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return errors.Wrap(err, "failed to load background details")
	}
	sheet.BackgroundDetails = &d
	return nil
}
