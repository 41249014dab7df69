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

func (s *Store) touch(ctx context.Context, characterID string) error {
	res, err := s.q.ExecContext(ctx, `UPDATE characters SET updated_at = ? WHERE id = ?`,
		toMillis(s.clock.Now()), characterID)
	if err != nil {
		return errors.Wrap(err, "failed to touch character")
	}
	return expectAffected(res, characterNotFound(characterID))
}

// IncrementCharacterLevel adds by to the total level.
func (s *Store) IncrementCharacterLevel(ctx context.Context, characterID string, by int) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE characters SET level = level + ?, updated_at = ? WHERE id = ?`,
		by, toMillis(s.clock.Now()), characterID)
	if err != nil {
		return errors.Wrap(err, "failed to increment character level")
	}
	return expectAffected(res, characterNotFound(characterID))
}

// SetSpellcastingRules records the spellcasting table the character follows.
func (s *Store) SetSpellcastingRules(ctx context.Context, characterID, key string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE characters SET spellcasting_rules = ?, updated_at = ? WHERE id = ?`,
		key, toMillis(s.clock.Now()), characterID)
	if err != nil {
		return errors.Wrap(err, "failed to set spellcasting rules")
	}
	return expectAffected(res, characterNotFound(characterID))
}

// CreateAbilities inserts the six ability rows.
func (s *Store) CreateAbilities(ctx context.Context, characterID string, abilities []dnd5e.CharacterAbility) error {
	for _, a := range abilities {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO character_abilities (character_id, ability, value, saving_throw) VALUES (?, ?, ?, ?)`,
			characterID, string(a.Ability), a.Value, a.SavingThrow); err != nil {
			if isUniqueViolation(err) {
				return errors.AlreadyExistsf("ability %s already exists", a.Ability).
					WithMeta("character_id", characterID)
			}
			return errors.Wrapf(err, "failed to create ability %s", a.Ability)
		}
	}
	return nil
}

// SetSavingThrow marks the ability's saving throw as proficient.
func (s *Store) SetSavingThrow(ctx context.Context, characterID string, ability rules.Ability) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE character_abilities SET saving_throw = 1 WHERE character_id = ? AND ability = ?`,
		characterID, string(ability))
	if err != nil {
		return errors.Wrap(err, "failed to set saving throw")
	}
	return expectAffected(res, errors.NotFoundf("ability %s not found", ability).
		WithMeta("character_id", characterID))
}

// IncreaseAbility adds by to an ability without crossing the maximum score.
func (s *Store) IncreaseAbility(ctx context.Context, characterID string, ability rules.Ability, by int) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE character_abilities SET value = value + ?
		 WHERE character_id = ? AND ability = ? AND value + ? <= ?`,
		by, characterID, string(ability), by, rules.MaxAbilityScore)
	if err != nil {
		return errors.Wrap(err, "failed to increase ability")
	}
	return expectAffected(res, errors.InvalidArgumentf("%s cannot be increased by %d", ability, by).
		WithMeta("character_id", characterID))
}

// SetAbilityScore overwrites an ability value.
func (s *Store) SetAbilityScore(ctx context.Context, characterID string, ability rules.Ability, value int) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE character_abilities SET value = ? WHERE character_id = ? AND ability = ?`,
		value, characterID, string(ability))
	if err != nil {
		return errors.Wrap(err, "failed to set ability score")
	}
	return expectAffected(res, errors.NotFoundf("ability %s not found", ability).
		WithMeta("character_id", characterID))
}

// CreateSkills inserts non-proficient rows for each skill.
func (s *Store) CreateSkills(ctx context.Context, characterID string, skillIDs []string) error {
	for _, id := range skillIDs {
		if _, err := s.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO character_skills (character_id, skill_id) VALUES (?, ?)`,
			characterID, id); err != nil {
			return errors.Wrapf(err, "failed to create skill %s", id)
		}
	}
	return nil
}

// SetSkillProficiency marks skills as proficient, creating missing rows.
func (s *Store) SetSkillProficiency(ctx context.Context, characterID string, skillIDs []string) error {
	for _, id := range skillIDs {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO character_skills (character_id, skill_id, proficiency) VALUES (?, ?, 1)
			 ON CONFLICT (character_id, skill_id) DO UPDATE SET proficiency = 1`,
			characterID, id); err != nil {
			return errors.Wrapf(err, "failed to set proficiency for %s", id)
		}
	}
	return nil
}

// SetSkillCompetence marks existing skill rows as competent.
func (s *Store) SetSkillCompetence(ctx context.Context, characterID string, skillIDs []string) error {
	for _, id := range skillIDs {
		res, err := s.q.ExecContext(ctx,
			`UPDATE character_skills SET competence = 1 WHERE character_id = ? AND skill_id = ?`,
			characterID, id)
		if err != nil {
			return errors.Wrapf(err, "failed to set competence for %s", id)
		}
		if err := expectAffected(res, errors.NotFoundf("skill %s not found", id)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertIgnore(ctx context.Context, table, column, characterID string, values []string) error {
	for _, v := range values {
		if _, err := s.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` (character_id, `+column+`) VALUES (?, ?)`,
			characterID, v); err != nil {
			return errors.Wrapf(err, "failed to insert into %s", table)
		}
	}
	return nil
}

func (s *Store) deleteValues(ctx context.Context, table, column, characterID string, values []string) error {
	for _, v := range values {
		if _, err := s.q.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE character_id = ? AND `+column+` = ?`,
			characterID, v); err != nil {
			return errors.Wrapf(err, "failed to delete from %s", table)
		}
	}
	return nil
}

func (s *Store) replaceValues(ctx context.Context, table, column, characterID string, values []string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE character_id = ?`, characterID); err != nil {
		return errors.Wrapf(err, "failed to clear %s", table)
	}
	return s.insertIgnore(ctx, table, column, characterID, values)
}

// AddLanguages adds languages, ignoring known ones.
func (s *Store) AddLanguages(ctx context.Context, characterID string, languageIDs []string) error {
	return s.insertIgnore(ctx, "character_languages", "language_id", characterID, languageIDs)
}

// AddArmor adds armor proficiencies.
func (s *Store) AddArmor(ctx context.Context, characterID string, categories []string) error {
	return s.insertIgnore(ctx, "character_armor", "category", characterID, categories)
}

// AddWeapons adds weapon proficiencies.
func (s *Store) AddWeapons(ctx context.Context, characterID string, weapons []string) error {
	return s.insertIgnore(ctx, "character_weapons", "weapon", characterID, weapons)
}

// AddTools adds tool proficiencies.
func (s *Store) AddTools(ctx context.Context, characterID string, toolIDs []string) error {
	return s.insertIgnore(ctx, "character_tools", "tool_id", characterID, toolIDs)
}

// SetToolCompetence marks a tool as competent, granting it if missing.
func (s *Store) SetToolCompetence(ctx context.Context, characterID, toolID string) error {
	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO character_tools (character_id, tool_id, competence) VALUES (?, ?, 1)
		 ON CONFLICT (character_id, tool_id) DO UPDATE SET competence = 1`,
		characterID, toolID); err != nil {
		return errors.Wrapf(err, "failed to set competence for tool %s", toolID)
	}
	return nil
}

// GrantFeature inserts the feature or bumps the charges of a stackable one.
func (s *Store) GrantFeature(ctx context.Context, characterID, featureID string, stackable bool) (bool, error) {
	charges := 0
	if stackable {
		charges = 1
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO character_features (character_id, feature_id, max_charges) VALUES (?, ?, ?)`,
		characterID, featureID, charges)
	if err != nil {
		return false, errors.Wrapf(err, "failed to grant feature %s", featureID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	if n > 0 {
		return true, nil
	}
	if !stackable {
		return false, nil
	}

	if _, err := s.q.ExecContext(ctx,
		`UPDATE character_features SET max_charges = max_charges + 1 WHERE character_id = ? AND feature_id = ?`,
		characterID, featureID); err != nil {
		return false, errors.Wrapf(err, "failed to stack feature %s", featureID)
	}
	return false, nil
}

// DeleteFeatures removes feature rows.
func (s *Store) DeleteFeatures(ctx context.Context, characterID string, featureIDs []string) error {
	return s.deleteValues(ctx, "character_features", "feature_id", characterID, featureIDs)
}

// CreateClass inserts a class row.
func (s *Store) CreateClass(ctx context.Context, class *dnd5e.CharacterClass) error {
	if class == nil {
		return errors.InvalidArgument("class cannot be nil")
	}
	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO character_classes (id, character_id, class_id, subclass_id, level) VALUES (?, ?, ?, ?, ?)`,
		class.ID, class.CharacterID, class.ClassID, class.SubclassID, class.Level); err != nil {
		if isUniqueViolation(err) {
			return errors.AlreadyExistsf("character already has class %s", class.ClassID).
				WithMeta("character_id", class.CharacterID)
		}
		return errors.Wrap(err, "failed to create class")
	}
	return s.touch(ctx, class.CharacterID)
}

// IncrementClassLevel adds one level to the class.
func (s *Store) IncrementClassLevel(ctx context.Context, characterID, classID string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE character_classes SET level = level + 1 WHERE character_id = ? AND class_id = ?`,
		characterID, classID)
	if err != nil {
		return errors.Wrap(err, "failed to increment class level")
	}
	return expectAffected(res, errors.NotFoundf("class %s not found", classID).
		WithMeta("character_id", characterID))
}

// SetSubclass records the subclass of an existing class.
func (s *Store) SetSubclass(ctx context.Context, characterID, classID, subclassID string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE character_classes SET subclass_id = ? WHERE character_id = ? AND class_id = ?`,
		subclassID, characterID, classID)
	if err != nil {
		return errors.Wrap(err, "failed to set subclass")
	}
	return expectAffected(res, errors.NotFoundf("class %s not found", classID).
		WithMeta("character_id", characterID))
}

func (s *Store) insertChoice(ctx context.Context, choice *dnd5e.PendingChoice) error {
	status := choice.Status
	if status == "" {
		status = dnd5e.ChoicePending
	}
	createdAt := choice.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}
	c := choice.Choice

	if _, err := s.q.ExecContext(ctx, `INSERT INTO character_choices (
		id, character_id, code, name, text, important, rejectable, repeatable,
		requires_reason, reason, status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		choice.ID, choice.CharacterID, string(c.Code), c.Name, c.Text,
		c.Important, c.Rejectable, c.Repeatable, c.RequiresReason,
		dnd5e.SourceKey(choice.Reason), string(status), toMillis(createdAt),
	); err != nil {
		if isUniqueViolation(err) {
			return errors.AlreadyExistsf("choice %s already exists", choice.ID)
		}
		return errors.Wrap(err, "failed to enqueue choice")
	}
	return nil
}

// EnqueueChoice appends a pending choice.
func (s *Store) EnqueueChoice(ctx context.Context, choice *dnd5e.PendingChoice) error {
	if choice == nil {
		return errors.InvalidArgument("choice cannot be nil")
	}
	return s.insertChoice(ctx, choice)
}

// EnsureChoice returns true when a new row was inserted.
func (s *Store) EnsureChoice(ctx context.Context, choice *dnd5e.PendingChoice) (bool, error) {
	if choice == nil {
		return false, errors.InvalidArgument("choice cannot be nil")
	}

	var id, status string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, status FROM character_choices
		 WHERE character_id = ? AND code = ? AND reason = ? ORDER BY created_at LIMIT 1`,
		choice.CharacterID, string(choice.Choice.Code), dnd5e.SourceKey(choice.Reason)).Scan(&id, &status)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return true, s.insertChoice(ctx, choice)
	case err != nil:
		return false, errors.Wrap(err, "failed to look up choice")
	}

	if dnd5e.ChoiceStatus(status) == dnd5e.ChoiceSelected {
		if _, err := s.q.ExecContext(ctx,
			`UPDATE character_choices SET status = ? WHERE id = ?`,
			string(dnd5e.ChoicePending), id); err != nil {
			return false, errors.Wrap(err, "failed to reopen choice")
		}
	}
	choice.ID = id
	return false, nil
}

// CompleteChoice removes the choice or parks a repeatable one as selected.
func (s *Store) CompleteChoice(ctx context.Context, characterID, choiceID string, repeatable bool) error {
	var (
		res sql.Result
		err error
	)
	if repeatable {
		res, err = s.q.ExecContext(ctx,
			`UPDATE character_choices SET status = ? WHERE character_id = ? AND id = ?`,
			string(dnd5e.ChoiceSelected), characterID, choiceID)
	} else {
		res, err = s.q.ExecContext(ctx,
			`DELETE FROM character_choices WHERE character_id = ? AND id = ?`,
			characterID, choiceID)
	}
	if err != nil {
		return errors.Wrap(err, "failed to complete choice")
	}
	return expectAffected(res, errors.NotFoundf("choice %s not found", choiceID).
		WithMeta("character_id", characterID))
}

// CreateDice inserts a dice pool.
func (s *Store) CreateDice(ctx context.Context, characterID string, pool dnd5e.CharacterDice) error {
	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO character_dice (character_id, dice_type, dice, count, maximum) VALUES (?, ?, ?, ?, ?)`,
		characterID, string(pool.Type), pool.Dice.String(), pool.Count, pool.Maximum); err != nil {
		if isUniqueViolation(err) {
			return errors.AlreadyExistsf("%s dice already exist", pool.Type).
				WithMeta("character_id", characterID)
		}
		return errors.Wrap(err, "failed to create dice")
	}
	return nil
}

// IncrementDice adds by to both count and maximum of a pool.
func (s *Store) IncrementDice(ctx context.Context, characterID string, diceType dnd5e.DiceType, by int) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE character_dice SET count = count + ?, maximum = maximum + ? WHERE character_id = ? AND dice_type = ?`,
		by, by, characterID, string(diceType))
	if err != nil {
		return errors.Wrap(err, "failed to increment dice")
	}
	return expectAffected(res, errors.NotFoundf("%s dice not found", diceType).
		WithMeta("character_id", characterID))
}

// SetDice changes the die of a pool, keeping its counts.
func (s *Store) SetDice(ctx context.Context, characterID string, diceType dnd5e.DiceType, dice notation.Dice) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE character_dice SET dice = ? WHERE character_id = ? AND dice_type = ?`,
		dice.String(), characterID, string(diceType))
	if err != nil {
		return errors.Wrap(err, "failed to set dice")
	}
	return expectAffected(res, errors.NotFoundf("%s dice not found", diceType).
		WithMeta("character_id", characterID))
}

// CountSpellSlots returns slot totals per spell level.
func (s *Store) CountSpellSlots(ctx context.Context, characterID string) (map[int]int, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT level, COUNT(*) FROM character_spell_slots WHERE character_id = ? GROUP BY level`,
		characterID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count spell slots")
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int]int)
	for rows.Next() {
		var level, n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan spell slot count")
		}
		counts[level] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate spell slots")
	}
	return counts, nil
}

// AddSpellSlots inserts count unspent slots of spellLevel.
func (s *Store) AddSpellSlots(ctx context.Context, characterID string, spellLevel, count int) error {
	for i := 0; i < count; i++ {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO character_spell_slots (character_id, level) VALUES (?, ?)`,
			characterID, spellLevel); err != nil {
			return errors.Wrapf(err, "failed to add level %d spell slot", spellLevel)
		}
	}
	return nil
}

// AddKnownSpells adds spells to the known list.
func (s *Store) AddKnownSpells(ctx context.Context, characterID string, spellIDs []string) error {
	return s.insertIgnore(ctx, "character_known_spells", "spell_id", characterID, spellIDs)
}

// RemoveKnownSpells removes spells from the known list.
func (s *Store) RemoveKnownSpells(ctx context.Context, characterID string, spellIDs []string) error {
	return s.deleteValues(ctx, "character_known_spells", "spell_id", characterID, spellIDs)
}

// SetKnownSpells replaces the known list.
func (s *Store) SetKnownSpells(ctx context.Context, characterID string, spellIDs []string) error {
	return s.replaceValues(ctx, "character_known_spells", "spell_id", characterID, spellIDs)
}

// AddManeuvers adds maneuvers to the known list.
func (s *Store) AddManeuvers(ctx context.Context, characterID string, maneuverIDs []string) error {
	return s.insertIgnore(ctx, "character_maneuvers", "maneuver_id", characterID, maneuverIDs)
}

// RemoveManeuvers removes maneuvers from the known list.
func (s *Store) RemoveManeuvers(ctx context.Context, characterID string, maneuverIDs []string) error {
	return s.deleteValues(ctx, "character_maneuvers", "maneuver_id", characterID, maneuverIDs)
}

// SetManeuvers replaces the known maneuvers.
func (s *Store) SetManeuvers(ctx context.Context, characterID string, maneuverIDs []string) error {
	return s.replaceValues(ctx, "character_maneuvers", "maneuver_id", characterID, maneuverIDs)
}

// SetBackgroundDetails upserts the personality picks.
func (s *Store) SetBackgroundDetails(ctx context.Context, characterID string, details dnd5e.BackgroundDetails) error {
	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO character_background_details (character_id, path, trait, ideal, bond, flaw)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (character_id) DO UPDATE SET
		   path = excluded.path, trait = excluded.trait, ideal = excluded.ideal,
		   bond = excluded.bond, flaw = excluded.flaw`,
		characterID, details.Path, details.Trait, details.Ideal, details.Bond, details.Flaw); err != nil {
		return errors.Wrap(err, "failed to set background details")
	}
	return nil
}
