package advancement

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
	advancementsvc "github.com/KirkDiggler/rpg-advancement/internal/services/advancement"
)

// origin is the rulebook content a new character is built from.
type origin struct {
	race       *dnd5e.Race
	subrace    *dnd5e.Subrace
	background *dnd5e.Background
	class      *dnd5e.Class
}

// InitializeCharacter creates a level 1 character in one transaction.
func (o *Orchestrator) InitializeCharacter(
	ctx context.Context,
	input *advancementsvc.InitializeCharacterInput,
) (*advancementsvc.InitializeCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("name", strings.TrimSpace(input.Name), vb)
	errors.ValidateRequired("race_id", input.RaceID, vb)
	errors.ValidateRequired("background_id", input.BackgroundID, vb)
	errors.ValidateRequired("class_id", input.ClassID, vb)
	scores := validateScores(input.AbilityScores, vb, true)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	src, err := o.loadOrigin(ctx, input)
	if err != nil {
		return nil, err
	}

	char := &dnd5e.Character{
		ID:           o.idGen.Generate(),
		Name:         strings.TrimSpace(input.Name),
		Age:          input.Age,
		Gender:       input.Gender,
		Alignment:    input.Alignment,
		RaceID:       src.race.ID,
		BackgroundID: src.background.ID,
		Level:        1,
	}
	if src.subrace != nil {
		char.SubraceID = src.subrace.ID
	}

	err = o.mutate(ctx, func(ctx context.Context, tx character.Tx, a *applier) error {
		created, err := tx.Create(ctx, character.CreateInput{Character: char})
		if err != nil {
			return err
		}
		a.bind(created.Character)
		return o.initialize(ctx, tx, a, char.ID, src, scores)
	})
	if err != nil {
		return nil, err
	}

	sheet, err := o.sheet(ctx, char.ID)
	if err != nil {
		return nil, err
	}
	o.publisher.Publish(ctx, rpgtoolkit.Event{
		Type:      rpgtoolkit.EventCharacterInitialized,
		Character: sheet.Character,
		Data:      map[string]any{rpgtoolkit.KeyClassID: src.class.ID},
	})

	slog.Info("character initialized",
		"character_id", char.ID,
		"class_id", src.class.ID,
		"race_id", src.race.ID,
		"background_id", src.background.ID)

	return &advancementsvc.InitializeCharacterOutput{Sheet: sheet}, nil
}

func (o *Orchestrator) loadOrigin(ctx context.Context, input *advancementsvc.InitializeCharacterInput) (*origin, error) {
	race, err := o.rulebook.GetRace(ctx, input.RaceID)
	if err != nil {
		return nil, err
	}
	background, err := o.rulebook.GetBackground(ctx, input.BackgroundID)
	if err != nil {
		return nil, err
	}
	class, err := o.rulebook.GetClass(ctx, input.ClassID)
	if err != nil {
		return nil, err
	}
	src := &origin{race: race, background: background, class: class}

	switch {
	case input.SubraceID != "":
		subrace, err := o.rulebook.GetSubrace(ctx, input.SubraceID)
		if err != nil {
			return nil, err
		}
		if subrace.RaceID != race.ID {
			return nil, errors.NewValidationBuilder().
				Fieldf("subrace_id", "%s is not a subrace of %s", subrace.Name, race.Name).
				Build()
		}
		src.subrace = subrace
	case len(race.Subraces) > 0:
		return nil, errors.NewValidationBuilder().
			Fieldf("subrace_id", "is required for %s", race.Name).
			Build()
	}
	return src, nil
}

func (o *Orchestrator) initialize(
	ctx context.Context,
	tx character.Tx,
	a *applier,
	characterID string,
	src *origin,
	scores map[rules.Ability]int,
) error {
	class := src.class
	classSource := dnd5e.ClassSource{ClassID: class.ID}

	if err := tx.CreateClass(ctx, &dnd5e.CharacterClass{
		ID:          o.idGen.Generate(),
		CharacterID: characterID,
		ClassID:     class.ID,
		Level:       1,
	}); err != nil {
		return err
	}

	abilities := make([]dnd5e.CharacterAbility, 0, len(rules.Abilities()))
	for _, ability := range rules.Abilities() {
		abilities = append(abilities, dnd5e.CharacterAbility{
			Ability:     ability,
			Value:       scores[ability],
			SavingThrow: hasAbility(class.SavingThrows, ability),
		})
	}
	if err := tx.CreateAbilities(ctx, characterID, abilities); err != nil {
		return err
	}

	skills, err := o.rulebook.ListSkills(ctx)
	if err != nil {
		return err
	}
	skillIDs := make([]string, 0, len(skills))
	for _, s := range skills {
		skillIDs = append(skillIDs, s.ID)
	}
	if err := tx.CreateSkills(ctx, characterID, skillIDs); err != nil {
		return err
	}
	if err := tx.SetSkillProficiency(ctx, characterID, src.background.Skills); err != nil {
		return err
	}

	if err := tx.AddLanguages(ctx, characterID, src.race.Languages); err != nil {
		return err
	}

	if err := o.grantOriginFeatures(ctx, tx, a, characterID, src); err != nil {
		return err
	}
	if err := a.ApplyClassLevel(ctx, tx, characterID, classSource, 1); err != nil {
		return err
	}

	if err := tx.AddTools(ctx, characterID, union(src.background.Tools, class.Tools)); err != nil {
		return err
	}
	armor := make([]string, 0, len(class.Armor))
	for _, ap := range class.Armor {
		armor = append(armor, ap.Category)
	}
	if err := tx.AddArmor(ctx, characterID, armor); err != nil {
		return err
	}
	if err := tx.AddWeapons(ctx, characterID, class.Weapons); err != nil {
		return err
	}

	backgroundSource := dnd5e.BackgroundSource{BackgroundID: src.background.ID}
	for _, code := range src.background.Choices {
		if _, err := a.enqueueChoice(ctx, tx, characterID, code, backgroundSource); err != nil {
			return err
		}
	}
	if src.background.KnownLanguages > 0 {
		if _, err := a.enqueueChoice(ctx, tx, characterID, dnd5e.ChoiceBackgroundLanguages, backgroundSource); err != nil {
			return err
		}
	}
	if _, err := a.enqueueChoice(ctx, tx, characterID, dnd5e.ChoiceClassSkills, classSource); err != nil {
		return err
	}
	if _, err := a.enqueueChoice(ctx, tx, characterID, dnd5e.ChoiceBackgroundDetails, backgroundSource); err != nil {
		return err
	}

	if err := tx.CreateDice(ctx, characterID, dnd5e.CharacterDice{
		Type:    dnd5e.DiceHit,
		Dice:    notation.Dice{Count: 1, Sides: class.HitDie},
		Count:   1,
		Maximum: 1,
	}); err != nil {
		return err
	}

	if class.SpellcastingTable != "" {
		if err := tx.SetSpellcastingRules(ctx, characterID, class.SpellcastingTable); err != nil {
			return err
		}
	}
	return nil
}

// grantOriginFeatures grants race, subrace and background features. A
// feature offered by more than one of them is granted once.
func (o *Orchestrator) grantOriginFeatures(ctx context.Context, tx character.Tx, a *applier, characterID string, src *origin) error {
	type grant struct {
		featureID string
		reason    dnd5e.Source
	}
	var grants []grant
	seen := make(map[string]bool)
	add := func(featureIDs []string, reason dnd5e.Source) {
		for _, id := range featureIDs {
			if !seen[id] {
				seen[id] = true
				grants = append(grants, grant{featureID: id, reason: reason})
			}
		}
	}

	add(src.race.Features, dnd5e.RaceSource{RaceID: src.race.ID})
	if src.subrace != nil {
		add(src.subrace.Features, dnd5e.SubraceSource{SubraceID: src.subrace.ID})
	}
	add(src.background.Features, dnd5e.BackgroundSource{BackgroundID: src.background.ID})

	for _, g := range grants {
		if err := a.GrantFeature(ctx, tx, characterID, g.featureID, g.reason); err != nil {
			return err
		}
	}
	return nil
}

// validateScores checks scores and, with fill, defaults missing abilities.
func validateScores(scores map[rules.Ability]int, vb *errors.ValidationBuilder, fill bool) map[rules.Ability]int {
	out := make(map[rules.Ability]int, len(rules.Abilities()))
	for ability, value := range scores {
		field := "ability_scores." + string(ability)
		if !ability.Valid() {
			vb.Field(field, "is not an ability")
			continue
		}
		errors.ValidateRange(field, value, rules.MinAbilityScore, rules.MaxAbilityScore, vb)
		out[ability] = value
	}
	if fill {
		for _, ability := range rules.Abilities() {
			if _, ok := out[ability]; !ok {
				out[ability] = rules.DefaultAbilityScore
			}
		}
	}
	return out
}

func hasAbility(list []rules.Ability, a rules.Ability) bool {
	for _, item := range list {
		if item == a {
			return true
		}
	}
	return false
}

func union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
