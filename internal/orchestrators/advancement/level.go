package advancement

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
	advancementsvc "github.com/KirkDiggler/rpg-advancement/internal/services/advancement"
)

// LevelUpClass raises one of the character's classes by a level.
func (o *Orchestrator) LevelUpClass(
	ctx context.Context,
	input *advancementsvc.LevelUpClassInput,
) (*advancementsvc.LevelUpClassOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	errors.ValidateRequired("class_id", input.ClassID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	var level int
	err := o.mutate(ctx, func(ctx context.Context, tx character.Tx, a *applier) error {
		sheet, err := tx.Sheet(ctx, input.CharacterID)
		if err != nil {
			return err
		}
		a.bind(sheet.Character)

		class := sheet.Class(input.ClassID)
		if class == nil {
			return errors.NotFoundf("character %s has no class %s", input.CharacterID, input.ClassID).
				WithMeta("character_id", input.CharacterID)
		}
		level, err = a.levelUp(ctx, tx, sheet, class)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("class leveled",
		"character_id", input.CharacterID,
		"class_id", input.ClassID,
		"level", level)

	sheet, err := o.sheet(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	return &advancementsvc.LevelUpClassOutput{
		Class: sheet.Class(input.ClassID),
		Sheet: sheet,
	}, nil
}

// InitializeMulticlass adds a new class at level 1.
func (o *Orchestrator) InitializeMulticlass(
	ctx context.Context,
	input *advancementsvc.InitializeMulticlassInput,
) (*advancementsvc.InitializeMulticlassOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	errors.ValidateRequired("class_id", input.ClassID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	class, err := o.rulebook.GetClass(ctx, input.ClassID)
	if err != nil {
		return nil, err
	}

	err = o.mutate(ctx, func(ctx context.Context, tx character.Tx, a *applier) error {
		sheet, err := tx.Sheet(ctx, input.CharacterID)
		if err != nil {
			return err
		}
		a.bind(sheet.Character)

		if reason := multiclassBlocker(sheet, class); reason != "" {
			return multiclassError(input.CharacterID, class, reason)
		}

		cc := &dnd5e.CharacterClass{
			ID:          o.idGen.Generate(),
			CharacterID: input.CharacterID,
			ClassID:     class.ID,
		}
		if err := tx.CreateClass(ctx, cc); err != nil {
			return err
		}
		if _, err := a.levelUp(ctx, tx, sheet, cc); err != nil {
			return err
		}

		var armor []string
		for _, ap := range class.Armor {
			if ap.InMulticlass {
				armor = append(armor, ap.Category)
			}
		}
		if err := tx.AddArmor(ctx, input.CharacterID, armor); err != nil {
			return err
		}
		if err := tx.AddWeapons(ctx, input.CharacterID, class.Multiclass.Weapons); err != nil {
			return err
		}
		reason := dnd5e.ClassSource{ClassID: class.ID}
		for _, code := range class.Multiclass.Choices {
			if _, err := a.enqueueChoice(ctx, tx, input.CharacterID, code, reason); err != nil {
				return err
			}
		}

		a.emit(rpgtoolkit.EventMulticlassAdded, map[string]any{rpgtoolkit.KeyClassID: class.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("multiclass added",
		"character_id", input.CharacterID,
		"class_id", class.ID)

	sheet, err := o.sheet(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	return &advancementsvc.InitializeMulticlassOutput{
		Class: sheet.Class(class.ID),
		Sheet: sheet,
	}, nil
}

// ListMulticlassOptions reports which rulebook classes the character can take.
func (o *Orchestrator) ListMulticlassOptions(
	ctx context.Context,
	input *advancementsvc.ListMulticlassOptionsInput,
) (*advancementsvc.ListMulticlassOptionsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument("character ID is required")
	}

	sheet, err := o.sheet(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	classes, err := o.rulebook.ListClasses(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]*advancementsvc.MulticlassOption, 0, len(classes))
	for _, class := range classes {
		reason := multiclassBlocker(sheet, class)
		options = append(options, &advancementsvc.MulticlassOption{
			Class:     class,
			Available: reason == "",
			Reason:    reason,
		})
	}
	return &advancementsvc.ListMulticlassOptionsOutput{Options: options}, nil
}

// multiclassBlocker returns the reason class cannot be added, or "".
// Only the new class's prerequisite is checked.
func multiclassBlocker(sheet *dnd5e.Sheet, class *dnd5e.Class) string {
	switch {
	case sheet.Class(class.ID) != nil:
		return errors.ReasonClassAlreadyTaken
	case sheet.Character.Level >= rules.MaxLevel:
		return errors.ReasonLevelCap
	case !rules.MeetsMulticlassPrereq(class.ID, sheet.AbilityScores()):
		return errors.ReasonMulticlassPrerequisite
	default:
		return ""
	}
}

func multiclassError(characterID string, class *dnd5e.Class, reason string) error {
	var msg string
	switch reason {
	case errors.ReasonClassAlreadyTaken:
		msg = "character already has class %s"
	case errors.ReasonLevelCap:
		msg = "character cannot gain a level in %s past the level cap"
	default:
		msg = "character does not meet the multiclass prerequisite of %s"
	}
	return errors.Preconditionf(reason, msg, class.Name).
		WithMeta("character_id", characterID).
		WithMeta("class_id", class.ID)
}
