package advancement

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	advancementsvc "github.com/KirkDiggler/rpg-advancement/internal/services/advancement"
)

// GrantFeature grants one feature outside of a level-up. Stackable features
// gain a charge on every grant.
func (o *Orchestrator) GrantFeature(
	ctx context.Context,
	input *advancementsvc.GrantFeatureInput,
) (*advancementsvc.GrantFeatureOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	errors.ValidateRequired("feature_id", input.FeatureID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	err := o.mutate(ctx, func(ctx context.Context, tx character.Tx, a *applier) error {
		sheet, err := tx.Sheet(ctx, input.CharacterID)
		if err != nil {
			return err
		}
		a.bind(sheet.Character)
		return a.GrantFeature(ctx, tx, input.CharacterID, input.FeatureID, input.Reason)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("feature granted",
		"character_id", input.CharacterID,
		"feature_id", input.FeatureID,
		"source", dnd5e.SourceKey(input.Reason))

	sheet, err := o.sheet(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	return &advancementsvc.GrantFeatureOutput{
		Feature: sheet.Feature(input.FeatureID),
		Sheet:   sheet,
	}, nil
}
