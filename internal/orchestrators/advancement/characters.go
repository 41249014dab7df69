package advancement

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
	advancementsvc "github.com/KirkDiggler/rpg-advancement/internal/services/advancement"
)

// GetCharacter loads a character sheet.
func (o *Orchestrator) GetCharacter(
	ctx context.Context,
	input *advancementsvc.GetCharacterInput,
) (*advancementsvc.GetCharacterOutput, error) {
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
	return &advancementsvc.GetCharacterOutput{
		Sheet:            sheet,
		ProficiencyBonus: rules.ProficiencyBonus(sheet.Character.Level),
	}, nil
}

// ListCharacters lists characters, optionally by race.
func (o *Orchestrator) ListCharacters(
	ctx context.Context,
	input *advancementsvc.ListCharactersInput,
) (*advancementsvc.ListCharactersOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.characterRepo.List(ctx, character.ListInput{RaceID: input.RaceID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list characters")
	}
	return &advancementsvc.ListCharactersOutput{Characters: out.Characters}, nil
}

// SetAbilityScores overwrites the given ability scores.
func (o *Orchestrator) SetAbilityScores(
	ctx context.Context,
	input *advancementsvc.SetAbilityScoresInput,
) (*advancementsvc.SetAbilityScoresOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	if len(input.Scores) == 0 {
		vb.RequiredField("scores")
	}
	scores := validateScores(input.Scores, vb, false)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	err := o.characterRepo.InTx(ctx, func(ctx context.Context, tx character.Tx) error {
		for _, ability := range rules.Abilities() {
			value, ok := scores[ability]
			if !ok {
				continue
			}
			if err := tx.SetAbilityScore(ctx, input.CharacterID, ability, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("ability scores set", "character_id", input.CharacterID)

	sheet, err := o.sheet(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	return &advancementsvc.SetAbilityScoresOutput{Sheet: sheet}, nil
}
