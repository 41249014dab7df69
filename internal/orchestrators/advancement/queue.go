package advancement

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	advancementsvc "github.com/KirkDiggler/rpg-advancement/internal/services/advancement"
)

// ListChoices returns the pending choices, important first.
func (o *Orchestrator) ListChoices(
	ctx context.Context,
	input *advancementsvc.ListChoicesInput,
) (*advancementsvc.ListChoicesOutput, error) {
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

	pending := make([]*dnd5e.PendingChoice, 0, len(sheet.Choices))
	for _, c := range sheet.Choices {
		if c.Status == dnd5e.ChoicePending {
			pending = append(pending, c)
		}
	}
	return &advancementsvc.ListChoicesOutput{Choices: pending}, nil
}

// GetChoiceForm renders the form of a pending choice.
func (o *Orchestrator) GetChoiceForm(
	ctx context.Context,
	input *advancementsvc.GetChoiceFormInput,
) (*advancementsvc.GetChoiceFormOutput, error) {
	if err := validateChoiceRef(input); err != nil {
		return nil, err
	}

	sheet, err := o.sheet(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	choice, err := o.addressable(ctx, sheet, input.ChoiceID)
	if err != nil {
		return nil, err
	}
	handler, err := o.choices.Lookup(choice.Choice.Code)
	if err != nil {
		return nil, err
	}

	form, err := handler.Constraints(ctx, &choices.Env{
		Sheet:    sheet,
		Choice:   choice,
		Rulebook: o.rulebook,
	})
	if err != nil {
		return nil, err
	}
	return &advancementsvc.GetChoiceFormOutput{Choice: choice, Form: form}, nil
}

// ResolveChoice validates a selection and applies it. Validation failures
// leave the choice pending.
func (o *Orchestrator) ResolveChoice(
	ctx context.Context,
	input *advancementsvc.ResolveChoiceInput,
) (*advancementsvc.ResolveChoiceOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateChoiceRef(&advancementsvc.GetChoiceFormInput{
		CharacterID: input.CharacterID,
		ChoiceID:    input.ChoiceID,
	}); err != nil {
		return nil, err
	}

	var code dnd5e.ChoiceCode
	err := o.mutate(ctx, func(ctx context.Context, tx character.Tx, a *applier) error {
		sheet, err := tx.Sheet(ctx, input.CharacterID)
		if err != nil {
			return err
		}
		a.bind(sheet.Character)

		choice, err := o.addressable(ctx, sheet, input.ChoiceID)
		if err != nil {
			return err
		}
		code = choice.Choice.Code

		handler, err := o.choices.Lookup(code)
		if err != nil {
			return err
		}
		env := &choices.Env{
			Sheet:    sheet,
			Choice:   choice,
			Rulebook: o.rulebook,
			Tx:       tx,
			Advancer: a,
		}
		form, err := handler.Constraints(ctx, env)
		if err != nil {
			return err
		}
		validated, err := handler.Validate(ctx, env, form, input.Selection)
		if err != nil {
			return err
		}
		if err := handler.Apply(ctx, env, validated); err != nil {
			return err
		}
		if err := tx.CompleteChoice(ctx, input.CharacterID, choice.ID, choice.Choice.Repeatable); err != nil {
			return err
		}

		a.emit(rpgtoolkit.EventChoiceResolved, map[string]any{
			rpgtoolkit.KeyChoiceID:   choice.ID,
			rpgtoolkit.KeyChoiceCode: string(code),
			rpgtoolkit.KeyImportant:  choice.Choice.Important,
		})
		return nil
	})
	if err != nil {
		o.publishBlocked(ctx, input.CharacterID, input.ChoiceID, err)
		return nil, err
	}

	slog.Info("choice resolved",
		"character_id", input.CharacterID,
		"choice_id", input.ChoiceID,
		"choice_code", code)

	sheet, err := o.sheet(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	return &advancementsvc.ResolveChoiceOutput{Sheet: sheet}, nil
}

// RejectChoice removes a pending choice the player may decline.
func (o *Orchestrator) RejectChoice(
	ctx context.Context,
	input *advancementsvc.RejectChoiceInput,
) (*advancementsvc.RejectChoiceOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateChoiceRef(&advancementsvc.GetChoiceFormInput{
		CharacterID: input.CharacterID,
		ChoiceID:    input.ChoiceID,
	}); err != nil {
		return nil, err
	}

	err := o.mutate(ctx, func(ctx context.Context, tx character.Tx, a *applier) error {
		sheet, err := tx.Sheet(ctx, input.CharacterID)
		if err != nil {
			return err
		}
		a.bind(sheet.Character)

		choice, err := o.addressable(ctx, sheet, input.ChoiceID)
		if err != nil {
			return err
		}
		if !choice.Choice.Rejectable {
			return errors.Preconditionf(errors.ReasonNotRejectable, "choice %s cannot be rejected", choice.Choice.Code).
				WithMeta("character_id", input.CharacterID).
				WithMeta("choice_id", choice.ID)
		}
		if err := tx.CompleteChoice(ctx, input.CharacterID, choice.ID, choice.Choice.Repeatable); err != nil {
			return err
		}

		a.emit(rpgtoolkit.EventChoiceRejected, map[string]any{
			rpgtoolkit.KeyChoiceID:   choice.ID,
			rpgtoolkit.KeyChoiceCode: string(choice.Choice.Code),
		})
		return nil
	})
	if err != nil {
		o.publishBlocked(ctx, input.CharacterID, input.ChoiceID, err)
		return nil, err
	}

	slog.Info("choice rejected",
		"character_id", input.CharacterID,
		"choice_id", input.ChoiceID)

	return &advancementsvc.RejectChoiceOutput{}, nil
}

// addressable returns the pending choice choiceID, rejecting it while an
// important choice is outstanding. Important choices are never blocked.
func (o *Orchestrator) addressable(_ context.Context, sheet *dnd5e.Sheet, choiceID string) (*dnd5e.PendingChoice, error) {
	choice := sheet.Choice(choiceID)
	if choice == nil {
		return nil, errors.NotFoundf("choice %s not found", choiceID).
			WithMeta("character_id", sheet.Character.ID)
	}
	if choice.Status != dnd5e.ChoicePending {
		return nil, errors.FailedPreconditionf("choice %s is not pending", choiceID).
			WithMeta("character_id", sheet.Character.ID)
	}
	if !choice.Choice.Important {
		if blocking := sheet.BlockingChoice(); blocking != nil {
			return nil, errors.BlockedByPriorChoice(sheet.Character.ID, blocking.ID)
		}
	}
	return choice, nil
}

func (o *Orchestrator) publishBlocked(ctx context.Context, characterID, choiceID string, err error) {
	if !errors.IsBlockedByPriorChoice(err) {
		return
	}
	blocking, _ := errors.GetMeta(err)["blocking_choice_id"].(string)
	slog.Info("choice blocked by prior choice",
		"character_id", characterID,
		"choice_id", choiceID,
		"blocking_choice_id", blocking)

	o.publisher.Publish(ctx, rpgtoolkit.Event{
		Type:      rpgtoolkit.EventChoiceBlocked,
		Character: &dnd5e.Character{ID: characterID},
		Data:      map[string]any{rpgtoolkit.KeyChoiceID: choiceID},
	})
}

func validateChoiceRef(input *advancementsvc.GetChoiceFormInput) error {
	if input == nil {
		return errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	errors.ValidateRequired("choice_id", input.ChoiceID, vb)
	return vb.Build()
}
