package choices

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
)

const (
	fieldManeuvers  = "maneuvers"
	fieldAppend     = "append"
	fieldReplaceSrc = "replace_src"
	fieldReplaceDst = "replace_dst"

	startingManeuvers = 3
	learnedManeuvers  = 2
)

// EnsureSuperiorityPool creates the superiority dice pool unless the
// character already has one.
func EnsureSuperiorityPool(ctx context.Context, tx character.Tx, characterID string) error {
	err := tx.CreateDice(ctx, characterID, dnd5e.NewSuperiorityPool())
	if err != nil && !errors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

func maneuverOptions(ctx context.Context, env *Env, known bool) ([]Option, error) {
	maneuvers, err := env.Rulebook.ListManeuvers(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(maneuvers))
	for _, m := range maneuvers {
		if env.Sheet.KnowsManeuver(m.ID) == known {
			options = append(options, Option{ID: m.ID, Label: m.Name})
		}
	}
	return options, nil
}

// maneuverPick is the first set of battle master maneuvers.
type maneuverPick struct{}

func (h *maneuverPick) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceManeuvers }

func (h *maneuverPick) Constraints(ctx context.Context, env *Env) (*Form, error) {
	options, err := maneuverOptions(ctx, env, false)
	if err != nil {
		return nil, err
	}
	return newForm(env, h.Code(), exactly(fieldManeuvers, "Maneuvers", min(startingManeuvers, len(options)), options)), nil
}

func (h *maneuverPick) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *maneuverPick) Apply(ctx context.Context, env *Env, v *Validated) error {
	if err := EnsureSuperiorityPool(ctx, env.Tx, env.characterID()); err != nil {
		return err
	}
	return env.Tx.SetManeuvers(ctx, env.characterID(), v.Values[fieldManeuvers])
}

// maneuverUpgrade learns two maneuvers and may swap one known maneuver for
// an unknown one. With addDie the superiority pool grows by one die.
type maneuverUpgrade struct {
	code   dnd5e.ChoiceCode
	addDie bool
}

func (h *maneuverUpgrade) Code() dnd5e.ChoiceCode { return h.code }

func (h *maneuverUpgrade) Constraints(ctx context.Context, env *Env) (*Form, error) {
	unknown, err := maneuverOptions(ctx, env, false)
	if err != nil {
		return nil, err
	}
	known, err := maneuverOptions(ctx, env, true)
	if err != nil {
		return nil, err
	}
	return newForm(env, h.code,
		exactly(fieldAppend, "New maneuvers", min(learnedManeuvers, len(unknown)), unknown),
		optional(fieldReplaceSrc, "Maneuver to forget", known),
		optional(fieldReplaceDst, "Replacement maneuver", unknown),
	), nil
}

func (h *maneuverUpgrade) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	v, vb := check(form, sel)
	src, dst := len(sel[fieldReplaceSrc]) > 0, len(sel[fieldReplaceDst]) > 0
	switch {
	case src && !dst:
		vb.Field(fieldReplaceDst, "is required when replacing a maneuver")
	case dst && !src:
		vb.Field(fieldReplaceSrc, "is required when replacing a maneuver")
	}
	for _, id := range sel[fieldReplaceDst] {
		if contains(sel[fieldAppend], id) {
			vb.Fieldf(fieldReplaceDst, "%s is already being learned", id)
		}
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	return v, nil
}

func (h *maneuverUpgrade) Apply(ctx context.Context, env *Env, v *Validated) error {
	id := env.characterID()
	if h.addDie {
		if err := env.Tx.IncrementDice(ctx, id, dnd5e.DiceSuperiority, 1); err != nil {
			return err
		}
	}
	if src := v.Values[fieldReplaceSrc]; len(src) > 0 {
		if err := env.Tx.RemoveManeuvers(ctx, id, src); err != nil {
			return err
		}
	}
	learned := append(append([]string(nil), v.Values[fieldAppend]...), v.Values[fieldReplaceDst]...)
	return env.Tx.AddManeuvers(ctx, id, learned)
}
