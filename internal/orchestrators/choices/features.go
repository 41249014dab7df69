package choices

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

const (
	fieldFeature  = "feature"
	fieldSubclass = "subclass"
)

// fightingStyle picks one fighting style feature the character lacks.
type fightingStyle struct{}

func (h *fightingStyle) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceFightingStyle }

func (h *fightingStyle) Constraints(ctx context.Context, env *Env) (*Form, error) {
	features, err := env.Rulebook.ListFeatures(ctx, dnd5e.FeatureGroupFightingStyle)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(features))
	for _, f := range features {
		if env.Sheet.Feature(f.ID) != nil {
			continue
		}
		options = append(options, Option{ID: f.ID, Label: f.Name})
	}
	return newForm(env, h.Code(), exactly(fieldFeature, "Fighting style", 1, options)), nil
}

func (h *fightingStyle) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *fightingStyle) Apply(ctx context.Context, env *Env, v *Validated) error {
	var reason dnd5e.Source
	if env.Choice != nil {
		reason = env.Choice.Reason
	}
	if reason == nil {
		reason = dnd5e.ClassSource{ClassID: dnd5e.ClassFighter}
	}
	return env.Advancer.GrantFeature(ctx, env.Tx, env.characterID(), v.First(fieldFeature), reason)
}

// subclassPick chooses the archetype of classID and catches up on every
// subclass level the class has already reached.
type subclassPick struct {
	code    dnd5e.ChoiceCode
	classID string
}

func (h *subclassPick) Code() dnd5e.ChoiceCode { return h.code }

func (h *subclassPick) Constraints(ctx context.Context, env *Env) (*Form, error) {
	class := env.Sheet.Class(h.classID)
	if class == nil {
		return nil, errors.FailedPreconditionf("character has no %s class", h.classID)
	}
	if class.SubclassID != "" {
		return nil, errors.FailedPreconditionf("%s subclass already chosen: %s", h.classID, class.SubclassID)
	}
	subclasses, err := env.Rulebook.ListSubclasses(ctx, h.classID)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(subclasses))
	for _, s := range subclasses {
		options = append(options, Option{ID: s.ID, Label: s.Name})
	}
	return newForm(env, h.code, exactly(fieldSubclass, "Subclass", 1, options)), nil
}

func (h *subclassPick) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *subclassPick) Apply(ctx context.Context, env *Env, v *Validated) error {
	subclassID := v.First(fieldSubclass)
	if err := env.Tx.SetSubclass(ctx, env.characterID(), h.classID, subclassID); err != nil {
		return err
	}

	levels, err := env.Rulebook.ListClassLevels(ctx, dnd5e.SubclassSource{SubclassID: subclassID})
	if err != nil {
		return err
	}
	reached := env.Sheet.Class(h.classID).Level
	for _, row := range levels {
		if row.Level > reached {
			break
		}
		if err := env.Advancer.ApplyClassLevel(ctx, env.Tx, env.characterID(), row.Owner, row.Level); err != nil {
			return err
		}
	}
	return nil
}
