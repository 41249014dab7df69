package choices

import (
	"context"
	"strconv"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

const (
	fieldLanguages = "languages"
	fieldPath      = "path"
	fieldTrait     = "trait"
	fieldIdeal     = "ideal"
	fieldBond      = "bond"
	fieldFlaw      = "flaw"

	intrigueLanguages = 2
)

func unknownLanguages(ctx context.Context, env *Env) ([]Option, error) {
	languages, err := env.Rulebook.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(languages))
	for _, l := range languages {
		if !env.Sheet.HasLanguage(l.ID) {
			options = append(options, Option{ID: l.ID, Label: l.Name})
		}
	}
	return options, nil
}

func background(ctx context.Context, env *Env) (*dnd5e.Background, error) {
	id := env.Sheet.Character.BackgroundID
	if id == "" {
		return nil, errors.FailedPrecondition("character has no background")
	}
	return env.Rulebook.GetBackground(ctx, id)
}

// backgroundLanguages learns the languages the background allows.
type backgroundLanguages struct{}

func (h *backgroundLanguages) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceBackgroundLanguages }

func (h *backgroundLanguages) Constraints(ctx context.Context, env *Env) (*Form, error) {
	bg, err := background(ctx, env)
	if err != nil {
		return nil, err
	}
	options, err := unknownLanguages(ctx, env)
	if err != nil {
		return nil, err
	}
	return newForm(env, h.Code(), exactly(fieldLanguages, "Languages", bg.KnownLanguages, options)), nil
}

func (h *backgroundLanguages) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *backgroundLanguages) Apply(ctx context.Context, env *Env, v *Validated) error {
	return env.Tx.AddLanguages(ctx, env.characterID(), v.Values[fieldLanguages])
}

// backgroundDetails picks one entry from each personality table. Option IDs
// are 1-based positions; the stored value is the entry text.
type backgroundDetails struct{}

func (h *backgroundDetails) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceBackgroundDetails }

func (h *backgroundDetails) Constraints(ctx context.Context, env *Env) (*Form, error) {
	bg, err := background(ctx, env)
	if err != nil {
		return nil, err
	}
	var fields []*Field
	if len(bg.Paths) > 0 {
		label := bg.PathLabel
		if label == "" {
			label = "Path"
		}
		fields = append(fields, exactly(fieldPath, label, 1, indexed(bg.Paths)))
	}
	fields = append(fields,
		exactly(fieldTrait, "Personality trait", 1, indexed(bg.Traits)),
		exactly(fieldIdeal, "Ideal", 1, indexed(bg.Ideals)),
		exactly(fieldBond, "Bond", 1, indexed(bg.Bonds)),
		exactly(fieldFlaw, "Flaw", 1, indexed(bg.Flaws)),
	)
	return newForm(env, h.Code(), fields...), nil
}

func (h *backgroundDetails) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *backgroundDetails) Apply(ctx context.Context, env *Env, v *Validated) error {
	text := func(field string) string {
		if id := v.First(field); id != "" {
			return v.Label(field, id)
		}
		return ""
	}
	return env.Tx.SetBackgroundDetails(ctx, env.characterID(), dnd5e.BackgroundDetails{
		Path:  text(fieldPath),
		Trait: text(fieldTrait),
		Ideal: text(fieldIdeal),
		Bond:  text(fieldBond),
		Flaw:  text(fieldFlaw),
	})
}

func indexed(entries []string) []Option {
	options := make([]Option, len(entries))
	for i, e := range entries {
		options[i] = Option{ID: strconv.Itoa(i + 1), Label: e}
	}
	return options
}

// mastermindIntrigue learns one gaming set and two languages.
type mastermindIntrigue struct{}

func (h *mastermindIntrigue) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceMastermindIntrigue }

func (h *mastermindIntrigue) Constraints(ctx context.Context, env *Env) (*Form, error) {
	tools, err := unknownTools(ctx, env, dnd5e.ToolCategoryGaming)
	if err != nil {
		return nil, err
	}
	languages, err := unknownLanguages(ctx, env)
	if err != nil {
		return nil, err
	}
	return newForm(env, h.Code(),
		exactly(fieldTool, "Gaming set", 1, tools),
		exactly(fieldLanguages, "Languages", intrigueLanguages, languages),
	), nil
}

func (h *mastermindIntrigue) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *mastermindIntrigue) Apply(ctx context.Context, env *Env, v *Validated) error {
	if err := env.Tx.AddTools(ctx, env.characterID(), v.Values[fieldTool]); err != nil {
		return err
	}
	return env.Tx.AddLanguages(ctx, env.characterID(), v.Values[fieldLanguages])
}
