package choices

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
)

const fieldTools = "tools"

// toolProficiency grants one tool of a category the character lacks.
type toolProficiency struct {
	code     dnd5e.ChoiceCode
	category dnd5e.ToolCategory
}

func (h *toolProficiency) Code() dnd5e.ChoiceCode { return h.code }

func (h *toolProficiency) Constraints(ctx context.Context, env *Env) (*Form, error) {
	options, err := unknownTools(ctx, env, h.category)
	if err != nil {
		return nil, err
	}
	return newForm(env, h.code, exactly(fieldTools, "Tool", 1, options)), nil
}

func (h *toolProficiency) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *toolProficiency) Apply(ctx context.Context, env *Env, v *Validated) error {
	return env.Tx.AddTools(ctx, env.characterID(), v.Values[fieldTools])
}

func unknownTools(ctx context.Context, env *Env, category dnd5e.ToolCategory) ([]Option, error) {
	tools, err := env.Rulebook.ListTools(ctx, category)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(tools))
	for _, t := range tools {
		if env.Sheet.Tool(t.ID) != nil {
			continue
		}
		options = append(options, Option{ID: t.ID, Label: t.Name})
	}
	return options, nil
}
