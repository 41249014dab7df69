package choices

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

const (
	fieldSkills    = "skills"
	fieldTool      = "tool"
	fieldAbilities = "abilities"

	// abilityIncreasePoints is split over one or two abilities.
	abilityIncreasePoints = 2
)

// skillOptions lists rulebook skills accepted by keep, in rulebook order.
func skillOptions(ctx context.Context, env *Env, keep func(id string) bool) ([]Option, error) {
	skills, err := env.Rulebook.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(skills))
	for _, s := range skills {
		if keep(s.ID) {
			options = append(options, Option{ID: s.ID, Label: s.Name})
		}
	}
	return options, nil
}

func proficientNotCompetent(env *Env) func(string) bool {
	return func(id string) bool {
		s := env.Sheet.Skill(id)
		return s != nil && s.Proficiency && !s.Competence
	}
}

func notProficient(env *Env) func(string) bool {
	return func(id string) bool {
		s := env.Sheet.Skill(id)
		return s == nil || !s.Proficiency
	}
}

// expertise doubles proficiency in two skills.
type expertise struct{}

func (h *expertise) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceExpertise }

func (h *expertise) Constraints(ctx context.Context, env *Env) (*Form, error) {
	options, err := skillOptions(ctx, env, proficientNotCompetent(env))
	if err != nil {
		return nil, err
	}
	return newForm(env, h.Code(), exactly(fieldSkills, "Skills", 2, options)), nil
}

func (h *expertise) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *expertise) Apply(ctx context.Context, env *Env, v *Validated) error {
	return env.Tx.SetSkillCompetence(ctx, env.characterID(), v.Values[fieldSkills])
}

// rogueExpertise takes two skills, or one skill plus thieves' tools.
type rogueExpertise struct{}

func (h *rogueExpertise) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceRogueExpertise }

func (h *rogueExpertise) Constraints(ctx context.Context, env *Env) (*Form, error) {
	options, err := skillOptions(ctx, env, proficientNotCompetent(env))
	if err != nil {
		return nil, err
	}

	var tools []Option
	if t := env.Sheet.Tool(dnd5e.ToolThievesTools); t != nil && !t.Competence {
		tool, err := env.Rulebook.GetTool(ctx, dnd5e.ToolThievesTools)
		if err != nil {
			return nil, err
		}
		tools = append(tools, Option{ID: tool.ID, Label: tool.Name})
	}

	return newForm(env, h.Code(),
		&Field{Name: fieldSkills, Label: "Skills", Options: options, Min: 1, Max: 2},
		optional(fieldTool, "Tool", tools),
	), nil
}

func (h *rogueExpertise) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	v, vb := check(form, sel)
	skills, tools := len(sel[fieldSkills]), len(sel[fieldTool])
	switch {
	case tools > 0 && skills != 1:
		vb.Field(fieldSkills, "must choose exactly 1 skill together with a tool")
	case tools == 0 && skills != 2:
		vb.Field(fieldSkills, "must choose exactly 2 skills, or 1 skill and a tool")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	return v, nil
}

func (h *rogueExpertise) Apply(ctx context.Context, env *Env, v *Validated) error {
	if err := env.Tx.SetSkillCompetence(ctx, env.characterID(), v.Values[fieldSkills]); err != nil {
		return err
	}
	if tool := v.First(fieldTool); tool != "" {
		return env.Tx.SetToolCompetence(ctx, env.characterID(), tool)
	}
	return nil
}

// classSkills grants the starting skill proficiencies of the class that
// enqueued it. Without a class reason the first class is used.
type classSkills struct{}

func (h *classSkills) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceClassSkills }

func (h *classSkills) Constraints(ctx context.Context, env *Env) (*Form, error) {
	owner, err := skillClass(env)
	if err != nil {
		return nil, err
	}
	class, err := env.Rulebook.GetClass(ctx, owner.ClassID)
	if err != nil {
		return nil, err
	}

	keep := notProficient(env)
	if len(class.Skills) > 0 {
		keep = func(id string) bool {
			return contains(class.Skills, id) && notProficient(env)(id)
		}
	}
	options, err := skillOptions(ctx, env, keep)
	if err != nil {
		return nil, err
	}

	limit := class.SkillProficiencyLimit
	if limit > len(options) {
		limit = len(options)
	}
	return newForm(env, h.Code(), exactly(fieldSkills, "Skills", limit, options)), nil
}

func skillClass(env *Env) (*dnd5e.CharacterClass, error) {
	if env.Choice != nil && env.Choice.Reason != nil {
		reason := env.Choice.Reason
		if k := reason.Kind(); k == dnd5e.SourceKindClass || k == dnd5e.SourceKindSubclass {
			if class := env.Sheet.ClassFor(reason); class != nil {
				return class, nil
			}
			return nil, errors.FailedPreconditionf("character has no class for %s", dnd5e.SourceKey(reason))
		}
	}
	if len(env.Sheet.Classes) == 0 {
		return nil, errors.FailedPrecondition("character has no class")
	}
	return env.Sheet.Classes[0], nil
}

func (h *classSkills) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *classSkills) Apply(ctx context.Context, env *Env, v *Validated) error {
	return env.Tx.SetSkillProficiency(ctx, env.characterID(), v.Values[fieldSkills])
}

// skillProficiency grants one new skill proficiency.
type skillProficiency struct{}

func (h *skillProficiency) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceSkill }

func (h *skillProficiency) Constraints(ctx context.Context, env *Env) (*Form, error) {
	options, err := skillOptions(ctx, env, notProficient(env))
	if err != nil {
		return nil, err
	}
	return newForm(env, h.Code(), exactly(fieldSkills, "Skill", 1, options)), nil
}

func (h *skillProficiency) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *skillProficiency) Apply(ctx context.Context, env *Env, v *Validated) error {
	return env.Tx.SetSkillProficiency(ctx, env.characterID(), v.Values[fieldSkills])
}

// abilityIncrease adds 2 to one ability or 1 to each of two.
type abilityIncrease struct{}

func (h *abilityIncrease) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceAbilityIncrease }

func (h *abilityIncrease) Constraints(_ context.Context, env *Env) (*Form, error) {
	scores := env.Sheet.AbilityScores()
	options := make([]Option, 0, len(scores))
	for _, a := range rules.Abilities() {
		if value, ok := scores[a]; ok && value < rules.MaxAbilityScore {
			options = append(options, Option{ID: string(a), Label: a.Name()})
		}
	}
	return newForm(env, h.Code(),
		&Field{Name: fieldAbilities, Label: "Abilities", Options: options, Min: 1, Max: abilityIncreasePoints},
	), nil
}

func (h *abilityIncrease) Validate(_ context.Context, env *Env, form *Form, sel Selection) (*Validated, error) {
	v, vb := check(form, sel)
	picked := sel[fieldAbilities]
	if len(picked) > 0 && len(picked) <= abilityIncreasePoints {
		by := abilityIncreasePoints / len(picked)
		scores := env.Sheet.AbilityScores()
		for _, id := range picked {
			if value, ok := scores[rules.Ability(id)]; ok && value+by > rules.MaxAbilityScore {
				vb.Fieldf(fieldAbilities, "%s cannot exceed %d", id, rules.MaxAbilityScore)
			}
		}
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	return v, nil
}

func (h *abilityIncrease) Apply(ctx context.Context, env *Env, v *Validated) error {
	picked := v.Values[fieldAbilities]
	by := abilityIncreasePoints / len(picked)
	for _, id := range picked {
		if err := env.Tx.IncreaseAbility(ctx, env.characterID(), rules.Ability(id), by); err != nil {
			return err
		}
	}
	return nil
}
