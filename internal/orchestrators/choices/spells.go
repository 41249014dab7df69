package choices

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

const (
	fieldCantrips  = "cantrips"
	fieldSpells    = "spells"
	fieldToReplace = "to_replace"
	fieldByReplace = "by_replace"
)

// caster is the class a spell choice was enqueued for, with its
// spellcasting row at the class's current level.
type caster struct {
	class *dnd5e.CharacterClass
	row   rules.SpellcastingLevel
	// list is the class spell list. known holds the entries of list the
	// character already knows.
	list  []*dnd5e.Spell
	known []*dnd5e.Spell
}

func resolveCaster(ctx context.Context, env *Env) (*caster, error) {
	if env.Choice == nil || env.Choice.Reason == nil {
		return nil, errors.Integrity("spell choice has no reason class")
	}

	reason := env.Choice.Reason
	if k := reason.Kind(); k != dnd5e.SourceKindClass && k != dnd5e.SourceKindSubclass {
		return nil, errors.Integrityf("spell choice reason %s is not a class", dnd5e.SourceKey(reason))
	}
	class := env.Sheet.ClassFor(reason)
	if class == nil {
		return nil, errors.FailedPreconditionf("character has no class for %s", dnd5e.SourceKey(env.Choice.Reason))
	}

	table, err := rulebook.SpellcastingTable(ctx, env.Rulebook, class.ClassID, class.SubclassID)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, errors.Integrityf("class %s has no spellcasting table", class.ClassID)
	}
	row, err := rules.Spellcasting(table, class.Level)
	if err != nil {
		return nil, err
	}

	list, err := env.Rulebook.ListSpells(ctx, class.ClassID)
	if err != nil {
		return nil, err
	}
	c := &caster{class: class, row: row, list: list}
	for _, s := range list {
		if env.Sheet.KnowsSpell(s.ID) {
			c.known = append(c.known, s)
		}
	}
	return c, nil
}

// options lists spells of the class list accepted by keep.
func (c *caster) options(keep func(*dnd5e.Spell) bool) []Option {
	var options []Option
	for _, s := range c.list {
		if keep(s) {
			options = append(options, Option{ID: s.ID, Label: s.Name})
		}
	}
	return options
}

func (c *caster) knownCount(cantrips bool) int {
	n := 0
	for _, s := range c.known {
		if s.IsCantrip() == cantrips {
			n++
		}
	}
	return n
}

func (c *caster) unknownCantrip(env *Env) func(*dnd5e.Spell) bool {
	return func(s *dnd5e.Spell) bool {
		return s.IsCantrip() && !env.Sheet.KnowsSpell(s.ID)
	}
}

// unknownUnlocked accepts levelled spells up to the highest unlocked slot.
func (c *caster) unknownUnlocked(env *Env) func(*dnd5e.Spell) bool {
	maxLevel := c.row.MaxSpellLevel()
	return func(s *dnd5e.Spell) bool {
		return !s.IsCantrip() && s.Level <= maxLevel && !env.Sheet.KnowsSpell(s.ID)
	}
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

// knownSpells is the initial pick of a spell-known caster.
type knownSpells struct{}

func (h *knownSpells) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceKnownSpells }

func (h *knownSpells) Constraints(ctx context.Context, env *Env) (*Form, error) {
	c, err := resolveCaster(ctx, env)
	if err != nil {
		return nil, err
	}
	cantrips := c.options(c.unknownCantrip(env))
	fields := []*Field{exactly(fieldCantrips, "Cantrips", clamp(c.row.Cantrips, len(cantrips)), cantrips)}
	if c.row.Spells > 0 {
		spells := c.options(c.unknownUnlocked(env))
		fields = append(fields, exactly(fieldSpells, "Spells", clamp(c.row.Spells, len(spells)), spells))
	}
	return newForm(env, h.Code(), fields...), nil
}

func (h *knownSpells) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *knownSpells) Apply(ctx context.Context, env *Env, v *Validated) error {
	learned := append(append([]string(nil), v.Values[fieldCantrips]...), v.Values[fieldSpells]...)
	return env.Tx.AddKnownSpells(ctx, env.characterID(), learned)
}

// replaceSpells swaps known spells for unknown ones of an unlocked level.
type replaceSpells struct{}

func (h *replaceSpells) Code() dnd5e.ChoiceCode { return dnd5e.ChoiceReplaceSpells }

func (h *replaceSpells) Constraints(ctx context.Context, env *Env) (*Form, error) {
	c, err := resolveCaster(ctx, env)
	if err != nil {
		return nil, err
	}
	var known []Option
	for _, s := range c.known {
		if !s.IsCantrip() {
			known = append(known, Option{ID: s.ID, Label: s.Name})
		}
	}
	candidates := c.options(c.unknownUnlocked(env))
	n := clamp(c.row.ReplaceCount, len(known))
	n = clamp(n, len(candidates))
	return newForm(env, h.Code(),
		exactly(fieldToReplace, "Spells to forget", n, known),
		exactly(fieldByReplace, "Replacement spells", n, candidates),
	), nil
}

func (h *replaceSpells) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *replaceSpells) Apply(ctx context.Context, env *Env, v *Validated) error {
	if len(v.Values[fieldToReplace]) == 0 {
		return nil
	}
	if err := env.Tx.RemoveKnownSpells(ctx, env.characterID(), v.Values[fieldToReplace]); err != nil {
		return err
	}
	return env.Tx.AddKnownSpells(ctx, env.characterID(), v.Values[fieldByReplace])
}

// appendSpells tops known spells or cantrips up to the table count.
type appendSpells struct {
	cantrips bool
}

func (h *appendSpells) Code() dnd5e.ChoiceCode {
	if h.cantrips {
		return dnd5e.ChoiceAppendCantrips
	}
	return dnd5e.ChoiceAppendSpells
}

func (h *appendSpells) field() string {
	if h.cantrips {
		return fieldCantrips
	}
	return fieldSpells
}

func (h *appendSpells) Constraints(ctx context.Context, env *Env) (*Form, error) {
	c, err := resolveCaster(ctx, env)
	if err != nil {
		return nil, err
	}
	var (
		options []Option
		target  int
		label   string
	)
	if h.cantrips {
		options, target, label = c.options(c.unknownCantrip(env)), c.row.Cantrips, "Cantrips"
	} else {
		options, target, label = c.options(c.unknownUnlocked(env)), c.row.Spells, "Spells"
	}
	limit := clamp(target-c.knownCount(h.cantrips), len(options))
	return newForm(env, h.Code(), exactly(h.field(), label, limit, options)), nil
}

func (h *appendSpells) Validate(_ context.Context, _ *Env, form *Form, sel Selection) (*Validated, error) {
	return validateFields(form, sel)
}

func (h *appendSpells) Apply(ctx context.Context, env *Env, v *Validated) error {
	learned := v.Values[h.field()]
	if len(learned) == 0 {
		return nil
	}
	return env.Tx.AddKnownSpells(ctx, env.characterID(), learned)
}
