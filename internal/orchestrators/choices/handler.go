// Package choices implements the player decisions queued by advancement:
// one Handler per choice code, each building a form of constrained options,
// validating a selection against it and applying the result to character
// state inside the caller's transaction.
package choices

import (
	"context"
	"fmt"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
)

// Handler is the contract shared by every choice code.
type Handler interface {
	Code() dnd5e.ChoiceCode
	// Constraints builds the form for the character in env.
	Constraints(ctx context.Context, env *Env) (*Form, error)
	// Validate checks sel against form. Failures are InvalidArgument errors
	// with field-scoped messages.
	Validate(ctx context.Context, env *Env, form *Form, sel Selection) (*Validated, error)
	// Apply mutates character state through env.Tx.
	Apply(ctx context.Context, env *Env, v *Validated) error
}

// Advancer is the slice of the advancement engine handlers call back into.
type Advancer interface {
	// GrantFeature grants a feature and runs its post action.
	GrantFeature(ctx context.Context, tx character.Tx, characterID, featureID string, reason dnd5e.Source) error
	// ApplyClassLevel applies the advances owner grants at level.
	ApplyClassLevel(ctx context.Context, tx character.Tx, characterID string, owner dnd5e.Source, level int) error
}

// Env is the character context a handler runs in.
type Env struct {
	Sheet    *dnd5e.Sheet
	Choice   *dnd5e.PendingChoice
	Rulebook rulebook.Repository
	// Tx and Advancer are only needed by Apply.
	Tx       character.Tx
	Advancer Advancer
}

func (e *Env) characterID() string {
	return e.Sheet.Character.ID
}

// Option is one selectable value of a field.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Field is one multi-select input with a count constraint.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
	Min     int      `json:"min"`
	Max     int      `json:"max"`
}

func (f *Field) has(id string) bool {
	for _, o := range f.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (f *Field) label(id string) string {
	for _, o := range f.Options {
		if o.ID == id {
			return o.Label
		}
	}
	return id
}

// Form is the rendered constraint surface of a choice.
type Form struct {
	Code   dnd5e.ChoiceCode `json:"code"`
	Title  string           `json:"title"`
	Text   string           `json:"text"`
	Fields []*Field         `json:"fields"`
}

// Field returns the named field, or nil.
func (f *Form) Field(name string) *Field {
	for _, field := range f.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// Selection maps field names to chosen option IDs.
type Selection map[string][]string

// Validated is a selection that passed Validate.
type Validated struct {
	Code   dnd5e.ChoiceCode
	Values Selection
	labels map[string]string
}

// Label returns the option label of a selected id in field.
func (v *Validated) Label(field, id string) string {
	return v.labels[field+":"+id]
}

// First returns the first value of field, or "".
func (v *Validated) First(field string) string {
	if vals := v.Values[field]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// exactly builds a field that requires n selections.
func exactly(name, label string, n int, options []Option) *Field {
	return &Field{Name: name, Label: label, Options: options, Min: n, Max: n}
}

// optional builds a field with zero or one selection.
func optional(name, label string, options []Option) *Field {
	return &Field{Name: name, Label: label, Options: options, Min: 0, Max: 1}
}

func newForm(env *Env, code dnd5e.ChoiceCode, fields ...*Field) *Form {
	form := &Form{Code: code, Fields: fields}
	if env.Choice != nil {
		form.Title = env.Choice.Choice.Name
		form.Text = env.Choice.Choice.Text
	}
	return form
}

// check validates sel against the generic field constraints and returns the
// builder so handlers can add cross-field rules before Build.
func check(form *Form, sel Selection) (*Validated, *errors.ValidationBuilder) {
	vb := errors.NewValidationBuilder()
	v := &Validated{Code: form.Code, Values: Selection{}, labels: map[string]string{}}

	for name := range sel {
		if form.Field(name) == nil {
			vb.Field(name, "is not part of this choice")
		}
	}

	for _, field := range form.Fields {
		values := sel[field.Name]
		seen := make(map[string]bool, len(values))
		for _, id := range values {
			switch {
			case seen[id]:
				vb.Fieldf(field.Name, "%s is selected more than once", id)
			case !field.has(id):
				vb.Fieldf(field.Name, "%s is not a valid option", id)
			}
			seen[id] = true
			v.labels[field.Name+":"+id] = field.label(id)
		}
		if msg := countMessage(field, len(values)); msg != "" {
			vb.Field(field.Name, msg)
		}
		if len(values) > 0 {
			v.Values[field.Name] = append([]string(nil), values...)
		}
	}

	return v, vb
}

func countMessage(f *Field, n int) string {
	if n >= f.Min && n <= f.Max {
		return ""
	}
	if f.Min == f.Max {
		return fmt.Sprintf("must choose exactly %d", f.Min)
	}
	if f.Min == 0 {
		return fmt.Sprintf("must choose at most %d", f.Max)
	}
	return fmt.Sprintf("must choose between %d and %d", f.Min, f.Max)
}

// validateFields is the Validate of handlers with no cross-field rules.
func validateFields(form *Form, sel Selection) (*Validated, error) {
	v, vb := check(form, sel)
	if err := vb.Build(); err != nil {
		return nil, err
	}
	return v, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
