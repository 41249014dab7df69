package rulebook

import (
	"encoding/json"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// Document is one rulebook JSON file. Every section is optional; files are
// merged in name order.
type Document struct {
	Skills      []*dnd5e.Skill             `json:"skills,omitempty"`
	Languages   []*dnd5e.Language          `json:"languages,omitempty"`
	Tools       []*dnd5e.Tool              `json:"tools,omitempty"`
	Maneuvers   []*dnd5e.Maneuver          `json:"maneuvers,omitempty"`
	Features    []*featureDoc              `json:"features,omitempty"`
	Choices     []*dnd5e.AdvancementChoice `json:"choices,omitempty"`
	Classes     []*dnd5e.Class             `json:"classes,omitempty"`
	Subclasses  []*dnd5e.Subclass          `json:"subclasses,omitempty"`
	Races       []*dnd5e.Race              `json:"races,omitempty"`
	Subraces    []*dnd5e.Subrace           `json:"subraces,omitempty"`
	Backgrounds []*dnd5e.Background        `json:"backgrounds,omitempty"`
	ClassLevels []*classLevelDoc           `json:"class_levels,omitempty"`
	Spells      []*dnd5e.Spell             `json:"spells,omitempty"`
}

// SpellDocument builds a document holding only spells, the shape written by
// the spell importer.
func SpellDocument(spells []*dnd5e.Spell) *Document {
	return &Document{Spells: spells}
}

type featureDoc struct {
	dnd5e.Feature
	Source string `json:"source,omitempty"`
}

// classLevelDoc lists features before choices; advances apply in that order.
type classLevelDoc struct {
	Owner    string             `json:"owner"`
	Level    int                `json:"level"`
	Features []string           `json:"features,omitempty"`
	Choices  []dnd5e.ChoiceCode `json:"choices,omitempty"`
}

func decodeDocument(name string, data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeDataLoss, "failed to decode rulebook file").
			WithMeta("file", name)
	}
	return &doc, nil
}

func (d *featureDoc) toFeature() (*dnd5e.Feature, error) {
	source, err := dnd5e.ParseSourceKey(d.Source)
	if err != nil {
		return nil, errors.Integrityf("feature %s has invalid source %q", d.ID, d.Source)
	}
	f := d.Feature
	f.Source = source
	return &f, nil
}

func (d *classLevelDoc) toClassLevel() (*dnd5e.ClassLevel, error) {
	owner, err := dnd5e.ParseSourceKey(d.Owner)
	if err != nil || owner == nil {
		return nil, errors.Integrityf("class level has invalid owner %q", d.Owner)
	}
	switch owner.Kind() {
	case dnd5e.SourceKindClass, dnd5e.SourceKindSubclass:
	default:
		return nil, errors.Integrityf("class level owner %q is not a class or subclass", d.Owner)
	}
	if d.Level < 1 || d.Level > rules.MaxLevel {
		return nil, errors.Integrityf("class level %s has level %d out of range", d.Owner, d.Level)
	}

	cl := &dnd5e.ClassLevel{
		Owner:       owner,
		Level:       d.Level,
		Proficiency: rules.ProficiencyBonus(d.Level),
	}
	for _, id := range d.Features {
		cl.Advances = append(cl.Advances, dnd5e.Advance{Kind: dnd5e.AdvanceFeature, FeatureID: id})
	}
	for _, code := range d.Choices {
		cl.Advances = append(cl.Advances, dnd5e.Advance{Kind: dnd5e.AdvanceChoice, Choice: code})
	}
	return cl, nil
}
