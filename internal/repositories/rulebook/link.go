package rulebook

import (
	"log/slog"
	"sort"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// link resolves cross references once every document is merged.
func (c *Catalog) link() error {
	for _, code := range dnd5e.ChoiceCodes() {
		if _, ok := c.choices[code]; !ok {
			return errors.Integrityf("advancement choice %s missing from catalog", code)
		}
	}
	for code := range c.choices {
		if !knownChoiceCode(code) {
			return errors.Integrityf("advancement choice %s has no handler", code)
		}
	}

	known := make(map[dnd5e.PostAction]bool)
	for _, pa := range dnd5e.PostActions() {
		known[pa] = true
	}
	for _, f := range c.features {
		if f.PostAction != dnd5e.PostActionNone && !known[f.PostAction] {
			return errors.Integrityf("feature %s has unknown post action %s", f.ID, f.PostAction)
		}
		if f.LevelTable != "" && !rules.HasLevelTable(f.LevelTable) {
			return errors.Integrityf("feature %s references unknown level table %s", f.ID, f.LevelTable)
		}
	}

	for _, cl := range c.classes {
		if err := c.checkClass(cl); err != nil {
			return err
		}
	}

	for _, sc := range c.subclasses {
		if _, ok := c.classes[sc.ClassID]; !ok {
			return errors.Integrityf("subclass %s references unknown class %s", sc.ID, sc.ClassID)
		}
		if sc.SpellcastingTable != "" && !rules.HasSpellcastingTable(sc.SpellcastingTable) {
			return errors.Integrityf("subclass %s references unknown spellcasting table %s", sc.ID, sc.SpellcastingTable)
		}
	}

	for _, r := range c.races {
		r.Subraces = nil
		if err := c.checkFeatures("race "+r.ID, r.Features); err != nil {
			return err
		}
		if err := c.checkLanguages("race "+r.ID, r.Languages); err != nil {
			return err
		}
	}
	for _, sr := range c.subraces {
		r, ok := c.races[sr.RaceID]
		if !ok {
			return errors.Integrityf("subrace %s references unknown race %s", sr.ID, sr.RaceID)
		}
		r.Subraces = append(r.Subraces, sr.ID)
		if err := c.checkFeatures("subrace "+sr.ID, sr.Features); err != nil {
			return err
		}
	}
	for _, r := range c.races {
		sort.Strings(r.Subraces)
	}

	for _, b := range c.backgrounds {
		if err := c.checkBackground(b); err != nil {
			return err
		}
	}

	for key, rows := range c.levels {
		for _, cl := range rows {
			if err := c.checkClassLevel(key, cl); err != nil {
				return err
			}
		}
	}

	return nil
}

func knownChoiceCode(code dnd5e.ChoiceCode) bool {
	for _, c := range dnd5e.ChoiceCodes() {
		if c == code {
			return true
		}
	}
	return false
}

func (c *Catalog) checkClass(cl *dnd5e.Class) error {
	if cl.HitDie == 0 {
		return errors.Integrityf("class %s has no hit die", cl.ID)
	}
	if _, ok := rules.MulticlassPrereq(cl.ID); !ok {
		slog.Warn("class has no multiclass prerequisite", "class_id", cl.ID)
	}
	for _, code := range cl.Multiclass.Choices {
		if _, ok := c.choices[code]; !ok {
			return errors.Integrityf("class %s multiclass grant references unknown choice %s", cl.ID, code)
		}
	}
	for _, a := range cl.SavingThrows {
		if !a.Valid() {
			return errors.Integrityf("class %s has unknown saving throw %s", cl.ID, a)
		}
	}
	if err := c.checkSkills("class "+cl.ID, cl.Skills); err != nil {
		return err
	}
	if err := c.checkTools("class "+cl.ID, cl.Tools); err != nil {
		return err
	}
	if cl.SpellcastingTable != "" && !rules.HasSpellcastingTable(cl.SpellcastingTable) {
		return errors.Integrityf("class %s references unknown spellcasting table %s", cl.ID, cl.SpellcastingTable)
	}
	return nil
}

func (c *Catalog) checkBackground(b *dnd5e.Background) error {
	owner := "background " + b.ID
	if err := c.checkSkills(owner, b.Skills); err != nil {
		return err
	}
	if err := c.checkTools(owner, b.Tools); err != nil {
		return err
	}
	if err := c.checkFeatures(owner, b.Features); err != nil {
		return err
	}
	for _, code := range b.Choices {
		if _, ok := c.choices[code]; !ok {
			return errors.Integrityf("%s references unknown choice %s", owner, code)
		}
	}
	if len(b.Traits) == 0 || len(b.Ideals) == 0 || len(b.Bonds) == 0 || len(b.Flaws) == 0 {
		return errors.Integrityf("%s is missing personality tables", owner)
	}
	return nil
}

func (c *Catalog) checkClassLevel(key string, cl *dnd5e.ClassLevel) error {
	switch owner := cl.Owner.(type) {
	case dnd5e.ClassSource:
		if _, ok := c.classes[owner.ClassID]; !ok {
			return errors.Integrityf("class level %s references unknown class", key)
		}
	case dnd5e.SubclassSource:
		if _, ok := c.subclasses[owner.SubclassID]; !ok {
			return errors.Integrityf("class level %s references unknown subclass", key)
		}
	}

	for _, adv := range cl.Advances {
		switch adv.Kind {
		case dnd5e.AdvanceFeature:
			if _, ok := c.features[adv.FeatureID]; !ok {
				return errors.Integrityf("class level %s@%d grants unknown feature %s", key, cl.Level, adv.FeatureID)
			}
		case dnd5e.AdvanceChoice:
			if _, ok := c.choices[adv.Choice]; !ok {
				return errors.Integrityf("class level %s@%d enqueues unknown choice %s", key, cl.Level, adv.Choice)
			}
		}
	}
	return nil
}

func (c *Catalog) checkFeatures(owner string, ids []string) error {
	for _, id := range ids {
		if _, ok := c.features[id]; !ok {
			return errors.Integrityf("%s references unknown feature %s", owner, id)
		}
	}
	return nil
}

func (c *Catalog) checkSkills(owner string, ids []string) error {
	for _, id := range ids {
		if _, ok := c.skills[id]; !ok {
			return errors.Integrityf("%s references unknown skill %s", owner, id)
		}
	}
	return nil
}

func (c *Catalog) checkTools(owner string, ids []string) error {
	for _, id := range ids {
		if _, ok := c.tools[id]; !ok {
			return errors.Integrityf("%s references unknown tool %s", owner, id)
		}
	}
	return nil
}

func (c *Catalog) checkLanguages(owner string, ids []string) error {
	for _, id := range ids {
		if _, ok := c.languages[id]; !ok {
			return errors.Integrityf("%s references unknown language %s", owner, id)
		}
	}
	return nil
}
