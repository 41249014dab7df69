package advancement

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// applier performs the grant side of advancement inside one transaction and
// collects the events to publish once it commits.
type applier struct {
	rulebook    rulebook.Repository
	idGen       idgen.Generator
	postActions map[dnd5e.PostAction]postAction

	character *dnd5e.Character
	events    []rpgtoolkit.Event
}

var _ choices.Advancer = (*applier)(nil)

func (o *Orchestrator) newApplier() *applier {
	return &applier{
		rulebook:    o.rulebook,
		idGen:       o.idGen,
		postActions: o.postActions,
	}
}

// bind sets the character events are attributed to.
func (a *applier) bind(c *dnd5e.Character) {
	a.character = c
}

func (a *applier) emit(eventType string, data map[string]any) {
	a.events = append(a.events, rpgtoolkit.Event{Type: eventType, Character: a.character, Data: data})
}

// GrantFeature creates or stacks the feature row, then runs its post action.
// The post action runs on every grant.
func (a *applier) GrantFeature(ctx context.Context, tx character.Tx, characterID, featureID string, reason dnd5e.Source) error {
	feature, err := a.rulebook.GetFeature(ctx, featureID)
	if err != nil {
		return errors.Wrapf(err, "failed to get feature %s", featureID)
	}
	if _, err := tx.GrantFeature(ctx, characterID, feature.ID, feature.Stackable); err != nil {
		return err
	}
	a.emit(rpgtoolkit.EventFeatureGranted, map[string]any{
		rpgtoolkit.KeyFeatureID: feature.ID,
		rpgtoolkit.KeySource:    dnd5e.SourceKey(reason),
	})

	if feature.PostAction == dnd5e.PostActionNone {
		return nil
	}
	action, ok := a.postActions[feature.PostAction]
	if !ok {
		return errors.Integrityf("feature %s has unknown post action %s", feature.ID, feature.PostAction).
			WithMeta("feature_id", feature.ID)
	}
	return action(ctx, a, tx, characterID, reason)
}

// ApplyClassLevel grants every advance of owner's row for level. A level
// without a row grants nothing.
func (a *applier) ApplyClassLevel(ctx context.Context, tx character.Tx, characterID string, owner dnd5e.Source, level int) error {
	row, err := a.rulebook.GetClassLevel(ctx, owner, level)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	for _, adv := range row.Advances {
		switch adv.Kind {
		case dnd5e.AdvanceFeature:
			if err := a.GrantFeature(ctx, tx, characterID, adv.FeatureID, owner); err != nil {
				return err
			}
		case dnd5e.AdvanceChoice:
			if _, err := a.enqueueChoice(ctx, tx, characterID, adv.Choice, owner); err != nil {
				return err
			}
		default:
			return errors.Integrityf("unknown advance kind %q on %s level %d", adv.Kind, dnd5e.SourceKey(owner), level)
		}
	}
	return nil
}

// enqueueChoice adds a pending choice. Repeatable choices are get-or-create
// per character; a selected one becomes pending again.
func (a *applier) enqueueChoice(ctx context.Context, tx character.Tx, characterID string, code dnd5e.ChoiceCode, reason dnd5e.Source) (*dnd5e.PendingChoice, error) {
	entry, err := a.rulebook.GetChoice(ctx, code)
	if err != nil {
		return nil, err
	}
	if entry.RequiresReason && reason == nil {
		return nil, errors.Integrityf("choice %s requires a reason", code).
			WithMeta("choice_code", string(code))
	}

	choice := &dnd5e.PendingChoice{
		ID:          a.idGen.Generate(),
		CharacterID: characterID,
		Choice:      *entry,
		Reason:      reason,
		Status:      dnd5e.ChoicePending,
	}
	if entry.Repeatable {
		if _, err := tx.EnsureChoice(ctx, choice); err != nil {
			return nil, err
		}
	} else if err := tx.EnqueueChoice(ctx, choice); err != nil {
		return nil, err
	}

	a.emit(rpgtoolkit.EventChoiceEnqueued, map[string]any{
		rpgtoolkit.KeyChoiceID:   choice.ID,
		rpgtoolkit.KeyChoiceCode: string(code),
		rpgtoolkit.KeyImportant:  entry.Important,
	})
	return choice, nil
}

// levelUp raises class by one level: class and subclass advances, spell
// slots, one hit die and the total level.
func (a *applier) levelUp(ctx context.Context, tx character.Tx, sheet *dnd5e.Sheet, class *dnd5e.CharacterClass) (int, error) {
	characterID := sheet.Character.ID
	if sheet.Character.Level >= rules.MaxLevel {
		return 0, errors.Preconditionf(errors.ReasonLevelCap, "character is already level %d", rules.MaxLevel).
			WithMeta("character_id", characterID)
	}
	level := class.Level + 1

	if err := tx.IncrementClassLevel(ctx, characterID, class.ClassID); err != nil {
		return 0, err
	}
	if err := a.ApplyClassLevel(ctx, tx, characterID, dnd5e.ClassSource{ClassID: class.ClassID}, level); err != nil {
		return 0, err
	}
	if class.SubclassID != "" {
		if err := a.ApplyClassLevel(ctx, tx, characterID, dnd5e.SubclassSource{SubclassID: class.SubclassID}, level); err != nil {
			return 0, err
		}
	}
	if err := a.updateSpellSlots(ctx, tx, characterID, class.ClassID, class.SubclassID, level); err != nil {
		return 0, err
	}
	if err := tx.IncrementDice(ctx, characterID, dnd5e.DiceHit, 1); err != nil {
		return 0, err
	}
	if err := tx.IncrementCharacterLevel(ctx, characterID, 1); err != nil {
		return 0, err
	}

	a.emit(rpgtoolkit.EventClassLeveled, map[string]any{
		rpgtoolkit.KeyClassID: class.ClassID,
		rpgtoolkit.KeyLevel:   level,
	})
	return level, nil
}

// updateSpellSlots creates the slots needed to reach the table counts for
// level. Slots are never removed.
func (a *applier) updateSpellSlots(ctx context.Context, tx character.Tx, characterID, classID, subclassID string, level int) error {
	table, err := rulebook.SpellcastingTable(ctx, a.rulebook, classID, subclassID)
	if err != nil || table == "" {
		return err
	}
	row, err := rules.Spellcasting(table, level)
	if err != nil {
		return err
	}
	have, err := tx.CountSpellSlots(ctx, characterID)
	if err != nil {
		return err
	}
	for i, want := range row.Slots {
		spellLevel := i + 1
		if missing := want - have[spellLevel]; missing > 0 {
			if err := tx.AddSpellSlots(ctx, characterID, spellLevel, missing); err != nil {
				return err
			}
		}
	}
	return nil
}
