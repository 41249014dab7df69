package advancement

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

// postAction is the side effect a feature runs after it is granted. reason is
// the source the feature was granted from.
type postAction func(ctx context.Context, a *applier, tx character.Tx, characterID string, reason dnd5e.Source) error

// newPostActions returns the table of every known post action. It is built
// once per orchestrator and never modified.
func newPostActions() map[dnd5e.PostAction]postAction {
	return map[dnd5e.PostAction]postAction{
		dnd5e.PostWisdomSave: func(ctx context.Context, _ *applier, tx character.Tx, characterID string, _ dnd5e.Source) error {
			return tx.SetSavingThrow(ctx, characterID, rules.Wisdom)
		},
		dnd5e.PostRogueExpertise:  ensurePending(dnd5e.ChoiceRogueExpertise),
		dnd5e.PostBardExpertise:   ensurePending(dnd5e.ChoiceExpertise),
		dnd5e.PostAssassinTools:   addTools(dnd5e.ToolPoisonersKit, dnd5e.ToolDisguiseKit),
		dnd5e.PostMastermindTools: mastermindTools,
		dnd5e.PostScoutSkills: func(ctx context.Context, _ *applier, tx character.Tx, characterID string, _ dnd5e.Source) error {
			return tx.SetSkillProficiency(ctx, characterID, []string{dnd5e.SkillNature, dnd5e.SkillSurvival})
		},
		dnd5e.PostScoutMobility: func(context.Context, *applier, character.Tx, string, dnd5e.Source) error {
			return nil
		},
		dnd5e.PostStudentOfWar:               enqueue(dnd5e.ChoiceToolArtisan),
		dnd5e.PostCombatSuperiority:          combatSuperiority,
		dnd5e.PostImprovedCombatSuperiority:  superiorityDie(10, false),
		dnd5e.PostImprovedCombatSuperiority2: superiorityDie(12, true),
		dnd5e.PostSpellcasting:               spellcasting,
	}
}

func enqueue(code dnd5e.ChoiceCode) postAction {
	return func(ctx context.Context, a *applier, tx character.Tx, characterID string, reason dnd5e.Source) error {
		_, err := a.enqueueChoice(ctx, tx, characterID, code, reason)
		return err
	}
}

// ensurePending enqueues code unless the character already has it pending.
func ensurePending(code dnd5e.ChoiceCode) postAction {
	return func(ctx context.Context, a *applier, tx character.Tx, characterID string, reason dnd5e.Source) error {
		sheet, err := tx.Sheet(ctx, characterID)
		if err != nil {
			return err
		}
		for _, c := range sheet.Choices {
			if c.Choice.Code == code && c.Status == dnd5e.ChoicePending {
				return nil
			}
		}
		_, err = a.enqueueChoice(ctx, tx, characterID, code, reason)
		return err
	}
}

func addTools(toolIDs ...string) postAction {
	return func(ctx context.Context, _ *applier, tx character.Tx, characterID string, _ dnd5e.Source) error {
		return tx.AddTools(ctx, characterID, toolIDs)
	}
}

func mastermindTools(ctx context.Context, a *applier, tx character.Tx, characterID string, reason dnd5e.Source) error {
	if err := tx.AddTools(ctx, characterID, []string{dnd5e.ToolForgeryKit, dnd5e.ToolDisguiseKit}); err != nil {
		return err
	}
	_, err := a.enqueueChoice(ctx, tx, characterID, dnd5e.ChoiceMastermindIntrigue, reason)
	return err
}

func combatSuperiority(ctx context.Context, a *applier, tx character.Tx, characterID string, reason dnd5e.Source) error {
	if err := choices.EnsureSuperiorityPool(ctx, tx, characterID); err != nil {
		return err
	}
	_, err := a.enqueueChoice(ctx, tx, characterID, dnd5e.ChoiceManeuvers, reason)
	return err
}

// superiorityDie resizes the superiority die. With replacesPrevious the
// features of the previous improvement are removed.
func superiorityDie(sides int, replacesPrevious bool) postAction {
	return func(ctx context.Context, a *applier, tx character.Tx, characterID string, _ dnd5e.Source) error {
		if err := tx.SetDice(ctx, characterID, dnd5e.DiceSuperiority, notation.Dice{Count: 1, Sides: sides}); err != nil {
			return err
		}
		if !replacesPrevious {
			return nil
		}

		features, err := a.rulebook.ListFeatures(ctx, "")
		if err != nil {
			return err
		}
		var previous []string
		for _, f := range features {
			if f.PostAction == dnd5e.PostImprovedCombatSuperiority {
				previous = append(previous, f.ID)
			}
		}
		if len(previous) == 0 {
			return nil
		}
		return tx.DeleteFeatures(ctx, characterID, previous)
	}
}

// spellcasting fills the slots of the class the feature came from and queues
// the first pick of known spells for it.
func spellcasting(ctx context.Context, a *applier, tx character.Tx, characterID string, reason dnd5e.Source) error {
	sheet, err := tx.Sheet(ctx, characterID)
	if err != nil {
		return err
	}
	class := sheet.ClassFor(reason)
	if class == nil {
		return errors.Integrityf("spellcasting granted without a class reason (%s)", dnd5e.SourceKey(reason)).
			WithMeta("character_id", characterID)
	}
	if err := a.updateSpellSlots(ctx, tx, characterID, class.ClassID, class.SubclassID, class.Level); err != nil {
		return err
	}
	_, err = a.enqueueChoice(ctx, tx, characterID, dnd5e.ChoiceKnownSpells, reason)
	return err
}
