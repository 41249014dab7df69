package character_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	clock *clock.Fixed
	store *character.Store
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewFixed(time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC))

	store, err := character.NewSQLite(s.ctx, &character.Config{
		Path:  filepath.Join(s.T().TempDir(), "characters.db"),
		Clock: s.clock,
	})
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreTestSuite) createCharacter(id string) {
	_, err := s.store.Create(s.ctx, character.CreateInput{Character: &dnd5e.Character{
		ID:           id,
		Name:         "Lyra " + id,
		RaceID:       "human",
		BackgroundID: "criminal",
		Level:        1,
	}})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) sheet(id string) *dnd5e.Sheet {
	out, err := s.store.Get(s.ctx, character.GetInput{ID: id})
	s.Require().NoError(err)
	return out.Sheet
}

func (s *StoreTestSuite) TestConfigValidation() {
	_, err := character.NewSQLite(s.ctx, &character.Config{})
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *StoreTestSuite) TestCreateAndGet() {
	s.createCharacter("char_1")

	sheet := s.sheet("char_1")
	s.Equal("Lyra char_1", sheet.Character.Name)
	s.Equal(1, sheet.Character.Level)
	s.Equal(s.clock.Now(), sheet.Character.CreatedAt)
	s.Empty(sheet.Classes)
	s.Nil(sheet.BackgroundDetails)
}

func (s *StoreTestSuite) TestCreateDuplicate() {
	s.createCharacter("char_1")

	_, err := s.store.Create(s.ctx, character.CreateInput{Character: &dnd5e.Character{
		ID: "char_1", Name: "Other", RaceID: "elf", BackgroundID: "sage",
	}})
	s.True(errors.IsAlreadyExists(err))
}

func (s *StoreTestSuite) TestCreateMissingFields() {
	_, err := s.store.Create(s.ctx, character.CreateInput{Character: &dnd5e.Character{ID: "char_1"}})
	s.Require().Error(err)
	fields := errors.ValidationFields(err)
	s.Contains(fields, "Name")
	s.Contains(fields, "RaceID")
}

func (s *StoreTestSuite) TestGetNotFound() {
	_, err := s.store.Get(s.ctx, character.GetInput{ID: "missing"})
	s.True(errors.IsNotFound(err))
}

func (s *StoreTestSuite) TestListFiltersByRace() {
	s.createCharacter("char_1")
	_, err := s.store.Create(s.ctx, character.CreateInput{Character: &dnd5e.Character{
		ID: "char_2", Name: "Borin", RaceID: "dwarf", BackgroundID: "soldier", Level: 1,
	}})
	s.Require().NoError(err)

	all, err := s.store.List(s.ctx, character.ListInput{})
	s.Require().NoError(err)
	s.Len(all.Characters, 2)
	s.Equal("Borin", all.Characters[0].Name)

	humans, err := s.store.List(s.ctx, character.ListInput{RaceID: "human"})
	s.Require().NoError(err)
	s.Require().Len(humans.Characters, 1)
	s.Equal("char_1", humans.Characters[0].ID)
}

func (s *StoreTestSuite) TestDeleteCascades() {
	s.createCharacter("char_1")
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		if err := tx.AddLanguages(ctx, "char_1", []string{"common"}); err != nil {
			return err
		}
		return tx.AddSpellSlots(ctx, "char_1", 1, 2)
	}))

	_, err := s.store.Delete(s.ctx, character.DeleteInput{ID: "char_1"})
	s.Require().NoError(err)

	_, err = s.store.Get(s.ctx, character.GetInput{ID: "char_1"})
	s.True(errors.IsNotFound(err))

	_, err = s.store.Delete(s.ctx, character.DeleteInput{ID: "char_1"})
	s.True(errors.IsNotFound(err))
}

func (s *StoreTestSuite) TestInTxRollsBack() {
	s.createCharacter("char_1")

	err := s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		if err := tx.IncrementCharacterLevel(ctx, "char_1", 1); err != nil {
			return err
		}
		return errors.Internal("boom")
	})
	s.Error(err)
	s.Equal(1, s.sheet("char_1").Character.Level)
}

func (s *StoreTestSuite) TestInTxNestedJoinsOuter() {
	s.createCharacter("char_1")

	err := s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		if err := tx.InTx(ctx, func(ctx context.Context, inner character.Tx) error {
			return inner.IncrementCharacterLevel(ctx, "char_1", 1)
		}); err != nil {
			return err
		}
		return errors.Internal("outer fails")
	})
	s.Error(err)
	s.Equal(1, s.sheet("char_1").Character.Level)
}

func (s *StoreTestSuite) TestAbilities() {
	s.createCharacter("char_1")
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		var abilities []dnd5e.CharacterAbility
		for _, a := range rules.Abilities() {
			abilities = append(abilities, dnd5e.CharacterAbility{Ability: a, Value: 28})
		}
		if err := tx.CreateAbilities(ctx, "char_1", abilities); err != nil {
			return err
		}
		if err := tx.SetSavingThrow(ctx, "char_1", rules.Dexterity); err != nil {
			return err
		}
		return tx.IncreaseAbility(ctx, "char_1", rules.Strength, 2)
	}))

	err := s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		return tx.IncreaseAbility(ctx, "char_1", rules.Strength, 1)
	})
	s.True(errors.IsInvalidArgument(err))

	sheet := s.sheet("char_1")
	s.Require().Len(sheet.Abilities, 6)
	s.Equal(rules.Strength, sheet.Abilities[0].Ability)
	s.Equal(30, sheet.Abilities[0].Value)
	s.True(sheet.Abilities[1].SavingThrow)
	s.Equal(9, sheet.Abilities[1].Modifier())
}

func (s *StoreTestSuite) TestSkillsAndTools() {
	s.createCharacter("char_1")
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		if err := tx.CreateSkills(ctx, "char_1", []string{"stealth", "nature"}); err != nil {
			return err
		}
		if err := tx.SetSkillProficiency(ctx, "char_1", []string{"stealth", "survival"}); err != nil {
			return err
		}
		if err := tx.SetSkillCompetence(ctx, "char_1", []string{"stealth"}); err != nil {
			return err
		}
		if err := tx.AddTools(ctx, "char_1", []string{"thieves-tools", "thieves-tools"}); err != nil {
			return err
		}
		return tx.SetToolCompetence(ctx, "char_1", "thieves-tools")
	}))

	sheet := s.sheet("char_1")
	s.Len(sheet.Skills, 3)
	s.True(sheet.Skill("stealth").Competence)
	s.True(sheet.Skill("survival").Proficiency)
	s.False(sheet.Skill("nature").Proficiency)
	s.Require().Len(sheet.Tools, 1)
	s.True(sheet.Tools[0].Competence)

	err := s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		return tx.SetSkillCompetence(ctx, "char_1", []string{"arcana"})
	})
	s.True(errors.IsNotFound(err))
}

func (s *StoreTestSuite) TestGrantFeatureStacks() {
	s.createCharacter("char_1")

	var created []bool
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		for _, grant := range []struct {
			id        string
			stackable bool
		}{
			{"sneak-attack", false},
			{"sneak-attack", false},
			{"superiority-die", true},
			{"superiority-die", true},
		} {
			ok, err := tx.GrantFeature(ctx, "char_1", grant.id, grant.stackable)
			if err != nil {
				return err
			}
			created = append(created, ok)
		}
		return nil
	}))

	s.Equal([]bool{true, false, true, false}, created)
	sheet := s.sheet("char_1")
	s.Len(sheet.Features, 2)
	s.Equal(0, sheet.Feature("sneak-attack").MaxCharges)
	s.Equal(2, sheet.Feature("superiority-die").MaxCharges)
}

func (s *StoreTestSuite) TestClasses() {
	s.createCharacter("char_1")
	class := &dnd5e.CharacterClass{ID: "cls_1", CharacterID: "char_1", ClassID: "rogue", Level: 1}

	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		if err := tx.CreateClass(ctx, class); err != nil {
			return err
		}
		if err := tx.IncrementClassLevel(ctx, "char_1", "rogue"); err != nil {
			return err
		}
		return tx.SetSubclass(ctx, "char_1", "rogue", "thief")
	}))

	err := s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		return tx.CreateClass(ctx, &dnd5e.CharacterClass{ID: "cls_2", CharacterID: "char_1", ClassID: "rogue", Level: 1})
	})
	s.True(errors.IsAlreadyExists(err))

	sheet := s.sheet("char_1")
	s.Require().Len(sheet.Classes, 1)
	s.Equal(2, sheet.Class("rogue").Level)
	s.Equal("rogue", sheet.ClassBySubclass("thief").ClassID)
}

func (s *StoreTestSuite) TestChoiceQueueOrdering() {
	s.createCharacter("char_1")
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		for i, c := range []dnd5e.AdvancementChoice{
			{Code: dnd5e.ChoiceSkill, Name: "Skill"},
			{Code: dnd5e.ChoiceRoguishArchetype, Name: "Roguish archetype", Important: true},
			{Code: dnd5e.ChoiceAbilityIncrease, Name: "Ability score improvement", Important: true},
		} {
			if err := tx.EnqueueChoice(ctx, &dnd5e.PendingChoice{
				ID:          []string{"ch_1", "ch_2", "ch_3"}[i],
				CharacterID: "char_1",
				Choice:      c,
				Reason:      dnd5e.ClassSource{ClassID: "rogue"},
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	sheet := s.sheet("char_1")
	s.Require().Len(sheet.Choices, 3)
	s.Equal("ch_3", sheet.Choices[0].ID)
	s.Equal("ch_2", sheet.Choices[1].ID)
	s.Equal("ch_1", sheet.Choices[2].ID)
	s.Equal("ch_3", sheet.BlockingChoice().ID)
	s.Equal(dnd5e.ClassSource{ClassID: "rogue"}, sheet.Choices[0].Reason)
	s.Equal(dnd5e.ChoicePending, sheet.Choices[0].Status)
}

func (s *StoreTestSuite) TestRepeatableChoiceLifecycle() {
	s.createCharacter("char_1")
	choice := dnd5e.AdvancementChoice{Code: dnd5e.ChoiceReplaceSpells, Name: "Replace spells", Repeatable: true}

	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		created, err := tx.EnsureChoice(ctx, &dnd5e.PendingChoice{ID: "ch_1", CharacterID: "char_1", Choice: choice})
		s.True(created)
		if err != nil {
			return err
		}
		return tx.CompleteChoice(ctx, "char_1", "ch_1", true)
	}))
	s.Equal(dnd5e.ChoiceSelected, s.sheet("char_1").Choices[0].Status)
	s.Nil(s.sheet("char_1").BlockingChoice())

	pending := &dnd5e.PendingChoice{ID: "ch_2", CharacterID: "char_1", Choice: choice}
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		created, err := tx.EnsureChoice(ctx, pending)
		s.False(created)
		return err
	}))
	s.Equal("ch_1", pending.ID)

	sheet := s.sheet("char_1")
	s.Require().Len(sheet.Choices, 1)
	s.Equal(dnd5e.ChoicePending, sheet.Choices[0].Status)

	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		return tx.CompleteChoice(ctx, "char_1", "ch_1", false)
	}))
	s.Empty(s.sheet("char_1").Choices)

	err := s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		return tx.CompleteChoice(ctx, "char_1", "ch_1", false)
	})
	s.True(errors.IsNotFound(err))
}

func (s *StoreTestSuite) TestDicePools() {
	s.createCharacter("char_1")
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		if err := tx.CreateDice(ctx, "char_1", dnd5e.CharacterDice{
			Type: dnd5e.DiceSuperiority, Dice: notation.MustParse("1d8"), Count: 4, Maximum: 4,
		}); err != nil {
			return err
		}
		if err := tx.IncrementDice(ctx, "char_1", dnd5e.DiceSuperiority, 1); err != nil {
			return err
		}
		return tx.SetDice(ctx, "char_1", dnd5e.DiceSuperiority, notation.MustParse("1d10"))
	}))

	err := s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		return tx.CreateDice(ctx, "char_1", dnd5e.CharacterDice{
			Type: dnd5e.DiceSuperiority, Dice: notation.MustParse("1d8"), Count: 1, Maximum: 1,
		})
	})
	s.True(errors.IsAlreadyExists(err))

	pool := s.sheet("char_1").DicePool(dnd5e.DiceSuperiority)
	s.Require().NotNil(pool)
	s.Equal(5, pool.Count)
	s.Equal(5, pool.Maximum)
	s.Equal(10, pool.Dice.Sides)
}

func (s *StoreTestSuite) TestConcurrentIncrementsSerialize() {
	s.createCharacter("char_1")
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		return tx.CreateDice(ctx, "char_1", dnd5e.CharacterDice{
			Type: dnd5e.DiceHit, Dice: notation.MustParse("1d8"), Count: 1, Maximum: 1,
		})
	}))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
				return tx.IncrementDice(ctx, "char_1", dnd5e.DiceHit, 1)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	s.Equal(1+workers, s.sheet("char_1").DicePool(dnd5e.DiceHit).Count)
}

func (s *StoreTestSuite) TestSpellSlotsAndLists() {
	s.createCharacter("char_1")
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		if err := tx.AddSpellSlots(ctx, "char_1", 1, 3); err != nil {
			return err
		}
		if err := tx.AddSpellSlots(ctx, "char_1", 2, 1); err != nil {
			return err
		}
		if err := tx.AddKnownSpells(ctx, "char_1", []string{"sleep", "charm-person"}); err != nil {
			return err
		}
		if err := tx.RemoveKnownSpells(ctx, "char_1", []string{"sleep"}); err != nil {
			return err
		}
		if err := tx.SetManeuvers(ctx, "char_1", []string{"riposte", "parry"}); err != nil {
			return err
		}
		return tx.SetManeuvers(ctx, "char_1", []string{"trip-attack"})
	}))

	var counts map[int]int
	s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
		var err error
		counts, err = tx.CountSpellSlots(ctx, "char_1")
		return err
	}))
	s.Equal(map[int]int{1: 3, 2: 1}, counts)

	sheet := s.sheet("char_1")
	s.Equal(counts, sheet.SlotCounts())
	s.Equal([]string{"charm-person"}, sheet.KnownSpells)
	s.Equal([]string{"trip-attack"}, sheet.KnownManeuvers)
}

func (s *StoreTestSuite) TestBackgroundDetailsUpsert() {
	s.createCharacter("char_1")
	for _, trait := range []string{"calm", "bold"} {
		trait := trait
		s.Require().NoError(s.store.InTx(s.ctx, func(ctx context.Context, tx character.Tx) error {
			return tx.SetBackgroundDetails(ctx, "char_1", dnd5e.BackgroundDetails{
				Path: "burglar", Trait: trait, Ideal: "freedom", Bond: "family", Flaw: "greed",
			})
		}))
	}

	details := s.sheet("char_1").BackgroundDetails
	s.Require().NotNil(details)
	s.Equal("bold", details.Trait)
	s.Equal("burglar", details.Path)
}
