package choices_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
	"github.com/KirkDiggler/rpg-advancement/internal/testutils"
)

const charID = "char_1"

// recordingAdvancer grants features directly and records class level calls.
type recordingAdvancer struct {
	granted []string
	levels  []string
}

func (r *recordingAdvancer) GrantFeature(ctx context.Context, tx character.Tx, characterID, featureID string, _ dnd5e.Source) error {
	r.granted = append(r.granted, featureID)
	_, err := tx.GrantFeature(ctx, characterID, featureID, false)
	return err
}

func (r *recordingAdvancer) ApplyClassLevel(_ context.Context, _ character.Tx, _ string, owner dnd5e.Source, level int) error {
	r.levels = append(r.levels, fmt.Sprintf("%s@%d", dnd5e.SourceKey(owner), level))
	return nil
}

type HandlersTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *character.Store
	book     *rulebook.Catalog
	registry *choices.Registry
	advancer *recordingAdvancer
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = testutils.OpenTestStore(s.T(), nil)
	s.book = testutils.LoadTestRulebook(s.T())
	s.registry = choices.NewRegistry()
	s.advancer = &recordingAdvancer{}
	testutils.SeedCharacter(s.T(), s.store, charID)
}

func (s *HandlersTestSuite) env(code dnd5e.ChoiceCode, reason dnd5e.Source) *choices.Env {
	sheet, err := s.store.Sheet(s.ctx, charID)
	s.Require().NoError(err)
	entry, err := s.book.GetChoice(s.ctx, code)
	s.Require().NoError(err)
	return &choices.Env{
		Sheet: sheet,
		Choice: &dnd5e.PendingChoice{
			ID:          "choice_1",
			CharacterID: charID,
			Choice:      *entry,
			Reason:      reason,
			Status:      dnd5e.ChoicePending,
		},
		Rulebook: s.book,
		Tx:       s.store,
		Advancer: s.advancer,
	}
}

func (s *HandlersTestSuite) form(code dnd5e.ChoiceCode, reason dnd5e.Source) (choices.Handler, *choices.Env, *choices.Form) {
	h, err := s.registry.Lookup(code)
	s.Require().NoError(err)
	env := s.env(code, reason)
	form, err := h.Constraints(s.ctx, env)
	s.Require().NoError(err)
	return h, env, form
}

func (s *HandlersTestSuite) resolve(code dnd5e.ChoiceCode, reason dnd5e.Source, sel choices.Selection) error {
	h, env, form := s.form(code, reason)
	v, err := h.Validate(s.ctx, env, form, sel)
	if err != nil {
		return err
	}
	return h.Apply(s.ctx, env, v)
}

func (s *HandlersTestSuite) sheet() *dnd5e.Sheet {
	sheet, err := s.store.Sheet(s.ctx, charID)
	s.Require().NoError(err)
	return sheet
}

func (s *HandlersTestSuite) addClass(classID string, level int) {
	s.Require().NoError(s.store.CreateClass(s.ctx, &dnd5e.CharacterClass{
		ID:          "cc_" + classID,
		CharacterID: charID,
		ClassID:     classID,
		Level:       level,
	}))
}

func optionIDs(f *choices.Field) []string {
	ids := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		ids = append(ids, o.ID)
	}
	return ids
}

func (s *HandlersTestSuite) requireFieldError(err error, field, message string) {
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err), "expected invalid argument, got %v", err)
	s.Contains(errors.ValidationFields(err)[field], message)
}

func (s *HandlersTestSuite) TestRegistryCoversEveryCode() {
	for _, code := range dnd5e.ChoiceCodes() {
		h, err := s.registry.Lookup(code)
		s.Require().NoError(err, code)
		s.Equal(code, h.Code())
	}

	_, err := s.registry.Lookup("CHAR_UNKNOWN_999")
	s.True(errors.IsIntegrity(err))
}

func (s *HandlersTestSuite) TestToolProficiencyExcludesKnownTools() {
	s.Require().NoError(s.store.AddTools(s.ctx, charID, []string{"dice-set"}))

	_, _, form := s.form(dnd5e.ChoiceToolGamingSet, nil)
	s.Equal(dnd5e.ChoiceToolGamingSet, form.Code)
	s.NotEmpty(form.Title)
	s.ElementsMatch([]string{"dragonchess-set", "playing-card-set", "three-dragon-ante-set"}, optionIDs(form.Field("tools")))

	err := s.resolve(dnd5e.ChoiceToolGamingSet, nil, choices.Selection{"tools": {"dragonchess-set", "playing-card-set"}})
	s.requireFieldError(err, "tools", "must choose exactly 1")

	err = s.resolve(dnd5e.ChoiceToolGamingSet, nil, choices.Selection{"tools": {"dice-set"}})
	s.requireFieldError(err, "tools", "dice-set is not a valid option")

	err = s.resolve(dnd5e.ChoiceToolGamingSet, nil, choices.Selection{"tools": {"playing-card-set"}, "colour": {"red"}})
	s.requireFieldError(err, "colour", "is not part of this choice")

	s.Require().NoError(s.resolve(dnd5e.ChoiceToolGamingSet, nil, choices.Selection{"tools": {"playing-card-set"}}))
	s.NotNil(s.sheet().Tool("playing-card-set"))
}

func (s *HandlersTestSuite) TestDuplicateSelection() {
	err := s.resolve(dnd5e.ChoiceToolMusical, nil, choices.Selection{"tools": {"lute", "lute"}})
	s.requireFieldError(err, "tools", "lute is selected more than once")
}

func (s *HandlersTestSuite) TestFightingStyleGrantsThroughAdvancer() {
	s.addClass(dnd5e.ClassFighter, 1)
	_, _, form := s.form(dnd5e.ChoiceFightingStyle, dnd5e.ClassSource{ClassID: dnd5e.ClassFighter})
	s.Len(form.Field("feature").Options, 6)

	s.Require().NoError(s.resolve(dnd5e.ChoiceFightingStyle, dnd5e.ClassSource{ClassID: dnd5e.ClassFighter},
		choices.Selection{"feature": {"defense"}}))
	s.Equal([]string{"defense"}, s.advancer.granted)

	_, _, form = s.form(dnd5e.ChoiceFightingStyle, nil)
	s.Len(form.Field("feature").Options, 5)
	s.NotContains(optionIDs(form.Field("feature")), "defense")
}

func (s *HandlersTestSuite) TestSubclassCatchesUpOnReachedLevels() {
	s.addClass(dnd5e.ClassFighter, 7)

	_, _, form := s.form(dnd5e.ChoiceMartialArchetype, nil)
	s.ElementsMatch([]string{"champion", "battle-master"}, optionIDs(form.Field("subclass")))

	s.Require().NoError(s.resolve(dnd5e.ChoiceMartialArchetype, nil, choices.Selection{"subclass": {"battle-master"}}))
	s.Equal("battle-master", s.sheet().Class(dnd5e.ClassFighter).SubclassID)
	s.Equal([]string{"subclass:battle-master@3", "subclass:battle-master@7"}, s.advancer.levels)

	h, err := s.registry.Lookup(dnd5e.ChoiceMartialArchetype)
	s.Require().NoError(err)
	_, err = h.Constraints(s.ctx, s.env(dnd5e.ChoiceMartialArchetype, nil))
	s.True(errors.IsFailedPrecondition(err))
}

func (s *HandlersTestSuite) TestSubclassRequiresClass() {
	h, err := s.registry.Lookup(dnd5e.ChoiceBardCollege)
	s.Require().NoError(err)
	_, err = h.Constraints(s.ctx, s.env(dnd5e.ChoiceBardCollege, nil))
	s.True(errors.IsFailedPrecondition(err))
}

func (s *HandlersTestSuite) TestExpertiseOffersProficientSkills() {
	s.Require().NoError(s.store.SetSkillProficiency(s.ctx, charID, []string{"stealth", "perception", "arcana"}))
	s.Require().NoError(s.store.SetSkillCompetence(s.ctx, charID, []string{"arcana"}))

	_, _, form := s.form(dnd5e.ChoiceExpertise, nil)
	s.Equal([]string{"perception", "stealth"}, optionIDs(form.Field("skills")))

	s.Require().NoError(s.resolve(dnd5e.ChoiceExpertise, nil, choices.Selection{"skills": {"stealth", "perception"}}))
	s.True(s.sheet().Skill("stealth").Competence)
	s.True(s.sheet().Skill("perception").Competence)
}

func (s *HandlersTestSuite) TestRogueExpertise() {
	s.Require().NoError(s.store.SetSkillProficiency(s.ctx, charID, []string{"stealth", "acrobatics", "perception"}))
	s.Require().NoError(s.store.AddTools(s.ctx, charID, []string{dnd5e.ToolThievesTools}))

	_, _, form := s.form(dnd5e.ChoiceRogueExpertise, nil)
	s.Equal([]string{dnd5e.ToolThievesTools}, optionIDs(form.Field("tool")))

	tests := []struct {
		name    string
		sel     choices.Selection
		wantErr string
	}{
		{
			name:    "one skill without tool",
			sel:     choices.Selection{"skills": {"stealth"}},
			wantErr: "must choose exactly 2 skills, or 1 skill and a tool",
		},
		{
			name:    "two skills with tool",
			sel:     choices.Selection{"skills": {"stealth", "acrobatics"}, "tool": {dnd5e.ToolThievesTools}},
			wantErr: "must choose exactly 1 skill together with a tool",
		},
		{
			name: "two skills",
			sel:  choices.Selection{"skills": {"stealth", "acrobatics"}},
		},
		{
			name: "one skill and tool",
			sel:  choices.Selection{"skills": {"perception"}, "tool": {dnd5e.ToolThievesTools}},
		},
	}

	h, err := s.registry.Lookup(dnd5e.ChoiceRogueExpertise)
	s.Require().NoError(err)
	for _, tt := range tests {
		s.Run(tt.name, func() {
			env := s.env(dnd5e.ChoiceRogueExpertise, nil)
			_, err := h.Validate(s.ctx, env, form, tt.sel)
			if tt.wantErr != "" {
				s.requireFieldError(err, "skills", tt.wantErr)
				return
			}
			s.NoError(err)
		})
	}

	s.Require().NoError(s.resolve(dnd5e.ChoiceRogueExpertise, nil,
		choices.Selection{"skills": {"perception"}, "tool": {dnd5e.ToolThievesTools}}))
	sheet := s.sheet()
	s.True(sheet.Skill("perception").Competence)
	s.False(sheet.Skill("stealth").Competence)
	s.True(sheet.Tool(dnd5e.ToolThievesTools).Competence)
}

func (s *HandlersTestSuite) TestClassSkillsUseFirstClassList() {
	s.addClass(dnd5e.ClassRogue, 1)
	s.Require().NoError(s.store.SetSkillProficiency(s.ctx, charID, []string{"stealth", "deception"}))

	_, _, form := s.form(dnd5e.ChoiceClassSkills, nil)
	field := form.Field("skills")
	s.Equal(4, field.Min)
	s.Equal(4, field.Max)
	s.NotContains(optionIDs(field), "stealth")
	s.NotContains(optionIDs(field), "arcana")
	s.Len(field.Options, 9)

	s.Require().NoError(s.resolve(dnd5e.ChoiceClassSkills, nil,
		choices.Selection{"skills": {"acrobatics", "insight", "perception", "investigation"}}))
	s.True(s.sheet().Skill("investigation").Proficiency)
}

func (s *HandlersTestSuite) TestClassSkillsFollowReasonClass() {
	s.addClass(dnd5e.ClassFighter, 5)
	s.addClass(dnd5e.ClassRogue, 1)

	_, _, form := s.form(dnd5e.ChoiceClassSkills, dnd5e.ClassSource{ClassID: dnd5e.ClassRogue})
	field := form.Field("skills")
	s.Equal(4, field.Max)
	s.Contains(optionIDs(field), "stealth")

	_, _, form = s.form(dnd5e.ChoiceClassSkills, dnd5e.ClassSource{ClassID: dnd5e.ClassFighter})
	s.Equal(2, form.Field("skills").Max)
	s.NotContains(optionIDs(form.Field("skills")), "stealth")

	h, err := s.registry.Lookup(dnd5e.ChoiceClassSkills)
	s.Require().NoError(err)
	_, err = h.Constraints(s.ctx, s.env(dnd5e.ChoiceClassSkills, dnd5e.ClassSource{ClassID: dnd5e.ClassBard}))
	s.True(errors.IsFailedPrecondition(err))
}

func (s *HandlersTestSuite) TestClassSkillsWithoutListOfferAnySkill() {
	s.addClass(dnd5e.ClassBard, 1)
	s.Require().NoError(s.store.SetSkillProficiency(s.ctx, charID, []string{"performance"}))

	_, _, form := s.form(dnd5e.ChoiceClassSkills, nil)
	s.Len(form.Field("skills").Options, 17)
	s.Equal(3, form.Field("skills").Min)
}

func (s *HandlersTestSuite) TestAbilityIncrease() {
	s.Require().NoError(s.store.SetAbilityScore(s.ctx, charID, rules.Strength, 29))

	err := s.resolve(dnd5e.ChoiceAbilityIncrease, nil, choices.Selection{"abilities": {"strength"}})
	s.requireFieldError(err, "abilities", "strength cannot exceed 30")

	err = s.resolve(dnd5e.ChoiceAbilityIncrease, nil, choices.Selection{"abilities": {"strength", "dexterity", "wisdom"}})
	s.requireFieldError(err, "abilities", "must choose between 1 and 2")

	s.Require().NoError(s.resolve(dnd5e.ChoiceAbilityIncrease, nil, choices.Selection{"abilities": {"strength", "dexterity"}}))
	scores := s.sheet().AbilityScores()
	s.Equal(30, scores[rules.Strength])
	s.Equal(12, scores[rules.Dexterity])

	_, _, form := s.form(dnd5e.ChoiceAbilityIncrease, nil)
	s.NotContains(optionIDs(form.Field("abilities")), "strength")

	s.Require().NoError(s.resolve(dnd5e.ChoiceAbilityIncrease, nil, choices.Selection{"abilities": {"wisdom"}}))
	s.Equal(13, s.sheet().AbilityScores()[rules.Wisdom])
}

func (s *HandlersTestSuite) TestManeuverPickEnsuresPool() {
	s.Require().NoError(s.store.CreateDice(s.ctx, charID, dnd5e.NewSuperiorityPool()))

	err := s.resolve(dnd5e.ChoiceManeuvers, nil, choices.Selection{"maneuvers": {"parry", "riposte"}})
	s.requireFieldError(err, "maneuvers", "must choose exactly 3")

	s.Require().NoError(s.resolve(dnd5e.ChoiceManeuvers, nil, choices.Selection{"maneuvers": {"parry", "riposte", "rally"}}))
	sheet := s.sheet()
	s.ElementsMatch([]string{"parry", "riposte", "rally"}, sheet.KnownManeuvers)
	pool := sheet.DicePool(dnd5e.DiceSuperiority)
	s.Require().NotNil(pool)
	s.Equal(4, pool.Count)
	s.Equal("1d8", pool.Dice.String())
}

func (s *HandlersTestSuite) TestManeuverUpgrade() {
	s.Require().NoError(s.resolve(dnd5e.ChoiceManeuvers, nil, choices.Selection{"maneuvers": {"parry", "riposte", "rally"}}))

	tests := []struct {
		name    string
		sel     choices.Selection
		field   string
		wantErr string
	}{
		{
			name:    "source without destination",
			sel:     choices.Selection{"append": {"trip-attack", "pushing-attack"}, "replace_src": {"parry"}},
			field:   "replace_dst",
			wantErr: "is required when replacing a maneuver",
		},
		{
			name:    "destination without source",
			sel:     choices.Selection{"append": {"trip-attack", "pushing-attack"}, "replace_dst": {"menacing-attack"}},
			field:   "replace_src",
			wantErr: "is required when replacing a maneuver",
		},
		{
			name:    "destination also appended",
			sel:     choices.Selection{"append": {"trip-attack", "pushing-attack"}, "replace_src": {"parry"}, "replace_dst": {"trip-attack"}},
			field:   "replace_dst",
			wantErr: "trip-attack is already being learned",
		},
		{
			name:    "forget unknown maneuver",
			sel:     choices.Selection{"append": {"trip-attack", "pushing-attack"}, "replace_src": {"lunging-attack"}, "replace_dst": {"menacing-attack"}},
			field:   "replace_src",
			wantErr: "lunging-attack is not a valid option",
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.resolve(dnd5e.ChoiceManeuversUpgrade, nil, tt.sel)
			s.requireFieldError(err, tt.field, tt.wantErr)
		})
	}

	s.Require().NoError(s.resolve(dnd5e.ChoiceManeuversUpgrade, nil, choices.Selection{
		"append":      {"trip-attack", "pushing-attack"},
		"replace_src": {"parry"},
		"replace_dst": {"menacing-attack"},
	}))
	sheet := s.sheet()
	s.ElementsMatch([]string{"riposte", "rally", "trip-attack", "pushing-attack", "menacing-attack"}, sheet.KnownManeuvers)
	s.Equal(5, sheet.DicePool(dnd5e.DiceSuperiority).Count)
	s.Equal(5, sheet.DicePool(dnd5e.DiceSuperiority).Maximum)

	s.Require().NoError(s.resolve(dnd5e.ChoiceManeuversImprove, nil, choices.Selection{"append": {"parry", "evasive-footwork"}}))
	sheet = s.sheet()
	s.Len(sheet.KnownManeuvers, 7)
	s.Equal(5, sheet.DicePool(dnd5e.DiceSuperiority).Count)
}

func (s *HandlersTestSuite) TestManeuverUpgradeClampsToRemaining() {
	all, err := s.book.ListManeuvers(s.ctx)
	s.Require().NoError(err)
	s.Require().Greater(len(all), 1)

	known := make([]string, 0, len(all)-1)
	for _, m := range all[:len(all)-1] {
		known = append(known, m.ID)
	}
	s.Require().NoError(s.store.AddManeuvers(s.ctx, charID, known))
	last := all[len(all)-1].ID

	_, _, form := s.form(dnd5e.ChoiceManeuversImprove, nil)
	field := form.Field("append")
	s.Equal(1, field.Min)
	s.Equal(1, field.Max)
	s.Equal([]string{last}, optionIDs(field))

	s.Require().NoError(s.resolve(dnd5e.ChoiceManeuversImprove, nil, choices.Selection{"append": {last}}))
	s.Len(s.sheet().KnownManeuvers, len(all))
}

func (s *HandlersTestSuite) TestMastermindIntrigue() {
	s.Require().NoError(s.store.AddLanguages(s.ctx, charID, []string{"common"}))

	_, _, form := s.form(dnd5e.ChoiceMastermindIntrigue, nil)
	s.NotContains(optionIDs(form.Field("languages")), "common")
	s.Len(form.Field("tool").Options, 4)

	err := s.resolve(dnd5e.ChoiceMastermindIntrigue, nil, choices.Selection{"tool": {"dice-set"}, "languages": {"elvish"}})
	s.requireFieldError(err, "languages", "must choose exactly 2")

	s.Require().NoError(s.resolve(dnd5e.ChoiceMastermindIntrigue, nil,
		choices.Selection{"tool": {"dice-set"}, "languages": {"elvish", "draconic"}}))
	sheet := s.sheet()
	s.NotNil(sheet.Tool("dice-set"))
	s.True(sheet.HasLanguage("draconic"))
}

func (s *HandlersTestSuite) TestBackgroundDetails() {
	bg, err := s.book.GetBackground(s.ctx, "criminal")
	s.Require().NoError(err)

	_, _, form := s.form(dnd5e.ChoiceBackgroundDetails, nil)
	s.Require().NotNil(form.Field("path"))
	s.Equal(bg.PathLabel, form.Field("path").Label)
	s.Len(form.Field("trait").Options, len(bg.Traits))

	err = s.resolve(dnd5e.ChoiceBackgroundDetails, nil, choices.Selection{"trait": {"1"}, "ideal": {"1"}, "bond": {"1"}, "flaw": {"1"}})
	s.requireFieldError(err, "path", "must choose exactly 1")

	s.Require().NoError(s.resolve(dnd5e.ChoiceBackgroundDetails, nil, choices.Selection{
		"path":  {"2"},
		"trait": {"1"},
		"ideal": {"2"},
		"bond":  {"1"},
		"flaw":  {"1"},
	}))
	details := s.sheet().BackgroundDetails
	s.Require().NotNil(details)
	s.Equal(bg.Paths[1], details.Path)
	s.Equal(bg.Traits[0], details.Trait)
	s.Equal(bg.Ideals[1], details.Ideal)
	s.Equal(bg.Flaws[0], details.Flaw)
}

func (s *HandlersTestSuite) TestSpellChoiceWithoutReason() {
	s.addClass(dnd5e.ClassBard, 1)
	h, err := s.registry.Lookup(dnd5e.ChoiceKnownSpells)
	s.Require().NoError(err)

	_, err = h.Constraints(s.ctx, s.env(dnd5e.ChoiceKnownSpells, nil))
	s.True(errors.IsIntegrity(err))
}

func (s *HandlersTestSuite) TestBardSpellProgression() {
	bard := dnd5e.ClassSource{ClassID: dnd5e.ClassBard}
	s.addClass(dnd5e.ClassBard, 1)

	_, _, form := s.form(dnd5e.ChoiceKnownSpells, bard)
	s.Equal(2, form.Field("cantrips").Min)
	s.Len(form.Field("cantrips").Options, 7)
	s.Equal(4, form.Field("spells").Min)
	s.NotContains(optionIDs(form.Field("spells")), "hold-person")

	s.Require().NoError(s.resolve(dnd5e.ChoiceKnownSpells, bard, choices.Selection{
		"cantrips": {"vicious-mockery", "mage-hand"},
		"spells":   {"charm-person", "healing-word", "sleep", "thunderwave"},
	}))
	s.Len(s.sheet().KnownSpells, 6)

	s.Require().NoError(s.store.IncrementClassLevel(s.ctx, charID, dnd5e.ClassBard))

	_, _, form = s.form(dnd5e.ChoiceAppendSpells, bard)
	s.Equal(1, form.Field("spells").Min)
	s.NotContains(optionIDs(form.Field("spells")), "sleep")

	err := s.resolve(dnd5e.ChoiceAppendSpells, bard, choices.Selection{"spells": {"hold-person"}})
	s.requireFieldError(err, "spells", "hold-person is not a valid option")

	s.Require().NoError(s.resolve(dnd5e.ChoiceAppendSpells, bard, choices.Selection{"spells": {"faerie-fire"}}))

	_, _, form = s.form(dnd5e.ChoiceAppendCantrips, bard)
	s.Equal(0, form.Field("cantrips").Max)
	s.Require().NoError(s.resolve(dnd5e.ChoiceAppendCantrips, bard, choices.Selection{}))

	_, _, form = s.form(dnd5e.ChoiceReplaceSpells, bard)
	s.Equal(1, form.Field("to_replace").Min)
	s.ElementsMatch([]string{"charm-person", "healing-word", "sleep", "thunderwave", "faerie-fire"},
		optionIDs(form.Field("to_replace")))

	s.Require().NoError(s.resolve(dnd5e.ChoiceReplaceSpells, bard, choices.Selection{
		"to_replace": {"sleep"},
		"by_replace": {"dissonant-whispers"},
	}))
	sheet := s.sheet()
	s.False(sheet.KnowsSpell("sleep"))
	s.True(sheet.KnowsSpell("dissonant-whispers"))
	s.Len(sheet.KnownSpells, 7)
}
