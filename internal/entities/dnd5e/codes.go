package dnd5e

// ChoiceCode identifies a kind of advancement decision. Each code maps to
// exactly one choice handler.
type ChoiceCode string

// Known choice codes.
const (
	ChoiceToolGamingSet       ChoiceCode = "PROF_TOOLS_001"
	ChoiceToolMusical         ChoiceCode = "PROF_TOOLS_002"
	ChoiceToolArtisan         ChoiceCode = "PROF_TOOLS_003"
	ChoiceFightingStyle       ChoiceCode = "CLASS_WAR_001"
	ChoiceMartialArchetype    ChoiceCode = "CLASS_WAR_002"
	ChoiceRoguishArchetype    ChoiceCode = "CLASS_ROG_001"
	ChoiceRogueExpertise      ChoiceCode = "CLASS_ROG_002"
	ChoiceMastermindIntrigue  ChoiceCode = "CLASS_ROG_003"
	ChoiceBardCollege         ChoiceCode = "CLASS_BARD_001"
	ChoiceExpertise           ChoiceCode = "CLASS_COMPETENCE"
	ChoiceManeuvers           ChoiceCode = "CLASS_BATTLE_001"
	ChoiceManeuversUpgrade    ChoiceCode = "CLASS_BATTLE_002"
	ChoiceManeuversImprove    ChoiceCode = "CLASS_BATTLE_003"
	ChoiceAbilityIncrease     ChoiceCode = "CHAR_ADVANCE_001"
	ChoiceClassSkills         ChoiceCode = "CHAR_ADVANCE_002"
	ChoiceBackgroundLanguages ChoiceCode = "CHAR_ADVANCE_003"
	ChoiceBackgroundDetails   ChoiceCode = "CHAR_ADVANCE_004"
	ChoiceSkill               ChoiceCode = "CHAR_ADVANCE_005"
	ChoiceKnownSpells         ChoiceCode = "CHAR_SPELLS_BARD"
	ChoiceReplaceSpells       ChoiceCode = "CHAR_SPELLS_REPLACE"
	ChoiceAppendSpells        ChoiceCode = "CHAR_SPELLS_APPEND"
	ChoiceAppendCantrips      ChoiceCode = "CHAR_CANTRIPS_APPEND"
)

// ChoiceCodes lists every known choice code.
func ChoiceCodes() []ChoiceCode {
	return []ChoiceCode{
		ChoiceToolGamingSet, ChoiceToolMusical, ChoiceToolArtisan,
		ChoiceFightingStyle, ChoiceMartialArchetype, ChoiceRoguishArchetype,
		ChoiceRogueExpertise, ChoiceMastermindIntrigue, ChoiceBardCollege,
		ChoiceExpertise, ChoiceManeuvers, ChoiceManeuversUpgrade, ChoiceManeuversImprove,
		ChoiceAbilityIncrease, ChoiceClassSkills, ChoiceBackgroundLanguages,
		ChoiceBackgroundDetails, ChoiceSkill, ChoiceKnownSpells, ChoiceReplaceSpells,
		ChoiceAppendSpells, ChoiceAppendCantrips,
	}
}

// PostAction names a side effect run right after a feature is granted.
type PostAction string

// Known post actions. The empty PostAction means none.
const (
	PostActionNone                 PostAction = ""
	PostWisdomSave                 PostAction = "POST_FEAT_001"
	PostRogueExpertise             PostAction = "POST_FEAT_002"
	PostBardExpertise              PostAction = "POST_FEAT_002_01"
	PostAssassinTools              PostAction = "POST_FEAT_003"
	PostMastermindTools            PostAction = "POST_FEAT_004"
	PostScoutSkills                PostAction = "POST_FEAT_005"
	PostScoutMobility              PostAction = "POST_FEAT_006"
	PostStudentOfWar               PostAction = "POST_WAR_STUDENT_001"
	PostCombatSuperiority          PostAction = "POST_COMBAT_SUPERIORITY_001"
	PostImprovedCombatSuperiority  PostAction = "POST_COMBAT_SUPERIORITY_002"
	PostImprovedCombatSuperiority2 PostAction = "POST_COMBAT_SUPERIORITY_003"
	PostSpellcasting               PostAction = "POST_SPELLCASTING_001"
)

// PostActions lists every known post action except PostActionNone.
func PostActions() []PostAction {
	return []PostAction{
		PostWisdomSave, PostRogueExpertise, PostBardExpertise, PostAssassinTools,
		PostMastermindTools, PostScoutSkills, PostScoutMobility, PostStudentOfWar,
		PostCombatSuperiority, PostImprovedCombatSuperiority, PostImprovedCombatSuperiority2,
		PostSpellcasting,
	}
}

// Rulebook ids the engine refers to directly.
const (
	ToolThievesTools = "thieves-tools"
	ToolPoisonersKit = "poisoners-kit"
	ToolDisguiseKit  = "disguise-kit"
	ToolForgeryKit   = "forgery-kit"

	SkillNature   = "nature"
	SkillSurvival = "survival"

	ClassFighter = "fighter"
	ClassRogue   = "rogue"
	ClassBard    = "bard"

	FeatureGroupFightingStyle = "fight_style"
)
