package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/choices"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice"
	"github.com/KirkDiggler/rpg-advancement/internal/rules"
	advancementsvc "github.com/KirkDiggler/rpg-advancement/internal/services/advancement"
)

var characterCmd = &cobra.Command{
	Use:   "character",
	Short: "Create and advance characters",
}

var (
	initInput   advancementsvc.InitializeCharacterInput
	scoreFlags  map[string]int
	raceFilter  string
	grantReason string
	selectFlags []string
	rollMethod  string
	applyRolls  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a level 1 character",
	Example: `  rpg-advancement character init --name Vex --race elf --subrace high-elf \
    --background criminal --class rogue --scores dexterity=15,intelligence=14`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			scores, err := parseScores(scoreFlags)
			if err != nil {
				return err
			}
			input := initInput
			input.AbilityScores = scores
			out, err := a.advancement.InitializeCharacter(ctx, &input)
			if err != nil {
				return err
			}
			return printJSON(out.Sheet)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <character-id>",
	Short: "Print a character sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.GetCharacter(ctx, &advancementsvc.GetCharacterInput{CharacterID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List characters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.ListCharacters(ctx, &advancementsvc.ListCharactersInput{RaceID: raceFilter})
			if err != nil {
				return err
			}
			for _, c := range out.Characters {
				fmt.Printf("%s\t%s\tlevel %d\t%s\n", c.ID, c.Name, c.Level, c.RaceID)
			}
			return nil
		})
	},
}

var levelUpCmd = &cobra.Command{
	Use:   "level-up <character-id> <class-id>",
	Short: "Gain one level in a class the character already has",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.LevelUpClass(ctx, &advancementsvc.LevelUpClassInput{
				CharacterID: args[0],
				ClassID:     args[1],
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s is now level %d (total %d)\n", out.Class.ClassID, out.Class.Level, out.Sheet.Character.Level)
			return printPending(out.Sheet.Choices)
		})
	},
}

var multiclassCmd = &cobra.Command{
	Use:   "multiclass <character-id> <class-id>",
	Short: "Take the first level of a new class",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.InitializeMulticlass(ctx, &advancementsvc.InitializeMulticlassInput{
				CharacterID: args[0],
				ClassID:     args[1],
			})
			if err != nil {
				return err
			}
			fmt.Printf("took %s (total level %d)\n", out.Class.ClassID, out.Sheet.Character.Level)
			return printPending(out.Sheet.Choices)
		})
	},
}

var multiclassOptionsCmd = &cobra.Command{
	Use:   "multiclass-options <character-id>",
	Short: "List classes the character could take next",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.ListMulticlassOptions(ctx, &advancementsvc.ListMulticlassOptionsInput{
				CharacterID: args[0],
			})
			if err != nil {
				return err
			}
			for _, opt := range out.Options {
				status := "available"
				if !opt.Available {
					status = opt.Reason
				}
				fmt.Printf("%-10s %s\n", opt.Class.ID, status)
			}
			return nil
		})
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <character-id> <feature-id>",
	Short: "Grant a feature and run its post action",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, err := dnd5e.ParseSourceKey(grantReason)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.GrantFeature(ctx, &advancementsvc.GrantFeatureInput{
				CharacterID: args[0],
				FeatureID:   args[1],
				Reason:      reason,
			})
			if err != nil {
				return err
			}
			fmt.Printf("granted %s (charges %d)\n", out.Feature.FeatureID, out.Feature.MaxCharges)
			return printPending(out.Sheet.Choices)
		})
	},
}

var choicesCmd = &cobra.Command{
	Use:   "choices <character-id>",
	Short: "List pending choices, important first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.ListChoices(ctx, &advancementsvc.ListChoicesInput{CharacterID: args[0]})
			if err != nil {
				return err
			}
			return printPending(out.Choices)
		})
	},
}

var formCmd = &cobra.Command{
	Use:   "form <character-id> <choice-id>",
	Short: "Show the options of a pending choice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.GetChoiceForm(ctx, &advancementsvc.GetChoiceFormInput{
				CharacterID: args[0],
				ChoiceID:    args[1],
			})
			if err != nil {
				return blockedNotice(err)
			}
			return printJSON(out.Form)
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <character-id> <choice-id>",
	Short: "Resolve a pending choice",
	Example: `  rpg-advancement character resolve char_1 choice_7 --select skills=stealth,perception
  rpg-advancement character resolve char_1 choice_8 --select skills=arcana --select tools=thieves-tools`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		selection, err := parseSelection(selectFlags)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.ResolveChoice(ctx, &advancementsvc.ResolveChoiceInput{
				CharacterID: args[0],
				ChoiceID:    args[1],
				Selection:   selection,
			})
			if err != nil {
				return blockedNotice(err)
			}
			fmt.Println("resolved")
			return printPending(out.Sheet.Choices)
		})
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <character-id> <choice-id>",
	Short: "Drop a rejectable pending choice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			_, err := a.advancement.RejectChoice(ctx, &advancementsvc.RejectChoiceInput{
				CharacterID: args[0],
				ChoiceID:    args[1],
			})
			if err != nil {
				return blockedNotice(err)
			}
			fmt.Println("rejected")
			return nil
		})
	},
}

var setScoresCmd = &cobra.Command{
	Use:   "set-scores <character-id>",
	Short: "Overwrite raw ability scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scores, err := parseScores(scoreFlags)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			out, err := a.advancement.SetAbilityScores(ctx, &advancementsvc.SetAbilityScoresInput{
				CharacterID: args[0],
				Scores:      scores,
			})
			if err != nil {
				return err
			}
			return printJSON(out.Sheet.Abilities)
		})
	},
}

var rollScoresCmd = &cobra.Command{
	Use:   "roll-scores <character-id>",
	Short: "Roll six ability scores into a dice session, optionally applying them in sheet order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			svc, closeDice, err := openDice(ctx, a.cfg, a.publisher)
			if err != nil {
				return err
			}
			defer closeDice()

			out, err := svc.RollAbilityScores(ctx, &dice.RollAbilityScoresInput{
				EntityID: args[0],
				Method:   rollMethod,
			})
			if err != nil {
				return err
			}

			scores := make(map[rules.Ability]int, len(out.Rolls))
			for i, roll := range out.Rolls {
				ability := rules.Abilities()[i]
				scores[ability] = int(roll.Total)
				fmt.Printf("%-12s %2d  %v", ability.Name(), roll.Total, roll.Dice)
				if len(roll.Dropped) > 0 {
					fmt.Printf(" dropped %v", roll.Dropped)
				}
				fmt.Println()
			}
			if !applyRolls {
				return nil
			}
			_, err = a.advancement.SetAbilityScores(ctx, &advancementsvc.SetAbilityScoresInput{
				CharacterID: args[0],
				Scores:      scores,
			})
			return err
		})
	},
}

func init() {
	initCmd.Flags().StringVar(&initInput.Name, "name", "", "Character name (required)")
	initCmd.Flags().IntVar(&initInput.Age, "age", 0, "Age")
	initCmd.Flags().StringVar(&initInput.Gender, "gender", "", "Gender")
	initCmd.Flags().StringVar(&initInput.Alignment, "alignment", "", "Alignment")
	initCmd.Flags().StringVar(&initInput.RaceID, "race", "", "Race id (required)")
	initCmd.Flags().StringVar(&initInput.SubraceID, "subrace", "", "Subrace id, required when the race has subraces")
	initCmd.Flags().StringVar(&initInput.BackgroundID, "background", "", "Background id (required)")
	initCmd.Flags().StringVar(&initInput.ClassID, "class", "", "Class id (required)")
	initCmd.Flags().StringToIntVar(&scoreFlags, "scores", nil, "Ability scores, e.g. strength=15,dexterity=14")
	_ = initCmd.MarkFlagRequired("name")       // nolint:errcheck // safe to ignore in init
	_ = initCmd.MarkFlagRequired("race")       // nolint:errcheck // safe to ignore in init
	_ = initCmd.MarkFlagRequired("background") // nolint:errcheck // safe to ignore in init
	_ = initCmd.MarkFlagRequired("class")      // nolint:errcheck // safe to ignore in init

	listCmd.Flags().StringVar(&raceFilter, "race", "", "Only list characters of this race")
	grantCmd.Flags().StringVar(&grantReason, "reason", "", "Source passed to the post action, e.g. class:bard")
	resolveCmd.Flags().StringArrayVar(&selectFlags, "select", nil, "field=id[,id...]; repeat per field")
	setScoresCmd.Flags().StringToIntVar(&scoreFlags, "scores", nil, "Ability scores, e.g. strength=15,dexterity=14")
	_ = setScoresCmd.MarkFlagRequired("scores") // nolint:errcheck // safe to ignore in init
	rollScoresCmd.Flags().StringVar(&rollMethod, "method", dice.MethodStandard, "4d6_drop_lowest or 3d6")
	rollScoresCmd.Flags().BoolVar(&applyRolls, "apply", false, "Write the rolled scores to the character in sheet order")

	characterCmd.AddCommand(
		initCmd, showCmd, listCmd,
		levelUpCmd, multiclassCmd, multiclassOptionsCmd, grantCmd,
		choicesCmd, formCmd, resolveCmd, rejectCmd,
		setScoresCmd, rollScoresCmd,
	)
}

func parseScores(raw map[string]int) (map[rules.Ability]int, error) {
	vb := errors.NewValidationBuilder()
	scores := make(map[rules.Ability]int, len(raw))
	for name, value := range raw {
		ability := rules.Ability(strings.ToLower(strings.TrimSpace(name)))
		if !ability.Valid() {
			vb.InvalidField("scores", "unknown ability "+name)
			continue
		}
		scores[ability] = value
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	return scores, nil
}

// parseSelection turns repeated field=a,b flags into a choice selection.
func parseSelection(raw []string) (choices.Selection, error) {
	selection := make(choices.Selection, len(raw))
	for _, item := range raw {
		field, values, ok := strings.Cut(item, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, errors.InvalidArgumentf("malformed selection %q, want field=id[,id...]", item)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				selection[field] = append(selection[field], v)
			}
		}
	}
	return selection, nil
}

// blockedNotice turns the priority gate into a notice; other errors pass through.
func blockedNotice(err error) error {
	if errors.IsBlockedByPriorChoice(err) {
		fmt.Fprintln(os.Stderr, "notice: resolve the important choices first")
		return nil
	}
	return err
}

func printPending(pending []*dnd5e.PendingChoice) error {
	for _, p := range pending {
		if p.Status != dnd5e.ChoicePending {
			continue
		}
		marker := " "
		if p.Choice.Important {
			marker = "!"
		}
		fmt.Printf("%s %s\t%s\t%s\t%s\n", marker, p.ID, p.Choice.Code, p.Choice.Name, dnd5e.SourceKey(p.Reason))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
