package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice"
)

var rollSession string

var rollCmd = &cobra.Command{
	Use:   "roll [command...]",
	Short: "Answer a text dice command, or read commands from stdin",
	Example: `  rpg-advancement roll throw 2 d 6 plus 3
  rpg-advancement roll roll to hit with modifier plus 5
  echo "roll 1 d 20" | rpg-advancement roll`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		publisher, err := rpgtoolkit.NewPublisher(events.NewBus())
		if err != nil {
			return err
		}
		svc, closeDice, err := openDice(cmd.Context(), cfg, publisher)
		if err != nil {
			return err
		}
		defer closeDice()

		if len(args) > 0 {
			return answer(cmd.Context(), svc, strings.Join(args, " "))
		}

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := answer(cmd.Context(), svc, line); err != nil {
				return err
			}
		}
		return scanner.Err()
	},
}

func init() {
	rollCmd.Flags().StringVar(&rollSession, "session", "cli", "Dice session the rolls are recorded under")
}

func answer(ctx context.Context, svc dice.Service, command string) error {
	out, err := svc.HandleCommand(ctx, &dice.HandleCommandInput{
		SessionID: rollSession,
		Command:   command,
	})
	if err != nil {
		return err
	}
	fmt.Println(out.Text)
	return nil
}
