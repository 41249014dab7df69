package client

import (
	"context"

	"github.com/spf13/cobra"

	apiv1alpha1 "github.com/KirkDiggler/rpg-api-protos/gen/go/clients/api/v1alpha1"
)

var rollDescription string

var rollDiceCmd = &cobra.Command{
	Use:   "roll-dice <notation> <entity-id> <context>",
	Short: "Roll dice using dice notation",
	Long: `Roll dice and record the result in the entity's session. Examples:

  roll-dice 4d6 char-123 ability_scores
  roll-dice "1d20 + 5" char-456 attack
  roll-dice 2d8 char-789 damage`,
	Args: cobra.ExactArgs(3),
	RunE: rollDice,
}

func init() {
	rollDiceCmd.Flags().StringVar(&rollDescription, "description", "", "Note stored with the roll")
}

func rollDice(_ *cobra.Command, args []string) error {
	client, cleanup, err := createDiceClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.RollDice(ctx, &apiv1alpha1.RollDiceRequest{
		Notation:            args[0],
		EntityId:            args[1],
		Context:             args[2],
		ModifierDescription: rollDescription,
	})
	if err != nil {
		return rpcError(err, "failed to roll dice")
	}

	return printProto(resp)
}
