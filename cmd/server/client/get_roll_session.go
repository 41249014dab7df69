package client

import (
	"context"

	"github.com/spf13/cobra"

	apiv1alpha1 "github.com/KirkDiggler/rpg-api-protos/gen/go/clients/api/v1alpha1"
)

var getRollSessionCmd = &cobra.Command{
	Use:   "get-roll-session <entity-id> <context>",
	Short: "Get an existing dice roll session",
	Long: `Retrieve all dice rolls for a specific entity and context. Examples:

  get-roll-session char-123 ability_scores
  get-roll-session alice-session-1 voice`,
	Args: cobra.ExactArgs(2),
	RunE: getRollSession,
}

func getRollSession(_ *cobra.Command, args []string) error {
	client, cleanup, err := createDiceClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.GetRollSession(ctx, &apiv1alpha1.GetRollSessionRequest{
		EntityId: args[0],
		Context:  args[1],
	})
	if err != nil {
		return rpcError(err, "failed to get roll session")
	}

	return printProto(resp)
}
