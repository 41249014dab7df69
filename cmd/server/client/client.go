// Package client provides commands that call a running advancement server
// over gRPC
package client

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	apiv1alpha1 "github.com/KirkDiggler/rpg-api-protos/gen/go/clients/api/v1alpha1"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

var (
	// Connection flags
	serverAddr string
	timeout    time.Duration
)

// ClientCmd is the root command for all client commands
var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Call a running advancement server",
	Long:  `Client commands make real gRPC requests against the dice service and print the responses as JSON.`,
}

func init() {
	ClientCmd.PersistentFlags().StringVar(&serverAddr, "server", "localhost:50051", "gRPC server address")
	ClientCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	ClientCmd.AddCommand(rollDiceCmd)
	ClientCmd.AddCommand(getRollSessionCmd)
	ClientCmd.AddCommand(clearRollSessionCmd)
}

// createDiceClient creates a dice service client
func createDiceClient() (apiv1alpha1.DiceServiceClient, func(), error) {
	conn, err := grpc.NewClient(serverAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	cleanup := func() {
		_ = conn.Close() // nolint:errcheck // safe to ignore in cleanup
	}

	return apiv1alpha1.NewDiceServiceClient(conn), cleanup, nil
}

// rpcError restores the server's code and reason from a status error so
// callers can test it with the errors helpers.
func rpcError(err error, action string) error {
	e := errors.FromGRPCError(err)
	if reason, ok := errors.GetMeta(e)[errors.MetaReason].(string); ok {
		return errors.Wrapf(e, "%s (%s)", action, reason)
	}
	return errors.Wrap(e, action)
}

var marshaler = protojson.MarshalOptions{
	Multiline:       true,
	EmitUnpopulated: true,
}

func printProto(m proto.Message) error {
	data, err := marshaler.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
