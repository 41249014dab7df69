// Package main is the entry point for the advancement server and CLI
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-advancement/cmd/server/client"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "rpg-advancement",
	Short: "D&D 5e character advancement engine",
	Long: `rpg-advancement creates level 1 characters, levels them up, multiclasses
them and walks the pending-choice queue. It also serves the dice gRPC service
and the text-command dice webhook.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file read before the environment")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(characterCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(rollCmd)
	rootCmd.AddCommand(client.ClientCmd)
}
