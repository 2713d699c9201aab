package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:   "trivia-bot",
		Short: "Telegram group trivia bot",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load environment variables
			if err := godotenv.Load(envFile); err != nil {
				log.Println("No .env file found, using system environment")
			}
		},
		// Running the binary without a subcommand starts the bot.
		RunE:         serve.RunE,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to .env file")
	cmd.AddCommand(serve)
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newExportCmd())
	return cmd
}
