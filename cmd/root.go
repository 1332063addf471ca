package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"billing-backend/config"
	"billing-backend/logger"
)

var version = "1.0.0"

// cfg is loaded once before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Billing backend - invoices, payments and the ledger behind them",
	Long: `Billing backend serves the invoice ledger over HTTP and offers the
maintenance tasks that go with it.

Configuration comes from the environment and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			loaded.LogLevel = lvl
		}
		if err := logger.Setup(loaded.LoggerConfig()); err != nil {
			return fmt.Errorf("logger setup: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (trace, debug, info, warn, error)")
}
