package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"billing-backend/database"
	"billing-backend/ledger"
	"billing-backend/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Move sent invoices past their due date to overdue",
	Example: `  # Sweep as of now
  billing sweep-overdue

  # Sweep as of a given day (UTC midnight)
  billing sweep-overdue --as-of 2025-06-30`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().String("as-of", "", "Reference date (format: YYYY-MM-DD, default: now)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("sweep")

	var opts []ledger.Option
	if asOf, _ := cmd.Flags().GetString("as-of"); asOf != "" {
		at, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date format. Use YYYY-MM-DD: %w", err)
		}
		opts = append(opts, ledger.WithClock(func() time.Time { return at.UTC() }))
	}

	if err := database.Connect(cfg); err != nil {
		return err
	}
	svc := ledger.NewService(database.NewStore(database.DB.WithContext(cmd.Context())), opts...)
	n, err := svc.SweepOverdue(cmd.Context())
	if err != nil {
		return err
	}
	log.Info().Int64("count", n).Msg("overdue sweep finished")
	fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", n)
	return nil
}
