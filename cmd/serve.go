package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"billing-backend/database"
	"billing-backend/ledger"
	"billing-backend/logger"
	"billing-backend/routes"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API on PORT.

When DB_AUTO_MIGRATE is set the schema is migrated first. When
OVERDUE_SWEEP_INTERVAL is set, sent invoices past their due date are
moved to overdue on that interval.`,
	Example: `  # Local run against sqlite
  DB_DRIVER=sqlite billing serve

  # Sweep overdue invoices every hour
  OVERDUE_SWEEP_INTERVAL=1h billing serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	if err := database.Connect(cfg); err != nil {
		return err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(database.DB); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OverdueSweepInterval > 0 {
		go sweepLoop(ctx, cfg.OverdueSweepInterval)
	}

	app := routes.New(cfg)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("API server starting")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func sweepLoop(ctx context.Context, every time.Duration) {
	log := logger.WithComponent("sweep")
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc := ledger.NewService(database.NewStore(database.DB.WithContext(ctx)))
			if _, err := svc.SweepOverdue(ctx); err != nil {
				log.Error().Err(err).Msg("overdue sweep failed")
			}
		}
	}
}
