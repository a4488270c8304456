package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/invforecast/internal/app"
	"github.com/sawpanic/invforecast/internal/authz"
	"github.com/sawpanic/invforecast/internal/config"
	"github.com/sawpanic/invforecast/internal/health"
	"github.com/sawpanic/invforecast/internal/metrics"
	"github.com/sawpanic/invforecast/internal/persistence/postgres"
)

const (
	appName = "invforecast"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		// Cron/systemd/container runs have no TTY; emit structured JSON
		// lines instead of the human-readable console writer.
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Inventory forecast, dual-control approval, and drift-feedback core",
		Version: version,
		Long: `invforecast generates Holt's-method demand forecasts, carries them through
a dual-control approval workflow, and folds realized feedback back into the
signal weights that drove them.

Run a subcommand directly; there is no interactive menu.`,
	}

	rootCmd.PersistentFlags().String("dsn", os.Getenv("INVFORECAST_DSN"), "Postgres connection string (defaults to $INVFORECAST_DSN)")
	rootCmd.PersistentFlags().String("tenant", "default", "Tenant identifier")
	rootCmd.PersistentFlags().String("location", "default", "Storage location identifier")

	rootCmd.AddCommand(newForecastCmd())
	rootCmd.AddCommand(newFeedbackCmd())
	rootCmd.AddCommand(newAccuracyCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newScheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// buildFacade opens a Postgres connection from the --dsn flag and wires
// every component behind a Facade. The returned closer releases the
// pool and must run before the process exits.
func buildFacade(cmd *cobra.Command) (*app.Facade, func(), error) {
	dsn, _ := cmd.Flags().GetString("dsn")
	tenant, _ := cmd.Flags().GetString("tenant")
	location, _ := cmd.Flags().GetString("location")
	if dsn == "" {
		return nil, nil, fmt.Errorf("no database DSN: pass --dsn or set INVFORECAST_DSN")
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.DSN = dsn

	manager, err := postgres.NewManager(pgCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	m := metrics.NewRegistry(prometheus.DefaultRegisterer)
	cfg := config.FromEnv()
	procedure := health.NewDefaultProcedure(manager.Store(), tenant, location, 24*time.Hour)

	facade := app.New(manager.Store(), nil, authz.RoleMatrix{}, m, cfg, procedure)

	closer := func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := facade.Stop(stopCtx); err != nil {
			log.Warn().Err(err).Msg("failed to stop facade cleanly")
		}
		if err := manager.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database pool")
		}
	}
	return facade, closer, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}
