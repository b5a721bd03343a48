package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltplan/voltplan/config"
	"github.com/voltplan/voltplan/infra/kpi"
	"github.com/voltplan/voltplan/infra/logger"
	"github.com/voltplan/voltplan/infra/postgres"
	"github.com/voltplan/voltplan/jobs/savings"
)

var backfillDays int

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild the daily charging KPIs from closed connections",
	RunE:  runBackfill,
}

func init() {
	backfillCmd.Flags().IntVar(&backfillDays, "days", 90, "how far back to aggregate")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := postgres.New(ctx, cfg.Database.DSN(), logger.New("postgres"))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	kpiStore, err := kpi.NewSQLiteStore(cfg.KPI.Path)
	if err != nil {
		return fmt.Errorf("kpi store: %w", err)
	}
	defer func() { _ = kpiStore.Close() }()

	since := time.Now().UTC().Add(-time.Duration(backfillDays) * 24 * time.Hour)
	accounts, err := db.Accounts(ctx)
	if err != nil {
		return err
	}
	total := 0
	for _, account := range accounts {
		vs, err := db.AccountVehicles(ctx, account)
		if err != nil {
			return err
		}
		for _, v := range vs {
			if err := savings.Backfill(ctx, db, kpiStore, v.ID, since); err != nil {
				return fmt.Errorf("backfill %s: %w", v.ID, err)
			}
			total++
		}
	}
	fmt.Printf("backfilled KPIs for %d vehicles\n", total)
	return nil
}
