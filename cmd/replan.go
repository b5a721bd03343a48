package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/voltplan/voltplan/config"
	"github.com/voltplan/voltplan/core/planner"
	"github.com/voltplan/voltplan/core/prediction"
	"github.com/voltplan/voltplan/core/stats"
	"github.com/voltplan/voltplan/infra/logger"
	"github.com/voltplan/voltplan/infra/postgres"
	"github.com/voltplan/voltplan/pkg/export"
)

var (
	replanVehicle string
	replanCSV     bool
)

var replanCmd = &cobra.Command{
	Use:   "replan",
	Short: "Recompute the charge plan for one vehicle and print it",
	RunE:  runReplan,
}

func init() {
	replanCmd.Flags().StringVar(&replanVehicle, "vehicle", "", "vehicle id")
	replanCmd.Flags().BoolVar(&replanCSV, "csv", false, "print the plan as CSV")
	_ = replanCmd.MarkFlagRequired("vehicle")
	rootCmd.AddCommand(replanCmd)
}

func runReplan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	id, err := uuid.Parse(replanVehicle)
	if err != nil {
		return fmt.Errorf("parse vehicle id: %w", err)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), logger.New("postgres"))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	statsEngine := stats.NewEngine(db, logger.New("stats"), nil)
	p := planner.New(db, statsEngine, prediction.NewHistoryEngine(db), logger.New("planner"), nil, nil)
	if err := p.RefreshVehicleChargePlan(ctx, id); err != nil {
		return fmt.Errorf("replan: %w", err)
	}

	v, err := db.GetVehicle(ctx, id)
	if err != nil {
		return err
	}
	if replanCSV {
		return export.WriteCSV(os.Stdout, v.ChargePlan)
	}
	return export.WriteJSON(os.Stdout, v.ChargePlan)
}
