package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAccuracyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accuracy",
		Short: "Score realized forecast accuracy over a window",
		RunE:  runAccuracy,
	}
	cmd.Flags().Duration("window", 7*24*time.Hour, "How far back to score reconciled lines")
	return cmd
}

func runAccuracy(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	window, _ := cmd.Flags().GetDuration("window")
	to := time.Now()
	from := to.Add(-window)

	ctx, cancel := commandContext()
	defer cancel()

	record, err := facade.CalculateAccuracy(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("calculate accuracy: %w", err)
	}

	fmt.Printf("evaluated=%d accurate=%d accuracy=%.1f%% mean_variance=%.1f%%\n",
		record.Evaluated, record.Accurate, record.AccuracyPct, record.MeanVariancePct)
	for _, c := range record.CategoryBreakdown {
		fmt.Printf("  %-12s evaluated=%d accuracy=%.1f%%\n", c.Category, c.Evaluated, c.AccuracyPct)
	}
	return nil
}
