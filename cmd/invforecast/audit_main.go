package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Run one health audit pass and print its report",
		RunE:  runAudit,
	}
}

func runAudit(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	ctx, cancel := commandContext()
	defer cancel()

	report, err := facade.RunHealthAudit(ctx)
	if err != nil {
		return fmt.Errorf("run audit: %w", err)
	}

	fmt.Printf("score=%d status=%s accuracy=%.1f%% stockout_risk=%d fixed_mutations=%d retrain=%v duration=%s\n",
		report.Score, report.Status, report.AccuracyPct, report.StockoutRiskCount, report.FixedMutations, report.ShouldRetrain, report.Duration)
	for class, count := range report.StockoutsByClass {
		fmt.Printf("  class %s: %d items at risk\n", class, count)
	}
	for _, issue := range report.Issues {
		fmt.Printf("  issue: %s\n", issue)
	}
	for _, alert := range report.Alerts {
		fmt.Printf("  alert: %s\n", alert)
	}
	return nil
}
