package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/invforecast/internal/domain"
)

func newForecastCmd() *cobra.Command {
	forecastCmd := &cobra.Command{
		Use:   "forecast",
		Short: "Generate and govern forecast runs",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a new forecast run over every active item",
		RunE:  runForecastGenerate,
	}
	runCmd.Flags().Int("horizon-days", 7, "Forecast horizon in days")
	runCmd.Flags().String("run-id", "", "Run identifier (generated if omitted)")
	runCmd.Flags().String("created-by", "system", "Identity recorded as the run's creator")

	approveCmd := &cobra.Command{
		Use:   "approve <run-id>",
		Short: "Approve a pending forecast run",
		Args:  cobra.ExactArgs(1),
		RunE:  runForecastApprove,
	}
	approveCmd.Flags().String("actor", "", "Approver identity (required)")
	approveCmd.Flags().String("role", string(domain.RoleFinance), "Approver role (OWNER|FINANCE|OPS|READONLY)")
	approveCmd.Flags().String("note", "", "Approval note")

	rejectCmd := &cobra.Command{
		Use:   "reject <run-id>",
		Short: "Reject a pending forecast run",
		Args:  cobra.ExactArgs(1),
		RunE:  runForecastReject,
	}
	rejectCmd.Flags().String("actor", "", "Rejecting identity (required)")
	rejectCmd.Flags().String("role", string(domain.RoleFinance), "Rejecting role (OWNER|FINANCE|OPS|READONLY)")
	rejectCmd.Flags().String("note", "", "Rejection note")
	rejectCmd.Flags().String("reason", string(domain.ReasonOther), "Reason code (inaccurate|too_high|too_low|other)")

	statusCmd := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show a run's lines and terminal decision",
		Args:  cobra.ExactArgs(1),
		RunE:  runForecastStatus,
	}

	forecastCmd.AddCommand(runCmd, approveCmd, rejectCmd, statusCmd)
	return forecastCmd
}

func runForecastGenerate(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	horizonDays, _ := cmd.Flags().GetInt("horizon-days")
	runID, _ := cmd.Flags().GetString("run-id")
	createdBy, _ := cmd.Flags().GetString("created-by")
	tenant, _ := cmd.Flags().GetString("tenant")
	location, _ := cmd.Flags().GetString("location")

	ctx, cancel := commandContext()
	defer cancel()

	run, err := facade.GenerateForecast(ctx, runID, horizonDays, tenant, location, createdBy)
	if err != nil {
		return fmt.Errorf("generate forecast: %w", err)
	}

	fmt.Printf("run %s: %s, %d items, avg confidence %.2f\n", run.RunID, run.Status, run.ItemsForecasted, run.AvgConfidence)
	return nil
}

func runForecastApprove(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	actor, role, note, err := actorFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	event, err := facade.Approve(ctx, args[0], domain.Actor{Identity: actor, Role: role}, note)
	if err != nil {
		return fmt.Errorf("approve run: %w", err)
	}
	fmt.Printf("run %s approved by %s at %s\n", event.RunID, event.Approver, event.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

func runForecastReject(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	actor, role, note, err := actorFlags(cmd)
	if err != nil {
		return err
	}
	reason, _ := cmd.Flags().GetString("reason")

	ctx, cancel := commandContext()
	defer cancel()

	event, err := facade.Reject(ctx, args[0], domain.Actor{Identity: actor, Role: role}, note, domain.RejectReason(reason))
	if err != nil {
		return fmt.Errorf("reject run: %w", err)
	}
	fmt.Printf("run %s rejected by %s: %s\n", event.RunID, event.Approver, event.ReasonCode)
	return nil
}

func runForecastStatus(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	ctx, cancel := commandContext()
	defer cancel()

	run, lines, approval, err := facade.GetRunState(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get run state: %w", err)
	}

	fmt.Printf("run %s: %s / %s (%d lines)\n", run.RunID, run.Status, run.ApprovalStatus, len(lines))
	for _, line := range lines {
		fmt.Printf("  %-12s predicted=%.2f confidence=%.2f order_qty=%d status=%s\n",
			line.ItemCode, line.PredictedUsage, line.Confidence, line.RecommendedOrderQty, line.OrderStatus)
	}
	if approval != nil {
		fmt.Printf("decision: %s by %s (%s) at %s\n", approval.Action, approval.Approver, approval.ApproverRole, approval.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func actorFlags(cmd *cobra.Command) (identity string, role domain.Role, note string, err error) {
	identity, _ = cmd.Flags().GetString("actor")
	if identity == "" {
		return "", "", "", fmt.Errorf("--actor is required")
	}
	roleStr, _ := cmd.Flags().GetString("role")
	note, _ = cmd.Flags().GetString("note")
	return identity, domain.Role(roleStr), note, nil
}
