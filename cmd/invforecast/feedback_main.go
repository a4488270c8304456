package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/invforecast/internal/domain"
)

func newFeedbackCmd() *cobra.Command {
	feedbackCmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit and apply post-hoc forecast feedback",
	}

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a correction against a forecast line",
		RunE:  runFeedbackSubmit,
	}
	submitCmd.Flags().String("item-code", "", "Item code the feedback applies to (required)")
	submitCmd.Flags().String("line-id", "", "Originating forecast line id, if known")
	submitCmd.Flags().String("type", string(domain.FeedbackAdjustment), "Feedback type (adjustment|approval|rejection)")
	submitCmd.Flags().Float64("original-prediction", 0, "The prediction being corrected")
	submitCmd.Flags().Float64("adjustment", 0, "The corrected value")
	submitCmd.Flags().String("reason", "", "Free-text reason")
	submitCmd.Flags().String("submitter", "cli", "Submitter identity")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Run one synchronous pass applying unapplied feedback to weights",
		RunE:  runFeedbackApply,
	}
	applyCmd.Flags().Int("limit", 100, "Maximum feedback entries to apply in this pass")

	feedbackCmd.AddCommand(submitCmd, applyCmd)
	return feedbackCmd
}

func runFeedbackSubmit(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	itemCode, _ := cmd.Flags().GetString("item-code")
	if itemCode == "" {
		return fmt.Errorf("--item-code is required")
	}
	lineID, _ := cmd.Flags().GetString("line-id")
	feedbackType, _ := cmd.Flags().GetString("type")
	original, _ := cmd.Flags().GetFloat64("original-prediction")
	adjustment, _ := cmd.Flags().GetFloat64("adjustment")
	reason, _ := cmd.Flags().GetString("reason")
	submitter, _ := cmd.Flags().GetString("submitter")

	entry := &domain.FeedbackEntry{
		LineID:             lineID,
		ItemCode:           itemCode,
		Type:               domain.FeedbackType(feedbackType),
		OriginalPrediction: original,
		Adjustment:         adjustment,
		Delta:              adjustment - original,
		Reason:             reason,
		Submitter:          submitter,
	}
	if original != 0 {
		entry.DeltaPct = 100 * entry.Delta / original
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := facade.SubmitFeedback(ctx, entry); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}
	fmt.Printf("feedback %s recorded for %s\n", entry.FeedbackID, entry.ItemCode)
	return nil
}

func runFeedbackApply(cmd *cobra.Command, args []string) error {
	facade, closer, err := buildFacade(cmd)
	if err != nil {
		return err
	}
	defer closer()

	limit, _ := cmd.Flags().GetInt("limit")

	ctx, cancel := commandContext()
	defer cancel()

	applied, err := facade.ApplyPendingFeedback(ctx, limit)
	if err != nil {
		return fmt.Errorf("apply feedback: %w", err)
	}
	fmt.Printf("applied %d feedback entries\n", applied)
	return nil
}
