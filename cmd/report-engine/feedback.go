package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/workflow"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Approve or revise a planned report",
	Long: `Feedback answers a workflow waiting on its plan. --approve researches and
writes every section and prints the report. --revise re-plans with the given
text and prints the new plan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		approve, _ := cmd.Flags().GetBool("approve")
		revision, _ := cmd.Flags().GetString("revise")
		revise := cmd.Flags().Changed("revise")

		var value workflow.ResumeValue
		switch {
		case approve && revise:
			return fmt.Errorf("use either --approve or --revise, not both")
		case approve:
			value = workflow.Approve{}
			fmt.Fprintf(os.Stderr, "Researching and writing sections for %s...\n", id)
		case revise:
			value = workflow.Revise{Text: revision}
			fmt.Fprintf(os.Stderr, "Re-planning %s...\n", id)
		default:
			return fmt.Errorf("one of --approve or --revise is required")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.engine.Resume(cmd.Context(), id, value)
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().String("id", "", "workflow ID")
	feedbackCmd.Flags().Bool("approve", false, "approve the plan")
	feedbackCmd.Flags().String("revise", "", "revision feedback for the plan")
	_ = feedbackCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(feedbackCmd)
}
