package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/workflow"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Plan a report and stop for feedback",
	Long: `Start plans a report on the topic and checkpoints it. The plan and the
workflow ID are printed; answer with "report-engine feedback".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		reportType, _ := cmd.Flags().GetString("type")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintf(os.Stderr, "Planning report on %q...\n", topic)
		snap, err := a.engine.Start(cmd.Context(), topic, reportType)
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	},
}

// printSnapshot writes the plan awaiting feedback or the compiled report.
func printSnapshot(snap workflow.Snapshot) {
	if snap.Status == workflow.StatusCompleted {
		fmt.Println(snap.FinalReport)
		fmt.Fprintf(os.Stderr, "\nWorkflow %s completed (%d sections).\n", snap.WorkflowID, len(snap.CompletedSections))
		return
	}
	fmt.Println(snap.Interrupt)
	fmt.Fprintf(os.Stderr, "\nWorkflow ID: %s\n", snap.WorkflowID)
	fmt.Fprintf(os.Stderr, "Approve:  report-engine feedback --id %s --approve\n", snap.WorkflowID)
	fmt.Fprintf(os.Stderr, "Revise:   report-engine feedback --id %s --revise \"...\"\n", snap.WorkflowID)
}

func init() {
	startCmd.Flags().String("topic", "", "report topic")
	startCmd.Flags().String("type", "", "report type: marketing or comparison (default from config)")
	_ = startCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(startCmd)
}
