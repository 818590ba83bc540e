package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/checkpoint"
	"github.com/pdiddy/report-engine/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a stored workflow",
	Long: `Show prints the compiled report (or the plan, if the report is not
written yet) as Markdown. --html renders the report as a standalone page;
--yaml and --json export the whole workflow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		asHTML, _ := cmd.Flags().GetBool("html")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		asJSON, _ := cmd.Flags().GetBool("json")

		_, store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Load(cmd.Context(), id)
		if err != nil {
			return err
		}

		switch {
		case asHTML:
			if st.FinalReport == "" {
				return fmt.Errorf("workflow %s has no compiled report (phase %s)", id, st.Phase)
			}
			return render.Page(os.Stdout, st.Topic, st.FinalReport)
		case asYAML:
			return checkpoint.Export(st, checkpoint.FormatYAML, os.Stdout)
		case asJSON:
			return checkpoint.Export(st, checkpoint.FormatJSON, os.Stdout)
		default:
			return checkpoint.Export(st, checkpoint.FormatMarkdown, os.Stdout)
		}
	},
}

func init() {
	showCmd.Flags().String("id", "", "workflow ID")
	showCmd.Flags().Bool("html", false, "render the report as HTML")
	showCmd.Flags().Bool("yaml", false, "export the workflow as YAML")
	showCmd.Flags().Bool("json", false, "export the workflow as JSON")
	showCmd.MarkFlagsMutuallyExclusive("html", "yaml", "json")
	_ = showCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(showCmd)
}
