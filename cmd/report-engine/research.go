package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/search"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run web research queries without a workflow",
	Long: `Research sends queries to the configured search backend, deduplicates the
results by URL, and prints them. --save writes the queries and sources to a
YAML file; --load re-renders a saved file as model context without searching.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, _ := cmd.Flags().GetStringSlice("query")
		save, _ := cmd.Flags().GetString("save")
		load, _ := cmd.Flags().GetString("load")
		asJSON, _ := cmd.Flags().GetBool("json")
		planning, _ := cmd.Flags().GetBool("planning")

		if load != "" {
			qf, err := search.ReadQueryFile(load)
			if err != nil {
				return err
			}
			fmt.Println(qf.Context())
			return nil
		}
		if len(queries) == 0 {
			return fmt.Errorf("at least one --query is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := search.New(cfg.Workflow.SearchBackend, cfg.Search, logger.Named("search"))
		if err != nil {
			return err
		}

		budget := search.SectionBudget
		if planning {
			budget = search.PlanningBudget
		}
		fmt.Fprintf(os.Stderr, "Searching %s for %d queries...\n", client.Backend(), len(queries))
		r, err := client.Research(cmd.Context(), queries, budget)
		if err != nil {
			return err
		}

		if save != "" {
			if err := search.WriteQueryFile(save, queries, client.Backend(), budget, r); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved %d sources to %s\n", len(r.Sources), save)
		}
		if asJSON {
			return search.FormatJSON(r, os.Stdout)
		}
		search.FormatTable(r, os.Stdout)
		return nil
	},
}

func init() {
	researchCmd.Flags().StringSlice("query", nil, "search query (repeatable)")
	researchCmd.Flags().String("save", "", "write queries and sources to this YAML file")
	researchCmd.Flags().String("load", "", "print a saved YAML file as model context")
	researchCmd.Flags().Bool("json", false, "output sources as JSON")
	researchCmd.Flags().Bool("planning", false, "use the planning budget (shorter sources, no raw content)")

	rootCmd.AddCommand(researchCmd)
}
