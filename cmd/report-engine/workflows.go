package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored workflows, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No workflows.")
			return nil
		}
		fmt.Printf("%-36s  %-10s  %-18s  %-20s  %s\n", "ID", "Type", "Phase", "Updated", "Topic")
		for _, s := range list {
			fmt.Printf("%-36s  %-10s  %-18s  %-20s  %s\n",
				s.ID, s.ReportType, s.Phase, s.UpdatedAt.Local().Format("2006-01-02 15:04:05"), s.Topic)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID...",
	Short: "Delete stored workflows",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		for _, id := range args {
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, deleteCmd)
}
