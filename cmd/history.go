package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyOwner string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent search queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		entries, err := appInstance.PrimaryStore.ListQueries(cmd.Context(), historyOwner, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list search history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No search history.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Executed", "Query", "Results", "Method", "Elapsed"})
		table.SetBorder(false)
		for _, e := range entries {
			table.Append([]string{
				e.ExecutedAt.Format("2006-01-02 15:04:05"),
				e.Query,
				fmt.Sprintf("%d", e.ResultCount),
				string(e.Method),
				fmt.Sprintf("%dms", e.ElapsedMs),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum history entries to list")
	historyCmd.Flags().StringVar(&historyOwner, "owner", "", "Owner id scoping the history (required)")
	historyCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(historyCmd)
}
