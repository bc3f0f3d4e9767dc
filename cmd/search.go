package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"recall/internal/clix"
	"recall/internal/models"
)

var (
	searchLimit int
	searchOwner string
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search captured content with hybrid semantic and keyword retrieval",
	Long: `Runs the hybrid search engine over your captured content. Both the
semantic (embedding) and keyword backends are consulted according to the
configured search mode, and their results are fused into one ranked list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queryText := strings.Join(args, " ")

		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		dateFrom, dateTo, err := clix.ParseDateRange(cmd.Flags())
		if err != nil {
			return fmt.Errorf("invalid date filter: %w", err)
		}

		query := models.SearchQuery{
			Query:   queryText,
			Limit:   searchLimit,
			OwnerID: searchOwner,
			Filters: models.Filters{
				Tags:         clix.ParseTags(cmd.Flags()),
				ContentTypes: clix.ParseContentTypes(cmd.Flags()),
				DateFrom:     dateFrom,
				DateTo:       dateTo,
			},
		}

		resp, err := appInstance.SearchService.Search(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(resp.Results) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		color.New(color.Bold).Printf("Results (%d, method: %s)\n", resp.TotalResults, resp.SearchMethodUsed)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Score", "ID", "Title", "Type", "Tags", "Created"})
		table.SetBorder(false)
		for _, r := range resp.Results {
			table.Append([]string{
				fmt.Sprintf("%.4f", r.RelevanceScore),
				fmt.Sprintf("%d", r.ID),
				r.Title,
				string(r.ContentType),
				strings.Join(r.Tags, ","),
				r.CreatedAt.Format("2006-01-02"),
			})
		}
		table.Render()

		for _, r := range resp.Results {
			if r.Excerpt != "" {
				color.New(color.FgCyan).Printf("\n#%d %s\n", r.ID, r.Title)
				fmt.Println(r.Excerpt)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results to return (default from config)")
	searchCmd.Flags().StringVar(&searchOwner, "owner", "", "Owner id scoping the search (required)")
	searchCmd.Flags().String("tags", "", "Comma-separated tags; results must carry all of them")
	searchCmd.Flags().String("types", "", "Comma-separated content types (note,document,bookmark,image,audio)")
	searchCmd.Flags().String("from", "", "Only results created on or after this date")
	searchCmd.Flags().String("to", "", "Only results created on or before this date")
	searchCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(searchCmd)
}
