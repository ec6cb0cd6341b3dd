package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search recorded context",
	Long:  `Search learnings, interactions, and code chunks by substring.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		hits, err := Engine.SearchContext(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for _, hit := range hits {
			snippet := strings.ReplaceAll(hit.Snippet, "\n", " ")
			if len(snippet) > 100 {
				snippet = snippet[:100] + "..."
			}
			fmt.Printf("[%s] %s\n    %s\n", hit.Collection, hit.ID, snippet)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of hits")
	rootCmd.AddCommand(searchCmd)
}
