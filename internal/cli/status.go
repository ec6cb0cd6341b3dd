package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

var statusFilter string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display interactions grouped by lifecycle status",
	Long: `Display recorded interactions organized by their lifecycle status.

Optionally filter to a single status using --filter (e.g. --filter analyzed).
Output is formatted as a table with columns: ID, Type, Confidence, Chunks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Records == nil {
			return fmt.Errorf("record store not initialized")
		}

		records, err := Records.ListInteractions(cmd.Context(), 0)
		if err != nil {
			return fmt.Errorf("fetching interactions: %w", err)
		}

		if statusFilter != "" {
			status := models.InteractionStatus(statusFilter)
			if !status.IsValid() {
				return fmt.Errorf("invalid status %q: must be one of captured, analyzed, promoted, ignored", statusFilter)
			}
			var filtered []models.InteractionRecord
			for _, rec := range records {
				if rec.Status == status {
					filtered = append(filtered, rec)
				}
			}
			printStatusGroup(string(status), filtered)
			return nil
		}

		if len(records) == 0 {
			fmt.Println("No interactions recorded.")
			return nil
		}

		// Group interactions by status in lifecycle order.
		statusOrder := []models.InteractionStatus{
			models.StatusAnalyzed,
			models.StatusCaptured,
			models.StatusPromoted,
			models.StatusIgnored,
		}

		grouped := make(map[models.InteractionStatus][]models.InteractionRecord)
		for _, rec := range records {
			grouped[rec.Status] = append(grouped[rec.Status], rec)
		}

		for _, status := range statusOrder {
			if group, ok := grouped[status]; ok && len(group) > 0 {
				printStatusGroup(string(status), group)
				fmt.Println()
			}
		}

		return nil
	},
}

// printStatusGroup prints a table of interactions under a status heading.
func printStatusGroup(status string, records []models.InteractionRecord) {
	fmt.Printf("== %s (%d) ==\n", strings.ToUpper(status), len(records))
	fmt.Printf("  %-38s %-14s %-6s %s\n", "ID", "TYPE", "CONF", "CHUNKS")
	fmt.Printf("  %-38s %-14s %-6s %s\n", "----", "----", "----", "------")
	for _, rec := range records {
		fmt.Printf("  %-38s %-14s %-6.2f %d\n",
			rec.ID, rec.Derived.ModificationType, rec.Derived.Confidence, len(rec.RelatedChunks))
	}
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Filter by status (captured, analyzed, promoted, ignored)")
	rootCmd.AddCommand(statusCmd)
}
