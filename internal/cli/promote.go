package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/internal/engine"
)

var (
	promoteDescription string
	promotePattern     string
	promoteTags        []string
	promoteEvidence    []string
	promoteApprove     bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote <interaction-id>",
	Short: "Promote an interaction into a durable learning",
	Long: `Promote a scored interaction into a durable learning.

Without --approve the referenced evidence must clear the configured
promotion threshold and auto-promotion must be enabled in .acerc.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		learning, err := Engine.PromoteLearning(cmd.Context(), engine.PromoteInput{
			InteractionID: args[0],
			Description:   promoteDescription,
			Pattern:       promotePattern,
			Tags:          promoteTags,
			EvidenceIDs:   promoteEvidence,
			Approved:      promoteApprove,
		})
		if err != nil {
			return fmt.Errorf("promoting %s: %w", args[0], err)
		}

		fmt.Printf("Promoted as learning %s\n", learning.ID)
		if learning.ValidationScore != nil {
			fmt.Printf("  validation score: %.3f\n", *learning.ValidationScore)
		}
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteDescription, "description", "", "Learning description (defaults to the diff summary)")
	promoteCmd.Flags().StringVar(&promotePattern, "pattern", "", "Reusable pattern the learning captures")
	promoteCmd.Flags().StringSliceVar(&promoteTags, "tags", nil, "Tags for the learning")
	promoteCmd.Flags().StringSliceVar(&promoteEvidence, "evidence", nil, "Evidence ids backing the promotion")
	promoteCmd.Flags().BoolVar(&promoteApprove, "approve", false, "Explicitly approve, bypassing the score threshold")
	rootCmd.AddCommand(promoteCmd)
}
