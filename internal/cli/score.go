package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

var scoreKind string

var scoreCmd = &cobra.Command{
	Use:   "score [evidence-id ...]",
	Short: "Compute a validation score from evidence",
	Long: `Aggregate validation evidence into a single score in [0,1].

With evidence ids as arguments, only that evidence is scored. Without
arguments, all stored evidence is scored, optionally filtered by --kind
(test_transition, runtime_error, code_quality).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil || Records == nil {
			return fmt.Errorf("engine not initialized")
		}

		var evidence []models.ValidationEvidence
		var err error
		if len(args) > 0 {
			evidence, err = Records.GetEvidence(cmd.Context(), args)
		} else {
			evidence, err = Records.ListEvidence(cmd.Context(), models.EvidenceKind(scoreKind))
		}
		if err != nil {
			return fmt.Errorf("loading evidence: %w", err)
		}

		score := Engine.ComputeValidationScore(evidence)
		fmt.Printf("Validation score: %.3f (%d evidence)\n", score, len(evidence))
		if Engine.MeetsThreshold(evidence) {
			fmt.Printf("Meets promotion threshold (%.2f)\n", Engine.Config().PromotionThreshold)
		} else {
			fmt.Printf("Below promotion threshold (%.2f)\n", Engine.Config().PromotionThreshold)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreKind, "kind", "", "Filter stored evidence by kind")
	rootCmd.AddCommand(scoreCmd)
}
