package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/internal/hooks"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

var recordJSON bool

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an interaction from stdin",
	Long: `Record a completed AI-assisted interaction.

Reads a raw interaction event as JSON from stdin: session id, prompt and
response text, the ordered tool call sequence, and before/after content for
each changed file. The engine derives the diff summary, tool patterns,
modification type, and confidence score, and links the interaction to the
code chunks it touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		raw, err := hooks.ParseStdin[models.RawInteractionEvent](os.Stdin)
		if err != nil {
			return fmt.Errorf("reading interaction event: %w", err)
		}

		rec, err := Engine.RecordInteraction(cmd.Context(), *raw)
		if err != nil {
			return fmt.Errorf("recording interaction: %w", err)
		}

		if recordJSON {
			return printJSON(rec)
		}

		fmt.Printf("Recorded interaction %s\n", rec.ID)
		fmt.Printf("  type:       %s\n", rec.Derived.ModificationType)
		fmt.Printf("  confidence: %.2f\n", rec.Derived.Confidence)
		if rec.Derived.ToolSequence != "" {
			fmt.Printf("  tools:      %s\n", rec.Derived.ToolSequence)
		}
		if len(rec.RelatedChunks) > 0 {
			fmt.Printf("  chunks:     %d linked\n", len(rec.RelatedChunks))
		}
		return nil
	},
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	recordCmd.Flags().BoolVar(&recordJSON, "json", false, "Output the full record as JSON")
	rootCmd.AddCommand(recordCmd)
}
