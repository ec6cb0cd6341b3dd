package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var linksCmd = &cobra.Command{
	Use:   "links <interaction-id>",
	Short: "Resolve the chunks linked to an interaction",
	Long: `Resolve the code chunks an interaction is linked to.

Chunks that have disappeared from the store since linking are listed as
missing, not treated as errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		chunks, missing, err := Engine.ResolveLinks(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("resolving links for %s: %w", args[0], err)
		}

		if len(chunks) == 0 && len(missing) == 0 {
			fmt.Println("No linked chunks.")
			return nil
		}

		for _, chunk := range chunks {
			label := chunk.Symbol
			if label == "" {
				label = "-"
			}
			fmt.Printf("%s  %s:%d-%d  %s\n",
				chunk.ID, chunk.FilePath, chunk.StartLine, chunk.EndLine, label)
		}
		for _, id := range missing {
			fmt.Printf("%s  (missing)\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linksCmd)
}
