package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/internal/hooks"
)

var hookSessionEndCmd = &cobra.Command{
	Use:   "session-end",
	Short: "Handle SessionEnd hook events",
	Long: `Capture the ending session as an interaction record.

Drains the session change log, recovers before-content from the repository
HEAD and after-content from the working tree, and records the assembled
interaction. Sessions with fewer tool calls than capture.min_tool_calls
are discarded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil || Capturer == nil || Tracker == nil {
			return nil
		}

		cfg := Engine.Config().Capture
		if !cfg.Enabled {
			return nil
		}

		input, err := hooks.ParseStdin[hooks.SessionEndInput](os.Stdin)
		if err != nil {
			return nil // Non-blocking, swallow errors.
		}

		raw, err := Capturer.Assemble(cmd.Context(), *input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembling session capture: %v\n", err)
			return nil
		}

		if len(raw.ToolCalls) < cfg.MinToolCalls {
			_ = Tracker.Cleanup()
			return nil
		}

		rec, err := Engine.RecordInteraction(cmd.Context(), raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "recording session interaction: %v\n", err)
			return nil
		}

		if BasePath != "" {
			_ = hooks.WriteSessionSnapshot(BasePath, *input, rec)
		}
		_ = Tracker.Cleanup()

		fmt.Printf("Captured session as interaction %s\n", rec.ID)
		return nil
	},
}

func init() {
	hookCmd.AddCommand(hookSessionEndCmd)
}
