package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/internal/hooks"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

var hookPostToolUseCmd = &cobra.Command{
	Use:   "post-tool-use",
	Short: "Handle PostToolUse hook events (non-blocking)",
	Long: `React after a tool executes. Reads tool_name and tool_input from stdin JSON
and appends the call to the session change log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tracker == nil {
			return nil
		}

		input, err := hooks.ParseStdin[hooks.PostToolUseInput](os.Stdin)
		if err != nil {
			return nil // Non-blocking, swallow errors.
		}
		if input.ToolName == "" {
			return nil
		}

		// Non-blocking: swallow all errors.
		_ = Tracker.Append(models.ToolCall{
			Name:      input.ToolName,
			FilePath:  input.FilePath(),
			Timestamp: time.Now().UTC().Unix(),
		})

		return nil
	},
}

func init() {
	hookCmd.AddCommand(hookPostToolUseCmd)
}
