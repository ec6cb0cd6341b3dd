package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "ace",
	Short: "AI Context Engine - evidence-backed context for AI-assisted development",
	Long: `AI Context Engine (ace) captures AI-assisted development activity and turns
it into structured, evidence-backed context.

It records chat interactions with their tool calls and file changes, links
them to the code chunks they touched, watches test reports for fail-to-pass
transitions, and aggregates that evidence into validation scores that gate
the promotion of interactions into durable learnings.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ace %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
