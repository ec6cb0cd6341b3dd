package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// defaultConfigContent is the starter .acerc written by ace init.
const defaultConfigContent = `# AI Context Engine configuration.
scorer:
  verification: 0.40
  change_breadth: 0.20
  response_length: 0.15
  iteration: 0.25

aggregator:
  test_transition: 0.5
  runtime_error: 0.3
  code_quality: 0.2

promotion_threshold: 0.7
auto_promote: false

chunker:
  max_chunk_lines: 120
  window_lines: 40
  window_overlap: 5

diff:
  context_lines: 3

store_path: .ace/context.db

capture:
  enabled: true
  min_tool_calls: 2
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an ace workspace",
	Long: `Create the .acerc configuration file and the .ace data directory in the
current directory (or --dir).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDir, _ := cmd.Flags().GetString("dir")
		if targetDir == "" {
			var err error
			targetDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
		}

		configPath := filepath.Join(targetDir, ".acerc")
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("%s already exists, leaving it untouched.\n", configPath)
		} else {
			if err := os.WriteFile(configPath, []byte(defaultConfigContent), 0o644); err != nil {
				return fmt.Errorf("writing .acerc: %w", err)
			}
			fmt.Printf("Wrote %s\n", configPath)
		}

		dataDir := filepath.Join(targetDir, ".ace")
		if err := os.MkdirAll(filepath.Join(dataDir, "sessions"), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		fmt.Printf("Created %s\n", dataDir)
		fmt.Println("\nRun 'ace hook install' to wire agent hooks.")
		return nil
	},
}

func init() {
	initCmd.Flags().String("dir", "", "Target directory (defaults to current directory)")
	rootCmd.AddCommand(initCmd)
}
