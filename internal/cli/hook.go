package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle agent hook events",
	Long: `Process coding-agent hook events and feed the capture pipeline.

Each subcommand handles a specific hook type by reading JSON from stdin:
post-tool-use appends to the session change log, session-end assembles the
captured session into an interaction record.

These commands are called by shell wrapper scripts installed in .claude/hooks/.`,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install ace hook wrappers for the coding agent",
	Long: `Generate shell wrapper scripts and update .claude/settings.json so the
agent calls 'ace hook <type>' on tool use and session end.`,
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

		return installHookWrappers(targetDir)
	},
}

// hookWrappers maps wrapper script names to the subcommand they delegate to.
var hookWrappers = map[string]string{
	"ace-hook-post-tool-use.sh": "post-tool-use",
	"ace-hook-session-end.sh":   "session-end",
}

// installHookWrappers writes shell wrappers and updates settings.json.
func installHookWrappers(targetDir string) error {
	hooksDir := filepath.Join(targetDir, ".claude", "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}

	for name, sub := range hookWrappers {
		script := fmt.Sprintf("#!/bin/sh\nexec ace hook %s\n", sub)
		dest := filepath.Join(hooksDir, name)
		if err := os.WriteFile(dest, []byte(script), 0o755); err != nil {
			return fmt.Errorf("writing hook script %s: %w", name, err)
		}
		fmt.Printf("  Wrote %s\n", dest)
	}

	settingsPath := filepath.Join(targetDir, ".claude", "settings.json")
	if err := updateSettingsWithHooks(settingsPath, hooksDir); err != nil {
		return fmt.Errorf("updating settings.json: %w", err)
	}

	fmt.Printf("\nHook wrappers installed in %s\n", hooksDir)
	return nil
}

func updateSettingsWithHooks(settingsPath, hooksDir string) error {
	// Read existing settings or create new.
	var settings map[string]interface{}

	data, err := os.ReadFile(settingsPath) //nolint:gosec // G304: path from trusted CLI input
	if err == nil {
		if err := json.Unmarshal(data, &settings); err != nil {
			settings = make(map[string]interface{})
		}
	} else {
		settings = make(map[string]interface{})
	}

	settings["hooks"] = map[string]interface{}{
		"PostToolUse": []interface{}{
			map[string]interface{}{
				"type":     "command",
				"command":  filepath.Join(hooksDir, "ace-hook-post-tool-use.sh"),
				"triggers": []string{"Edit", "Write"},
			},
		},
		"SessionEnd": []interface{}{
			map[string]interface{}{
				"type":    "command",
				"command": filepath.Join(hooksDir, "ace-hook-session-end.sh"),
			},
		},
	}

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if !strings.HasSuffix(string(out), "\n") {
		out = append(out, '\n')
	}
	if err := os.WriteFile(settingsPath, out, 0o644); err != nil {
		return fmt.Errorf("writing settings.json: %w", err)
	}
	fmt.Printf("  Updated %s\n", settingsPath)
	return nil
}

func init() {
	hookInstallCmd.Flags().String("dir", "", "Target directory (defaults to current directory)")

	hookCmd.AddCommand(hookInstallCmd)
	rootCmd.AddCommand(hookCmd)
}
