package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/internal/report"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

var (
	testrunPrevious string
	testrunCommit   string
	testrunPrevHash string
)

var testrunCmd = &cobra.Command{
	Use:   "testrun <report.xml>",
	Short: "Ingest a JUnit test report",
	Long: `Ingest a JUnit XML test report and store one run record per test case.

With --previous pointing at the prior report, tests that were failing there
and pass now become validation evidence, provided the two reports were taken
at different commits. A pass/fail flip at the same commit is flagged as
flaky instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		commit := testrunCommit
		if commit == "" && Repo != nil {
			if head, err := Repo.Head(); err == nil {
				commit = head
			}
		}

		current, err := report.ParseJUnitFile(args[0], commit)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		var previous []models.TestRunRecord
		if testrunPrevious != "" {
			previous, err = report.ParseJUnitFile(testrunPrevious, testrunPrevHash)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", testrunPrevious, err)
			}
		}

		stored, evidence, err := Engine.RecordTestRun(cmd.Context(), current, previous)
		if err != nil {
			return fmt.Errorf("recording test runs: %w", err)
		}

		passed, failed, skipped := 0, 0, 0
		for _, run := range stored {
			switch run.Status {
			case models.TestPass:
				passed++
			case models.TestFail:
				failed++
			case models.TestSkip:
				skipped++
			}
		}

		fmt.Printf("Stored %d test runs (%d passed, %d failed, %d skipped)\n",
			len(stored), passed, failed, skipped)
		for _, e := range evidence {
			fmt.Printf("  evidence %s (%s, weight %.2f)\n",
				e.EvidenceID(), e.Kind(), e.ValidationWeight())
		}
		return nil
	},
}

func init() {
	testrunCmd.Flags().StringVar(&testrunPrevious, "previous", "", "Prior JUnit report to diff against")
	testrunCmd.Flags().StringVar(&testrunCommit, "commit", "", "Commit hash for the current report (defaults to HEAD)")
	testrunCmd.Flags().StringVar(&testrunPrevHash, "previous-commit", "", "Commit hash for the previous report")
	rootCmd.AddCommand(testrunCmd)
}
