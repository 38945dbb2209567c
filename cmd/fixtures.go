package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/fixture"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures <dir>",
	Short: "Run the developer fixture suite",
	Long: `Run transcript fixtures against the extraction engine and diff each
canonical result against its expectation.

Each fixture is a directory containing transcript.json (messages, scripted
generator responses, and optional previous snapshot, locks, and pins) and
expected.snap (the expected canonical markup). Timestamp fields are excluded
from the diff and confidence fields are compared within 0.05.`,
	Args: cobra.ExactArgs(1),
	RunE: runFixtures,
}

func init() {
	rootCmd.AddCommand(fixturesCmd)
}

func runFixtures(cmd *cobra.Command, args []string) error {
	summary, results, err := fixture.RunDir(args[0], newLogger())
	if err != nil {
		return err
	}

	fmt.Println(fixture.Report(summary, results))

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed", summary.Failed, summary.Total)
	}
	return nil
}
