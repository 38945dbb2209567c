package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/markup"
	"github.com/J-Rosales/st-scene-state/internal/scene"
)

var fmtCheck bool

var fmtCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Canonicalize a snapshot markup file",
	Long: `Parse a snapshot markup file, normalize it into the fixed schema,
rebuild the derived relationship arrays, and print the canonical text.

With --check, verify instead that the canonical text round-trips through the
parser unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "Verify the canonical round-trip instead of printing")
}

func runFmt(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	tree, err := markup.Parse(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse markup: %w", err)
	}

	snapshot := scene.FromTree(tree)
	scene.Canonicalize(snapshot)
	canonical := markup.Dump(scene.ToTree(snapshot))

	if fmtCheck {
		reparsed, err := markup.Parse(canonical)
		if err != nil {
			return fmt.Errorf("canonical text failed to reparse: %w", err)
		}
		second := scene.FromTree(reparsed)
		scene.Canonicalize(second)
		if markup.Dump(scene.ToTree(second)) != canonical {
			return fmt.Errorf("canonical round-trip mismatch for %s", args[0])
		}
		fmt.Printf("%s: canonical round-trip ok\n", args[0])
		return nil
	}

	fmt.Println(canonical)
	return nil
}
