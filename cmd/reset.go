package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/config"
	"github.com/J-Rosales/st-scene-state/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset <conversation-id>",
	Short: "Drop a conversation's stored scene state",
	Long: `Remove the stored snapshot, narrative, locks, and pins for a
conversation. The next extraction round starts from an empty scene.`,
	Args: cobra.ExactArgs(1),
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.GetStoreDir(), newLogger())
	if err != nil {
		return err
	}
	if err := st.Reset(args[0]); err != nil {
		return err
	}
	fmt.Printf("Reset conversation %s\n", args[0])
	return nil
}
