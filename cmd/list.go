package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/config"
	"github.com/J-Rosales/st-scene-state/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations with stored scene state",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.GetStoreDir(), newLogger())
	if err != nil {
		return err
	}
	ids, err := st.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No conversations found")
		return nil
	}
	for _, id := range ids {
		state, err := st.Load(id)
		if err != nil {
			return err
		}
		status := "no snapshot"
		if state.UpdatedAt != "" {
			status = "updated " + state.UpdatedAt
		}
		if state.LastError != "" {
			status += " (last error: " + state.LastError + ")"
		}
		fmt.Printf("%s  %s\n", id, status)
	}
	return nil
}
