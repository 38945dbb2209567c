package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/config"
	"github.com/J-Rosales/st-scene-state/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new conversation",
	Long: `Create a new conversation slot in the store and print its id.

The id is passed to the other commands via --conversation.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.GetStoreDir(), newLogger())
	if err != nil {
		return err
	}

	id := store.NewConversationID()
	state := store.NewState(config.GetUpdateCadence())
	if err := st.Save(id, state); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	fmt.Println(id)
	return nil
}
