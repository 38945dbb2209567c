package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/config"
	"github.com/J-Rosales/st-scene-state/internal/store"
)

var (
	pinConversation string
	pinRemove       bool
)

var pinCmd = &cobra.Command{
	Use:   "pin <agent-id>...",
	Short: "Exempt agents from capacity pruning",
	Long: `Pin agents so they are never dropped when the snapshot exceeds the
maximum number of present agents.

Examples:
  scene-state pin agent-alice --conversation <id>
  scene-state pin agent-alice agent-bob --conversation <id> --remove`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPin,
}

func init() {
	rootCmd.AddCommand(pinCmd)

	pinCmd.Flags().StringVar(&pinConversation, "conversation", "", "Conversation id (required)")
	pinCmd.Flags().BoolVar(&pinRemove, "remove", false, "Unpin instead of pin")
	pinCmd.MarkFlagRequired("conversation")
}

func runPin(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.GetStoreDir(), newLogger())
	if err != nil {
		return err
	}
	state, err := st.Load(pinConversation)
	if err != nil {
		return err
	}

	if pinRemove {
		keep := state.PinnedEntityIDs[:0]
		remove := make(map[string]bool, len(args))
		for _, id := range args {
			remove[id] = true
		}
		for _, id := range state.PinnedEntityIDs {
			if !remove[id] {
				keep = append(keep, id)
			}
		}
		state.PinnedEntityIDs = keep
	} else {
		existing := make(map[string]bool, len(state.PinnedEntityIDs))
		for _, id := range state.PinnedEntityIDs {
			existing[id] = true
		}
		for _, id := range args {
			if !existing[id] {
				state.PinnedEntityIDs = append(state.PinnedEntityIDs, id)
			}
		}
	}

	if err := st.Save(pinConversation, state); err != nil {
		return err
	}
	fmt.Printf("Pinned agents: %v\n", state.PinnedEntityIDs)
	return nil
}
