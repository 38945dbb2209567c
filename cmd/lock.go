package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/config"
	"github.com/J-Rosales/st-scene-state/internal/store"
)

var (
	lockConversation   string
	lockPosture        bool
	lockPrimarySupport bool
	lockClear          bool
)

var lockCmd = &cobra.Command{
	Use:   "lock <agent-id>",
	Short: "Pin an agent's fields against unevidenced change",
	Long: `Lock specific fields of an agent so the engine reverts changes to them
unless the transcript contains explicit contradicting evidence.

Examples:
  scene-state lock agent-alice --conversation <id> --posture
  scene-state lock agent-alice --conversation <id> --posture --primary-support
  scene-state lock agent-alice --conversation <id> --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runLock,
}

func init() {
	rootCmd.AddCommand(lockCmd)

	lockCmd.Flags().StringVar(&lockConversation, "conversation", "", "Conversation id (required)")
	lockCmd.Flags().BoolVar(&lockPosture, "posture", false, "Lock the agent's posture")
	lockCmd.Flags().BoolVar(&lockPrimarySupport, "primary-support", false, "Lock the agent's primary support")
	lockCmd.Flags().BoolVar(&lockClear, "clear", false, "Remove all locks for the agent")
	lockCmd.MarkFlagRequired("conversation")
}

func runLock(cmd *cobra.Command, args []string) error {
	agentID := args[0]

	st, err := store.Open(config.GetStoreDir(), newLogger())
	if err != nil {
		return err
	}
	state, err := st.Load(lockConversation)
	if err != nil {
		return err
	}

	if lockClear {
		delete(state.Locks, agentID)
		if err := st.Save(lockConversation, state); err != nil {
			return err
		}
		fmt.Printf("Cleared locks for %s\n", agentID)
		return nil
	}

	if !lockPosture && !lockPrimarySupport {
		return fmt.Errorf("nothing to lock (use --posture and/or --primary-support)")
	}

	flags := state.Locks[agentID]
	if lockPosture {
		flags.Posture = true
	}
	if lockPrimarySupport {
		flags.PrimarySupport = true
	}
	state.Locks[agentID] = flags

	if err := st.Save(lockConversation, state); err != nil {
		return err
	}
	fmt.Printf("Locked %s (posture=%t primary_support=%t)\n", agentID, flags.Posture, flags.PrimarySupport)
	return nil
}
