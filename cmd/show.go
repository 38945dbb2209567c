package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/config"
	"github.com/J-Rosales/st-scene-state/internal/extract"
	"github.com/J-Rosales/st-scene-state/internal/store"
)

var (
	showConversation string
	showInject       bool
	showSnapshot     bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a conversation's current scene state",
	Long: `Display the stored scene state for a conversation: the narrative summary,
bookkeeping, and optionally the canonical snapshot text or the prompt
injection block.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showConversation, "conversation", "", "Conversation id (required)")
	showCmd.Flags().BoolVar(&showInject, "inject", false, "Print the prompt injection text and exit")
	showCmd.Flags().BoolVar(&showSnapshot, "snapshot", false, "Print the canonical snapshot text")
	showCmd.MarkFlagRequired("conversation")
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.GetStoreDir(), newLogger())
	if err != nil {
		return err
	}
	state, err := st.Load(showConversation)
	if err != nil {
		return err
	}

	if showInject {
		if state.SnapshotText == "" {
			return fmt.Errorf("no snapshot yet for conversation %s", showConversation)
		}
		fmt.Println(extract.InjectionText(state.NarrativeLines))
		return nil
	}

	fmt.Printf("Conversation: %s\n\n", showConversation)
	if state.UpdatedAt == "" {
		fmt.Println("No snapshot yet")
	} else {
		fmt.Printf("Updated:      %s\n", state.UpdatedAt)
	}
	if state.LastError != "" {
		fmt.Printf("Last error:   %s\n", state.LastError)
	}
	if state.LastSuccess != "" {
		fmt.Printf("Last success: %s\n", state.LastSuccess)
	}
	if len(state.PinnedEntityIDs) > 0 {
		fmt.Printf("Pinned:       %v\n", state.PinnedEntityIDs)
	}
	for id, flags := range state.Locks {
		fmt.Printf("Locked:       %s (posture=%t primary_support=%t)\n", id, flags.Posture, flags.PrimarySupport)
	}

	if len(state.NarrativeLines) > 0 {
		fmt.Println("\nNarrative:")
		for _, line := range state.NarrativeLines {
			fmt.Printf("  %s (%.2f)\n", line.Text, line.Confidence)
		}
	}

	if showSnapshot && state.SnapshotText != "" {
		fmt.Println("\nCanonical snapshot:")
		fmt.Println(state.SnapshotText)
	}
	return nil
}
