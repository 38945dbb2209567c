package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/J-Rosales/st-scene-state/internal/config"
	"github.com/J-Rosales/st-scene-state/internal/extract"
	"github.com/J-Rosales/st-scene-state/internal/generator"
	"github.com/J-Rosales/st-scene-state/internal/markup"
	"github.com/J-Rosales/st-scene-state/internal/scene"
	"github.com/J-Rosales/st-scene-state/internal/store"
)

var (
	extractConversation string
	extractTranscript   string
	extractManual       bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run one extraction round over a transcript",
	Long: `Run one inference round: build the extraction prompt from the transcript
window and the previous snapshot, call the generator, reconcile the result,
and persist the new canonical snapshot.

The transcript is a JSON array of {role, name, content} messages. Without
--manual the update cadence countdown decides whether a round fires.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractConversation, "conversation", "", "Conversation id (required)")
	extractCmd.Flags().StringVar(&extractTranscript, "transcript", "", "Transcript JSON file (required)")
	extractCmd.Flags().BoolVar(&extractManual, "manual", false, "Ignore the update cadence and extract now")
	extractCmd.MarkFlagRequired("conversation")
	extractCmd.MarkFlagRequired("transcript")
}

func runExtract(cmd *cobra.Command, args []string) error {
	messages, err := readTranscript(extractTranscript)
	if err != nil {
		return err
	}

	st, err := store.Open(config.GetStoreDir(), newLogger())
	if err != nil {
		return err
	}
	state, err := st.Load(extractConversation)
	if err != nil {
		return err
	}

	if !extractManual {
		if config.GetAssistantOnly() && !lastIsAssistant(messages) {
			fmt.Println("Skipped: last message is not from the assistant")
			return st.Save(extractConversation, state)
		}
		if !state.TickCountdown(config.GetUpdateCadence()) {
			fmt.Printf("Skipped: %d messages until next update\n", state.CountdownRemaining)
			return st.Save(extractConversation, state)
		}
	}

	var previous *scene.Snapshot
	if state.SnapshotText != "" {
		if tree, perr := markup.Parse(state.SnapshotText); perr == nil {
			previous = scene.FromTree(tree)
		}
	}

	gen, err := generator.NewOllamaClient(config.GetOllamaURL(), config.GetGeneratorModel())
	if err != nil {
		return err
	}

	orch := extract.New(gen, newLogger())
	result, err := orch.RunRound(context.Background(), extract.Request{
		ConversationID: extractConversation,
		Messages:       messages,
		Previous:       previous,
		PreviousText:   state.SnapshotText,
		Locks:          state.Locks,
		Pins:           scene.NewPinSet(state.PinnedEntityIDs),
		Options:        config.EngineOptions(),
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	state.SchemaVersion = result.Snapshot.SchemaVersion
	state.UpdatedAt = now
	state.SnapshotText = result.Text
	state.NarrativeLines = result.Narrative
	if result.FellBack {
		state.LastError = result.Err
	} else {
		state.LastError = ""
		state.LastSuccess = now
	}
	if err := st.Save(extractConversation, state); err != nil {
		return err
	}

	if result.FellBack {
		fmt.Fprintf(os.Stderr, "Warning: inference failed, kept previous snapshot: %s\n", result.Err)
	} else {
		fmt.Printf("Snapshot updated: %d agents, %d objects, %d conflicts\n",
			len(result.Snapshot.Agents), len(result.Snapshot.Objects), len(result.Snapshot.Conflicts))
	}
	return nil
}

func readTranscript(path string) ([]scene.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var messages []scene.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return messages, nil
}

func lastIsAssistant(messages []scene.Message) bool {
	if len(messages) == 0 {
		return false
	}
	return messages[len(messages)-1].Role == "assistant"
}
