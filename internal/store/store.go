// Package store persists per-conversation state: the canonical snapshot
// text, narrative lines, error bookkeeping, and the user-authored locks and
// pins that outlive any single extraction round.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// State is the single mapping slot stored per conversation.
type State struct {
	SchemaVersion      string                `json:"schema_version"`
	UpdatedAt          string                `json:"updated_at,omitempty"`
	SnapshotText       string                `json:"snapshot_text,omitempty"`
	NarrativeLines     []scene.NarrativeLine `json:"narrative_lines,omitempty"`
	LastError          string                `json:"last_error,omitempty"`
	LastSuccess        string                `json:"last_success,omitempty"`
	CountdownRemaining int                   `json:"countdown_remaining"`
	PinnedEntityIDs    []string              `json:"pinned_entity_ids,omitempty"`
	Locks              scene.Locks           `json:"locks,omitempty"`
}

// NewState returns the default slot for a fresh conversation.
func NewState(cadence int) *State {
	return &State{
		SchemaVersion:      scene.SchemaVersion,
		CountdownRemaining: cadence,
		Locks:              scene.Locks{},
	}
}

// TickCountdown advances the update-cadence countdown for one message event
// and reports whether an extraction round should fire. A cadence of zero
// means every message triggers a round.
func (s *State) TickCountdown(cadence int) bool {
	if cadence == 0 {
		return true
	}
	if s.CountdownRemaining > 0 {
		s.CountdownRemaining--
	}
	if s.CountdownRemaining == 0 {
		s.CountdownRemaining = cadence
		return true
	}
	return false
}

// Store keeps one JSON file per conversation under a directory.
type Store struct {
	dir string
	log *zap.Logger
}

// Open creates the store directory if needed.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// NewConversationID mints a fresh conversation identifier.
func NewConversationID() string {
	return uuid.NewString()
}

// Load reads a conversation's state. A missing slot yields a fresh default.
func (s *Store) Load(conversationID string) (*State, error) {
	data, err := os.ReadFile(s.path(conversationID))
	if errors.Is(err, os.ErrNotExist) {
		return NewState(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse conversation state: %w", err)
	}
	if state.Locks == nil {
		state.Locks = scene.Locks{}
	}
	return &state, nil
}

// Save atomically replaces a conversation's state slot.
func (s *Store) Save(conversationID string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}
	path := s.path(conversationID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write conversation state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace conversation state: %w", err)
	}
	s.log.Debug("conversation state saved",
		zap.String("conversation", conversationID),
		zap.Int("bytes", len(data)))
	return nil
}

// Reset removes a conversation's state slot. Missing slots are not an error.
func (s *Store) Reset(conversationID string) error {
	err := os.Remove(s.path(conversationID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to reset conversation state: %w", err)
	}
	return nil
}

// List returns the conversation ids with stored state.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

func (s *Store) path(conversationID string) string {
	return filepath.Join(s.dir, conversationID+".json")
}
