// Package testutil provides shared helpers for exercising the extraction
// engine in tests: scripted generators and transcript builders.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// ScriptedGenerator replays canned responses in order and records the
// prompts it received. Err, when set, fails every call.
type ScriptedGenerator struct {
	Responses []string
	Err       error

	mu      sync.Mutex
	calls   int
	prompts []string
}

// Generate returns the next scripted response.
func (g *ScriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if g.calls >= len(g.Responses) {
		return "", fmt.Errorf("scripted generator exhausted after %d calls", g.calls)
	}
	out := g.Responses[g.calls]
	g.calls++
	return out, nil
}

// Calls returns how many times Generate was invoked.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Prompts returns the prompts received so far.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// UserMessages builds a user-role transcript from content lines.
func UserMessages(contents ...string) []scene.Message {
	messages := make([]scene.Message, len(contents))
	for i, content := range contents {
		messages[i] = scene.Message{Role: "user", Content: content}
	}
	return messages
}

// Agent builds a minimal agent for pipeline tests.
func Agent(id, name string, salience float64) *scene.Agent {
	return &scene.Agent{ID: id, Name: name, Confidence: 0.8, Salience: salience}
}
