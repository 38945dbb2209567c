// Package generator defines the port to the external text-generation model
// and its Ollama-backed implementation.
package generator

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when no generator implementation is registered.
var ErrUnavailable = errors.New("no generator registered")

// Generator produces text for a prompt. Implementations may block for the
// full duration of the model call; callers control latency via the context.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// WithTimeout bounds every call to the wrapped generator. A zero duration
// leaves the caller's context untouched.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return g.Generate(ctx, prompt)
	})
}
