package generator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	// DefaultModel is the recommended extraction model
	DefaultModel = "llama3.1"
	// DefaultURL is the default Ollama API endpoint
	DefaultURL = "http://localhost:11434"
)

// OllamaClient wraps the Ollama API client as a Generator.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a new Ollama-backed generator
func NewOllamaClient(rawURL, model string) (*OllamaClient, error) {
	if model == "" {
		model = DefaultModel
	}
	var client *api.Client
	if rawURL == "" {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	} else {
		base, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama url: %w", err)
		}
		client = api.NewClient(base, http.DefaultClient)
	}
	return &OllamaClient{client: client, model: model}, nil
}

// IsAvailable checks if Ollama is running and accessible
func IsAvailable(rawURL string) bool {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(rawURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Generate runs a single non-streaming completion for the prompt.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}
	var out strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate: %w", err)
	}
	return out.String(), nil
}

// CheckModel checks if the configured model is available
func (c *OllamaClient) CheckModel(ctx context.Context) error {
	listResp, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	for _, model := range listResp.Models {
		if model.Name == c.model {
			return nil
		}
	}
	return fmt.Errorf("model '%s' not found - run: ollama pull %s", c.model, c.model)
}

// Model returns the model being used
func (c *OllamaClient) Model() string {
	return c.model
}
