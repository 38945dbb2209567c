// Package config exposes the viper-backed settings. The engine packages
// never read these directly; the CLI resolves them into explicit option
// values passed down per round.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/J-Rosales/st-scene-state/internal/extract"
	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// GetWindowK returns the context window size K
func GetWindowK() int {
	return viper.GetInt("extraction.window_k")
}

// GetUpdateCadence returns the update cadence N (0 = every message)
func GetUpdateCadence() int {
	return viper.GetInt("extraction.update_every_n_messages")
}

// GetMaxPresentAgents returns the capacity bound for present agents
func GetMaxPresentAgents() int {
	return viper.GetInt("extraction.max_present_agents")
}

// GetAllowImpliedObjects returns whether implied baseline objects may appear
func GetAllowImpliedObjects() bool {
	return viper.GetBool("extraction.allow_implied_objects")
}

// GetExtractionMode returns the extraction strictness mode
func GetExtractionMode() string {
	mode := viper.GetString("extraction.mode")
	if mode != scene.ModeDescriptive {
		return scene.ModeConservative
	}
	return mode
}

// GetPromptProfile returns the prompt profile selector
func GetPromptProfile() string {
	return viper.GetString("extraction.prompt_profile")
}

// GetPerMessageCharCap returns the per-message character cap
func GetPerMessageCharCap() int {
	return viper.GetInt("limits.per_message_chars")
}

// GetTotalCharCap returns the total transcript character cap
func GetTotalCharCap() int {
	return viper.GetInt("limits.total_chars")
}

// GetOutputCharCap returns the generator output size cap
func GetOutputCharCap() int {
	return viper.GetInt("limits.output_chars")
}

// GetAssistantOnly returns whether only assistant messages trigger updates
func GetAssistantOnly() bool {
	return viper.GetBool("extraction.only_assistant_messages")
}

// GetOllamaURL returns the generator endpoint
func GetOllamaURL() string {
	return viper.GetString("generator.ollama_url")
}

// GetGeneratorModel returns the generator model name
func GetGeneratorModel() string {
	return viper.GetString("generator.model")
}

// GetGeneratorTimeout returns the per-call generator timeout
func GetGeneratorTimeout() time.Duration {
	return viper.GetDuration("generator.timeout")
}

// GetStoreDir returns the conversation store directory
func GetStoreDir() string {
	return viper.GetString("store.dir")
}

// EngineOptions resolves the settings into the explicit per-round options.
func EngineOptions() extract.Options {
	return extract.Options{
		WindowK:             GetWindowK(),
		MaxPresent:          GetMaxPresentAgents(),
		AllowImpliedObjects: GetAllowImpliedObjects(),
		Mode:                GetExtractionMode(),
		PromptProfile:       GetPromptProfile(),
		PerMessageCharCap:   GetPerMessageCharCap(),
		TotalCharCap:        GetTotalCharCap(),
		OutputCharCap:       GetOutputCharCap(),
		Timeout:             GetGeneratorTimeout(),
	}
}
