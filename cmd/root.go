package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "scene-state",
	Short: "Structured scene-state extraction and continuity for chat transcripts",
	Long: `scene-state maintains a structured snapshot of a conversation's scene:
  - which characters and objects are present
  - how they are posed and physically related
  - a short narrative summary

Snapshots are extracted by an external text-generation model, then validated,
stabilized across turns, scored for salience, and bounded to a capacity -
deterministically, with user locks and pins respected.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/scene-state/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "scene-state")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("extraction.window_k", 8)
	viper.SetDefault("extraction.update_every_n_messages", 0)
	viper.SetDefault("extraction.max_present_agents", 4)
	viper.SetDefault("extraction.allow_implied_objects", true)
	viper.SetDefault("extraction.mode", "conservative")
	viper.SetDefault("extraction.prompt_profile", "default")
	viper.SetDefault("extraction.only_assistant_messages", false)
	viper.SetDefault("limits.per_message_chars", 2000)
	viper.SetDefault("limits.total_chars", 24000)
	viper.SetDefault("limits.output_chars", 16384)
	viper.SetDefault("generator.ollama_url", "http://localhost:11434")
	viper.SetDefault("generator.model", "llama3.1")
	viper.SetDefault("generator.timeout", "120s")
	viper.SetDefault("store.dir", defaultStoreDir())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scene-state"
	}
	return filepath.Join(home, ".local", "share", "scene-state")
}

// newLogger builds the CLI logger. Debug output only appears with --verbose.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
