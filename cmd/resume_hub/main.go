// Package main provides the resume_hub command: the HTTP API server and
// one-shot generation tools.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AmyLu0828/the-resume-hub/internal/config"
)

var (
	configPath string
	logLevel   string
	logPretty  bool

	// appConfig is loaded before any subcommand runs
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "resume_hub",
	Short: "Resume Hub LaTeX generation service",
	Long:  "Resume Hub turns structured resume data into LaTeX documents through a marked template, with manual fallback, and compiles them to PDF.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("pretty") {
			cfg.Log.Pretty = logPretty
		}
		setupLogging(cfg.Log.Level, cfg.Log.Pretty)
		appConfig = cfg
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file (default ./resumehub.toml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "Human-readable console logs")
}

// setupLogging configures the global zerolog logger
func setupLogging(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
