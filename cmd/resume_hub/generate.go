package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
	"github.com/AmyLu0828/the-resume-hub/internal/config"
	"github.com/AmyLu0828/the-resume-hub/internal/generation"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
	"github.com/AmyLu0828/the-resume-hub/templates"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a full LaTeX document from resume data",
	Long:  "Generate a complete LaTeX document from a resume data JSON file. The language model is tried first and the manual layout is used when it fails.",
	RunE:  runGenerate,
}

var (
	generateDataFile     string
	generateTemplateFile string
	generateOutputFile   string
	generateOffline      bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateDataFile, "data", "d", "", "Path to resume data JSON (\"-\" for stdin)")
	generateCmd.Flags().StringVarP(&generateTemplateFile, "template", "t", "", "Path to marked LaTeX template (overrides template.path)")
	generateCmd.Flags().StringVarP(&generateOutputFile, "out", "o", "", "Path to output .tex file (default stdout)")
	generateCmd.Flags().BoolVar(&generateOffline, "offline", false, "Do not call the language model; use the manual layout")

	_ = generateCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := appConfig

	data, err := loadResume(generateDataFile)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, cfg, generateOffline)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	disp := generation.New(templateSource(cfg, generateTemplateFile), newRenderer(client), dispatcherOptions(cfg)...)
	result := disp.GenerateFull(ctx, data)
	return finishGeneration(cmd, result, generateOutputFile)
}

// templateSource prefers the flag, then the configured path, then the
// embedded default
func templateSource(cfg *config.Config, flagPath string) assembly.Source {
	if flagPath != "" {
		return templates.Source(flagPath)
	}
	return templates.Source(cfg.Template.Path)
}

func dispatcherOptions(cfg *config.Config) []generation.Option {
	return []generation.Option{
		generation.WithRenderTimeout(cfg.Render.Timeout),
		generation.WithRequiredPackages(cfg.RequiredPackages...),
	}
}

// finishGeneration writes the document of a successful result. A failed
// result still writes its last-known-good document when there is one.
func finishGeneration(cmd *cobra.Command, result *types.GenerationResult, outPath string) error {
	if result.Document != "" {
		if err := writeOutput(cmd.OutOrStdout(), outPath, []byte(result.Document)); err != nil {
			return err
		}
	}
	if !result.Success {
		return fmt.Errorf("generation failed: %w", errors.New(result.Error))
	}

	log.Info().Str("strategy", result.Strategy).Int("chars", len(result.Document)).Msg("Document written")
	if outPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s)\n", outPath, result.Strategy)
	}
	return nil
}
