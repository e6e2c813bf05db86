package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Split a marked template into its parts",
	Long:  "Split a marked LaTeX template into preamble, header, sections and footer and print them as JSON.",
	RunE:  runScrape,
}

var scrapeTemplateFile string

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeTemplateFile, "template", "t", "", "Path to marked LaTeX template (overrides template.path)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	src := templateSource(appConfig, scrapeTemplateFile)
	text, err := src.Read()
	if err != nil {
		return err
	}
	parts, err := assembly.Split(text)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	return writeJSON(cmd.OutOrStdout(), parts)
}
