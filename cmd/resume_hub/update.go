package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AmyLu0828/the-resume-hub/internal/generation"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply a single edit to a LaTeX document",
	Long: `Apply one edit, described by an update JSON file, to a document.

With --document-id the document state is restored from the configured store
and saved back afterwards, so only the edited fragment is re-rendered. Without
it the whole document is regenerated.`,
	RunE: runUpdate,
}

var (
	updateDataFile     string
	updateUpdateFile   string
	updateCurrentFile  string
	updateDocumentID   string
	updateTemplateFile string
	updateOutputFile   string
	updateOffline      bool
)

func init() {
	updateCmd.Flags().StringVarP(&updateDataFile, "data", "d", "", "Path to the full, updated resume data JSON")
	updateCmd.Flags().StringVarP(&updateUpdateFile, "update", "u", "", "Path to update descriptor JSON")
	updateCmd.Flags().StringVar(&updateCurrentFile, "current", "", "Path to the current .tex document; the edit is applied to it when no stored state exists")
	updateCmd.Flags().StringVar(&updateDocumentID, "document-id", "", "Document ID to restore from the store")
	updateCmd.Flags().StringVarP(&updateTemplateFile, "template", "t", "", "Path to marked LaTeX template (overrides template.path)")
	updateCmd.Flags().StringVarP(&updateOutputFile, "out", "o", "", "Path to output .tex file (default stdout)")
	updateCmd.Flags().BoolVar(&updateOffline, "offline", false, "Do not call the language model; use the manual layout")

	_ = updateCmd.MarkFlagRequired("data")
	_ = updateCmd.MarkFlagRequired("update")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := appConfig

	data, err := loadResume(updateDataFile)
	if err != nil {
		return err
	}
	update, err := loadUpdate(updateUpdateFile)
	if err != nil {
		return err
	}

	var current string
	if updateCurrentFile != "" {
		raw, err := readInput(updateCurrentFile)
		if err != nil {
			return err
		}
		current = string(raw)
	}

	client, err := newLLMClient(ctx, cfg, updateOffline)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	opts := dispatcherOptions(cfg)
	if updateDocumentID != "" {
		id, err := uuid.Parse(updateDocumentID)
		if err != nil {
			return fmt.Errorf("invalid document id: %w", err)
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, generation.WithID(id), generation.WithStore(st))
	}

	disp := generation.New(templateSource(cfg, updateTemplateFile), newRenderer(client), opts...)
	if updateDocumentID != "" {
		found, err := disp.Restore(ctx)
		if err != nil {
			return fmt.Errorf("failed to restore document: %w", err)
		}
		if !found {
			log.Warn().Str("document", updateDocumentID).Msg("No stored state for document, regenerating")
		}
	}

	result := disp.UpdateIncremental(ctx, current, update, data)
	return finishGeneration(cmd, result, updateOutputFile)
}
