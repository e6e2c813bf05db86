package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AmyLu0828/the-resume-hub/internal/polish"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

var polishCmd = &cobra.Command{
	Use:   "polish",
	Short: "Improve the wording of one resume entry",
	Long:  "Send the free text of one resume entry to the language model and print the improved entry as JSON. Without a model the original content is returned unchanged.",
	RunE:  runPolish,
}

var (
	polishSection     string
	polishEntryID     string
	polishChangeType  string
	polishContentFile string
	polishOffline     bool
)

func init() {
	polishCmd.Flags().StringVarP(&polishSection, "section", "s", "", "Section the entry belongs to")
	polishCmd.Flags().StringVar(&polishEntryID, "entry-id", "", "Entry ID")
	polishCmd.Flags().StringVar(&polishChangeType, "change-type", "", "Change type (add, update, delete)")
	polishCmd.Flags().StringVarP(&polishContentFile, "content", "c", "", "Path to entry content JSON (\"-\" for stdin)")
	polishCmd.Flags().BoolVar(&polishOffline, "offline", false, "Do not call the language model")

	_ = polishCmd.MarkFlagRequired("section")
	_ = polishCmd.MarkFlagRequired("entry-id")
	_ = polishCmd.MarkFlagRequired("content")

	rootCmd.AddCommand(polishCmd)
}

func runPolish(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := appConfig

	raw, err := readInput(polishContentFile)
	if err != nil {
		return err
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return fmt.Errorf("failed to parse entry content: %w", err)
	}

	req := &types.PolishRequest{
		Section:    polishSection,
		EntryID:    polishEntryID,
		ChangeType: types.ChangeType(polishChangeType),
		Content:    content,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	client, err := newLLMClient(ctx, cfg, polishOffline)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	result := polish.New(client, cfg.Polish.Timeout).Polish(ctx, req)
	if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("polish failed: %w", errors.New(result.Error))
	}
	return nil
}
