package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/AmyLu0828/the-resume-hub/internal/compile"
	"github.com/AmyLu0828/the-resume-hub/internal/config"
	"github.com/AmyLu0828/the-resume-hub/internal/fragment"
	"github.com/AmyLu0828/the-resume-hub/internal/llm"
	"github.com/AmyLu0828/the-resume-hub/internal/schemas"
	"github.com/AmyLu0828/the-resume-hub/internal/storage"
	"github.com/AmyLu0828/the-resume-hub/internal/store"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// errNoModel is returned by the offline renderer so every generation falls
// through to the manual layout
var errNoModel = errors.New("no language model configured")

func offlineRenderer() fragment.Renderer {
	return fragment.RendererFunc(func(context.Context, fragment.Request) (fragment.Response, error) {
		return fragment.Response{}, errNoModel
	})
}

// newLLMClient returns nil when no API key is configured or offline is set
func newLLMClient(ctx context.Context, cfg *config.Config, offline bool) (llm.Client, error) {
	if offline || cfg.LLM.APIKey == "" {
		log.Warn().Msg("No GEMINI_API_KEY set, fragments will use the manual layout")
		return nil, nil
	}
	llmCfg := llm.DefaultConfig()
	for tier, model := range map[llm.ModelTier]string{
		llm.TierLite:     cfg.LLM.Models.Lite,
		llm.TierStandard: cfg.LLM.Models.Standard,
		llm.TierAdvanced: cfg.LLM.Models.Advanced,
	} {
		if model != "" {
			llmCfg = llmCfg.WithModel(tier, model)
		}
	}
	llmCfg.Temperature = float32(cfg.LLM.Temperature)

	client, err := llm.NewClient(ctx, llmCfg, cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

func newRenderer(client llm.Client) fragment.Renderer {
	if client == nil {
		return offlineRenderer()
	}
	return fragment.NewLLMRenderer(client)
}

func newCompiler(cfg *config.Config) *compile.Compiler {
	return compile.New(compile.Options{
		Command:       cfg.Compile.Command,
		Passes:        cfg.Compile.Passes,
		Timeout:       cfg.Compile.Timeout,
		MaxConcurrent: cfg.Compile.MaxConcurrent,
	})
}

// openStore connects to PostgreSQL when a database URL is configured and
// falls back to process memory otherwise
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.URL == "" {
		return store.NewMemory(), nil
	}
	pg, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pg, nil
}

func newPDFStore(ctx context.Context, cfg *config.Config) (*storage.PDFStore, error) {
	return storage.New(ctx, storage.Config{
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Prefix:    cfg.Storage.Prefix,
	})
}

// readInput reads a file, or stdin for "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes to a file, or to w when path is empty
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func loadResume(path string) (*types.ResumeData, error) {
	raw, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateResume(raw); err != nil {
		return nil, err
	}
	var data types.ResumeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse resume data: %w", err)
	}
	return &data, nil
}

func loadUpdate(path string) (*types.UpdateDescriptor, error) {
	raw, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateUpdate(raw); err != nil {
		return nil, err
	}
	var update types.UpdateDescriptor
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, fmt.Errorf("failed to parse update: %w", err)
	}
	return &update, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
