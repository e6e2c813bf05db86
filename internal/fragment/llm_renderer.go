package fragment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/AmyLu0828/the-resume-hub/internal/llm"
	"github.com/AmyLu0828/the-resume-hub/internal/prompts"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// LLMRenderer renders fragments by prompting a language model
type LLMRenderer struct {
	client llm.Client
}

// NewLLMRenderer returns a renderer backed by client
func NewLLMRenderer(client llm.Client) *LLMRenderer {
	return &LLMRenderer{client: client}
}

type modelOutput struct {
	Content *string `json:"content"`
	Schema  string  `json:"schema"`
}

// Render builds the prompt for req, calls the model and decodes its answer
func (r *LLMRenderer) Render(ctx context.Context, req Request) (Response, error) {
	if req.Data == nil {
		return Response{}, fmt.Errorf("render %s: resume data is required", req.Name())
	}

	key, tier := promptKey(req)
	prompt, err := prompts.Render(prompts.FragmentsFile, key, promptData(req))
	if err != nil {
		return Response{}, err
	}

	log.Debug().
		Str("fragment", req.Name()).
		Str("prompt", key).
		Int("prior_chars", len(req.Prior)).
		Msg("Rendering fragment")

	raw, err := r.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return Response{}, fmt.Errorf("render %s: %w", req.Name(), err)
	}

	var out modelOutput
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return Response{}, fmt.Errorf("render %s: %w", req.Name(), err)
	}
	if out.Content == nil {
		return Response{}, fmt.Errorf("render %s: model response has no content field", req.Name())
	}

	content := llm.CleanLaTeXBlock(*out.Content)
	if content == "" && expectsContent(req) {
		return Response{}, fmt.Errorf("render %s: model returned empty content for data that has something to show", req.Name())
	}

	return Response{
		Success: true,
		Content: content,
		Schema:  strings.TrimSpace(out.Schema),
	}, nil
}

// expectsContent reports whether an empty answer would drop resume data.
// Deleting the last entry of a section legitimately empties it.
func expectsContent(req Request) bool {
	switch {
	case req.Kind == KindBody:
		return true
	case req.Update != nil && req.Update.ChangeType == types.ChangeDelete:
		return false
	case req.Kind == KindHeader:
		return req.Data.HasContent(types.SectionName) || req.Data.HasContent(types.SectionContact)
	default:
		return req.Data.HasContent(req.Section)
	}
}

func promptKey(req Request) (string, llm.ModelTier) {
	switch {
	case req.Incremental():
		return "update-section", llm.TierStandard
	case req.Kind == KindHeader:
		return "render-header", llm.TierStandard
	default:
		return "render-section", llm.TierAdvanced
	}
}

func promptData(req Request) map[string]string {
	data, _ := json.MarshalIndent(req.Data, "", "  ")
	schema := req.Schema
	if schema == "" {
		schema = "(not yet known)"
	}
	values := map[string]string{
		"Template": req.Template,
		"Data":     string(data),
		"Prior":    req.Prior,
		"Schema":   schema,
		"Section":  req.Section,
	}
	if req.Update != nil {
		values["Section"] = req.Update.Section
		values["EntryID"] = req.Update.EntryID
		values["ChangeType"] = string(req.Update.ChangeType)
	}
	return values
}
