// Package polish improves the wording of a single resume entry
package polish

import (
	"context"
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AmyLu0828/the-resume-hub/internal/llm"
	"github.com/AmyLu0828/the-resume-hub/internal/prompts"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// DefaultTimeout bounds one polish call
const DefaultTimeout = 45 * time.Second

// structuralFields are never sent for improvement and never changed
var structuralFields = map[string]bool{
	"id":        true,
	"startDate": true,
	"endDate":   true,
}

// Polisher rewrites free-text fields with a language model
type Polisher struct {
	client  llm.Client
	timeout time.Duration
}

// New returns a polisher. A nil client makes every call return the input unchanged.
func New(client llm.Client, timeout time.Duration) *Polisher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Polisher{client: client, timeout: timeout}
}

// Polish returns improved content for one entry. Deletes, entries without
// text and any model failure yield the original content with Polished=false.
func (p *Polisher) Polish(ctx context.Context, req *types.PolishRequest) *types.PolishResult {
	if req == nil {
		return &types.PolishResult{Success: false, Error: "polish request is required"}
	}
	if err := req.Validate(); err != nil {
		return &types.PolishResult{Success: false, Content: req.Content, Error: err.Error()}
	}

	unchanged := func(msg string) *types.PolishResult {
		return &types.PolishResult{Success: true, Content: req.Content, Polished: false, Message: msg}
	}

	switch {
	case req.ChangeType == types.ChangeDelete:
		return unchanged("Nothing to polish for a delete")
	case len(TextFields(req.Content)) == 0:
		return unchanged("No text fields to polish")
	case p.client == nil:
		return unchanged("Polishing is not configured")
	}

	improved, err := p.improve(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("section", req.Section).Str("entry", req.EntryID).Msg("Polish failed, returning original content")
		return unchanged("Polishing unavailable, original content returned")
	}

	return &types.PolishResult{
		Success:  true,
		Content:  improved,
		Polished: true,
		Message:  "Content polished",
	}
}

func (p *Polisher) improve(ctx context.Context, req *types.PolishRequest) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := json.MarshalIndent(req.Content, "", "  ")
	if err != nil {
		return nil, err
	}
	prompt, err := prompts.Render(prompts.PolishFile, "polish-entry", map[string]string{
		"Section":  req.Section,
		"Guidance": guidance(req.Section),
		"Content":  string(content),
	})
	if err != nil {
		return nil, err
	}

	raw, err := p.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return merge(req.Content, out), nil
}

// merge keeps the original shape: only existing text fields may change, and
// only to non-empty strings.
func merge(original, improved map[string]any) map[string]any {
	result := maps.Clone(original)
	for key, value := range original {
		if structuralFields[key] {
			continue
		}
		if _, isText := value.(string); !isText {
			continue
		}
		if s, ok := improved[key].(string); ok && strings.TrimSpace(s) != "" {
			result[key] = s
		}
	}
	return result
}

// TextFields lists the keys holding non-blank text other than ids and dates
func TextFields(content map[string]any) []string {
	var fields []string
	for key, value := range content {
		if structuralFields[key] {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			fields = append(fields, key)
		}
	}
	return fields
}

func guidance(section string) string {
	if g, err := prompts.Get(prompts.PolishFile, "guidance-"+section); err == nil {
		return g
	}
	return prompts.MustGet(prompts.PolishFile, "guidance-default")
}
