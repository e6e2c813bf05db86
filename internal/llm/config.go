// Package llm wraps the language model used to render template fragments and
// polish free text, with model tiers selectable per task.
package llm

import "maps"

// ModelTier represents the capability level requested for a call
type ModelTier string

const (
	// TierLite is for short text rewrites such as polishing one entry
	TierLite ModelTier = "lite"
	// TierStandard is for single-fragment rendering and incremental edits
	TierStandard ModelTier = "standard"
	// TierAdvanced is for rendering a fragment from the complete resume
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds the model selection and sampling settings
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.1,
	}
}

// GetModel returns the model name for a tier, falling back to standard then lite
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of the config with the model for one tier replaced
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{
		Provider:    c.Provider,
		Models:      maps.Clone(c.Models),
		Temperature: c.Temperature,
	}
	if out.Models == nil {
		out.Models = make(map[ModelTier]string)
	}
	out.Models[tier] = model
	return out
}
