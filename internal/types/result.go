package types

// Strategy names identify which rung of the fallback ladder produced a document
const (
	StrategyIncremental = "incremental"
	StrategyFullRender  = "full-render"
	StrategyManual      = "manual"
)

// GenerationResult is returned by every top-level generation operation.
// Success=false always carries a non-empty Error; Document then holds the
// last-known-good state, or is empty when there is none.
type GenerationResult struct {
	Success   bool              `json:"success"`
	Document  string            `json:"latexCode"`
	Fragments map[string]string `json:"fragments,omitempty"`
	Strategy  string            `json:"strategy,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Failed builds a failure result that keeps the given last-known-good document
func Failed(document string, err error) *GenerationResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &GenerationResult{
		Success:  false,
		Document: document,
		Error:    msg,
	}
}

// PolishResult carries improved entry content. When the model is unavailable
// the original content is returned with Polished=false.
type PolishResult struct {
	Success  bool           `json:"success"`
	Content  map[string]any `json:"improvedContent"`
	Polished bool           `json:"polished"`
	Message  string         `json:"message"`
	Error    string         `json:"error,omitempty"`
}
