// Package fragment defines the boundary to whatever renders template
// fragments, and the model-backed implementation of it.
package fragment

import (
	"context"

	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// Kind identifies which template part a request renders
type Kind string

const (
	KindHeader  Kind = "header"
	KindSection Kind = "section"
	// KindBody covers the header and every section of an existing document
	KindBody Kind = "body"
)

// Request asks for one fragment to be rendered.
//
// With Update == nil the renderer treats Data as the entire content of the
// fragment. With an Update and a non-empty Prior, Prior is authoritative and
// only the described change is applied to it.
type Request struct {
	Kind     Kind
	Section  string
	Template string
	Data     *types.ResumeData
	Update   *types.UpdateDescriptor
	Prior    string
	// Schema is what the renderer previously reported about this template part
	Schema string
}

// Incremental reports whether the request applies an edit to prior content
func (r Request) Incremental() bool {
	return r.Update != nil && r.Prior != ""
}

// Name returns the fragment name used in logs and results
func (r Request) Name() string {
	if r.Kind != KindSection {
		return string(r.Kind)
	}
	return r.Section
}

// Response is the renderer's answer. Success with empty Content is a valid
// "nothing to show" result.
type Response struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
	// Schema optionally describes the template part for later requests
	Schema string `json:"schema,omitempty"`
}

// Renderer renders template fragments. Implementations may be slow and may fail.
type Renderer interface {
	Render(ctx context.Context, req Request) (Response, error)
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(ctx context.Context, req Request) (Response, error)

// Render calls f
func (f RendererFunc) Render(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
