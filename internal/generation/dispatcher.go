// Package generation routes generation requests for one document instance
// through the renderer, falling back to coarser strategies when it fails.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
	"github.com/AmyLu0828/the-resume-hub/internal/fragment"
	"github.com/AmyLu0828/the-resume-hub/internal/rendering"
	"github.com/AmyLu0828/the-resume-hub/internal/store"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// DefaultRenderTimeout bounds a single renderer call
const DefaultRenderTimeout = 90 * time.Second

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithRenderTimeout sets the per-call renderer timeout
func WithRenderTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithRequiredPackages lists packages every returned document must declare
func WithRequiredPackages(pkgs ...string) Option {
	return func(disp *Dispatcher) {
		disp.packages = append([]string(nil), pkgs...)
	}
}

// WithStore persists a snapshot after every successful mutation
func WithStore(s store.Store) Option {
	return func(disp *Dispatcher) {
		disp.store = s
	}
}

// WithID sets the document id used for persistence and logging
func WithID(id uuid.UUID) Option {
	return func(disp *Dispatcher) {
		disp.id = id
	}
}

// Dispatcher owns one document instance. All operations on it are serialized.
type Dispatcher struct {
	mu       sync.Mutex
	id       uuid.UUID
	source   assembly.Source
	renderer fragment.Renderer
	asm      *assembly.Assembler
	timeout  time.Duration
	packages []string
	store    store.Store

	schemaMu sync.Mutex
	schemas  map[fragment.Kind]string
}

// New creates a dispatcher for a document built from source
func New(source assembly.Source, renderer fragment.Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		id:       uuid.New(),
		source:   source,
		renderer: renderer,
		asm:      assembly.New(),
		timeout:  DefaultRenderTimeout,
		schemas:  make(map[fragment.Kind]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the document id
func (d *Dispatcher) ID() uuid.UUID {
	return d.id
}

// Restore loads the persisted snapshot for this document, if any. It reports
// whether a snapshot was found.
func (d *Dispatcher) Restore(ctx context.Context) (bool, error) {
	if d.store == nil {
		return false, nil
	}
	snap, err := d.store.Load(ctx, d.id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.asm.Restore(snap.State)
	log.Info().Str("document", d.id.String()).Time("updated_at", snap.UpdatedAt).Msg("Restored document state")
	return true, nil
}

// Document returns the current document with required packages applied
func (d *Dispatcher) Document() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finalize(d.asm.Document())
}

// Scrape loads the template parts. Rendered fragments are kept.
func (d *Dispatcher) Scrape(ctx context.Context) *types.GenerationResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.asm.Scrape(d.source); err != nil {
		log.Error().Err(err).Str("document", d.id.String()).Str("source", d.source.String()).Msg("Template scrape failed")
		return types.Failed(d.lastKnownGood(""), err)
	}

	parts := d.asm.Parts()
	log.Info().
		Str("document", d.id.String()).
		Int("preamble_chars", len(parts.Preamble)).
		Int("header_chars", len(parts.Header)).
		Int("sections_chars", len(parts.Sections)).
		Msg("Template scraped")

	d.persist(ctx)
	return d.success(d.asm.Document(), "")
}

// UpdateHeader renders the header from data and recombines the document.
// A renderer failure is returned as is, with the previous document kept.
func (d *Dispatcher) UpdateHeader(ctx context.Context, data *types.ResumeData) *types.GenerationResult {
	if data == nil {
		return types.Failed(d.Document(), errors.New("resume data is required"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLoaded(); err != nil {
		return types.Failed(d.lastKnownGood(""), err)
	}
	if d.asm.Body() != "" {
		return types.Failed(d.lastKnownGood(""), ErrAdoptedBody)
	}

	content, err := d.render(ctx, fragment.Request{
		Kind:     fragment.KindHeader,
		Template: d.asm.Parts().Header,
		Data:     data,
		Prior:    d.asm.Header(),
	})
	if err != nil {
		return types.Failed(d.lastKnownGood(""), err)
	}

	doc := d.asm.SetHeader(content)
	d.persist(ctx)
	return d.success(doc, "")
}

// UpdateSection renders one body section, passing its current content as the
// base for the edit described by update, and recombines the document.
func (d *Dispatcher) UpdateSection(ctx context.Context, section string, data *types.ResumeData, update *types.UpdateDescriptor) *types.GenerationResult {
	if data == nil {
		return types.Failed(d.Document(), errors.New("resume data is required"))
	}
	if !types.IsKnownSection(section) || types.IsHeaderSection(section) {
		return types.Failed(d.Document(), fmt.Errorf("unknown body section %q", section))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLoaded(); err != nil {
		return types.Failed(d.lastKnownGood(""), err)
	}
	if d.asm.Body() != "" {
		return types.Failed(d.lastKnownGood(""), ErrAdoptedBody)
	}

	prior, _ := d.asm.Section(section)
	content, err := d.render(ctx, fragment.Request{
		Kind:     fragment.KindSection,
		Section:  section,
		Template: d.asm.Parts().Sections,
		Data:     data,
		Update:   update,
		Prior:    prior,
	})
	if err != nil {
		return types.Failed(d.lastKnownGood(""), err)
	}

	doc := d.asm.SetSection(section, content)
	d.persist(ctx)
	return d.success(doc, "")
}

// GenerateFull builds the whole document from data, trying the renderer first
// and the manual layout when it fails.
func (d *Dispatcher) GenerateFull(ctx context.Context, data *types.ResumeData) *types.GenerationResult {
	if data == nil {
		return types.Failed("", errors.New("resume data is required"))
	}
	if err := data.Validate(); err != nil {
		return types.Failed("", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.runLadder(ctx, &job{data: data}, d.lastKnownGood(""), []strategy{
		{name: types.StrategyFullRender, build: d.fullRender},
		{name: types.StrategyManual, build: d.manual},
	})
}

// UpdateIncremental applies a single edit. When the edit cannot be rendered
// the whole document is regenerated, and then built manually if needed.
// currentDocument is what the caller last saw. When this instance has nothing
// rendered yet, its body is the base the edit is applied to, and it is
// returned unchanged on failure.
func (d *Dispatcher) UpdateIncremental(ctx context.Context, currentDocument string, update *types.UpdateDescriptor, data *types.ResumeData) *types.GenerationResult {
	if update == nil {
		return types.Failed(currentDocument, errors.New("update descriptor is required"))
	}
	if data == nil {
		return types.Failed(currentDocument, errors.New("resume data is required"))
	}
	if err := update.Validate(); err != nil {
		return types.Failed(currentDocument, err)
	}
	if err := data.Validate(); err != nil {
		return types.Failed(currentDocument, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ladder := make([]strategy, 0, 3)
	switch {
	case d.asm.Body() != "":
		ladder = append(ladder, strategy{name: types.StrategyIncremental, build: d.incrementalBody})
	case d.asm.HasRendered():
		ladder = append(ladder, strategy{name: types.StrategyIncremental, build: d.incremental})
	case strings.TrimSpace(currentDocument) != "":
		log.Info().Str("document", d.id.String()).Msg("No rendered state, editing the caller's document")
		ladder = append(ladder, strategy{name: types.StrategyIncremental, build: d.incrementalBody})
	default:
		log.Info().Str("document", d.id.String()).Msg("No rendered state, skipping incremental update")
	}
	ladder = append(ladder,
		strategy{name: types.StrategyFullRender, build: d.fullRender},
		strategy{name: types.StrategyManual, build: d.manual},
	)

	j := &job{data: data, update: update, current: currentDocument}
	return d.runLadder(ctx, j, d.lastKnownGood(currentDocument), ladder)
}

// ensureLoaded scrapes the template on first use. Callers hold d.mu.
func (d *Dispatcher) ensureLoaded() error {
	if d.asm.Loaded() {
		return nil
	}
	log.Debug().Str("document", d.id.String()).Msg("Template not loaded, scraping first")
	return d.asm.Scrape(d.source)
}

// lastKnownGood returns the current document when something has been
// rendered, else fallback. Callers hold d.mu.
func (d *Dispatcher) lastKnownGood(fallback string) string {
	if d.asm.HasRendered() {
		return d.finalize(d.asm.Document())
	}
	return fallback
}

func (d *Dispatcher) finalize(doc string) string {
	if doc == "" {
		return doc
	}
	return rendering.EnsurePackages(doc, d.packages...)
}

func (d *Dispatcher) success(doc, strategy string) *types.GenerationResult {
	fragments := d.asm.Sections()
	fragments[string(fragment.KindHeader)] = d.asm.Header()
	if body := d.asm.Body(); body != "" {
		fragments[string(fragment.KindBody)] = body
	}
	return &types.GenerationResult{
		Success:   true,
		Document:  d.finalize(doc),
		Fragments: fragments,
		Strategy:  strategy,
	}
}

func (d *Dispatcher) persist(ctx context.Context) {
	if d.store == nil {
		return
	}
	if err := d.store.Save(ctx, d.id, d.asm.Snapshot()); err != nil {
		log.Warn().Err(err).Str("document", d.id.String()).Msg("Failed to persist document state")
	}
}

// render calls the renderer under the configured timeout and checks its output
func (d *Dispatcher) render(ctx context.Context, req fragment.Request) (string, error) {
	req.Schema = d.schema(req.Kind)
	name := req.Name()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		resp fragment.Response
		err  error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		resp, err := d.renderer.Render(ctx, req)
		done <- outcome{resp: resp, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		return "", &RenderFailure{Fragment: name, Message: "renderer did not answer in time", Cause: ctx.Err()}
	}

	switch {
	case out.err != nil:
		return "", &RenderFailure{Fragment: name, Message: "renderer error", Cause: out.err}
	case !out.resp.Success:
		msg := strings.TrimSpace(out.resp.Error)
		if msg == "" {
			msg = "renderer reported failure"
		}
		return "", &RenderFailure{Fragment: name, Message: msg}
	case !rendering.BalancedBraces(out.resp.Content):
		return "", &RenderFailure{Fragment: name, Message: "rendered fragment has unbalanced braces"}
	}

	if out.resp.Schema != "" {
		d.rememberSchema(req.Kind, out.resp.Schema)
	}

	log.Debug().
		Str("document", d.id.String()).
		Str("fragment", name).
		Bool("incremental", req.Incremental()).
		Int("chars", len(out.resp.Content)).
		Dur("took", time.Since(start)).
		Msg("Fragment rendered")
	return out.resp.Content, nil
}

func (d *Dispatcher) schema(kind fragment.Kind) string {
	d.schemaMu.Lock()
	defer d.schemaMu.Unlock()
	return d.schemas[kind]
}

func (d *Dispatcher) rememberSchema(kind fragment.Kind, schema string) {
	d.schemaMu.Lock()
	defer d.schemaMu.Unlock()
	d.schemas[kind] = schema
}
