package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
	"github.com/AmyLu0828/the-resume-hub/internal/fragment"
	"github.com/AmyLu0828/the-resume-hub/internal/rendering"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// job is the input shared by every rung of a ladder
type job struct {
	data   *types.ResumeData
	update *types.UpdateDescriptor
	// current is the document the caller last saw
	current string
}

// fragments is a complete set of rendered parts produced by one strategy.
// A non-empty body replaces header and sections.
type fragments struct {
	header   string
	sections map[string]string
	body     string
}

// strategy is one rung of the fallback ladder. A rung either produces a
// complete set of fragments or fails without touching the document.
type strategy struct {
	name  string
	build func(ctx context.Context, j *job) (*fragments, error)
}

// runLadder tries each strategy in order and applies the first complete
// result. A malformed template stops the ladder immediately. Callers hold d.mu.
func (d *Dispatcher) runLadder(ctx context.Context, j *job, lastKnownGood string, ladder []strategy) *types.GenerationResult {
	if err := d.ensureLoaded(); err != nil {
		log.Error().Err(err).Str("document", d.id.String()).Msg("Cannot generate without template parts")
		return types.Failed(lastKnownGood, err)
	}

	var failures []error
	for _, s := range ladder {
		frags, err := s.build(ctx, j)
		if err != nil {
			var malformed *assembly.MalformedTemplateError
			if errors.As(err, &malformed) {
				return types.Failed(lastKnownGood, err)
			}
			log.Warn().Err(err).
				Str("document", d.id.String()).
				Str("strategy", s.name).
				Msg("Generation strategy failed, falling back")
			failures = append(failures, fmt.Errorf("%s: %w", s.name, err))
			continue
		}

		var doc string
		if frags.body != "" {
			doc = d.asm.Adopt(frags.body)
		} else {
			doc = d.asm.Replace(frags.header, frags.sections)
		}
		log.Info().
			Str("document", d.id.String()).
			Str("strategy", s.name).
			Int("chars", len(doc)).
			Msg("Document generated")
		d.persist(ctx)
		return d.success(doc, s.name)
	}

	return types.Failed(lastKnownGood, errors.Join(failures...))
}

// incremental re-renders only the fragment the update targets, keeping the
// rest of the current state.
func (d *Dispatcher) incremental(ctx context.Context, j *job) (*fragments, error) {
	if j.update == nil {
		return nil, errors.New("no update to apply")
	}
	out := &fragments{header: d.asm.Header(), sections: d.asm.Sections()}
	parts := d.asm.Parts()

	if j.update.TargetsHeader() {
		content, err := d.render(ctx, fragment.Request{
			Kind:     fragment.KindHeader,
			Template: parts.Header,
			Data:     j.data,
			Update:   j.update,
			Prior:    out.header,
		})
		if err != nil {
			return nil, err
		}
		out.header = content
		return out, nil
	}

	section := j.update.Section
	content, err := d.render(ctx, fragment.Request{
		Kind:     fragment.KindSection,
		Section:  section,
		Template: parts.Sections,
		Data:     j.data,
		Update:   j.update,
		Prior:    out.sections[section],
	})
	if err != nil {
		return nil, err
	}
	out.sections[section] = content
	return out, nil
}

// incrementalBody applies the update to a whole rendered body: the one this
// instance adopted earlier, or else the body of the caller's current document.
func (d *Dispatcher) incrementalBody(ctx context.Context, j *job) (*fragments, error) {
	if j.update == nil {
		return nil, errors.New("no update to apply")
	}
	parts := d.asm.Parts()
	prior := d.asm.Body()
	if prior == "" {
		prior = parts.Body(j.current)
	}
	if prior == "" {
		return nil, errors.New("current document has no body to edit")
	}

	content, err := d.render(ctx, fragment.Request{
		Kind:     fragment.KindBody,
		Template: parts.Header + "\n" + parts.Sections,
		Data:     j.data,
		Update:   j.update,
		Prior:    prior,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, &RenderFailure{Fragment: string(fragment.KindBody), Message: "rendered body is empty"}
	}
	return &fragments{body: content}, nil
}

// fullRender renders the header and every body section from the full data.
// Fragments are rendered concurrently; any failure fails the whole rung.
func (d *Dispatcher) fullRender(ctx context.Context, j *job) (*fragments, error) {
	parts := d.asm.Parts()
	results := make([]string, len(assembly.CanonicalOrder)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		content, err := d.render(gctx, fragment.Request{
			Kind:     fragment.KindHeader,
			Template: parts.Header,
			Data:     j.data,
		})
		results[0] = content
		return err
	})
	for i, section := range assembly.CanonicalOrder {
		g.Go(func() error {
			content, err := d.render(gctx, fragment.Request{
				Kind:     fragment.KindSection,
				Section:  section,
				Template: parts.Sections,
				Data:     j.data,
			})
			results[i+1] = content
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &fragments{header: results[0], sections: make(map[string]string, len(assembly.CanonicalOrder))}
	for i, section := range assembly.CanonicalOrder {
		out.sections[section] = results[i+1]
	}
	return out, nil
}

// manual builds every fragment with the fixed layout. It makes no external
// calls and does not fail.
func (d *Dispatcher) manual(_ context.Context, j *job) (*fragments, error) {
	header, sections := rendering.ManualFragments(j.data)
	return &fragments{header: header, sections: sections}, nil
}
