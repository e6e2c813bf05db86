package assembly

import (
	"maps"
	"strings"

	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// CanonicalOrder is the order body sections are emitted in, regardless of
// the order they were set in.
var CanonicalOrder = types.BodySections

// State is a serializable copy of an assembler's contents
type State struct {
	Parts    *TemplateParts    `json:"parts,omitempty"`
	Header   string            `json:"header"`
	Sections map[string]string `json:"sections"`
	Body     string            `json:"body,omitempty"`
	Document string            `json:"document"`
}

// Assembler owns the template parts and rendered fragments of one document.
// It is not safe for concurrent use; callers serialize access per document.
type Assembler struct {
	parts    *TemplateParts
	header   string
	sections map[string]string
	// body is rendered content taken over from a caller's document. While it
	// is set it stands in for header and sections.
	body     string
	document string
}

// New returns an empty assembler with no template loaded
func New() *Assembler {
	return &Assembler{sections: make(map[string]string)}
}

// Scrape reads and splits the template. On any failure the assembler is left
// exactly as it was. Rendered fragments are never discarded; the visible
// document is only refreshed when nothing has been rendered yet.
func (a *Assembler) Scrape(src Source) error {
	text, err := src.Read()
	if err != nil {
		return &MalformedTemplateError{Message: "unreadable template source " + src.String(), Cause: err}
	}
	parts, err := Split(text)
	if err != nil {
		return err
	}
	a.parts = parts
	if !a.HasRendered() {
		a.document = a.Combine()
	}
	return nil
}

// Loaded reports whether template parts are available
func (a *Assembler) Loaded() bool {
	return a.parts != nil
}

// Parts returns a copy of the current template parts, or the zero value
func (a *Assembler) Parts() TemplateParts {
	if a.parts == nil {
		return TemplateParts{}
	}
	return *a.parts
}

// SetHeader replaces the rendered header and returns the recombined document
func (a *Assembler) SetHeader(content string) string {
	a.header = content
	a.document = a.Combine()
	return a.document
}

// SetSection upserts one rendered section and returns the recombined document.
// Empty content keeps the key but omits the section from the output.
func (a *Assembler) SetSection(name, content string) string {
	a.sections[name] = content
	a.document = a.Combine()
	return a.document
}

// Replace swaps in a complete set of fragments at once. Sections not present
// in the map are dropped so the result fully supersedes the previous document.
func (a *Assembler) Replace(header string, sections map[string]string) string {
	a.body = ""
	a.header = header
	a.sections = make(map[string]string, len(sections))
	maps.Copy(a.sections, sections)
	a.document = a.Combine()
	return a.document
}

// Adopt replaces header and sections with one rendered body, typically the
// edited body of a document produced elsewhere.
func (a *Assembler) Adopt(body string) string {
	a.body = body
	a.header = ""
	a.sections = make(map[string]string)
	a.document = a.Combine()
	return a.document
}

// Body returns the adopted body, or "" when the document is built from
// header and sections.
func (a *Assembler) Body() string {
	return a.body
}

// Header returns the rendered header
func (a *Assembler) Header() string {
	return a.header
}

// Section returns the rendered content of a section and whether it was ever set
func (a *Assembler) Section(name string) (string, bool) {
	content, ok := a.sections[name]
	return content, ok
}

// Sections returns a copy of all rendered sections
func (a *Assembler) Sections() map[string]string {
	return maps.Clone(a.sections)
}

// HasRendered reports whether any fragment holds non-blank content
func (a *Assembler) HasRendered() bool {
	if strings.TrimSpace(a.body) != "" || strings.TrimSpace(a.header) != "" {
		return true
	}
	for _, content := range a.sections {
		if strings.TrimSpace(content) != "" {
			return true
		}
	}
	return false
}

// Combine joins preamble, header, ordered sections and footer with newlines.
// Sections are emitted in CanonicalOrder separated by a blank line, and blank
// sections are skipped. An adopted body replaces header and sections. It has
// no side effects.
func (a *Assembler) Combine() string {
	parts := a.Parts()
	if a.body != "" {
		return strings.Join([]string{parts.Preamble, a.body, parts.Footer}, "\n")
	}
	return strings.Join([]string{
		parts.Preamble,
		a.header,
		a.orderedSections(),
		parts.Footer,
	}, "\n")
}

func (a *Assembler) orderedSections() string {
	ordered := make([]string, 0, len(CanonicalOrder))
	for _, name := range CanonicalOrder {
		if content := a.sections[name]; strings.TrimSpace(content) != "" {
			ordered = append(ordered, content)
		}
	}
	return strings.Join(ordered, "\n\n")
}

// Document returns the last combined document
func (a *Assembler) Document() string {
	return a.document
}

// Snapshot captures the assembler's state for persistence
func (a *Assembler) Snapshot() State {
	st := State{
		Header:   a.header,
		Sections: maps.Clone(a.sections),
		Body:     a.body,
		Document: a.document,
	}
	if a.parts != nil {
		p := *a.parts
		st.Parts = &p
	}
	return st
}

// Restore replaces the assembler's state with a snapshot
func (a *Assembler) Restore(st State) {
	a.parts = nil
	if st.Parts != nil {
		p := *st.Parts
		a.parts = &p
	}
	a.header = st.Header
	a.sections = make(map[string]string, len(st.Sections))
	maps.Copy(a.sections, st.Sections)
	a.body = st.Body
	a.document = st.Document
}
