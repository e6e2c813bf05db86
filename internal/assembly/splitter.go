// Package assembly splits a marked template into parts and keeps the rendered
// fragments of one document, recombining them in a fixed order.
package assembly

import (
	"fmt"
	"strings"
)

// Markers are the in-document delimiters that split a template source
type Markers struct {
	Preamble string
	Header   string
	Sections string
	Closing  string
}

const beginDocument = `\begin{document}`

// DefaultMarkers are the markers used by the bundled templates
var DefaultMarkers = Markers{
	Preamble: "%PART 1",
	Header:   "%PART 2",
	Sections: "%PART 3",
	Closing:  `\end{document}`,
}

// TemplateParts is the fixed-order decomposition of a template source
type TemplateParts struct {
	Preamble string `json:"preamble"`
	Header   string `json:"header"`
	Sections string `json:"sections"`
	Footer   string `json:"footer"`
}

// Split parses source with DefaultMarkers
func Split(source string) (*TemplateParts, error) {
	return DefaultMarkers.Split(source)
}

// Split slices source into preamble [m1,m2), header [m2,m3) and sections
// [m3, last closing marker or end). Each slice keeps its marker line and is
// trimmed of surrounding whitespace; the footer is the closing marker itself.
// A missing or out-of-order marker is a MalformedTemplateError.
func (m Markers) Split(source string) (*TemplateParts, error) {
	idx := make([]int, 3)
	for i, marker := range []string{m.Preamble, m.Header, m.Sections} {
		idx[i] = strings.Index(source, marker)
		if idx[i] == -1 {
			return nil, &MalformedTemplateError{
				Message: fmt.Sprintf("missing marker %q", marker),
			}
		}
	}
	if idx[0] >= idx[1] || idx[1] >= idx[2] {
		return nil, &MalformedTemplateError{
			Message: fmt.Sprintf("markers out of order: %q at %d, %q at %d, %q at %d",
				m.Preamble, idx[0], m.Header, idx[1], m.Sections, idx[2]),
		}
	}

	end := len(source)
	if closing := strings.LastIndex(source, m.Closing); closing > idx[2] {
		end = closing
	}

	return &TemplateParts{
		Preamble: strings.TrimSpace(source[idx[0]:idx[1]]),
		Header:   strings.TrimSpace(source[idx[1]:idx[2]]),
		Sections: strings.TrimSpace(source[idx[2]:end]),
		Footer:   m.Closing,
	}, nil
}

// Body strips the preamble and closing footer from a complete document built
// from these parts and returns the rendered header and sections in between.
// When the preamble no longer matches verbatim, everything up to
// \begin{document} is treated as preamble.
func (p TemplateParts) Body(doc string) string {
	body := doc
	switch {
	case p.Preamble != "" && strings.HasPrefix(body, p.Preamble):
		body = body[len(p.Preamble):]
	case strings.Contains(body, beginDocument):
		body = body[strings.Index(body, beginDocument)+len(beginDocument):]
	}
	if p.Footer != "" {
		if end := strings.LastIndex(body, p.Footer); end != -1 {
			body = body[:end]
		}
	}
	return strings.TrimSpace(body)
}
