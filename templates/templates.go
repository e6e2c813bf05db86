// Package templates bundles the default resume template.
package templates

import (
	_ "embed"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
)

// DefaultName labels the bundled template in logs
const DefaultName = "embedded:default_resume.tex"

//go:embed default_resume.tex
var defaultResume string

// Default returns the bundled template text
func Default() string {
	return defaultResume
}

// Source returns the template at path, or the bundled one when path is empty
func Source(path string) assembly.Source {
	if path == "" {
		return assembly.TextSource(defaultResume)
	}
	return assembly.FileSource(path)
}
