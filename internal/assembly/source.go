package assembly

import (
	"fmt"
	"os"
)

// Source supplies raw template text
type Source interface {
	Read() (string, error)
	String() string
}

// FileSource reads the template from a path on disk
type FileSource string

func (p FileSource) Read() (string, error) {
	content, err := os.ReadFile(string(p))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("template file not found: %s", string(p))
		}
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	return string(content), nil
}

func (p FileSource) String() string { return string(p) }

// TextSource is template text already held in memory
type TextSource string

func (t TextSource) Read() (string, error) { return string(t), nil }

func (t TextSource) String() string { return "inline template" }
