// Package schemas validates raw request documents against the embedded JSON
// Schemas before they are decoded into typed structures.
package schemas

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// Schema file names
const (
	ResumeSchema = "resume.schema.json"
	UpdateSchema = "update.schema.json"
)

//go:embed *.schema.json
var schemaFS embed.FS

var (
	cacheMu  sync.Mutex
	compiled = make(map[string]*gojsonschema.Schema)
)

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// load compiles an embedded schema once and caches it
func load(name string) (*gojsonschema.Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema not found", Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema does not compile", Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Validate checks document against the named embedded schema. Schema
// violations are reported as *types.ValidationError, one field per violation.
func Validate(name string, document []byte) error {
	s, err := load(name)
	if err != nil {
		return err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("invalid JSON document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &types.ValidationError{
		Fields: make([]types.FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Fields = append(validationErr.Fields, types.FieldError{
			Field: field,
			Rule:  desc.Type(),
		})
	}
	sort.SliceStable(validationErr.Fields, func(i, j int) bool {
		return validationErr.Fields[i].Field < validationErr.Fields[j].Field
	})
	return validationErr
}

// ValidateResume checks a raw ResumeData document
func ValidateResume(document []byte) error {
	return Validate(ResumeSchema, document)
}

// ValidateUpdate checks a raw UpdateDescriptor document
func ValidateUpdate(document []byte) error {
	return Validate(UpdateSchema, document)
}

// List returns the embedded schema names
func List() []string {
	entries, err := schemaFS.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
