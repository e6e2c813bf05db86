package assembly

import "fmt"

// MalformedTemplateError is returned when a template source cannot be read or
// split into its parts. Nothing can be rendered without parts, so it is fatal.
type MalformedTemplateError struct {
	Message string
	Cause   error
}

func (e *MalformedTemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed template: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed template: %s", e.Message)
}

func (e *MalformedTemplateError) Unwrap() error {
	return e.Cause
}
