package rendering

import "fmt"

// SourceError reports a LaTeX document that fails the structural sanity check
type SourceError struct {
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid latex source: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid latex source: %s", e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}
