package compile

import "fmt"

// CompilationError represents a LaTeX compilation failure. LogOutput holds
// the toolchain output captured for the failing pass.
type CompilationError struct {
	Message   string
	LogOutput string
	Timeout   bool
	Cause     error
}

func (e *CompilationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("LaTeX compilation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("LaTeX compilation error: %s", e.Message)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}
