package generation

import (
	"errors"
	"fmt"
)

// ErrAdoptedBody is returned by per-fragment updates on a document whose body
// was taken over from caller LaTeX and has no separate header or sections.
var ErrAdoptedBody = errors.New("document body was adopted from caller LaTeX; use an incremental update or regenerate it")

// RenderFailure means a fragment could not be obtained from the renderer:
// it returned an error, declared failure, timed out or produced malformed output.
// It is recoverable by the next rung of the fallback ladder.
type RenderFailure struct {
	Fragment string
	Message  string
	Cause    error
}

func (e *RenderFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render failure (%s): %s: %v", e.Fragment, e.Message, e.Cause)
	}
	return fmt.Sprintf("render failure (%s): %s", e.Fragment, e.Message)
}

func (e *RenderFailure) Unwrap() error {
	return e.Cause
}
