package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/AmyLu0828/the-resume-hub/internal/compile"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// ErrDocumentNotFound indicates no live or persisted document has the id
type ErrDocumentNotFound struct {
	ID uuid.UUID
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("document not found: %s", e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound    *ErrDocumentNotFound
		badRequest  *ErrValidation
		invalid     *types.ValidationError
		compilation *compile.CompilationError
		tooLarge    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &badRequest), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &compilation):
		if compilation.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
