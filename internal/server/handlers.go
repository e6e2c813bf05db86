package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AmyLu0828/the-resume-hub/internal/compile"
	"github.com/AmyLu0828/the-resume-hub/internal/generation"
	"github.com/AmyLu0828/the-resume-hub/internal/schemas"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// Generation types accepted by /api/generate-latex
const (
	GenerateFull        = "full"
	GenerateIncremental = "incremental"
)

// GenerateRequest is the body of /api/generate-latex
type GenerateRequest struct {
	Type         string          `json:"type"`
	DocumentID   string          `json:"documentId,omitempty"`
	Data         json.RawMessage `json:"data"`
	Update       json.RawMessage `json:"update,omitempty"`
	CurrentLatex string          `json:"currentLatex,omitempty"`
}

// SectionRequest is the body of /api/documents/{id}/section
type SectionRequest struct {
	Section string          `json:"section"`
	Data    json.RawMessage `json:"data"`
	Update  json.RawMessage `json:"update,omitempty"`
}

// HeaderRequest is the body of /api/documents/{id}/header
type HeaderRequest struct {
	Data json.RawMessage `json:"data"`
}

// CompileRequest is the body of /api/compile-latex
type CompileRequest struct {
	LatexCode string `json:"latexCode"`
}

// DocumentResponse pairs a generation result with the document it belongs to
type DocumentResponse struct {
	DocumentID string `json:"documentId"`
	*types.GenerationResult
}

// handleHealth reports service and toolchain status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	toolchain := map[string]bool{}
	if s.cfg.Toolchain != nil {
		toolchain = s.cfg.Toolchain()
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"message":        "Resume hub API is running",
		"latexAvailable": toolchain["pdflatex"],
		"toolchain":      toolchain,
		"documents":      s.documents.len(),
	})
}

// handleCreateDocument starts a document instance and scrapes its template
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	d := s.documents.create()
	res := d.Scrape(r.Context())
	if res.Success {
		s.jsonResponse(w, http.StatusCreated, DocumentResponse{DocumentID: d.ID().String(), GenerationResult: res})
		return
	}
	s.resultResponse(w, d.ID(), res)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"documentId": d.ID().String(),
		"latexCode":  d.Document(),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.failWith(w, err)
		return
	}
	if err := s.documents.remove(r.Context(), id); err != nil {
		s.failWith(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.resultResponse(w, d.ID(), d.Scrape(r.Context()))
}

func (s *Server) handleUpdateHeader(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req HeaderRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.failWith(w, err)
		return
	}
	data, err := decodeResume(req.Data)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.resultResponse(w, d.ID(), d.UpdateHeader(r.Context(), data))
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req SectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.failWith(w, err)
		return
	}
	if req.Section == "" {
		s.failWith(w, &ErrValidation{Field: "section", Message: "required"})
		return
	}
	data, err := decodeResume(req.Data)
	if err != nil {
		s.failWith(w, err)
		return
	}
	var update *types.UpdateDescriptor
	if present(req.Update) {
		if update, err = decodeUpdate(req.Update); err != nil {
			s.failWith(w, err)
			return
		}
	}
	s.resultResponse(w, d.ID(), d.UpdateSection(r.Context(), req.Section, data, update))
}

// handleGenerateLatex runs a full or incremental generation. Without a
// documentId a new document instance is created.
func (s *Server) handleGenerateLatex(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.failWith(w, err)
		return
	}
	if req.Type == "" {
		req.Type = GenerateFull
	}
	if req.Type != GenerateFull && req.Type != GenerateIncremental {
		s.failWith(w, &ErrValidation{Field: "type", Message: "must be full or incremental"})
		return
	}

	data, err := decodeResume(req.Data)
	if err != nil {
		s.failWith(w, err)
		return
	}
	var update *types.UpdateDescriptor
	if req.Type == GenerateIncremental {
		if !present(req.Update) {
			s.failWith(w, &ErrValidation{Field: "update", Message: "required for incremental generation"})
			return
		}
		if update, err = decodeUpdate(req.Update); err != nil {
			s.failWith(w, err)
			return
		}
	}

	d, err := s.documentFor(r, req.DocumentID)
	if err != nil {
		s.failWith(w, err)
		return
	}

	var res *types.GenerationResult
	if req.Type == GenerateIncremental {
		res = d.UpdateIncremental(r.Context(), req.CurrentLatex, update, data)
	} else {
		res = d.GenerateFull(r.Context(), data)
	}
	s.resultResponse(w, d.ID(), res)
}

// handleCompileLatex compiles a complete document to PDF
func (s *Server) handleCompileLatex(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.failWith(w, err)
		return
	}
	if req.LatexCode == "" {
		s.failWith(w, &ErrValidation{Field: "latexCode", Message: "LaTeX code is required"})
		return
	}

	pdf, err := s.deps.Compiler.Compile(r.Context(), req.LatexCode)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.pdfResponse(w, pdf, "inline")
}

func (s *Server) handlePolish(w http.ResponseWriter, r *http.Request) {
	var req types.PolishRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.failWith(w, err)
		return
	}
	res := s.deps.Polisher.Polish(r.Context(), &req)
	if !res.Success {
		s.jsonResponse(w, http.StatusBadRequest, res)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleGenerateFinalPDF generates the whole document from the posted
// resume data, compiles it and optionally keeps a copy in object storage.
// The document instance lives only for the request.
func (s *Server) handleGenerateFinalPDF(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		s.failWith(w, err)
		return
	}
	data, err := decodeResume(raw)
	if err != nil {
		s.failWith(w, err)
		return
	}

	d := s.oneShotDispatcher()
	res := d.GenerateFull(r.Context(), data)
	if !res.Success {
		s.resultResponse(w, d.ID(), res)
		return
	}

	pdf, err := s.deps.Compiler.Compile(r.Context(), res.Document)
	if err != nil {
		s.failWith(w, err)
		return
	}

	w.Header().Set("X-Generation-Strategy", res.Strategy)
	if s.deps.Uploader != nil {
		key, err := s.deps.Uploader.Upload(r.Context(), d.ID(), pdf)
		if err != nil {
			log.Warn().Err(err).Str("document", d.ID().String()).Msg("Failed to store final PDF")
		} else {
			w.Header().Set("X-Object-Key", key)
		}
	}
	s.pdfResponse(w, pdf, "attachment")
}

// resultResponse writes a generation result; failures keep the result body
// so the client still receives the last-known-good document.
func (s *Server) resultResponse(w http.ResponseWriter, id uuid.UUID, res *types.GenerationResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
		log.Warn().Str("document", id.String()).Str("error", res.Error).Msg("Generation failed")
	}
	s.jsonResponse(w, status, DocumentResponse{DocumentID: id.String(), GenerationResult: res})
}

// lookup resolves the {id} path value to a live document, writing the error
// response when it cannot.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*generation.Dispatcher, bool) {
	id, err := pathID(r)
	if err != nil {
		s.failWith(w, err)
		return nil, false
	}
	d, err := s.documents.get(r.Context(), id)
	if err != nil {
		s.failWith(w, err)
		return nil, false
	}
	return d, true
}

// documentFor returns the named document, or a new one when id is empty
func (s *Server) documentFor(r *http.Request, id string) (*generation.Dispatcher, error) {
	if id == "" {
		return s.documents.create(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, &ErrValidation{Field: "documentId", Message: "must be a UUID"}
	}
	return s.documents.get(r.Context(), parsed)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// decodeResume checks raw resume data against its schema and field rules
func decodeResume(raw json.RawMessage) (*types.ResumeData, error) {
	if !present(raw) {
		return nil, &ErrValidation{Field: "data", Message: "resume data is required"}
	}
	if err := schemas.ValidateResume(raw); err != nil {
		return nil, err
	}
	var data types.ResumeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &ErrValidation{Field: "data", Message: err.Error()}
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

func decodeUpdate(raw json.RawMessage) (*types.UpdateDescriptor, error) {
	if err := schemas.ValidateUpdate(raw); err != nil {
		return nil, err
	}
	var update types.UpdateDescriptor
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, &ErrValidation{Field: "update", Message: err.Error()}
	}
	return &update, nil
}

// compilationLog exposes the toolchain output of a failed compilation
func compilationLog(err error) (string, bool) {
	var compErr *compile.CompilationError
	if errors.As(err, &compErr) && compErr.LogOutput != "" {
		return compErr.LogOutput, true
	}
	return "", false
}
