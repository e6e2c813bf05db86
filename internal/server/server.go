// Package server provides the HTTP API of the resume hub.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
	"github.com/AmyLu0828/the-resume-hub/internal/fragment"
	"github.com/AmyLu0828/the-resume-hub/internal/server/ratelimit"
	"github.com/AmyLu0828/the-resume-hub/internal/store"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 2 << 20

// Compiler turns a complete LaTeX document into PDF bytes
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// Polisher improves the free text of one entry
type Polisher interface {
	Polish(ctx context.Context, req *types.PolishRequest) *types.PolishResult
}

// Uploader keeps a copy of final PDFs
type Uploader interface {
	Upload(ctx context.Context, id uuid.UUID, pdf []byte) (string, error)
}

// Config holds server configuration
type Config struct {
	Port             int
	CORSOrigins      []string
	RenderTimeout    time.Duration
	RequiredPackages []string
	RateLimit        *ratelimit.Config
	// Toolchain reports which LaTeX tools are installed; used by the health check
	Toolchain func() map[string]bool
	// DocumentTTL evicts live documents unused for this long; persisted state
	// is restored on the next access. Defaults to one hour.
	DocumentTTL time.Duration
}

// Deps are the collaborators the handlers delegate to. Store and Uploader
// are optional.
type Deps struct {
	Template assembly.Source
	Renderer fragment.Renderer
	Compiler Compiler
	Polisher Polisher
	Store    store.Store
	Uploader Uploader
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         Config
	deps        Deps
	documents   *registry
	rateLimiter *ratelimit.Limiter
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Template == nil {
		return nil, errors.New("template source is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("fragment renderer is required")
	}
	if deps.Compiler == nil {
		return nil, errors.New("compiler is required")
	}
	if deps.Polisher == nil {
		return nil, errors.New("polisher is required")
	}

	s := &Server{
		cfg:         cfg,
		deps:        deps,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
	}
	s.documents = newRegistry(s.newDispatcher, deps.Store, cfg.DocumentTTL)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // full renders and compilation
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Document instances
	mux.HandleFunc("POST /api/documents", s.handleCreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/scrape", s.handleScrape)
	mux.HandleFunc("POST /api/documents/{id}/header", s.handleUpdateHeader)
	mux.HandleFunc("POST /api/documents/{id}/section", s.handleUpdateSection)

	// Editor endpoints
	mux.HandleFunc("POST /api/generate-latex", s.handleGenerateLatex)
	mux.HandleFunc("POST /api/compile-latex", s.handleCompileLatex)
	mux.HandleFunc("POST /api/compile-latex/", s.handleCompileLatex)
	mux.HandleFunc("POST /api/polish-content", s.handlePolish)
	mux.HandleFunc("POST /api/generate-final-pdf", s.handleGenerateFinalPDF)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("Server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	log.Info().Msg("Server stopped")
	return nil
}

// Close releases background resources
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.documents.stop()
	if s.deps.Store != nil {
		s.deps.Store.Close()
	}
}

// withCORS adds CORS headers for the configured origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowAll := len(s.cfg.CORSOrigins) == 0 || slices.Contains(s.cfg.CORSOrigins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.cfg.CORSOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the IP address from RemoteAddr
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"success": false,
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	log.Warn().
		Str("path", r.URL.Path).
		Str("client", s.extractClientID(r)).
		Int("limit", info.Limit).
		Msg("Rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// failWith maps err to a status and writes it, including field details for
// validation failures
func (s *Server) failWith(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	body := map[string]any{"success": false, "error": err.Error()}
	var invalid *types.ValidationError
	if errors.As(err, &invalid) {
		body["fields"] = invalid.Fields
	}
	if logOutput, ok := compilationLog(err); ok {
		body["log"] = logOutput
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	s.jsonResponse(w, status, body)
}

// pdfResponse writes PDF bytes
func (s *Server) pdfResponse(w http.ResponseWriter, pdf []byte, disposition string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition+`; filename="resume.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Error().Err(err).Msg("Error writing PDF response")
	}
}
