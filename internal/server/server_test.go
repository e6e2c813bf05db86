package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
	"github.com/AmyLu0828/the-resume-hub/internal/compile"
	"github.com/AmyLu0828/the-resume-hub/internal/fragment"
	"github.com/AmyLu0828/the-resume-hub/internal/server/ratelimit"
	"github.com/AmyLu0828/the-resume-hub/internal/store"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

const testTemplate = "%PART 1\n\\documentclass{article}\n\\begin{document}\n%PART 2\nH {{name}}\n%PART 3\nS\n\\end{document}"

const adaJSON = `{
  "name": {"firstName": "Ada", "lastName": "Lovelace"},
  "aboutMe": {"description": "Analyst"},
  "contact": [{"id": "c1", "type": "email", "value": "ada@example.com"}],
  "experience": [{"id": "x1", "title": "Analyst", "company": "Engine Co", "startDate": "1842-09"}],
  "skills": [{"id": "s1", "skill": "Analysis"}]
}`

// echoRenderer fills {{name}} in the header, renders the about-me section
// and appends a note for edits to a whole body
func echoRenderer(_ context.Context, req fragment.Request) (fragment.Response, error) {
	switch {
	case req.Kind == fragment.KindBody:
		return fragment.Response{Success: true, Content: req.Prior + "\nEDITED " + req.Update.Section}, nil
	case req.Kind == fragment.KindHeader:
		return fragment.Response{Success: true, Content: strings.ReplaceAll(req.Template, "{{name}}", req.Data.Name.FirstName)}, nil
	case req.Section == types.SectionAboutMe:
		return fragment.Response{Success: true, Content: "ABOUT " + req.Data.AboutMe.Description}, nil
	default:
		return fragment.Response{Success: true}, nil
	}
}

type fakeCompiler struct {
	mu      sync.Mutex
	sources []string
	err     error
}

func (f *fakeCompiler) Compile(_ context.Context, source string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, source)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fakePolisher struct{}

func (fakePolisher) Polish(_ context.Context, req *types.PolishRequest) *types.PolishResult {
	if err := req.Validate(); err != nil {
		return &types.PolishResult{Success: false, Error: err.Error()}
	}
	out := map[string]any{}
	for k, v := range req.Content {
		out[k] = v
	}
	out["description"] = "Polished"
	return &types.PolishResult{Success: true, Content: out, Polished: true, Message: "Content polished"}
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) Upload(_ context.Context, id uuid.UUID, _ []byte) (string, error) {
	key := "pdfs/" + id.String() + ".pdf"
	f.keys = append(f.keys, key)
	return key, nil
}

type testEnv struct {
	server   *Server
	handler  http.Handler
	compiler *fakeCompiler
}

func newTestEnv(t *testing.T, renderer fragment.RendererFunc, mutate ...func(*Config, *Deps)) *testEnv {
	t.Helper()
	cfg := Config{
		Port:      0,
		RateLimit: ratelimit.NewConfig(0, 0),
		Toolchain: func() map[string]bool { return map[string]bool{"pdflatex": true, "latexmk": false} },
	}
	compiler := &fakeCompiler{}
	deps := Deps{
		Template: assembly.TextSource(testTemplate),
		Renderer: renderer,
		Compiler: compiler,
		Polisher: fakePolisher{},
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}
	s, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	t.Cleanup(s.documents.stop)
	return &testEnv{server: s, handler: s.Handler(), compiler: compiler}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

type resultBody struct {
	DocumentID string             `json:"documentId"`
	Success    bool               `json:"success"`
	LatexCode  string             `json:"latexCode"`
	Strategy   string             `json:"strategy"`
	Error      string             `json:"error"`
	Fragments  map[string]string  `json:"fragments"`
	Fields     []types.FieldError `json:"fields"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) resultBody {
	t.Helper()
	var out resultBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.ErrorContains(t, err, "template source is required")
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["latexAvailable"])
	assert.Equal(t, map[string]any{"pdflatex": true, "latexmk": false}, resp["toolchain"])
}

func TestGenerateLatex_Full(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/generate-latex", `{"type": "full", "data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode(t, w)
	assert.True(t, res.Success)
	assert.Equal(t, types.StrategyFullRender, res.Strategy)
	assert.Equal(t, "%PART 1\n\\documentclass{article}\n\\begin{document}\n%PART 2\nH Ada\nABOUT Analyst\n\\end{document}", res.LatexCode)

	id, err := uuid.Parse(res.DocumentID)
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/api/documents/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, res.LatexCode, decode(t, w).LatexCode)
}

func TestGenerateLatex_DefaultsToFull(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/generate-latex", `{"data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.StrategyFullRender, decode(t, w).Strategy)
}

func TestGenerateLatex_ManualFallback(t *testing.T) {
	env := newTestEnv(t, func(context.Context, fragment.Request) (fragment.Response, error) {
		return fragment.Response{}, errors.New("model unavailable")
	})

	w := env.do(t, http.MethodPost, "/api/generate-latex", `{"type": "full", "data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode(t, w)
	assert.True(t, res.Success)
	assert.Equal(t, types.StrategyManual, res.Strategy)
	assert.Contains(t, res.LatexCode, "Ada Lovelace")
}

func TestGenerateLatex_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	bad := strings.Replace(adaJSON, "1842-09", "1842-13", 1)
	w := env.do(t, http.MethodPost, "/api/generate-latex", `{"type": "full", "data": `+bad+`}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	res := decode(t, w)
	assert.False(t, res.Success)
	assert.Contains(t, res.Fields, types.FieldError{Field: "experience.0.startDate", Rule: "pattern"})
}

func TestGenerateLatex_BadRequests(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "not json", body: `{`, want: http.StatusBadRequest},
		{name: "missing data", body: `{"type": "full"}`, want: http.StatusBadRequest},
		{name: "unknown type", body: `{"type": "partial", "data": ` + adaJSON + `}`, want: http.StatusBadRequest},
		{name: "incremental without update", body: `{"type": "incremental", "data": ` + adaJSON + `}`, want: http.StatusBadRequest},
		{name: "bad update", body: `{"type": "incremental", "data": ` + adaJSON + `, "update": {"section": "hobbies", "entryId": "h1", "changeType": "add"}}`, want: http.StatusBadRequest},
		{name: "bad document id", body: `{"type": "full", "documentId": "nope", "data": ` + adaJSON + `}`, want: http.StatusBadRequest},
		{name: "unknown document", body: `{"type": "full", "documentId": "` + uuid.NewString() + `", "data": ` + adaJSON + `}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/generate-latex", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.False(t, decode(t, w).Success)
		})
	}
}

func TestGenerateLatex_IncrementalOnExistingDocument(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/generate-latex", `{"type": "full", "data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)

	edited := strings.Replace(adaJSON, `"description": "Analyst"`, `"description": "Mathematician"`, 1)
	body := `{"type": "incremental", "documentId": "` + first.DocumentID + `", "currentLatex": "ignored", "data": ` + edited +
		`, "update": {"section": "aboutMe", "entryId": "about", "changeType": "update"}}`
	w = env.do(t, http.MethodPost, "/api/generate-latex", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode(t, w)
	assert.Equal(t, first.DocumentID, res.DocumentID)
	assert.Equal(t, types.StrategyIncremental, res.Strategy)
	assert.Contains(t, res.LatexCode, "ABOUT Mathematician")
}

func TestGenerateLatex_IncrementalWithoutDocumentRegenerates(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	body := `{"type": "incremental", "data": ` + adaJSON +
		`, "update": {"section": "skills", "entryId": "s1", "changeType": "add"}}`
	w := env.do(t, http.MethodPost, "/api/generate-latex", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.StrategyFullRender, decode(t, w).Strategy)
}

func TestGenerateLatex_IncrementalEditsCurrentLatex(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	current := "%PART 1\n\\documentclass{article}\n\\begin{document}\nH Ada\nCUSTOM EDITED SKILLS\n\\end{document}"
	req := map[string]any{
		"type":         "incremental",
		"currentLatex": current,
		"data":         json.RawMessage(adaJSON),
		"update":       map[string]string{"section": "skills", "entryId": "s1", "changeType": "add"},
	}
	w := env.do(t, http.MethodPost, "/api/generate-latex", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode(t, w)
	assert.Equal(t, types.StrategyIncremental, res.Strategy)
	assert.Contains(t, res.LatexCode, "H Ada\nCUSTOM EDITED SKILLS\nEDITED skills\n\\end{document}")
	assert.Equal(t, "H Ada\nCUSTOM EDITED SKILLS\nEDITED skills", res.Fragments["body"])

	// the adopted body has no separate sections to edit
	w = env.do(t, http.MethodPost, "/api/documents/"+res.DocumentID+"/section", `{"section": "aboutMe", "data": `+adaJSON+`}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	failed := decode(t, w)
	assert.Contains(t, failed.Error, "adopted")
	assert.Equal(t, res.LatexCode, failed.LatexCode)
}

func TestDocumentLifecycle(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/documents", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	require.True(t, created.Success)
	base := "/api/documents/" + created.DocumentID

	w = env.do(t, http.MethodPost, base+"/scrape", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/header", `{"data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w).LatexCode, "H Ada")

	w = env.do(t, http.MethodPost, base+"/section", `{"section": "aboutMe", "data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Contains(t, res.LatexCode, "H Ada\nABOUT Analyst")
	assert.Equal(t, "ABOUT Analyst", res.Fragments[types.SectionAboutMe])

	w = env.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateSection_Errors(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/documents", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/documents/" + decode(t, w).DocumentID

	w = env.do(t, http.MethodPost, base+"/section", `{"data": `+adaJSON+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// header sections go through the header route
	w = env.do(t, http.MethodPost, base+"/section", `{"section": "name", "data": `+adaJSON+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, "/api/documents/not-a-uuid/section", `{"section": "skills", "data": `+adaJSON+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateHeader_RendererFailureKeepsDocument(t *testing.T) {
	var fail bool
	var mu sync.Mutex
	env := newTestEnv(t, func(ctx context.Context, req fragment.Request) (fragment.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return fragment.Response{Success: false, Error: "quota exceeded"}, nil
		}
		return echoRenderer(ctx, req)
	})

	w := env.do(t, http.MethodPost, "/api/documents", nil)
	base := "/api/documents/" + decode(t, w).DocumentID
	w = env.do(t, http.MethodPost, base+"/header", `{"data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	good := decode(t, w).LatexCode

	mu.Lock()
	fail = true
	mu.Unlock()

	w = env.do(t, http.MethodPost, base+"/header", `{"data": `+adaJSON+`}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	res := decode(t, w)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "quota exceeded")
	assert.Equal(t, good, res.LatexCode)
}

func TestDocuments_RestoredFromStore(t *testing.T) {
	shared := store.NewMemory()
	withStore := func(_ *Config, d *Deps) { d.Store = shared }

	first := newTestEnv(t, echoRenderer, withStore)
	w := first.do(t, http.MethodPost, "/api/generate-latex", `{"data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	generated := decode(t, w)

	second := newTestEnv(t, echoRenderer, withStore)
	w = second.do(t, http.MethodGet, "/api/documents/"+generated.DocumentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, generated.LatexCode, decode(t, w).LatexCode)

	w = second.do(t, http.MethodGet, "/api/documents/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompileLatex(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/compile-latex", `{"latexCode": "\\documentclass{article}\\begin{document}x\\end{document}"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, "%PDF-1.4 fake", w.Body.String())

	// trailing slash is accepted too
	w = env.do(t, http.MethodPost, "/api/compile-latex/", `{"latexCode": "x"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/compile-latex", `{"latexCode": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompileLatex_CompilationError(t *testing.T) {
	env := newTestEnv(t, echoRenderer)
	env.compiler.err = &compile.CompilationError{Message: "pdflatex failed", LogOutput: "! Undefined control sequence."}

	w := env.do(t, http.MethodPost, "/api/compile-latex", `{"latexCode": "x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "! Undefined control sequence.", resp["log"])

	env.compiler.err = &compile.CompilationError{Message: "timed out", Timeout: true}
	w = env.do(t, http.MethodPost, "/api/compile-latex", `{"latexCode": "x"}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestPolishContent(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/polish-content",
		`{"section": "experience", "entryId": "x1", "content": {"id": "x1", "description": "did things"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res types.PolishResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Polished)
	assert.Equal(t, "Polished", res.Content["description"])
	assert.Equal(t, "x1", res.Content["id"])

	w = env.do(t, http.MethodPost, "/api/polish-content", `{"section": "", "entryId": "", "content": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateFinalPDF(t *testing.T) {
	uploader := &fakeUploader{}
	env := newTestEnv(t, echoRenderer, func(_ *Config, d *Deps) { d.Uploader = uploader })

	w := env.do(t, http.MethodPost, "/api/generate-final-pdf", adaJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, types.StrategyFullRender, w.Header().Get("X-Generation-Strategy"))

	assert.Empty(t, w.Header().Get("X-Document-Id"))
	require.Len(t, uploader.keys, 1)
	assert.Equal(t, uploader.keys[0], w.Header().Get("X-Object-Key"))

	require.Len(t, env.compiler.sources, 1)
	assert.Contains(t, env.compiler.sources[0], "H Ada")
}

func TestGenerateFinalPDF_DoesNotKeepDocuments(t *testing.T) {
	st := store.NewMemory()
	uploader := &fakeUploader{}
	env := newTestEnv(t, echoRenderer, func(_ *Config, d *Deps) {
		d.Store = st
		d.Uploader = uploader
	})

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/api/generate-final-pdf", adaJSON)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	assert.Zero(t, env.server.documents.len())

	require.Len(t, uploader.keys, 3)
	for _, key := range uploader.keys {
		id, err := uuid.Parse(strings.TrimSuffix(strings.TrimPrefix(key, "pdfs/"), ".pdf"))
		require.NoError(t, err)
		_, err = st.Load(t.Context(), id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
}

func TestDocuments_IdleInstancesAreEvicted(t *testing.T) {
	shared := store.NewMemory()
	env := newTestEnv(t, echoRenderer, func(c *Config, d *Deps) {
		c.DocumentTTL = time.Minute
		d.Store = shared
	})

	w := env.do(t, http.MethodPost, "/api/generate-latex", `{"data": `+adaJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	generated := decode(t, w)
	require.Equal(t, 1, env.server.documents.len())

	assert.Zero(t, env.server.documents.evictIdle(time.Now()))
	assert.Equal(t, 1, env.server.documents.evictIdle(time.Now().Add(2*time.Minute)))
	assert.Zero(t, env.server.documents.len())

	// persisted state brings the document back
	w = env.do(t, http.MethodGet, "/api/documents/"+generated.DocumentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, generated.LatexCode, decode(t, w).LatexCode)
	assert.Equal(t, 1, env.server.documents.len())
}

func TestDocuments_AccessKeepsInstanceAlive(t *testing.T) {
	env := newTestEnv(t, echoRenderer, func(c *Config, _ *Deps) { c.DocumentTTL = time.Minute })

	w := env.do(t, http.MethodPost, "/api/documents", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := uuid.MustParse(decode(t, w).DocumentID)

	env.server.documents.mu.Lock()
	env.server.documents.docs[id].lastUsed = time.Now().Add(-2 * time.Minute)
	env.server.documents.mu.Unlock()

	_, err := env.server.documents.get(t.Context(), id)
	require.NoError(t, err)
	assert.Zero(t, env.server.documents.evictIdle(time.Now()))

	// without a store an evicted document is gone
	assert.Equal(t, 1, env.server.documents.evictIdle(time.Now().Add(2*time.Minute)))
	w = env.do(t, http.MethodGet, "/api/documents/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateFinalPDF_InvalidData(t *testing.T) {
	env := newTestEnv(t, echoRenderer)

	w := env.do(t, http.MethodPost, "/api/generate-final-pdf", `{"name": {"firstName": ""}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.compiler.sources)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, echoRenderer, func(c *Config, _ *Deps) {
		c.CORSOrigins = []string{"https://resume.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-latex", nil)
	req.Header.Set("Origin", "https://resume.example.com")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://resume.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, echoRenderer, func(c *Config, _ *Deps) {
		c.RateLimit = ratelimit.NewConfig(1, 1)
		c.RateLimit.EndpointConfigs = nil
	})

	w := env.do(t, http.MethodPost, "/api/compile-latex", `{"latexCode": "x"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/compile-latex", `{"latexCode": "x"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// health checks are never limited
	w = env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
