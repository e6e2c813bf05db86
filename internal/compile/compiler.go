// Package compile turns a LaTeX document into PDF bytes with an external toolchain
package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/AmyLu0828/the-resume-hub/internal/rendering"
)

// Defaults for Options
const (
	DefaultCommand       = "pdflatex"
	DefaultPasses        = 2
	DefaultTimeout       = 60 * time.Second
	DefaultMaxConcurrent = 4
)

// outputWritten is printed by pdflatex when a PDF was produced
const outputWritten = "Output written"

// maxLogBytes caps the diagnostic text kept on errors
const maxLogBytes = 8 << 10

// Options configures a Compiler
type Options struct {
	Command       string
	Passes        int
	Timeout       time.Duration
	MaxConcurrent int64
	// ScratchRoot is where per-call scratch directories are created; "" means os.TempDir
	ScratchRoot string
	// SkipPDFCheck disables parsing the produced PDF to count its pages
	SkipPDFCheck bool
}

func (o Options) withDefaults() Options {
	if o.Command == "" {
		o.Command = DefaultCommand
	}
	if o.Passes <= 0 {
		o.Passes = DefaultPasses
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	return o
}

// Compiler runs the LaTeX toolchain. It is safe for concurrent use; each
// call works in its own scratch directory, removed on every exit path.
type Compiler struct {
	opts Options
	sem  *semaphore.Weighted
}

// New creates a compiler
func New(opts Options) *Compiler {
	opts = opts.withDefaults()
	return &Compiler{opts: opts, sem: semaphore.NewWeighted(opts.MaxConcurrent)}
}

// Compile checks the source, runs the configured number of passes and
// returns the PDF bytes.
func (c *Compiler) Compile(ctx context.Context, source string) ([]byte, error) {
	if err := rendering.ValidateSource(source); err != nil {
		return nil, &CompilationError{Message: "document rejected before compilation", Cause: err}
	}

	command, err := exec.LookPath(c.opts.Command)
	if err != nil {
		return nil, &CompilationError{
			Message: fmt.Sprintf("%s not found in PATH. Please install a LaTeX distribution (e.g., TeX Live, MiKTeX)", c.opts.Command),
			Cause:   err,
		}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, &CompilationError{Message: "compilation cancelled while waiting for a slot", Cause: err}
	}
	defer c.sem.Release(1)

	workDir, err := os.MkdirTemp(c.opts.ScratchRoot, "latex-compile-*")
	if err != nil {
		return nil, &CompilationError{Message: "failed to create temporary working directory", Cause: err}
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn().Err(err).Str("dir", workDir).Msg("Failed to remove compilation directory")
		}
	}()

	texPath := filepath.Join(workDir, "resume.tex")
	if err := os.WriteFile(texPath, []byte(source), 0o644); err != nil {
		return nil, &CompilationError{Message: "failed to write LaTeX file to working directory", Cause: err}
	}
	pdfPath := filepath.Join(workDir, "resume.pdf")

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	for pass := 1; pass <= c.opts.Passes; pass++ {
		if err := c.runPass(ctx, command, workDir, texPath, pdfPath, pass); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil || len(data) == 0 {
		return nil, &CompilationError{Message: "LaTeX compilation failed: PDF was not generated", Cause: err}
	}

	if !c.opts.SkipPDFCheck {
		pages, err := PageCount(data)
		if err != nil {
			return nil, &CompilationError{Message: "compiled PDF could not be read", Cause: err}
		}
		if pages == 0 {
			return nil, &CompilationError{Message: "compiled PDF has no pages"}
		}
	}

	log.Info().
		Int("passes", c.opts.Passes).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("LaTeX compiled")
	return data, nil
}

func (c *Compiler) runPass(ctx context.Context, command, workDir, texPath, pdfPath string, pass int) error {
	cmd := exec.CommandContext(ctx, command,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", workDir,
		texPath,
	)
	cmd.Dir = workDir
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	logOutput := tail(stdout.String() + stderr.String())

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &CompilationError{
			Message:   fmt.Sprintf("compilation timed out after %s", c.opts.Timeout),
			LogOutput: logOutput,
			Timeout:   true,
			Cause:     ctx.Err(),
		}
	}
	if ctx.Err() != nil {
		return &CompilationError{Message: "compilation cancelled", LogOutput: logOutput, Cause: ctx.Err()}
	}
	if runErr == nil {
		return nil
	}

	// warnings-only runs exit non-zero but still write the PDF
	if strings.Contains(stdout.String(), outputWritten) && fileExists(pdfPath) {
		log.Warn().Int("pass", pass).Err(runErr).Msg("LaTeX finished with warnings")
		return nil
	}
	return &CompilationError{
		Message:   fmt.Sprintf("LaTeX reported a fatal error on pass %d", pass),
		LogOutput: logOutput,
		Cause:     runErr,
	}
}

// Toolchain reports which LaTeX executables are on PATH
func Toolchain() map[string]bool {
	out := make(map[string]bool, 2)
	for _, name := range []string{"pdflatex", "latexmk"} {
		_, err := exec.LookPath(name)
		out[name] = err == nil
	}
	return out
}

// PageCount parses a PDF and returns its number of pages
func PageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func tail(s string) string {
	if len(s) <= maxLogBytes {
		return s
	}
	return "..." + s[len(s)-maxLogBytes:]
}
