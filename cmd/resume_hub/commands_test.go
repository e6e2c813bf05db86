package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

const adaJSON = `{
  "name": {"firstName": "Ada", "lastName": "Lovelace"},
  "aboutMe": {"description": "Analyst of engines"},
  "contact": [{"id": "c1", "type": "email", "value": "ada@example.com"}],
  "experience": [{"id": "x1", "title": "Analyst", "company": "Engine Co", "startDate": "1842-09"}],
  "skills": [{"id": "s1", "skill": "Analysis"}]
}`

// resetFlags restores every flag to its default so runs do not leak state
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command in-process with an isolated environment
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")

	resetFlags(rootCmd)
	appConfig = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerate_OfflineUsesManualLayout(t *testing.T) {
	data := writeFile(t, "resume.json", adaJSON)

	out, _, err := run(t, "generate", "--data", data, "--offline")
	require.NoError(t, err)

	assert.Contains(t, out, `\textbf{Ada Lovelace}`)
	assert.Contains(t, out, "Engine Co")
	assert.Contains(t, out, `\usepackage{url}`)
	assert.Contains(t, out, `\end{document}`)
}

func TestGenerate_WithoutAPIKeyFallsBack(t *testing.T) {
	data := writeFile(t, "resume.json", adaJSON)
	out := filepath.Join(t.TempDir(), "resume.tex")

	_, stderr, err := run(t, "generate", "--data", data, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, types.StrategyManual)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), `\textbf{Ada Lovelace}`)
}

func TestGenerate_FlagsValidation(t *testing.T) {
	_, _, err := run(t, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestGenerate_InvalidData(t *testing.T) {
	data := writeFile(t, "resume.json", `{"name": {"firstName": "Ada", "lastName": "Lovelace"}, "education": [{"id": "e1", "degree": "BA", "institution": "London", "startDate": "1842-13"}]}`)

	_, _, err := run(t, "generate", "--data", data, "--offline")
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "education.0.startDate", verr.Fields[0].Field)
}

func TestGenerate_MalformedTemplate(t *testing.T) {
	data := writeFile(t, "resume.json", adaJSON)
	tmpl := writeFile(t, "broken.tex", "\\documentclass{article}\n%PART 2\n%PART 3\n\\end{document}")

	_, _, err := run(t, "generate", "--data", data, "--template", tmpl, "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed")
	assert.Contains(t, err.Error(), "%PART 1")
}

func TestUpdate_RegeneratesWithoutStoredState(t *testing.T) {
	data := writeFile(t, "resume.json", adaJSON)
	update := writeFile(t, "update.json", `{"section": "experience", "entryId": "x1", "changeType": "update"}`)

	out, _, err := run(t, "update", "--data", data, "--update", update, "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Engine Co")
}

func TestUpdate_InvalidUpdate(t *testing.T) {
	data := writeFile(t, "resume.json", adaJSON)
	update := writeFile(t, "update.json", `{"section": "hobbies", "entryId": "x1", "changeType": "update"}`)

	_, _, err := run(t, "update", "--data", data, "--update", update, "--offline")
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdate_InvalidDocumentID(t *testing.T) {
	data := writeFile(t, "resume.json", adaJSON)
	update := writeFile(t, "update.json", `{"section": "skills", "entryId": "s1", "changeType": "add"}`)

	_, _, err := run(t, "update", "--data", data, "--update", update, "--document-id", "not-a-uuid", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document id")
}

func TestUpdate_FlagsValidation(t *testing.T) {
	data := writeFile(t, "resume.json", adaJSON)
	_, _, err := run(t, "update", "--data", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestScrape_DefaultTemplate(t *testing.T) {
	out, _, err := run(t, "scrape")
	require.NoError(t, err)

	var parts assembly.TemplateParts
	require.NoError(t, json.Unmarshal([]byte(out), &parts))
	assert.Contains(t, parts.Preamble, "%PART 1")
	assert.Contains(t, parts.Header, "%PART 2")
	assert.Contains(t, parts.Sections, "%PART 3")
	assert.Equal(t, `\end{document}`, parts.Footer)
}

func TestScrape_MalformedTemplate(t *testing.T) {
	tmpl := writeFile(t, "broken.tex", "%PART 1\n%PART 3\n%PART 2\n")

	_, _, err := run(t, "scrape", "--template", tmpl)
	var malformed *assembly.MalformedTemplateError
	require.ErrorAs(t, err, &malformed)
}

func TestCompile_PrintsLogOnFailure(t *testing.T) {
	script := writeFile(t, "fake-pdflatex", "#!/bin/sh\necho \"! Undefined control sequence.\"\nexit 1\n")
	require.NoError(t, os.Chmod(script, 0o755))
	t.Setenv("RESUMEHUB_COMPILE__COMMAND", script)

	in := writeFile(t, "doc.tex", "\\documentclass{article}\n\\begin{document}\nHi\n\\end{document}")
	out := filepath.Join(t.TempDir(), "doc.pdf")

	_, stderr, err := run(t, "compile", "--in", in, "--out", out)
	require.Error(t, err)
	assert.Contains(t, stderr, "Undefined control sequence")
	assert.NoFileExists(t, out)
}

func TestCompile_FlagsValidation(t *testing.T) {
	_, _, err := run(t, "compile", "--in", "doc.tex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestPolish_OfflineReturnsOriginal(t *testing.T) {
	content := writeFile(t, "entry.json", `{"id": "x1", "title": "Analyst", "description": "did stuff"}`)

	out, _, err := run(t, "polish", "--section", "experience", "--entry-id", "x1", "--change-type", "update", "--content", content, "--offline")
	require.NoError(t, err)

	var result types.PolishResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.False(t, result.Polished)
	assert.Equal(t, "did stuff", result.Content["description"])
}

func TestPolish_UnknownSection(t *testing.T) {
	content := writeFile(t, "entry.json", `{"id": "x1"}`)

	_, _, err := run(t, "polish", "--section", "hobbies", "--entry-id", "x1", "--content", content, "--offline")
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSetupLogging_InvalidLevelDefaultsToInfo(t *testing.T) {
	setupLogging("loud", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	setupLogging("DEBUG", true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogging("info", false)
}

func TestDownload_RequiresBucket(t *testing.T) {
	t.Setenv("RESUMEHUB_STORAGE__BUCKET", "")
	_, _, err := run(t, "download", "--key", "resumes/x.pdf", "--out", filepath.Join(t.TempDir(), "x.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.bucket is not configured")
}
