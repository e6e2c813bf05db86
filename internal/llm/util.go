package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// CleanJSONBlock strips markdown code fences and any conversational text
// around the first JSON object or array in a model response.
func CleanJSONBlock(text string) string {
	text = stripFence(strings.TrimSpace(text))
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return text
	}
	if end := matchingClose(text, start); end != -1 {
		return text[start : end+1]
	}
	return text[start:]
}

// CleanLaTeXBlock strips a ```latex or ```tex fence from a model response
func CleanLaTeXBlock(text string) string {
	return stripFence(strings.TrimSpace(text))
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.Index(text, "\n"); nl >= 0 {
		lang := text[:nl]
		if len(lang) < 20 && !strings.ContainsAny(lang, " {[\\") {
			text = text[nl+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// matchingClose finds the bracket that closes text[start], honoring JSON strings
func matchingClose(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// DecodeJSON cleans a model response and unmarshals it into v. Malformed JSON
// is passed through jsonrepair once before giving up.
func DecodeJSON(text string, v any) error {
	cleaned := CleanJSONBlock(text)
	if cleaned == "" {
		return fmt.Errorf("empty JSON response")
	}
	err := json.Unmarshal([]byte(cleaned), v)
	if err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return fmt.Errorf("invalid JSON response: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("invalid JSON response after repair: %w", err)
	}
	return nil
}
