package rendering

import "strings"

// BalancedBraces reports whether every unescaped brace in s is matched.
// Escaped braces (\{ \}) and anything after an unescaped % on a line are ignored.
func BalancedBraces(s string) bool {
	depth := 0
	escaped := false
	comment := false
	for _, r := range s {
		if comment {
			if r == '\n' {
				comment = false
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			comment = true
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// ValidateSource performs a basic structural check on a complete document
// before it is handed to the toolchain.
func ValidateSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return &SourceError{Message: "document is empty"}
	}
	for _, required := range []string{`\documentclass`, `\begin{document}`, `\end{document}`} {
		if !strings.Contains(source, required) {
			return &SourceError{Message: "missing " + required}
		}
	}
	if strings.Index(source, `\begin{document}`) > strings.LastIndex(source, `\end{document}`) {
		return &SourceError{Message: `\end{document} appears before \begin{document}`}
	}
	if !BalancedBraces(source) {
		return &SourceError{Message: "unbalanced braces"}
	}
	return nil
}
