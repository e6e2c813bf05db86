// Package rendering holds the pure LaTeX helpers shared by the generation paths:
// escaping, package insertion, source checks and the manual fallback layout.
package rendering

import "strings"

// latexReplacements maps each reserved character to its LaTeX-safe form.
// Replacements are emitted in a single pass so a replacement is never re-escaped.
var latexReplacements = map[rune]string{
	'\\': `\textbackslash{}`,
	'{':  `\{`,
	'}':  `\}`,
	'$':  `\$`,
	'&':  `\&`,
	'%':  `\%`,
	'#':  `\#`,
	'^':  `\textasciicircum{}`,
	'_':  `\_`,
	'~':  `\textasciitilde{}`,
}

// EscapeLaTeX escapes special LaTeX characters in text
// Special characters: \ { } $ & % # ^ _ ~
func EscapeLaTeX(text string) string {
	if text == "" {
		return ""
	}
	if !strings.ContainsAny(text, `\{}$&%#^_~`) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) * 2)
	for _, r := range text {
		if rep, ok := latexReplacements[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeURL prepares a value for \url or \href. Only characters that break
// argument parsing are escaped; underscores and tildes are literal there.
func escapeURL(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 8)
	for _, r := range value {
		switch r {
		case '%', '#', '{', '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\\':
			// dropped: a backslash cannot appear in a url argument
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
