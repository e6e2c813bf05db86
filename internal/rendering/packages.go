package rendering

import (
	"regexp"
	"strings"
	"sync"
)

var documentClassPattern = regexp.MustCompile(`\\documentclass(?:\[[^\]]*\])?\{[^}]+\}`)

// usepackagePatterns caches the declaration pattern per package name.
var usepackagePatterns sync.Map

func usepackagePattern(pkg string) *regexp.Regexp {
	if re, ok := usepackagePatterns.Load(pkg); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\\usepackage(?:\[[^\]]*\])?\{[^}]*\b` + regexp.QuoteMeta(pkg) + `\b[^}]*\}`)
	actual, _ := usepackagePatterns.LoadOrStore(pkg, re)
	return actual.(*regexp.Regexp)
}

// HasPackage reports whether doc already declares pkg, including declarations
// with options or several comma-separated package names.
func HasPackage(doc, pkg string) bool {
	if strings.Contains(doc, `\usepackage{`+pkg+`}`) {
		return true
	}
	for _, m := range usepackagePattern(pkg).FindAllString(doc, -1) {
		open := strings.LastIndex(m, "{")
		for _, name := range strings.Split(m[open+1:len(m)-1], ",") {
			if strings.TrimSpace(name) == pkg {
				return true
			}
		}
	}
	return false
}

// EnsurePackage inserts \usepackage{pkg} when doc does not declare it yet.
// The declaration goes after the last existing \usepackage, else after the
// \documentclass line, else at the very start. Calling it again is a no-op.
func EnsurePackage(doc, pkg string) string {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" || HasPackage(doc, pkg) {
		return doc
	}
	decl := `\usepackage{` + pkg + `}`

	if last := strings.LastIndex(doc, `\usepackage`); last != -1 {
		if end := strings.Index(doc[last:], "}"); end != -1 {
			pos := last + end + 1
			return doc[:pos] + "\n" + decl + doc[pos:]
		}
	}
	if loc := documentClassPattern.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + "\n" + decl + doc[loc[1]:]
	}
	return decl + "\n" + doc
}

// EnsurePackages applies EnsurePackage for each name in order
func EnsurePackages(doc string, pkgs ...string) string {
	for _, pkg := range pkgs {
		doc = EnsurePackage(doc, pkg)
	}
	return doc
}
