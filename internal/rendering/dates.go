package rendering

import (
	"strings"
	"time"
)

// FormatDate turns a YYYY-MM value into "Jan 2006" form. An empty value means
// the entry is ongoing and renders as "Present". Anything unparsable is
// passed through escaped.
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Present"
	}
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return EscapeLaTeX(value)
	}
	return t.Format("Jan 2006")
}

// FormatDateRange renders "start -- end" using FormatDate for both ends
func FormatDateRange(start, end string) string {
	if strings.TrimSpace(start) == "" {
		return FormatDate(end)
	}
	return FormatDate(start) + " -- " + FormatDate(end)
}
