package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// statusExpr matches a decision keyword with an optional "on D/M[/Y]" clause.
// The site writes dates day-first; downstream date arithmetic relies on that
// ordering, so it is preserved here rather than corrected.
var statusExpr = regexp.MustCompile(
	`(?i)\b(Accepted|Rejected|Wait\s*listed|Waitlisted|Interview(?:ed)?)` +
		`(?:\s*on\s*(\d{1,2}/\d{1,2}(?:/\d{2,4})?))?`)

var numericDateExpr = regexp.MustCompile(`^\s*(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\s*$`)

// Status canonicalizes a raw decision string into "<Decision> on <D Mon>".
// When no date clause is present the bare title-cased decision is returned;
// input without a recognized decision keyword passes through trimmed and
// verbatim; empty input yields an empty string. Total: no input fails.
func Status(raw string) string {
	if raw == "" {
		return ""
	}

	m := statusExpr.FindStringSubmatch(raw)
	if m == nil {
		return strings.TrimSpace(raw)
	}

	decision := titleCase(strings.TrimSpace(m[1]))
	datePart := formatDayMon(m[2])

	if datePart == "" {
		return decision
	}
	return fmt.Sprintf("%s on %s", decision, datePart)
}

// formatDayMon converts a numeric "D/M[/Y]" string to "D Mon", e.g.
// "01/03/2025" -> "1 Mar". The first group is the day, the second the
// month; the year is accepted and discarded. Unparsable input is returned
// trimmed and unmodified.
func formatDayMon(dateStr string) string {
	if dateStr == "" {
		return ""
	}

	s := strings.TrimSpace(dateStr)
	m := numericDateExpr.FindStringSubmatch(s)
	if m == nil {
		return s
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return s
	}

	return fmt.Sprintf("%d %s", day, time.Month(month).String()[:3])
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
