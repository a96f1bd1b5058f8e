package scraper

import (
	"regexp"
	"strings"

	"AdmitScanner/internal/domain"
)

// ListingMeta is the coarse metadata harvested from a listing row. It fills
// fields the detail page leaves blank; detail-page values take precedence.
type ListingMeta struct {
	DateAdded string
	Term      string
}

// Detail pages carry their fields as "<label> <value> <next label>" runs in
// the flattened text. Each rule captures the value between its label and
// terminator; adding a field means adding a row, not touching control flow.
type fieldRule struct {
	field string
	expr  *regexp.Regexp
}

var detailRules = []fieldRule{
	{"institution", regexp.MustCompile(`(?i)Institution\s*(.*?)\s*Program`)},
	{"program", regexp.MustCompile(`(?i)Program\s*(.*?)\s*Degree\s*Type`)},
	{"degree", regexp.MustCompile(`(?i)Degree Type\s*([A-Za-z]+)`)},
	{"origin", regexp.MustCompile(`(?i)Degree's Country of Origin\s*([A-Za-z]+)`)},
	{"gpa", regexp.MustCompile(`(?i)Undergrad GPA\s*(\d\.\d{1,2})`)},
	{"gre", regexp.MustCompile(`(?i)GRE\s*General\s*:\s*(\d{1,3})`)},
	{"gre_v", regexp.MustCompile(`(?i)GRE\s*Verbal\s*:\s*(\d{1,3})`)},
	{"gre_aw", regexp.MustCompile(`(?i)Analytical\s*Writing\s*:\s*([\d.]+)`)},
	{"notes", regexp.MustCompile(`(?i)Notes\s*(.*?)\s*(?:Timeline\b|$)`)},
	{"decision", regexp.MustCompile(`(?i)Decision\s*(.*?)\s*Notification`)},
	{"notification", regexp.MustCompile(`(?i)Notification\s*on\s*(\d{2}/\d{2}/\d{4})`)},
}

// ExtractApplicant parses the flattened visible text of one detail page into
// a record. Extraction is best effort: a label that never appears leaves its
// field blank, which is the common case given the site's uneven formatting.
func ExtractApplicant(text, url string, meta ListingMeta) domain.Applicant {
	fields := map[string]string{}
	for _, rule := range detailRules {
		if m := rule.expr.FindStringSubmatch(text); m != nil {
			fields[rule.field] = strings.TrimSpace(m[1])
		}
	}

	rec := domain.Applicant{
		URL:           url,
		Comments:      fields["notes"],
		Degree:        fields["degree"],
		Citizenship:   fields["origin"],
		GRE:           fields["gre"],
		GREVerbal:     fields["gre_v"],
		GREAnalytical: fields["gre_aw"],
	}

	// The GPA prefix disambiguates the value from GRE-type numbers in the
	// intermediate files; the storage layer strips it before coercion.
	if v := fields["gpa"]; v != "" {
		rec.GPA = "GPA " + v
	}

	// Program and institution are deliberately conflated into one display
	// field, matching the site's own listing convention.
	var program []string
	if v := fields["program"]; v != "" {
		program = append(program, v)
	}
	if v := fields["institution"]; v != "" {
		program = append(program, ", "+v)
	}
	rec.Program = strings.Join(program, " ")

	var status []string
	if v := fields["decision"]; v != "" {
		status = append(status, v)
	}
	if v := fields["notification"]; v != "" {
		status = append(status, "on "+v)
	}
	rec.Status = strings.Join(status, " ")

	if rec.DateAdded == "" && meta.DateAdded != "" {
		rec.DateAdded = meta.DateAdded
	}
	if rec.Term == "" && meta.Term != "" {
		rec.Term = meta.Term
	}

	return rec
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}
