package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const sampleDetailText = "Institution Johns Hopkins University Program Computer Science " +
	"Degree Type Masters Degree's Country of Origin International " +
	"Undergrad GPA 3.95 GRE General: 320 GRE Verbal: 160 Analytical Writing: 4.5 " +
	"Notes Strong recommendation letters Timeline " +
	"Decision Accepted Notification on 01/03/2025"

func TestExtractApplicant(t *testing.T) {
	t.Parallel()

	rec := ExtractApplicant(sampleDetailText, "https://example.com/result/123", ListingMeta{})

	if rec.Program != "Computer Science , Johns Hopkins University" {
		t.Fatalf("unexpected program: %q", rec.Program)
	}
	if rec.Degree != "Masters" {
		t.Fatalf("unexpected degree: %q", rec.Degree)
	}
	if rec.Citizenship != "International" {
		t.Fatalf("unexpected citizenship: %q", rec.Citizenship)
	}
	if rec.GPA != "GPA 3.95" {
		t.Fatalf("unexpected gpa: %q", rec.GPA)
	}
	if rec.GRE != "320" || rec.GREVerbal != "160" || rec.GREAnalytical != "4.5" {
		t.Fatalf("unexpected gre scores: %q %q %q", rec.GRE, rec.GREVerbal, rec.GREAnalytical)
	}
	if rec.Comments != "Strong recommendation letters" {
		t.Fatalf("unexpected comments: %q", rec.Comments)
	}
	if rec.Status != "Accepted on 01/03/2025" {
		t.Fatalf("unexpected status: %q", rec.Status)
	}
	if rec.URL != "https://example.com/result/123" {
		t.Fatalf("unexpected url: %q", rec.URL)
	}
}

func TestExtractApplicantMissingFields(t *testing.T) {
	t.Parallel()

	rec := ExtractApplicant("nothing recognizable here", "https://example.com/result/9", ListingMeta{})

	if rec.Program != "" || rec.Status != "" || rec.GPA != "" {
		t.Fatalf("expected blank fields, got %+v", rec)
	}
	if rec.URL != "https://example.com/result/9" {
		t.Fatalf("unexpected url: %q", rec.URL)
	}
}

func TestExtractApplicantListingFallback(t *testing.T) {
	t.Parallel()

	meta := ListingMeta{DateAdded: "September 05, 2025", Term: "Fall 2025"}
	rec := ExtractApplicant(sampleDetailText, "https://example.com/result/123", meta)

	if rec.DateAdded != "September 05, 2025" {
		t.Fatalf("unexpected date_added: %q", rec.DateAdded)
	}
	if rec.Term != "Fall 2025" {
		t.Fatalf("unexpected term: %q", rec.Term)
	}
}

func TestExtractApplicantDecisionWithoutNotification(t *testing.T) {
	t.Parallel()

	text := "Decision Rejected Notification Institution X Program Y Degree Type PhD"
	rec := ExtractApplicant(text, "https://example.com/result/5", ListingMeta{})

	if rec.Status != "Rejected" {
		t.Fatalf("unexpected status: %q", rec.Status)
	}
}

func TestFlattenText(t *testing.T) {
	t.Parallel()

	html := `<div><span>Institution</span><span>MIT</span><p>
		Program   Physics
	</p><script>var x = 1;</script></div>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := flattenText(doc.Selection)
	if got != "Institution MIT Program Physics" {
		t.Fatalf("unexpected flattened text: %q", got)
	}
}
