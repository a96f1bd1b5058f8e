package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AdmitScanner/internal/domain"
	"AdmitScanner/internal/ports"
)

const defaultBaseURL = "https://www.thegradcafe.com"

var (
	resultLinkExpr = regexp.MustCompile(`^/result/(\d+)$`)
	dateAddedExpr  = regexp.MustCompile(`(?:Added\s+on\s+)?([A-Z][a-z]+ \d{1,2}, \d{4})`)
	termExpr       = regexp.MustCompile(`(?i)\b(Fall|Spring|Summer|Winter)\s+(20\d{2})\b`)
)

// SurveyScanner walks the survey listing pages and harvests result detail
// pages into applicant records. Fetches are strictly sequential with a
// politeness delay between them; the site rate-limits aggressive clients.
type SurveyScanner struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.ResultSource = (*SurveyScanner)(nil)

// NewSurveyScanner wires an HTTP client; baseURL defaults to the live site
// and is overridden in tests.
func NewSurveyScanner(baseURL string, client *http.Client, logger *slog.Logger) *SurveyScanner {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &SurveyScanner{baseURL: baseURL, client: client, logger: logger}
}

// Collect iterates listing pages starting at page 1 and returns at most
// req.MaxRecords fresh records. Identifiers present in req.SkipRIDs or
// already seen within this walk are not fetched. The walk stops early when
// an entire listing page yields zero new identifiers, which is the signal
// that the crawl has caught up with the store.
func (s *SurveyScanner) Collect(ctx context.Context, req ports.CollectRequest) ([]domain.Applicant, error) {
	skip := req.SkipRIDs
	if skip == nil {
		skip = map[string]struct{}{}
	}

	seen := map[string]struct{}{}
	records := make([]domain.Applicant, 0, req.MaxRecords)

	for page := 1; len(records) < req.MaxRecords; page++ {
		path := "/survey/"
		if page > 1 {
			path = fmt.Sprintf("/survey/?page=%d", page)
		}

		s.debug("fetch listing", "page", page, "collected", len(records))

		doc, err := s.fetchDocument(ctx, s.baseURL+path)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}

		allSkipped := true
		var walkErr error

		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			m := resultLinkExpr.FindStringSubmatch(href)
			if m == nil {
				return true
			}
			rid := m[1]

			if _, ok := seen[rid]; ok {
				return true
			}
			if _, ok := skip[rid]; ok {
				return true
			}
			allSkipped = false

			rec, err := s.parseResult(ctx, rid, listingMeta(a))
			if err != nil {
				walkErr = fmt.Errorf("result %s: %w", rid, err)
				return false
			}

			records = append(records, rec)
			seen[rid] = struct{}{}

			if len(records) >= req.MaxRecords {
				return false
			}

			if err := pause(ctx, req.Delay); err != nil {
				walkErr = err
				return false
			}
			return true
		})

		if walkErr != nil {
			return nil, walkErr
		}
		if allSkipped {
			s.debug("no new identifiers on page, stopping", "page", page)
			break
		}
		if len(records) >= req.MaxRecords {
			break
		}

		if err := pause(ctx, req.Delay); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// listingMeta pulls the coarse date-added and term out of the smallest
// enclosing row block around a result link. They act as fallbacks for
// detail pages that omit those fields.
func listingMeta(a *goquery.Selection) ListingMeta {
	container := a.Closest("tbody")
	if container.Length() == 0 {
		container = a
	}
	rowText := flattenText(container)

	var meta ListingMeta
	if m := dateAddedExpr.FindStringSubmatch(rowText); m != nil {
		meta.DateAdded = m[1]
	}
	if m := termExpr.FindStringSubmatch(rowText); m != nil {
		meta.Term = titleWord(m[1]) + " " + m[2]
	}
	return meta
}

// parseResult fetches one detail page and extracts all known fields from
// its flattened text. Missing fields are left blank, never errors.
func (s *SurveyScanner) parseResult(ctx context.Context, rid string, meta ListingMeta) (domain.Applicant, error) {
	doc, err := s.fetchDocument(ctx, fmt.Sprintf("%s/result/%s", s.baseURL, rid))
	if err != nil {
		return domain.Applicant{}, err
	}

	text := flattenText(doc.Selection)
	url := fmt.Sprintf("%s/result/%s", s.baseURL, rid)
	return ExtractApplicant(text, url, meta), nil
}

func (s *SurveyScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "AdmitScanner/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("survey site returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// pause sleeps for the politeness delay unless the context ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SurveyScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
