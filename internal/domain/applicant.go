package domain

// Applicant is a core entity describing one admissions result scraped from
// the survey site. All fields are carried as raw text until the storage
// boundary coerces numerics and dates; JSON tags match the intermediate
// file contract consumed by the enrichment subprocess.
type Applicant struct {
	Program            string `json:"program"`
	Comments           string `json:"comments"`
	DateAdded          string `json:"date_added"`
	URL                string `json:"url"`
	Status             string `json:"status"`
	Term               string `json:"term"`
	Citizenship        string `json:"US/International"`
	GPA                string `json:"GPA"`
	GRE                string `json:"GRE"`
	GREVerbal          string `json:"GRE_V"`
	GREAnalytical      string `json:"GRE_AW"`
	Degree             string `json:"Degree"`
	EnrichedProgram    string `json:"llm-generated-program,omitempty"`
	EnrichedUniversity string `json:"llm-generated-university,omitempty"`
}

// RID returns the result identifier: the trailing path segment of the
// record URL. Empty when the URL carries no path separator.
func (a Applicant) RID() string {
	return RIDFromURL(a.URL)
}

// RIDFromURL extracts the crawl-resumption identifier from a detail-page
// address by taking the string after the last "/".
func RIDFromURL(url string) string {
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' {
			return url[i+1:]
		}
	}
	return ""
}

// RunSummary reports one pipeline invocation. It is ephemeral and never
// persisted.
type RunSummary struct {
	Cleaned  int    `json:"cleaned"`
	Enriched int    `json:"enriched"`
	Inserted int    `json:"inserted"`
	Message  string `json:"message"`
}
