package googlejobs

import (
	"strings"
	"testing"

	"github.com/NoaVaturi/JobBot/internal/domain"
)

const responseFixture = `{
  "jobs_results": [
    {
      "job_id": "eyJqb2JfdGl0bGUi",
      "title": "Junior DevOps Engineer",
      "company_name": "Acme Ltd",
      "location": "Tel Aviv, Israel",
      "description": "CI/CD with jenkins and docker.",
      "apply_options": [{"link": "https://careers.acme.example/jobs/1"}],
      "detected_extensions": {"posted_at": "2 days ago"}
    },
    {
      "title": "SRE",
      "company_name": "",
      "location": "",
      "description": "",
      "google_jobs_link": "https://www.google.com/search?q=sre"
    },
    {
      "title": "",
      "company_name": "Ghost Co"
    }
  ]
}`

func TestParseResults(t *testing.T) {
	got, err := parseResults([]byte(responseFixture), "Israel")
	if err != nil {
		t.Fatalf("parseResults: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parsed %d postings, want 2 (untitled result dropped)", len(got))
	}

	first := got[0]
	if first.Source != domain.SourceGoogleJobs {
		t.Fatalf("Source = %s", first.Source)
	}
	if first.ExternalID != "eyJqb2JfdGl0bGUi" {
		t.Fatalf("ExternalID = %q, want native job_id", first.ExternalID)
	}
	if first.URL != "https://careers.acme.example/jobs/1" {
		t.Fatalf("URL = %q, want apply link over google link", first.URL)
	}
	if first.Company != "Acme Ltd" || first.Location != "Tel Aviv, Israel" {
		t.Fatalf("Company/Location = %q/%q", first.Company, first.Location)
	}

	second := got[1]
	if second.ExternalID == "" {
		t.Fatal("result without job_id must get a derived id")
	}
	if second.URL != "https://www.google.com/search?q=sre" {
		t.Fatalf("URL = %q, want google_jobs_link fallback", second.URL)
	}
	if second.Company != domain.Unknown {
		t.Fatalf("Company = %q, want Unknown", second.Company)
	}
	if second.Location != "Israel" {
		t.Fatalf("Location = %q, want query location fallback", second.Location)
	}
}

func TestParseResultsError(t *testing.T) {
	_, err := parseResults([]byte(`{"error": "Invalid API key"}`), "Israel")
	if err == nil || !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("err = %v, want serpapi error surfaced", err)
	}
}

func TestParseResultsBadJSON(t *testing.T) {
	if _, err := parseResults([]byte(`<html>rate limited</html>`), "Israel"); err == nil {
		t.Fatal("non-JSON body must error")
	}
}
