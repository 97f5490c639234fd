package gotfriends

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/NoaVaturi/JobBot/internal/domain"
	"github.com/NoaVaturi/JobBot/internal/search/types"
)

const cardFixture = `
<html><body>
<ul>
 <li class="job-card">
  <a href="/job/devops-junior-1234/">DevOps Engineer Junior</a>
  <span class="company-name">Acme Ltd</span>
  <span class="location">תל אביב</span>
  <p class="description">CI/CD pipelines with Jenkins and ArgoCD.</p>
 </li>
 <li class="job-card">
  <a href="/position/sre-5678/"></a>
  <h3>Site Reliability Engineer</h3>
  <p>משרה מלאה בחיפה עם docker ו-aws.</p>
 </li>
</ul>
</body></html>`

func findJobLinks(t *testing.T) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cardFixture))
	if err != nil {
		t.Fatal(err)
	}
	return doc.Find("a[href]")
}

func TestParseCard(t *testing.T) {
	f := New(Config{}, nil)
	links := findJobLinks(t)

	first := links.Eq(0)
	p, ok := f.parseCard(first, "https://www.gotfriends.co.il/job/devops-junior-1234/")
	if !ok {
		t.Fatal("first card not parsed")
	}
	if p.Source != domain.SourceGotFriends {
		t.Fatalf("Source = %s", p.Source)
	}
	if p.Title != "DevOps Engineer Junior" {
		t.Fatalf("Title = %q", p.Title)
	}
	if p.Company != "Acme Ltd" {
		t.Fatalf("Company = %q", p.Company)
	}
	if p.Location != "תל אביב" {
		t.Fatalf("Location = %q", p.Location)
	}
	if !strings.Contains(p.Description, "Jenkins") {
		t.Fatalf("Description = %q", p.Description)
	}
	if p.ExternalID == "" {
		t.Fatal("no derived external id")
	}
}

func TestParseCardTitleFromHeading(t *testing.T) {
	f := New(Config{}, nil)
	links := findJobLinks(t)

	second := links.Eq(1)
	p, ok := f.parseCard(second, "https://www.gotfriends.co.il/position/sre-5678/")
	if !ok {
		t.Fatal("second card not parsed")
	}
	if p.Title != "Site Reliability Engineer" {
		t.Fatalf("Title = %q, want heading fallback", p.Title)
	}
	if p.Location != "חיפה" {
		t.Fatalf("Location = %q, want city regex match", p.Location)
	}
	if p.Company != domain.Unknown {
		t.Fatalf("Company = %q, want Unknown", p.Company)
	}
}

func TestParseCardDerivedIDStable(t *testing.T) {
	f := New(Config{}, nil)
	links := findJobLinks(t)

	a, _ := f.parseCard(links.Eq(0), "https://www.gotfriends.co.il/job/devops-junior-1234/?utm_source=x")
	b, _ := f.parseCard(links.Eq(0), "https://www.gotfriends.co.il/job/devops-junior-1234/")
	if a.ExternalID != b.ExternalID {
		t.Fatal("tracking params changed the derived id")
	}
}

func TestFetchSurfacesTotalOutage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	orig := baseURL
	baseURL = ts.URL
	t.Cleanup(func() { baseURL = orig })

	f := New(Config{}, nil)
	got, err := f.Fetch(context.Background(), types.Query{Terms: []string{"devops engineer", "sre"}})
	if err == nil {
		t.Fatalf("every lobby failed, want error, got %d postings", len(got))
	}
}

func TestLobbyFor(t *testing.T) {
	if got := lobbyFor("sre"); !strings.HasSuffix(got, "/sre/") {
		t.Fatalf("lobbyFor(sre) = %q", got)
	}
	if got := lobbyFor("devops engineer"); !strings.HasSuffix(got, "/devops-positions/") {
		t.Fatalf("lobbyFor(devops engineer) = %q", got)
	}
}
