package emailalert

import "testing"

const alertFixture = `
<html><body>
<table>
 <tr>
  <td>
   <a href="https://www.linkedin.com/comm/jobs/view/12345/?trackingId=abc"><img src="logo.png"></a>
   <a href="https://www.linkedin.com/comm/jobs/view/12345/?trackingId=abc">Junior DevOps Engineer</a>
   <p>Acme Ltd · Tel Aviv, Israel</p>
   <p>Easy Apply</p>
  </td>
 </tr>
</table>
<table>
 <tr>
  <td>
   <a href="https://www.linkedin.com/jobs/view/67890/">SRE, Entry Level</a>
   <p>CloudCo · Haifa, Israel</p>
  </td>
 </tr>
</table>
<a href="https://www.linkedin.com/jobs/search/">See all jobs</a>
<a href="https://www.example.com/jobs/view/999/">off-site link</a>
</body></html>`

func TestParseAlertHTML(t *testing.T) {
	jobs := parseAlertHTML(alertFixture)
	if len(jobs) != 2 {
		t.Fatalf("parsed %d jobs, want 2: %+v", len(jobs), jobs)
	}

	first := jobs[0]
	if first.ID != "linkedin:12345" {
		t.Fatalf("ID = %q", first.ID)
	}
	if first.Title != "Junior DevOps Engineer" {
		t.Fatalf("Title = %q (logo anchor must not win)", first.Title)
	}
	if first.Company != "Acme Ltd" || first.Location != "Tel Aviv, Israel" {
		t.Fatalf("Company/Location = %q/%q", first.Company, first.Location)
	}

	second := jobs[1]
	if second.ID != "linkedin:67890" || second.Title != "SRE, Entry Level" {
		t.Fatalf("second = %+v", second)
	}
	if second.Company != "CloudCo" {
		t.Fatalf("second company = %q", second.Company)
	}
}

func TestParseAlertHTMLDuplicateAnchorsMergeByID(t *testing.T) {
	jobs := parseAlertHTML(alertFixture)
	seen := map[string]int{}
	for _, j := range jobs {
		seen[j.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("job %s appeared %d times", id, n)
		}
	}
}

func TestUnwrapRedirect(t *testing.T) {
	got := unwrapRedirect("https://tracking.example.com/click?url=https%3A%2F%2Fwww.linkedin.com%2Fjobs%2Fview%2F555%2F")
	if got != "https://www.linkedin.com/jobs/view/555/" {
		t.Fatalf("unwrapRedirect = %q", got)
	}
	plain := "https://www.linkedin.com/jobs/view/1/"
	if got := unwrapRedirect(plain); got != plain {
		t.Fatalf("plain URL changed: %q", got)
	}
}

func TestSubjectMatches(t *testing.T) {
	f := New(Config{SubjectNeedles: []string{"job alert", "new jobs"}})
	cases := []struct {
		subject string
		want    bool
	}{
		{"Your job alert for devops engineer", true},
		{"30+ new jobs for SRE", true},
		{"Weekly newsletter", false},
	}
	for _, tc := range cases {
		if got := f.subjectMatches(tc.subject); got != tc.want {
			t.Fatalf("subjectMatches(%q) = %v, want %v", tc.subject, got, tc.want)
		}
	}
}
