package emailalert

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type alertJob struct {
	ID       string
	Title    string
	Company  string
	Location string
	URL      string
}

var jobViewRe = regexp.MustCompile(`/jobs/view/(\d+)`)

// parseAlertHTML walks every anchor pointing at a LinkedIn job view and
// merges anchors by job id. Digest emails repeat the same job across a logo
// anchor without text and a card anchor with the title, so merging is what
// keeps titles attached.
func parseAlertHTML(htmlBody string) []alertJob {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	byID := map[string]*alertJob{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		lh := strings.ToLower(href)
		if !strings.Contains(lh, "linkedin.com") {
			return
		}
		if !strings.Contains(lh, "/jobs/view/") && !strings.Contains(lh, "/comm/jobs/view/") {
			return
		}

		jobURL := unwrapRedirect(href)
		m := jobViewRe.FindStringSubmatch(jobURL)
		if m == nil {
			return
		}
		id := "linkedin:" + m[1]

		j, ok := byID[id]
		if !ok {
			j = &alertJob{ID: id, URL: jobURL}
			byID[id] = j
		}

		if t := cleanText(a.Text()); looksLikeTitle(t) && len(t) > len(j.Title) {
			j.Title = t
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}
		// "Company · Location" lives in a <p> on the card
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := cleanText(p.Text())
			if j.Company == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				j.Company = strings.TrimSpace(parts[0])
				j.Location = strings.TrimSpace(parts[1])
				return
			}
			if looksLikeTitle(t) && !strings.Contains(t, " · ") && len(t) > len(j.Title) {
				j.Title = t
			}
		})
	})

	out := make([]alertJob, 0, len(byID))
	for _, j := range byID {
		if j.Title == "" {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// unwrapRedirect resolves tracking wrappers that carry the real URL in a
// query param.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	return href
}

var badTitleBits = []string{"easy apply", "promoted", "actively recruiting", "see all jobs", "unsubscribe", "http://", "https://"}

func looksLikeTitle(s string) bool {
	if len(s) < 4 || len(s) > 140 {
		return false
	}
	l := strings.ToLower(s)
	for _, bad := range badTitleBits {
		if strings.Contains(l, bad) {
			return false
		}
	}
	return true
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
