// Package drushim scrapes job listings from drushim.co.il category pages.
package drushim

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/NoaVaturi/JobBot/internal/domain"
	"github.com/NoaVaturi/JobBot/internal/search/types"
	"github.com/NoaVaturi/JobBot/internal/search/util"
)

// baseURL is a var so tests can point the fetcher at a local server.
var baseURL = "https://www.drushim.co.il"

// jobPathRe matches listing links like /job/35010030/7fce2efe/.
var jobPathRe = regexp.MustCompile(`/job/(\d+)(?:/\w+)?/?`)

type Config struct {
	MaxPostings int
}

type Fetcher struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(cfg Config, limiter *util.HostLimiter) *Fetcher {
	if cfg.MaxPostings <= 0 {
		cfg.MaxPostings = 20
	}
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (f *Fetcher) Source() domain.Source { return domain.SourceDrushim }

// categoryFor maps a search term to a drushim subcategory id and the search
// term the site expects. Everything ops-flavored lives under 491.
func categoryFor(term string) (string, string) {
	t := strings.ToLower(strings.TrimSpace(term))
	switch {
	case strings.Contains(t, "devsecops"):
		return "491", "DevSecOps"
	case strings.Contains(t, "devops"):
		return "491", "DevOps"
	case strings.Contains(t, "sre"):
		return "491", "SRE"
	case strings.Contains(t, "cloud"):
		return "491", "Cloud"
	default:
		st := strings.ReplaceAll(t, " ", "")
		if st != "" {
			st = strings.ToUpper(st[:1]) + st[1:]
		}
		return "491", st
	}
}

func (f *Fetcher) Fetch(ctx context.Context, q types.Query) ([]domain.Posting, error) {
	// Location never changes the category URL, so dedup the listing pages by
	// the site-side search term instead of fanning out per term x location.
	pages := map[string]string{}
	for _, term := range q.Terms {
		cat, st := categoryFor(term)
		pages[st] = fmt.Sprintf("%s/jobs/subcat/%s/?experience=2&searchterm=%s&ssaen=3", baseURL, cat, st)
	}

	var out []domain.Posting
	var lastErr error
	seen := map[string]bool{}
	for st, pageURL := range pages {
		postings, err := f.fetchPage(ctx, pageURL, seen)
		if err != nil {
			// one bad listing page shouldn't sink the others
			log.Printf("[drushim] term=%q err=%v", st, err)
			lastErr = err
			continue
		}
		out = append(out, postings...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	log.Printf("[drushim] fetched %d postings", len(out))
	return out, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string, seen map[string]bool) ([]domain.Posting, error) {
	body, err := util.Get(ctx, f.hc, f.limiter, pageURL)
	if err != nil {
		return nil, fmt.Errorf("listing page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var out []domain.Posting
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		m := jobPathRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		id := m[1]
		if seen[id] {
			return true
		}
		seen[id] = true

		jobURL := href
		if !strings.HasPrefix(jobURL, "http") {
			jobURL = baseURL + href
		}

		p, err := f.fetchJob(ctx, id, jobURL)
		if err != nil {
			log.Printf("[drushim] job=%s err=%v", id, err)
			return ctx.Err() == nil
		}
		out = append(out, p)
		return len(out) < f.cfg.MaxPostings
	})
	return out, nil
}

// fetchJob loads a single job page. The listing anchors carry no text, so
// title, company and description all come from the detail page.
func (f *Fetcher) fetchJob(ctx context.Context, id, jobURL string) (domain.Posting, error) {
	body, err := util.Get(ctx, f.hc, f.limiter, jobURL)
	if err != nil {
		return domain.Posting{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return domain.Posting{}, fmt.Errorf("parse job page: %w", err)
	}

	title := util.CleanText(doc.Find("h1").First().Text())
	if title == "" {
		if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
			title = util.CleanText(og)
		}
	}
	if title == "" {
		t := util.CleanText(doc.Find("title").First().Text())
		if i := strings.IndexAny(t, "|-"); i > 0 {
			t = strings.TrimSpace(t[:i])
		}
		title = t
	}
	if len(title) < 3 {
		return domain.Posting{}, fmt.Errorf("no usable title on %s", jobURL)
	}

	company := util.CleanText(doc.Find(`[class*="company"], [class*="employer"]`).First().Text())
	location := util.CleanText(doc.Find(`[class*="location"], [class*="city"], [class*="area"]`).First().Text())
	desc := util.CleanText(doc.Find(`[class*="description"], [class*="details"]`).First().Text())
	if desc == "" {
		var paras []string
		doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
			paras = append(paras, util.CleanText(s.Text()))
			return i < 2
		})
		desc = strings.Join(paras, " ")
	}
	desc = util.Truncate(desc, 500)

	posted := parseRelativeDate(doc.Text(), time.Now().UTC())

	return domain.Posting{
		Source:      domain.SourceDrushim,
		ExternalID:  id,
		Title:       title,
		Company:     util.OrUnknown(company, domain.Unknown),
		Location:    util.OrUnknown(location, "Israel"),
		Description: desc,
		URL:         jobURL,
		PostedAt:    posted,
	}, nil
}
