// Package gotfriends scrapes the gotfriends.co.il job lobby pages.
package gotfriends

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
var baseURL = "https://www.gotfriends.co.il"

var (
	jobHrefRe = regexp.MustCompile(`/(job|position|jobs)/`)
	// Hebrew city names that show up in listing cards.
	cityRe = regexp.MustCompile(`(תל\s*אביב|ירושלים|חיפה|רעננה|הרצליה|לוד|נתניה)`)
)

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
		cfg.MaxPostings = 30
	}
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (f *Fetcher) Source() domain.Source { return domain.SourceGotFriends }

// lobbyFor maps a search term onto one of the site's fixed category lobbies.
func lobbyFor(term string) string {
	t := strings.ToLower(strings.TrimSpace(term))
	if strings.Contains(t, "sre") {
		return baseURL + "/jobslobby/system/sre/"
	}
	return baseURL + "/jobslobby/system/devops-positions/"
}

func (f *Fetcher) Fetch(ctx context.Context, q types.Query) ([]domain.Posting, error) {
	lobbies := map[string]struct{}{}
	for _, term := range q.Terms {
		lobbies[lobbyFor(term)] = struct{}{}
	}

	var out []domain.Posting
	var lastErr error
	seenURLs := map[string]bool{}
	for lobby := range lobbies {
		postings, err := f.fetchLobby(ctx, lobby, seenURLs)
		if err != nil {
			log.Printf("[gotfriends] lobby=%s err=%v", lobby, err)
			lastErr = err
			continue
		}
		out = append(out, postings...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	log.Printf("[gotfriends] fetched %d postings", len(out))
	return out, nil
}

func (f *Fetcher) fetchLobby(ctx context.Context, lobbyURL string, seenURLs map[string]bool) ([]domain.Posting, error) {
	body, err := util.Get(ctx, f.hc, f.limiter, lobbyURL)
	if err != nil {
		return nil, fmt.Errorf("lobby page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse lobby page: %w", err)
	}

	var out []domain.Posting
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !jobHrefRe.MatchString(href) {
			return true
		}
		jobURL := href
		if !strings.HasPrefix(jobURL, "http") {
			jobURL = baseURL + href
		}
		if seenURLs[jobURL] {
			return true
		}
		seenURLs[jobURL] = true

		if p, ok := f.parseCard(sel, jobURL); ok {
			out = append(out, p)
		}
		return len(out) < f.cfg.MaxPostings
	})
	return out, nil
}

// parseCard pulls what it can from the listing card around the link. Cards
// hold everything on this site; no per-job page fetch is needed.
func (f *Fetcher) parseCard(link *goquery.Selection, jobURL string) (domain.Posting, bool) {
	title := util.CleanText(link.Text())

	card := link.Closest("article, li, tr, div")
	if title == "" || len(title) < 3 {
		title = util.CleanText(card.Find("h2, h3, h4").First().Text())
	}
	if len(title) < 3 {
		return domain.Posting{}, false
	}

	company := util.CleanText(card.Find(`[class*="company"], [class*="employer"]`).First().Text())

	location := util.CleanText(card.Find(`[class*="location"], [class*="area"], [class*="city"]`).First().Text())
	if location == "" {
		if m := cityRe.FindString(card.Text()); m != "" {
			location = util.CleanText(m)
		}
	}

	desc := util.CleanText(card.Find(`[class*="description"], [class*="summary"]`).First().Text())
	if desc == "" {
		desc = util.CleanText(card.Find("p").First().Text())
	}
	desc = util.Truncate(desc, 300)

	return domain.Posting{
		Source:      domain.SourceGotFriends,
		ExternalID:  util.DeriveExternalID(jobURL, title, company, location),
		Title:       title,
		Company:     util.OrUnknown(company, domain.Unknown),
		Location:    util.OrUnknown(location, "Israel"),
		Description: desc,
		URL:         jobURL,
	}, true
}
