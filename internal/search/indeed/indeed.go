// Package indeed consumes Indeed's RSS job feeds.
package indeed

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/NoaVaturi/JobBot/internal/domain"
	"github.com/NoaVaturi/JobBot/internal/search/types"
	"github.com/NoaVaturi/JobBot/internal/search/util"
)

// Indeed serves the same feed on both hosts; the second is a fallback.
var feedHosts = []string{
	"https://www.indeed.com/rss",
	"https://rss.indeed.com/rss",
}

type Fetcher struct {
	parser  *gofeed.Parser
	limiter *util.HostLimiter
}

func New(limiter *util.HostLimiter) *Fetcher {
	p := gofeed.NewParser()
	p.UserAgent = util.UserAgent()
	return &Fetcher{parser: p, limiter: limiter}
}

func (f *Fetcher) Source() domain.Source { return domain.SourceIndeed }

func (f *Fetcher) Fetch(ctx context.Context, q types.Query) ([]domain.Posting, error) {
	locations := q.Locations
	if len(locations) == 0 {
		locations = []string{"Israel"}
	}

	var out []domain.Posting
	seen := map[string]bool{}
	var lastErr error
	for _, term := range q.Terms {
		for _, loc := range locations {
			items, err := f.fetchFeed(ctx, term, loc)
			if err != nil {
				lastErr = err
				log.Printf("[indeed] term=%q location=%q err=%v", term, loc, err)
				continue
			}
			for _, p := range items {
				if seen[p.ExternalID] {
					continue
				}
				seen[p.ExternalID] = true
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	log.Printf("[indeed] fetched %d postings", len(out))
	return out, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, term, location string) ([]domain.Posting, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("l", location)
	params.Set("sort", "date")

	var lastErr error
	for _, host := range feedHosts {
		feedURL := host + "?" + params.Encode()
		if err := f.limiter.WaitURL(ctx, feedURL); err != nil {
			return nil, err
		}
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			lastErr = fmt.Errorf("feed %s: %w", host, err)
			continue
		}
		return f.normalize(feed, location), nil
	}
	return nil, lastErr
}

func (f *Fetcher) normalize(feed *gofeed.Feed, location string) []domain.Posting {
	out := make([]domain.Posting, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		id := item.GUID
		if id == "" {
			id = util.DeriveExternalID(item.Link, item.Title, "", location)
		}
		out = append(out, domain.Posting{
			Source:      domain.SourceIndeed,
			ExternalID:  id,
			Title:       item.Title,
			Company:     util.OrUnknown(util.CompanyFromTitle(item.Title), domain.Unknown),
			Location:    location,
			Description: util.Truncate(util.CleanText(item.Description), 500),
			URL:         item.Link,
			PostedAt:    item.PublishedParsed,
		})
	}
	return out
}
