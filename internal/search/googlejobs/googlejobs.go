// Package googlejobs queries Google Jobs results through SerpAPI.
package googlejobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/NoaVaturi/JobBot/internal/domain"
	"github.com/NoaVaturi/JobBot/internal/search/types"
	"github.com/NoaVaturi/JobBot/internal/search/util"
)

const endpoint = "https://serpapi.com/search"

type Fetcher struct {
	apiKey  string
	hc      *http.Client
	limiter *util.HostLimiter
}

// New requires an API key; the caller skips registration when none is
// configured.
func New(apiKey string, limiter *util.HostLimiter) *Fetcher {
	return &Fetcher{
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (f *Fetcher) Source() domain.Source { return domain.SourceGoogleJobs }

type searchResponse struct {
	JobsResults []jobResult `json:"jobs_results"`
	Error       string      `json:"error"`
}

type jobResult struct {
	JobID          string `json:"job_id"`
	Title          string `json:"title"`
	CompanyName    string `json:"company_name"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	ShareLink      string `json:"share_link"`
	GoogleJobsLink string `json:"google_jobs_link"`
	ApplyOptions   []struct {
		Link string `json:"link"`
	} `json:"apply_options"`
}

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
			results, err := f.search(ctx, term, loc)
			if err != nil {
				lastErr = err
				log.Printf("[googlejobs] term=%q location=%q err=%v", term, loc, err)
				continue
			}
			for _, p := range results {
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
	log.Printf("[googlejobs] fetched %d postings", len(out))
	return out, nil
}

func (f *Fetcher) search(ctx context.Context, term, location string) ([]domain.Posting, error) {
	params := url.Values{}
	params.Set("engine", "google_jobs")
	params.Set("q", term)
	params.Set("location", location)
	params.Set("num", "20")
	params.Set("api_key", f.apiKey)

	body, err := util.Get(ctx, f.hc, f.limiter, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	return parseResults(body, location)
}

func parseResults(body []byte, location string) ([]domain.Posting, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", resp.Error)
	}

	out := make([]domain.Posting, 0, len(resp.JobsResults))
	for _, r := range resp.JobsResults {
		if r.Title == "" {
			continue
		}
		link := r.GoogleJobsLink
		if len(r.ApplyOptions) > 0 && r.ApplyOptions[0].Link != "" {
			link = r.ApplyOptions[0].Link
		}
		if link == "" {
			link = r.ShareLink
		}
		id := r.JobID
		if id == "" {
			id = util.DeriveExternalID(link, r.Title, r.CompanyName, r.Location)
		}
		out = append(out, domain.Posting{
			Source:      domain.SourceGoogleJobs,
			ExternalID:  id,
			Title:       r.Title,
			Company:     util.OrUnknown(r.CompanyName, domain.Unknown),
			Location:    util.OrUnknown(r.Location, location),
			Description: util.Truncate(util.CleanText(r.Description), 500),
			URL:         link,
		})
	}
	return out, nil
}
