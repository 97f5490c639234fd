package types

import (
	"context"

	"github.com/NoaVaturi/JobBot/internal/domain"
)

// Query is the search request every fetcher receives.
type Query struct {
	Terms     []string // search terms ("devops", "sre", ...)
	Locations []string // "Israel", "Tel Aviv", "Remote", ...
}

// Fetcher retrieves postings from one external source. Zero results is a
// valid outcome, not an error. Implementations must honor ctx deadlines and
// retry at most once before surfacing the error.
type Fetcher interface {
	Source() domain.Source
	Fetch(ctx context.Context, q Query) ([]domain.Posting, error)
}

// FetchResult is one fetcher's outcome inside a run.
type FetchResult struct {
	Source   domain.Source
	Postings []domain.Posting
	Err      error
}
