// Package pipeline orchestrates one aggregation run: fetch from every
// source, filter, dedup against the seen store, then deliver.
package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NoaVaturi/JobBot/internal/domain"
	"github.com/NoaVaturi/JobBot/internal/events"
	"github.com/NoaVaturi/JobBot/internal/filter"
	"github.com/NoaVaturi/JobBot/internal/notify"
	"github.com/NoaVaturi/JobBot/internal/search/types"
	"github.com/NoaVaturi/JobBot/internal/store"
)

// State is where a run is in its lifecycle.
type State string

const (
	StateIdle        State = "IDLE"
	StateFetching    State = "FETCHING"
	StateNormalizing State = "NORMALIZING"
	StateFiltering   State = "FILTERING"
	StateDeduping    State = "DEDUPING"
	StateDelivering  State = "DELIVERING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
	StateBusy        State = "BUSY"
)

// SourceStats counts one source's contribution to a run.
type SourceStats struct {
	Fetched int `json:"fetched"`
	Errored int `json:"errored"`
}

// RunResult is the full accounting of one run.
type RunResult struct {
	RunID      string                        `json:"run_id"`
	State      State                         `json:"state"`
	StartedAt  time.Time                     `json:"started_at"`
	FinishedAt time.Time                     `json:"finished_at"`
	Sources    map[domain.Source]SourceStats `json:"sources"`
	Filtered   int                           `json:"filtered"`
	New        int                           `json:"new"`
	Delivered  []domain.Posting              `json:"delivered,omitempty"`
	Error      string                        `json:"error,omitempty"`
}

type Runner struct {
	fetchers      []types.Fetcher
	engine        *filter.Engine
	seen          *store.SeenStore
	notifier      notify.Notifier
	hub           *events.Hub
	query         types.Query
	sourceTimeout time.Duration

	// runMu is the single-flight lock: one run at a time, concurrent
	// triggers bounce with a BUSY result instead of queueing.
	runMu sync.Mutex
}

func NewRunner(fetchers []types.Fetcher, engine *filter.Engine, seen *store.SeenStore, notifier notify.Notifier, hub *events.Hub, query types.Query, sourceTimeout time.Duration) *Runner {
	if sourceTimeout <= 0 {
		sourceTimeout = time.Minute
	}
	return &Runner{
		fetchers:      fetchers,
		engine:        engine,
		seen:          seen,
		notifier:      notifier,
		hub:           hub,
		query:         query,
		sourceTimeout: sourceTimeout,
	}
}

// RunAsync dispatches a run on its own goroutine. It reports false when a
// run is already active; the caller answers "busy" without blocking.
func (r *Runner) RunAsync(ctx context.Context) bool {
	if !r.runMu.TryLock() {
		return false
	}
	go func() {
		defer r.runMu.Unlock()
		res := r.run(ctx)
		log.Printf("[pipeline] run %s finished state=%s new=%d filtered=%d err=%q",
			res.RunID, res.State, res.New, res.Filtered, res.Error)
	}()
	return true
}

// Run executes a run synchronously. A concurrent run yields a BUSY result.
func (r *Runner) Run(ctx context.Context) RunResult {
	if !r.runMu.TryLock() {
		return RunResult{
			RunID:     uuid.NewString(),
			State:     StateBusy,
			StartedAt: time.Now().UTC(),
			Error:     domain.ErrRunBusy.Error(),
		}
	}
	defer r.runMu.Unlock()
	return r.run(ctx)
}

func (r *Runner) run(ctx context.Context) RunResult {
	res := RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Sources:   make(map[domain.Source]SourceStats),
	}
	r.publish(res.RunID, events.TypeRunStarted, map[string]any{"sources": len(r.fetchers)})

	res.State = StateFetching
	postings := r.fetchAll(ctx, &res)

	// Fetchers already normalized their raw listings; this stage only
	// enforces the cross-source invariants.
	res.State = StateNormalizing
	postings = normalize(postings)

	res.State = StateFiltering
	kept := r.engine.Apply(postings, func(p domain.Posting, d filter.Decision) {
		log.Printf("[filter] drop %s/%s %q: %s", p.Source, p.ExternalID, p.Title, d.Reason)
	})
	res.Filtered = len(kept)

	res.State = StateDeduping
	fresh, err := r.dedup(ctx, kept)
	if err != nil {
		return r.fail(res, err)
	}
	res.New = len(fresh)
	res.Delivered = fresh

	// Identities are recorded before delivery. A crash or send failure
	// after this point loses the batch rather than re-sending it; the
	// next scheduled run covers the gap.
	res.State = StateDelivering
	if err := r.deliver(ctx, fresh); err != nil {
		log.Printf("[pipeline] delivery failed (postings already recorded): %v", err)
	}

	res.State = StateDone
	res.FinishedAt = time.Now().UTC()
	r.publish(res.RunID, events.TypeRunFinished, map[string]any{
		"state": res.State, "filtered": res.Filtered, "new": res.New,
	})
	return res
}

// fetchAll fans out one goroutine per source with its own timeout. A source
// failing only bumps its error count; the run proceeds with the rest.
func (r *Runner) fetchAll(ctx context.Context, res *RunResult) []domain.Posting {
	var g errgroup.Group
	results := make(chan types.FetchResult, len(r.fetchers))

	for _, f := range r.fetchers {
		f := f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
			defer cancel()

			log.Printf("[%s] fetching...", f.Source())
			postings, err := f.Fetch(fctx, r.query)
			if err != nil {
				err = &domain.SourceError{Source: f.Source(), Err: err}
			}
			results <- types.FetchResult{Source: f.Source(), Postings: postings, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	var out []domain.Posting
	for fr := range results {
		stats := res.Sources[fr.Source]
		if fr.Err != nil {
			log.Printf("[pipeline] %v", fr.Err)
			stats.Errored++
		}
		stats.Fetched += len(fr.Postings)
		res.Sources[fr.Source] = stats
		out = append(out, fr.Postings...)
	}
	return out
}

// normalize drops postings with no usable identity and fills sentinel
// fields. One bad listing never aborts the batch.
func normalize(postings []domain.Posting) []domain.Posting {
	now := time.Now().UTC()
	out := make([]domain.Posting, 0, len(postings))
	for _, p := range postings {
		if p.ExternalID == "" || p.Title == "" {
			log.Printf("[pipeline] drop unidentifiable posting from %s (url=%q)", p.Source, p.URL)
			continue
		}
		if p.Company == "" {
			p.Company = domain.Unknown
		}
		if p.Location == "" {
			p.Location = domain.Unknown
		}
		if p.FetchedAt.IsZero() {
			p.FetchedAt = now
		}
		out = append(out, p)
	}
	return out
}

// dedup keeps the postings never seen before and records their identities.
// Any store error aborts the run; a wrong answer here means duplicate or
// lost deliveries.
func (r *Runner) dedup(ctx context.Context, postings []domain.Posting) ([]domain.Posting, error) {
	var fresh []domain.Posting
	batch := map[domain.Identity]bool{}
	for _, p := range postings {
		id := p.Identity()
		if batch[id] {
			continue
		}
		seen, err := r.seen.Has(ctx, id)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}
		batch[id] = true
		fresh = append(fresh, p)
	}
	for _, p := range fresh {
		if err := r.seen.Record(ctx, p.Identity()); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

func (r *Runner) deliver(ctx context.Context, postings []domain.Posting) error {
	if r.notifier == nil {
		return nil
	}
	if len(postings) == 0 {
		return r.notifier.DeliverEmpty(ctx)
	}
	return r.notifier.Deliver(ctx, postings)
}

func (r *Runner) fail(res RunResult, err error) RunResult {
	res.State = StateFailed
	res.Error = err.Error()
	res.FinishedAt = time.Now().UTC()
	log.Printf("[pipeline] run %s failed: %v", res.RunID, err)
	r.publish(res.RunID, events.TypeRunFinished, map[string]any{
		"state": res.State, "error": res.Error,
	})
	return res
}

func (r *Runner) publish(runID, typ string, data any) {
	if r.hub != nil {
		r.hub.Publish(events.Make(runID, typ, data))
	}
}
