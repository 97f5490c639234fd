package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/NoaVaturi/JobBot/internal/config"
	"github.com/NoaVaturi/JobBot/internal/domain"
	"github.com/NoaVaturi/JobBot/internal/filter"
	"github.com/NoaVaturi/JobBot/internal/search/types"
	"github.com/NoaVaturi/JobBot/internal/store"
)

type stubFetcher struct {
	source   domain.Source
	postings []domain.Posting
	err      error
	block    chan struct{} // when set, Fetch waits for close or ctx
}

func (s *stubFetcher) Source() domain.Source { return s.source }

func (s *stubFetcher) Fetch(ctx context.Context, _ types.Query) ([]domain.Posting, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.postings, s.err
}

type captureNotifier struct {
	mu        sync.Mutex
	delivered [][]domain.Posting
	empties   int
	err       error
}

func (c *captureNotifier) Deliver(_ context.Context, postings []domain.Posting) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, postings)
	return c.err
}

func (c *captureNotifier) DeliverEmpty(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.empties++
	return c.err
}

func posting(source domain.Source, id, title string) domain.Posting {
	return domain.Posting{
		Source:     source,
		ExternalID: id,
		Title:      title,
		Company:    "Acme",
		Location:   "Tel Aviv",
		URL:        "https://example.com/" + id,
	}
}

func newTestRunner(t *testing.T, fetchers []types.Fetcher, n *captureNotifier) *Runner {
	t.Helper()
	seen, err := store.Open(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = seen.Close() })

	return NewRunner(fetchers, filter.New(config.FilterConfig{}), seen, n, nil,
		types.Query{Terms: []string{"devops"}}, 5*time.Second)
}

func TestRunDeliversNewPostings(t *testing.T) {
	n := &captureNotifier{}
	r := newTestRunner(t, []types.Fetcher{
		&stubFetcher{source: domain.SourceDrushim, postings: []domain.Posting{
			posting(domain.SourceDrushim, "1", "DevOps Engineer"),
			posting(domain.SourceDrushim, "2", "SRE"),
		}},
	}, n)

	res := r.Run(context.Background())
	if res.State != StateDone {
		t.Fatalf("state = %s, want DONE (err %q)", res.State, res.Error)
	}
	if res.New != 2 {
		t.Fatalf("New = %d, want 2", res.New)
	}
	if got := res.Sources[domain.SourceDrushim]; got.Fetched != 2 || got.Errored != 0 {
		t.Fatalf("source stats = %+v", got)
	}
	if len(n.delivered) != 1 || len(n.delivered[0]) != 2 {
		t.Fatalf("delivered = %v", n.delivered)
	}
	if res.RunID == "" {
		t.Fatal("run has no id")
	}
}

func TestSourceFailureIsIsolated(t *testing.T) {
	n := &captureNotifier{}
	r := newTestRunner(t, []types.Fetcher{
		&stubFetcher{source: domain.SourceDrushim, err: errors.New("site down")},
		&stubFetcher{source: domain.SourceIndeed, postings: []domain.Posting{
			posting(domain.SourceIndeed, "a", "DevOps Engineer"),
			posting(domain.SourceIndeed, "b", "Junior SRE"),
		}},
	}, n)

	res := r.Run(context.Background())
	if res.State != StateDone {
		t.Fatalf("state = %s, want DONE despite one source failing", res.State)
	}
	if res.New != 2 {
		t.Fatalf("New = %d, want 2 from the healthy source", res.New)
	}
	if got := res.Sources[domain.SourceDrushim]; got.Errored != 1 {
		t.Fatalf("failing source stats = %+v, want Errored 1", got)
	}
}

func TestCrossRunDedup(t *testing.T) {
	n := &captureNotifier{}
	f := &stubFetcher{source: domain.SourceDrushim, postings: []domain.Posting{
		posting(domain.SourceDrushim, "1", "DevOps Engineer"),
	}}
	r := newTestRunner(t, []types.Fetcher{f}, n)

	first := r.Run(context.Background())
	if first.New != 1 {
		t.Fatalf("first run New = %d, want 1", first.New)
	}

	second := r.Run(context.Background())
	if second.State != StateDone {
		t.Fatalf("second run state = %s", second.State)
	}
	if second.New != 0 {
		t.Fatalf("second run New = %d, want 0", second.New)
	}
	if n.empties != 1 {
		t.Fatalf("empties = %d, want 1 (explicit nothing-new signal)", n.empties)
	}
}

func TestDuplicateWithinRunDeliveredOnce(t *testing.T) {
	n := &captureNotifier{}
	r := newTestRunner(t, []types.Fetcher{
		&stubFetcher{source: domain.SourceDrushim, postings: []domain.Posting{
			posting(domain.SourceDrushim, "1", "DevOps Engineer"),
			posting(domain.SourceDrushim, "1", "DevOps Engineer"),
		}},
	}, n)

	res := r.Run(context.Background())
	if res.New != 1 {
		t.Fatalf("New = %d, want 1 for a repeated identity", res.New)
	}
}

func TestRunBusy(t *testing.T) {
	release := make(chan struct{})
	n := &captureNotifier{}
	r := newTestRunner(t, []types.Fetcher{
		&stubFetcher{source: domain.SourceDrushim, block: release},
	}, n)

	if !r.RunAsync(context.Background()) {
		t.Fatal("first RunAsync rejected")
	}
	// wait until the async run holds the lock
	deadline := time.After(2 * time.Second)
	for r.runMu.TryLock() {
		r.runMu.Unlock()
		select {
		case <-deadline:
			t.Fatal("async run never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	res := r.Run(context.Background())
	if res.State != StateBusy {
		t.Fatalf("state = %s, want BUSY", res.State)
	}
	if r.RunAsync(context.Background()) {
		t.Fatal("second RunAsync accepted while a run is active")
	}

	close(release)
}

func TestDeliveryFailureStillDone(t *testing.T) {
	n := &captureNotifier{err: errors.New("telegram down")}
	f := &stubFetcher{source: domain.SourceDrushim, postings: []domain.Posting{
		posting(domain.SourceDrushim, "1", "DevOps Engineer"),
	}}
	r := newTestRunner(t, []types.Fetcher{f}, n)

	res := r.Run(context.Background())
	if res.State != StateDone {
		t.Fatalf("state = %s, want DONE on delivery failure", res.State)
	}

	// the identity was recorded before delivery, so the next run sees
	// nothing new (no automatic re-delivery)
	n.err = nil
	second := r.Run(context.Background())
	if second.New != 0 {
		t.Fatalf("second run New = %d, want 0", second.New)
	}
}

func TestNormalizeFillsSentinels(t *testing.T) {
	got := normalize([]domain.Posting{
		{Source: domain.SourceIndeed, ExternalID: "1", Title: "DevOps"},
		{Source: domain.SourceIndeed, Title: "no id"},
		{Source: domain.SourceIndeed, ExternalID: "2"},
	})
	if len(got) != 1 {
		t.Fatalf("normalize kept %d postings, want 1", len(got))
	}
	p := got[0]
	if p.Company != domain.Unknown || p.Location != domain.Unknown {
		t.Fatalf("sentinels not filled: %+v", p)
	}
	if p.FetchedAt.IsZero() {
		t.Fatal("FetchedAt not set")
	}
}
