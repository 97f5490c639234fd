package util

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter throttles outbound requests per hostname, so a listing scrape
// and the detail-page fetches it fans into share one budget per site. All
// fetchers share a single instance. A nil limiter performs no throttling.
type HostLimiter struct {
	rate  rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		rate:  rate.Limit(reqPerSec),
		burst: burst,
		hosts: make(map[string]*rate.Limiter),
	}
}

// WaitURL blocks until the URL's host may issue another request. Unparseable
// URLs share one fallback bucket rather than bypassing the limit.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	if hl == nil {
		return nil
	}
	host := "_"
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Host
	}

	hl.mu.Lock()
	lim, ok := hl.hosts[host]
	if !ok {
		lim = rate.NewLimiter(hl.rate, hl.burst)
		hl.hosts[host] = lim
	}
	hl.mu.Unlock()

	return lim.Wait(ctx)
}
