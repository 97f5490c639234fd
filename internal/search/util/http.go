package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/NoaVaturi/JobBot/internal/domain"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxBodyBytes = 5 << 20

// UserAgent is the browser identity sent on every outbound request. Some
// boards answer scrapers differently from browsers.
func UserAgent() string { return userAgent }

// Get performs a rate-limited GET with one bounded retry on transient
// failures (network errors, 429, 5xx). It never retries 4xx other than 429.
func Get(ctx context.Context, client *http.Client, limiter *HostLimiter, url string) ([]byte, error) {
	body, err := getOnce(ctx, client, limiter, url)
	if err == nil {
		return body, nil
	}
	if !retryable(err) {
		return nil, err
	}

	backoff := 2 * time.Second
	var he *domain.HTTPError
	if errors.As(err, &he) && he.RetryAfter > 0 {
		backoff = he.RetryAfter
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(backoff):
	}

	return getOnce(ctx, client, limiter, url)
}

func getOnce(ctx context.Context, client *http.Client, limiter *HostLimiter, url string) ([]byte, error) {
	if err := limiter.WaitURL(ctx, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		he := &domain.HTTPError{StatusCode: resp.StatusCode}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, perr := strconv.Atoi(ra); perr == nil && secs > 0 {
				he.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, he
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *domain.HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == 429 || he.StatusCode >= 500
	}
	// network-level errors are worth one retry
	return true
}
