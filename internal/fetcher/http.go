package fetcher

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultRateLimiters returns the per-host request budgets for the open-data
// services. Hosts not listed fall back to a generous default.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"landregistry.data.gov.uk":              rate.NewLimiter(2, 2),
		"use-land-property-data.service.gov.uk": rate.NewLimiter(2, 2),
		"api.propertydata.co.uk":                rate.NewLimiter(1, 1),
	}
}

func defaultLimit() *rate.Limiter {
	return rate.NewLimiter(20, 20)
}

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RateLimiters map[string]*rate.Limiter
}

// HTTPFetcher downloads bulk data files, pacing requests per host and
// retrying transient failures with exponential backoff.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	limiters map[string]*rate.Limiter
	fallback *rate.Limiter
	log      *zap.Logger
}

// NewHTTPFetcher creates a fetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "splitscan/1.0"
	}
	limiters := make(map[string]*rate.Limiter, len(opts.RateLimiters))
	for host, lim := range opts.RateLimiters {
		limiters[host] = lim
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: limiters,
		fallback: defaultLimit(),
		log:      zap.L().Named("fetcher"),
	}
}

// Download fetches the URL and returns the response body. The caller owns
// the body and must close it.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: build request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	var lastErr error
	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if err := f.limiterFor(req.URL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
		} else {
			switch {
			case resp.StatusCode == http.StatusOK:
				return resp.Body, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				_ = resp.Body.Close()
				lastErr = eris.Errorf("fetcher: status %d from %s", resp.StatusCode, rawURL)
			default:
				_ = resp.Body.Close()
				return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
			}
		}

		if attempt+1 < f.opts.MaxRetries {
			f.retryWarn(rawURL, attempt, lastErr)
			f.backoff(ctx, attempt)
		}
	}
	return nil, eris.Wrap(lastErr, "fetcher: retries exhausted")
}

func (f *HTTPFetcher) limiterFor(u *url.URL) *rate.Limiter {
	if lim, ok := f.limiters[u.Host]; ok {
		return lim
	}
	return f.fallback
}

func (f *HTTPFetcher) retryWarn(rawURL string, attempt int, err error) {
	f.log.Warn("download failed, retrying",
		zap.String("url", rawURL),
		zap.Int("attempt", attempt+1),
		zap.Error(err))
}

// backoff sleeps for an exponentially growing, jittered interval, capped at
// 30 seconds, returning early on context cancellation.
func (f *HTTPFetcher) backoff(ctx context.Context, attempt int) {
	d := time.Duration(float64(time.Second) * math.Pow(2, float64(attempt)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
