// Package geocode resolves free-text address queries into canonical suggestions
// via Nominatim, Google Geocoding, and the Census Geocoder.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/listing-signal/signal-web/internal/address"
)

// ErrRateLimited is returned when a source's request budget is spent further
// ahead than the queue bound allows.
var ErrRateLimited = eris.New("geocode: rate limit queue full")

// DefaultMaxQueue is how long a request may wait for its rate-limit slot.
const DefaultMaxQueue = time.Second

// Source is a single address lookup backend.
type Source interface {
	Name() string
	Available() bool
	Search(ctx context.Context, query string) ([]address.Suggestion, error)
}

// Option configures the HTTP plumbing shared by every source.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for upstream calls.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxQueue bounds how long a request may wait for a rate-limit slot.
// Requests that would wait longer fail with ErrRateLimited.
func WithMaxQueue(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.maxQueue = d
		}
	}
}

// WithBaseURL overrides the upstream endpoint.
func WithBaseURL(u string) Option {
	return func(c *client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithLimit caps the number of suggestions returned per query.
func WithLimit(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.limit = n
		}
	}
}

type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxQueue   time.Duration
	baseURL    string
	limit      int
}

func newClient(baseURL string, rps float64, opts []Option) client {
	c := client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxQueue:   DefaultMaxQueue,
		baseURL:    baseURL,
		limit:      5,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
func (c *client) getJSON(ctx context.Context, name string, req *http.Request, out any) error {
	if err := c.wait(ctx, name); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s request", name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geocode: %s returned status %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s read body", name)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "geocode: %s parse response", name)
	}
	return nil
}

// wait blocks until the limiter grants a slot. A slot further away than
// maxQueue is handed back so abandoned lookups cannot build a backlog.
func (c *client) wait(ctx context.Context, name string) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return eris.Wrapf(ErrRateLimited, "geocode: %s", name)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if delay > c.maxQueue {
		r.Cancel()
		return eris.Wrapf(ErrRateLimited, "geocode: %s", name)
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return eris.Wrapf(ctx.Err(), "geocode: %s rate limit", name)
	}
}
