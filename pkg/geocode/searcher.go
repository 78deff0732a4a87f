package geocode

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/listing-signal/signal-web/internal/address"
)

// MinQueryLength is the shortest query that triggers an upstream lookup.
const MinQueryLength = 3

// ErrNoSource is returned when every source is unavailable or circuit-broken.
var ErrNoSource = eris.New("geocode: no lookup source available")

// Lookup resolves a free-text query into suggestions.
type Lookup interface {
	Search(ctx context.Context, query string) ([]address.Suggestion, error)
}

// Searcher tries sources in order until one returns suggestions. Results are
// cached per exact trimmed query and concurrent identical queries share one
// upstream call.
type Searcher struct {
	sources  []Source
	breakers map[string]*breaker
	cache    *expirable.LRU[string, []address.Suggestion]
	group    singleflight.Group
	metrics  *Metrics

	minLen           int
	callTimeout      time.Duration
	cacheSize        int
	cacheTTL         time.Duration
	breakerThreshold int
	breakerReset     time.Duration
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithCache sets the query cache capacity and entry lifetime.
func WithCache(size int, ttl time.Duration) SearcherOption {
	return func(s *Searcher) {
		if size > 0 {
			s.cacheSize = size
		}
		s.cacheTTL = ttl
	}
}

// WithCallTimeout bounds a shared upstream lookup once it is detached from
// the caller that started it.
func WithCallTimeout(d time.Duration) SearcherOption {
	return func(s *Searcher) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithMinQueryLength overrides MinQueryLength.
func WithMinQueryLength(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 {
			s.minLen = n
		}
	}
}

// WithBreaker sets how many consecutive failures open a source's circuit and
// how long it stays open.
func WithBreaker(threshold int, reset time.Duration) SearcherOption {
	return func(s *Searcher) {
		s.breakerThreshold = threshold
		s.breakerReset = reset
	}
}

// WithMetrics records lookup counters.
func WithMetrics(m *Metrics) SearcherOption {
	return func(s *Searcher) {
		s.metrics = m
	}
}

// NewSearcher creates a Searcher over sources, in priority order.
func NewSearcher(sources []Source, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		sources:   sources,
		minLen:      MinQueryLength,
		callTimeout: 10 * time.Second,
		cacheSize:   1024,
		cacheTTL:    time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cache = expirable.NewLRU[string, []address.Suggestion](s.cacheSize, nil, s.cacheTTL)
	s.breakers = make(map[string]*breaker, len(sources))
	for _, src := range sources {
		s.breakers[src.Name()] = newBreaker(s.breakerThreshold, s.breakerReset)
	}
	return s
}

// Search returns suggestions for query. Queries shorter than the minimum
// length return an empty slice without contacting any source. The returned
// slice is shared with the cache and must not be modified.
func (s *Searcher) Search(ctx context.Context, query string) ([]address.Suggestion, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < s.minLen {
		return []address.Suggestion{}, nil
	}

	if cached, ok := s.cache.Get(q); ok {
		s.metrics.cacheHit()
		return cached, nil
	}

	// The shared call must outlive any single caller that gives up.
	ch := s.group.DoChan(q, func() (any, error) {
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
		defer cancel()
		return s.searchSources(detached, q)
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "geocode: search")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]address.Suggestion), nil
	}
}

func (s *Searcher) searchSources(ctx context.Context, q string) ([]address.Suggestion, error) {
	var (
		lastErr   error
		attempted int
		failed    int
	)

	for _, src := range s.sources {
		if !src.Available() {
			continue
		}
		br := s.breakers[src.Name()]
		if !br.allow() {
			s.metrics.lookup(src.Name(), "skipped")
			continue
		}

		attempted++
		results, err := src.Search(ctx, q)
		br.record(err)
		if err != nil {
			failed++
			lastErr = err
			outcome := "error"
			if eris.Is(err, ErrRateLimited) {
				outcome = "rate_limited"
			}
			s.metrics.lookup(src.Name(), outcome)
			zap.L().Debug("geocode: source failed, trying next",
				zap.String("source", src.Name()),
				zap.String("breaker", br.current().String()),
				zap.Error(err),
			)
			continue
		}
		if len(results) == 0 {
			s.metrics.lookup(src.Name(), "empty")
			continue
		}

		s.metrics.lookup(src.Name(), "match")
		s.cache.Add(q, results)
		return results, nil
	}

	if attempted == 0 {
		return nil, ErrNoSource
	}
	if failed == attempted {
		return nil, eris.Wrap(lastErr, "geocode: all sources failed")
	}

	// A miss behind a failed source may be transient; only cache clean misses.
	empty := []address.Suggestion{}
	if failed == 0 {
		s.cache.Add(q, empty)
	}
	return empty, nil
}

// Sources returns the names of the configured sources that are available.
func (s *Searcher) Sources() []string {
	var names []string
	for _, src := range s.sources {
		if src.Available() {
			names = append(names, src.Name())
		}
	}
	return names
}
