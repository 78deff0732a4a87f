package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/listing-signal/signal-web/internal/config"
	"github.com/listing-signal/signal-web/pkg/geocode"
)

// sourceOptions returns the HTTP plumbing shared by every source.
func sourceOptions(gc config.GeocodeConfig) []geocode.Option {
	timeout := time.Duration(gc.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts := []geocode.Option{
		geocode.WithHTTPClient(&http.Client{Timeout: timeout}),
		geocode.WithLimit(gc.Limit),
	}
	if gc.RateLimit > 0 {
		opts = append(opts, geocode.WithRateLimit(gc.RateLimit))
	}
	return opts
}

// buildSources creates the lookup sources in configured order. Unknown names
// are skipped with a warning.
func buildSources(gc config.GeocodeConfig) []geocode.Source {
	opts := sourceOptions(gc)
	var sources []geocode.Source
	for _, name := range gc.Sources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "google":
			sources = append(sources, geocode.NewGoogle(gc.GoogleKey, opts...))
		case "nominatim":
			sources = append(sources, geocode.NewNominatim(gc.UserAgent, opts...))
		case "census":
			sources = append(sources, geocode.NewCensus(opts...))
		default:
			zap.L().Warn("geocode: skipping unknown source", zap.String("source", name))
		}
	}
	return sources
}

// buildSearcher wires the configured sources into a cached cascade. A nil
// registerer disables metrics.
func buildSearcher(gc config.GeocodeConfig, reg prometheus.Registerer) *geocode.Searcher {
	opts := []geocode.SearcherOption{
		geocode.WithCache(gc.CacheSize, time.Duration(gc.CacheTTLMins)*time.Minute),
		geocode.WithBreaker(gc.BreakerThreshold, time.Duration(gc.BreakerResetSecs)*time.Second),
	}
	if reg != nil {
		opts = append(opts, geocode.WithMetrics(geocode.NewMetrics(reg)))
	}
	return geocode.NewSearcher(buildSources(gc), opts...)
}
