package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listing-signal/signal-web/internal/address"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []address.Place `json:"results"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
}

// Google resolves queries through the Google Geocoding API, which returns
// the same structured components as the Places widget.
type Google struct {
	client
	key string
}

// NewGoogle creates a Google source. It is unavailable without an API key.
func NewGoogle(key string, opts ...Option) *Google {
	return &Google{
		client: newClient(googleGeocodeURL, 50, opts),
		key:    key,
	}
}

// Name implements Source.
func (g *Google) Name() string { return "google" }

// Available implements Source.
func (g *Google) Available() bool { return g.key != "" }

// Search implements Source.
func (g *Google) Search(ctx context.Context, query string) ([]address.Suggestion, error) {
	places, err := g.Places(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]address.Suggestion, 0, len(places))
	for i := range places {
		if s := address.FromPlace(&places[i]); s != nil && s.Label != "" {
			out = append(out, *s)
		}
	}
	return out, nil
}

// Places returns the structured results for query, at most limit of them.
// ZERO_RESULTS is an empty slice, not an error.
func (g *Google) Places(ctx context.Context, query string) ([]address.Place, error) {
	if g.key == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	params := url.Values{
		"address":    {strings.TrimSpace(query)},
		"components": {"country:US"},
		"key":        {g.key},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	var resp googleGeocodeResponse
	if err := g.getJSON(ctx, "google", req, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []address.Place{}, nil
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", resp.Status, resp.ErrorMessage)
	}

	if len(resp.Results) > g.limit {
		resp.Results = resp.Results[:g.limit]
	}
	return resp.Results, nil
}
