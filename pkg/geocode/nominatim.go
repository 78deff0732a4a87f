package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listing-signal/signal-web/internal/address"
)

const (
	nominatimSearchURL = "https://nominatim.openstreetmap.org/search"

	// DefaultUserAgent identifies us to Nominatim, which rejects anonymous clients.
	DefaultUserAgent = "ListingSignalApp/1.0 (contact@listing-signal.com)"
)

// nominatimItem is one entry of the Nominatim search response.
type nominatimItem struct {
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Address     map[string]string `json:"address"`
}

// Nominatim searches OpenStreetMap's Nominatim service.
type Nominatim struct {
	client
	userAgent string
}

// NewNominatim creates a Nominatim source. The public instance allows one
// request per second, which is the default limit.
func NewNominatim(userAgent string, opts ...Option) *Nominatim {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Nominatim{
		client:    newClient(nominatimSearchURL, 1, opts),
		userAgent: userAgent,
	}
}

// Name implements Source.
func (n *Nominatim) Name() string { return "nominatim" }

// Available implements Source.
func (n *Nominatim) Available() bool { return true }

// Search implements Source.
func (n *Nominatim) Search(ctx context.Context, query string) ([]address.Suggestion, error) {
	params := url.Values{
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(n.limit)},
		"q":              {strings.TrimSpace(query)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	var items []nominatimItem
	if err := n.getJSON(ctx, "nominatim", req, &items); err != nil {
		return nil, err
	}

	out := make([]address.Suggestion, 0, len(items))
	for _, item := range items {
		out = append(out, item.suggestion())
	}
	return out, nil
}

func (item nominatimItem) suggestion() address.Suggestion {
	lat, _ := strconv.ParseFloat(item.Lat, 64)
	lon, _ := strconv.ParseFloat(item.Lon, 64)

	comps := make(address.Components, len(item.Address)+1)
	for k, v := range item.Address {
		comps[k] = v
	}
	// Nominatim carries the state code only inside the ISO 3166-2 subdivision.
	if comps["state_code"] == "" {
		if iso, ok := strings.CutPrefix(item.Address["ISO3166-2-lvl4"], "US-"); ok {
			comps["state_code"] = iso
		}
	}

	return address.Suggestion{
		Label:   item.DisplayName,
		Lat:     lat,
		Lon:     lon,
		Address: comps,
	}
}
