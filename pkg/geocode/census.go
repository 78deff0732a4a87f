package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listing-signal/signal-web/internal/address"
)

const (
	censusOneLineURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"
	censusBenchmark  = "Public_AR_Current"
)

// censusOneLineResponse is the JSON response from the Census single-address API.
type censusOneLineResponse struct {
	Result struct {
		AddressMatches []censusAddressMatch `json:"addressMatches"`
	} `json:"result"`
}

type censusAddressMatch struct {
	Coordinates struct {
		X float64 `json:"x"` // longitude
		Y float64 `json:"y"` // latitude
	} `json:"coordinates"`
	MatchedAddress    string `json:"matchedAddress"`
	AddressComponents struct {
		FromAddress     string `json:"fromAddress"`
		PreQualifier    string `json:"preQualifier"`
		PreDirection    string `json:"preDirection"`
		PreType         string `json:"preType"`
		StreetName      string `json:"streetName"`
		SuffixType      string `json:"suffixType"`
		SuffixDirection string `json:"suffixDirection"`
		SuffixQualifier string `json:"suffixQualifier"`
		City            string `json:"city"`
		State           string `json:"state"`
		Zip             string `json:"zip"`
	} `json:"addressComponents"`
}

// Census resolves complete street addresses through the Census Geocoder. It
// does not do prefix matching, so it only helps once the query is a full address.
type Census struct {
	client
}

// NewCensus creates a Census source.
func NewCensus(opts ...Option) *Census {
	return &Census{client: newClient(censusOneLineURL, 50, opts)}
}

// Name implements Source.
func (c *Census) Name() string { return "census" }

// Available implements Source.
func (c *Census) Available() bool { return true }

// Search implements Source.
func (c *Census) Search(ctx context.Context, query string) ([]address.Suggestion, error) {
	params := url.Values{
		"address":   {strings.TrimSpace(query)},
		"benchmark": {censusBenchmark},
		"format":    {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census build request")
	}

	var resp censusOneLineResponse
	if err := c.getJSON(ctx, "census", req, &resp); err != nil {
		return nil, err
	}

	matches := resp.Result.AddressMatches
	out := make([]address.Suggestion, 0, len(matches))
	for _, m := range matches {
		if len(out) == c.limit {
			break
		}
		out = append(out, m.suggestion())
	}
	return out, nil
}

func (m censusAddressMatch) suggestion() address.Suggestion {
	ac := m.AddressComponents
	road := joinNonEmpty(ac.PreQualifier, ac.PreDirection, ac.PreType, ac.StreetName,
		ac.SuffixType, ac.SuffixDirection, ac.SuffixQualifier)

	return address.Suggestion{
		Label: m.MatchedAddress,
		Lat:   m.Coordinates.Y,
		Lon:   m.Coordinates.X,
		Address: address.Components{
			"house_number": ac.FromAddress,
			"road":         road,
			"city":         ac.City,
			"state_code":   ac.State,
			"postcode":     ac.Zip,
		},
	}
}

func joinNonEmpty(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
