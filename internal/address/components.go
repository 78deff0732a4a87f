package address

import "strings"

// Components holds raw address fields keyed by the geocoder's field name,
// e.g. "house_number", "road", "city", "state_code", "postcode".
type Components map[string]string

// Suggestion is the canonical address match shared by every lookup source.
type Suggestion struct {
	Label   string     `json:"label"`
	Lat     float64    `json:"lat"`
	Lon     float64    `json:"lon"`
	Address Components `json:"address"`
}

// Record is a normalized address.
type Record struct {
	HouseNumber  string `json:"house_number"`
	Road         string `json:"road"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	County       string `json:"county"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
}

// Field alias priority lists. The first non-empty field wins.
var (
	houseNumberKeys  = []string{"house_number", "street_number"}
	roadKeys         = []string{"road", "street", "pedestrian", "footway"}
	neighborhoodKeys = []string{"neighbourhood", "neighborhood", "suburb", "quarter"}
	cityKeys         = []string{"city", "town", "village", "hamlet", "municipality", "locality", "county"}
	stateCodeKeys    = []string{"state_code", "region_code", "province_code"}
	stateNameKeys    = []string{"state", "region", "province", "state_district"}
)

// First returns the first non-empty value among keys.
func (c Components) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c[k]); v != "" {
			return v
		}
	}
	return ""
}

// City extracts the city, falling back through smaller settlements and
// finally the county.
func City(c Components) string {
	return c.First(cityKeys...)
}

// State extracts a two-letter state code when one can be determined,
// otherwise the raw state name.
func State(c Components) string {
	if code := c.First(stateCodeKeys...); code != "" {
		return strings.ToUpper(code)
	}
	name := c.First(stateNameKeys...)
	if normalized := StateCode(name); normalized != "" {
		return normalized
	}
	return name
}

// Normalize maps raw components into a Record.
func Normalize(c Components) Record {
	return Record{
		HouseNumber:  c.First(houseNumberKeys...),
		Road:         c.First(roadKeys...),
		Neighborhood: c.First(neighborhoodKeys...),
		City:         City(c),
		County:       c.First("county"),
		State:        State(c),
		PostalCode:   FormatZip(c.First("postcode")),
	}
}

// DisplayLine returns the primary line shown for a suggestion.
func DisplayLine(s Suggestion) string {
	house := s.Address.First("house_number")
	road := s.Address.First("road")
	switch {
	case house != "" && road != "":
		return house + " " + road
	case road != "":
		return road
	default:
		return s.Label
	}
}
