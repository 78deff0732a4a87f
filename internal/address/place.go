package address

import "slices"

// PlaceComponent is one typed part of a structured place result.
type PlaceComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Place is a structured place result as returned by the Google Places widget
// and Geocoding API.
type Place struct {
	FormattedAddress  string           `json:"formatted_address"`
	AddressComponents []PlaceComponent `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type,omitempty"`
	} `json:"geometry"`
}

// part returns the first component carrying any of types.
func (p *Place) part(short bool, types ...string) string {
	for _, c := range p.AddressComponents {
		for _, t := range types {
			if slices.Contains(c.Types, t) {
				if short {
					return c.ShortName
				}
				return c.LongName
			}
		}
	}
	return ""
}

// FromPlace maps a structured place into the canonical Suggestion. It returns
// nil for a nil place.
func FromPlace(p *Place) *Suggestion {
	if p == nil {
		return nil
	}

	postal := p.part(false, "postal_code")
	if suffix := p.part(false, "postal_code_suffix"); postal != "" && suffix != "" {
		postal = postal + "-" + suffix
	}
	city := p.part(false, "locality", "postal_town", "sublocality", "administrative_area_level_3")

	return &Suggestion{
		Label: p.FormattedAddress,
		Lat:   p.Geometry.Location.Lat,
		Lon:   p.Geometry.Location.Lng,
		Address: Components{
			"house_number":  p.part(false, "street_number"),
			"road":          p.part(false, "route"),
			"neighbourhood": p.part(false, "neighborhood", "sublocality", "sublocality_level_1"),
			"city":          city,
			"town":          city,
			"county":        p.part(false, "administrative_area_level_2"),
			"state":         p.part(false, "administrative_area_level_1"),
			"state_code":    p.part(true, "administrative_area_level_1"),
			"postcode":      postal,
		},
	}
}
