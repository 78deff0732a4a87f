package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"ca", "CA"},
		{" Tx ", "TX"},
		{"ZZ", "ZZ"},
		{"California", "CA"},
		{"NEW YORK", "NY"},
		{"district of columbia", "DC"},
		{"West Virginia", "WV"},
		{"Ontario", ""},
		{"C4", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StateCode(tt.in), "input=%q", tt.in)
	}
}

func TestStateTableCoversFiftyStatesAndDC(t *testing.T) {
	assert.Len(t, stateToCode, 51)
	seen := make(map[string]bool)
	for _, code := range stateToCode {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	assert.Equal(t, "RI", StateCode("Rhode Island"))
	assert.Empty(t, StateCode("Puerto Rico"))
}

func TestCity(t *testing.T) {
	tests := []struct {
		name string
		in   Components
		want string
	}{
		{"city wins", Components{"city": "Austin", "town": "Other"}, "Austin"},
		{"town", Components{"town": "Smallville", "county": "Lowell"}, "Smallville"},
		{"village before locality", Components{"locality": "L", "village": "V"}, "V"},
		{"hamlet", Components{"hamlet": "Hollow"}, "Hollow"},
		{"municipality", Components{"municipality": "Muni"}, "Muni"},
		{"county last", Components{"county": "Kings County"}, "Kings County"},
		{"blank values skipped", Components{"city": "  ", "town": "Real"}, "Real"},
		{"none", Components{}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, City(tt.in))
		})
	}
}

func TestState(t *testing.T) {
	tests := []struct {
		name string
		in   Components
		want string
	}{
		{"direct code upper-cased", Components{"state_code": "ca", "state": "Nevada"}, "CA"},
		{"region code", Components{"region_code": "on"}, "ON"},
		{"province code", Components{"province_code": "bc"}, "BC"},
		{"state name", Components{"state": "New York"}, "NY"},
		{"two letter name passes through", Components{"state": "tx"}, "TX"},
		{"unknown name kept raw", Components{"region": "Ontario"}, "Ontario"},
		{"state district", Components{"state_district": "Florida"}, "FL"},
		{"empty", Components{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, State(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	rec := Normalize(Components{
		"house_number":  "1600",
		"road":          "Pennsylvania Avenue NW",
		"neighbourhood": "Downtown",
		"city":          "Washington",
		"county":        "",
		"state":         "District of Columbia",
		"postcode":      "205000001",
	})

	assert.Equal(t, Record{
		HouseNumber:  "1600",
		Road:         "Pennsylvania Avenue NW",
		Neighborhood: "Downtown",
		City:         "Washington",
		State:        "DC",
		PostalCode:   "20500-0001",
	}, rec)
}

func TestNormalize_Aliases(t *testing.T) {
	rec := Normalize(Components{
		"street_number": "9",
		"street":        "Elm St",
		"suburb":        "Northside",
		"village":       "Elmwood",
		"county":        "Peoria County",
		"state_code":    "il",
		"postcode":      "61614",
	})

	assert.Equal(t, "9", rec.HouseNumber)
	assert.Equal(t, "Elm St", rec.Road)
	assert.Equal(t, "Northside", rec.Neighborhood)
	assert.Equal(t, "Elmwood", rec.City)
	assert.Equal(t, "Peoria County", rec.County)
	assert.Equal(t, "IL", rec.State)
	assert.Equal(t, "61614", rec.PostalCode)
}

func TestDisplayLine(t *testing.T) {
	label := "123 Main St, Springfield, IL 62704, USA"
	assert.Equal(t, "123 Main St", DisplayLine(Suggestion{Label: label, Address: Components{"house_number": "123", "road": "Main St"}}))
	assert.Equal(t, "Main St", DisplayLine(Suggestion{Label: label, Address: Components{"road": "Main St"}}))
	assert.Equal(t, label, DisplayLine(Suggestion{Label: label}))
}

func TestFromPlace(t *testing.T) {
	p := &Place{
		FormattedAddress: "350 5th Ave, New York, NY 10118, USA",
		AddressComponents: []PlaceComponent{
			{LongName: "350", ShortName: "350", Types: []string{"street_number"}},
			{LongName: "5th Avenue", ShortName: "5th Ave", Types: []string{"route"}},
			{LongName: "Manhattan", ShortName: "Manhattan", Types: []string{"sublocality_level_1", "sublocality", "political"}},
			{LongName: "New York", ShortName: "New York", Types: []string{"locality", "political"}},
			{LongName: "New York County", ShortName: "New York County", Types: []string{"administrative_area_level_2", "political"}},
			{LongName: "New York", ShortName: "NY", Types: []string{"administrative_area_level_1", "political"}},
			{LongName: "10118", ShortName: "10118", Types: []string{"postal_code"}},
			{LongName: "0110", ShortName: "0110", Types: []string{"postal_code_suffix"}},
		},
	}
	p.Geometry.Location.Lat = 40.7484
	p.Geometry.Location.Lng = -73.9857

	s := FromPlace(p)
	require.NotNil(t, s)
	assert.Equal(t, "350 5th Ave, New York, NY 10118, USA", s.Label)
	assert.InDelta(t, 40.7484, s.Lat, 0.0001)
	assert.InDelta(t, -73.9857, s.Lon, 0.0001)
	assert.Equal(t, "350", s.Address["house_number"])
	assert.Equal(t, "5th Avenue", s.Address["road"])
	assert.Equal(t, "Manhattan", s.Address["neighbourhood"])
	// Components are scanned in order, and Manhattan (a sublocality) precedes the locality.
	assert.Equal(t, "Manhattan", s.Address["city"])
	assert.Equal(t, s.Address["city"], s.Address["town"])
	assert.Equal(t, "New York County", s.Address["county"])
	assert.Equal(t, "New York", s.Address["state"])
	assert.Equal(t, "NY", s.Address["state_code"])
	assert.Equal(t, "10118-0110", s.Address["postcode"])

	assert.Equal(t, "NY", State(s.Address))
}

func TestFromPlace_LocalityOnly(t *testing.T) {
	p := &Place{
		FormattedAddress: "1 Infinite Loop, Cupertino, CA 95014, USA",
		AddressComponents: []PlaceComponent{
			{LongName: "Cupertino", ShortName: "Cupertino", Types: []string{"locality", "political"}},
			{LongName: "California", ShortName: "CA", Types: []string{"administrative_area_level_1"}},
			{LongName: "95014", ShortName: "95014", Types: []string{"postal_code"}},
		},
	}

	s := FromPlace(p)
	require.NotNil(t, s)
	assert.Equal(t, "Cupertino", City(s.Address))
	assert.Equal(t, "95014", s.Address["postcode"])
	assert.Equal(t, "", s.Address["house_number"])
}

func TestFromPlace_Nil(t *testing.T) {
	assert.Nil(t, FromPlace(nil))
}

func TestParseCityState(t *testing.T) {
	tests := []struct {
		in        string
		wantCity  string
		wantState string
	}{
		{"123 Main St, Springfield, IL, 62704", "Springfield", "IL"},
		{"12 Oak St, Springfield, Sangamon County, Illinois, 62701", "Springfield", "IL"},
		{"12 Oak St, Springfield, Illinois, 62701-1234", "Springfield", "IL"},
		{"Austin, Texas", "Austin", "TX"},
		{"Toronto, Ontario", "Toronto", "Ontario"},
		{"Denver", "Denver", "NA"},
		{"X, Ontario", "Unknown", "Ontario"},
		{"", "Unknown", "NA"},
		{" , , ", "Unknown", "NA"},
	}
	for _, tt := range tests {
		city, state := ParseCityState(tt.in)
		assert.Equal(t, tt.wantCity, city, "input=%q", tt.in)
		assert.Equal(t, tt.wantState, state, "input=%q", tt.in)
	}
}

func TestFormatZip(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", ""},
		{"1234", "1234"},
		{"12345", "12345"},
		{"123456", "12345-6"},
		{"12345-6789", "12345-6789"},
		{"1234567890", "12345-6789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatZip(tt.in), "input=%q", tt.in)
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"555", "555"},
		{"5551", "(555) 1"},
		{"555123", "(555) 123"},
		{"5551234", "(555) 123-4"},
		{"555-123-4567", "(555) 123-4567"},
		{"(555) 123-4567 ext 9", "(555) 123-4567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPhone(tt.in), "input=%q", tt.in)
	}
}

func TestValidZip(t *testing.T) {
	assert.True(t, ValidZip("62704"))
	assert.True(t, ValidZip(" 62704-1234 "))
	assert.False(t, ValidZip("6270"))
	assert.False(t, ValidZip("62704-12"))
	assert.False(t, ValidZip("627041234"))
}
