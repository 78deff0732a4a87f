package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listing-signal/signal-web/internal/address"
	"github.com/listing-signal/signal-web/internal/suggest"
)

type stubLookup struct {
	mu      sync.Mutex
	results map[string][]address.Suggestion
	queries []string
}

func (s *stubLookup) Search(_ context.Context, query string) ([]address.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.results[query], nil
}

func (s *stubLookup) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

var oakSuggestion = address.Suggestion{
	Label: "12 Oak Street, Austin, Texas, 78701, United States",
	Address: address.Components{
		"house_number": "12",
		"road":         "Oak Street",
		"town":         "Austin",
		"state":        "Texas",
		"postcode":     "78701",
	},
}

func TestRunAutocomplete_ListAndSelect(t *testing.T) {
	lookup := &stubLookup{results: map[string][]address.Suggestion{
		"12 Oak": {oakSuggestion},
	}}
	in := strings.NewReader("12\n12 Oak\nnowhere\n12 Oak\n#1\n#4\n")
	var out bytes.Buffer

	err := runAutocomplete(context.Background(), in, &out, lookup, suggest.WithDebounce(5*time.Millisecond))
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "type at least 3 characters")
	assert.Contains(t, text, "1. 12 Oak Street\n")
	assert.Contains(t, text, "no matches")
	assert.Contains(t, text, "no suggestion #4")

	// The repeated query is served from the session cache.
	assert.Equal(t, []string{"12 Oak", "nowhere"}, lookup.seen())

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	require.True(t, start >= 0 && end > start, "selection JSON not printed")
	var sel struct {
		Display string         `json:"display"`
		Address address.Record `json:"address"`
	}
	require.NoError(t, json.Unmarshal([]byte(text[start:end+1]), &sel))
	assert.Equal(t, "12 Oak Street", sel.Display)
	assert.Equal(t, "Austin", sel.Address.City)
	assert.Equal(t, "TX", sel.Address.State)
	assert.Equal(t, "78701", sel.Address.PostalCode)
}

func TestRunAutocomplete_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runAutocomplete(ctx, strings.NewReader("12 Oak\n"), &out, &stubLookup{}, suggest.WithDebounce(5*time.Millisecond))
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestWriteSuggestions_EmptyIsArray(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeSuggestions(&out, nil))
	assert.JSONEq(t, `[]`, out.String())

	out.Reset()
	require.NoError(t, writeSuggestions(&out, []address.Suggestion{oakSuggestion}))
	assert.Contains(t, out.String(), `"house_number": "12"`)
}

type stubPlaces struct {
	places map[string][]address.Place
}

func (s *stubPlaces) Places(_ context.Context, query string) ([]address.Place, error) {
	return s.places[query], nil
}

func TestRunPlaces_ResolvesStructuredResult(t *testing.T) {
	finder := &stubPlaces{places: map[string][]address.Place{
		"12 Oak": {{
			FormattedAddress: "12 Oak St, Round Rock, TX 78664, USA",
			AddressComponents: []address.PlaceComponent{
				{LongName: "12", ShortName: "12", Types: []string{"street_number"}},
				{LongName: "Oak Street", ShortName: "Oak St", Types: []string{"route"}},
				{LongName: "Round Rock", ShortName: "Round Rock", Types: []string{"locality", "political"}},
				{LongName: "Williamson County", ShortName: "Williamson County", Types: []string{"administrative_area_level_2"}},
				{LongName: "Texas", ShortName: "TX", Types: []string{"administrative_area_level_1"}},
				{LongName: "78664", ShortName: "78664", Types: []string{"postal_code"}},
				{LongName: "1234", ShortName: "1234", Types: []string{"postal_code_suffix"}},
			},
		}},
	}}
	in := strings.NewReader("nowhere\n12 Oak\n#2\n#1\n")
	var out bytes.Buffer

	require.NoError(t, runPlaces(context.Background(), in, &out, finder))

	text := out.String()
	assert.Contains(t, text, "no matches")
	assert.Contains(t, text, "1. 12 Oak St, Round Rock, TX 78664, USA\n")
	assert.Contains(t, text, "no suggestion #2")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	require.True(t, start >= 0 && end > start, "selection JSON not printed")
	var sel struct {
		Label   string         `json:"label"`
		Address address.Record `json:"address"`
	}
	require.NoError(t, json.Unmarshal([]byte(text[start:end+1]), &sel))
	assert.Equal(t, "12 Oak St, Round Rock, TX 78664, USA", sel.Label)
	assert.Equal(t, "Round Rock", sel.Address.City)
	assert.Equal(t, "Williamson County", sel.Address.County)
	assert.Equal(t, "TX", sel.Address.State)
	assert.Equal(t, "78664-1234", sel.Address.PostalCode)
}
