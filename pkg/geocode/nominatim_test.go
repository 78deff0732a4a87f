package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listing-signal/signal-web/internal/address"
)

const nominatimSpringfield = `[{
	"display_name": "742, Evergreen Terrace, Springfield, Sangamon County, Illinois, 62704, United States",
	"lat": "39.7817",
	"lon": "-89.6501",
	"address": {
		"house_number": "742",
		"road": "Evergreen Terrace",
		"city": "Springfield",
		"county": "Sangamon County",
		"state": "Illinois",
		"ISO3166-2-lvl4": "US-IL",
		"postcode": "62704",
		"country": "United States",
		"country_code": "us"
	}
}]`

func TestNominatimSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("addressdetails"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "742 Evergreen", q.Get("q"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, nominatimSpringfield)
	}))
	defer srv.Close()

	n := NewNominatim("", WithBaseURL(srv.URL), withoutLimit())

	results, err := n.Search(context.Background(), " 742 Evergreen ")
	require.NoError(t, err)
	require.Len(t, results, 1)

	s := results[0]
	assert.Contains(t, s.Label, "Evergreen Terrace")
	assert.InDelta(t, 39.7817, s.Lat, 0.0001)
	assert.InDelta(t, -89.6501, s.Lon, 0.0001)
	assert.Equal(t, "IL", s.Address["state_code"])
	assert.Equal(t, "Springfield", address.City(s.Address))
	assert.Equal(t, "IL", address.State(s.Address))
	assert.Equal(t, "742 Evergreen Terrace", address.DisplayLine(s))
}

func TestNominatimSearch_CustomLimitAndAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "custom/1.0", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	n := NewNominatim("custom/1.0", WithBaseURL(srv.URL), WithLimit(3), withoutLimit())

	results, err := n.Search(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNominatimSearch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewNominatim("", WithBaseURL(srv.URL), withoutLimit())

	_, err := n.Search(context.Background(), "742 Evergreen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestNominatimSearch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	n := NewNominatim("", WithBaseURL(srv.URL), withoutLimit())

	_, err := n.Search(context.Background(), "742 Evergreen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestNominatimItem_KeepsExplicitStateCode(t *testing.T) {
	item := nominatimItem{
		DisplayName: "x",
		Lat:         "not-a-number",
		Address:     map[string]string{"state_code": "ca", "ISO3166-2-lvl4": "US-NV"},
	}
	s := item.suggestion()
	assert.Equal(t, "ca", s.Address["state_code"])
	assert.Zero(t, s.Lat)
}
