package lead

import (
	"strings"

	"github.com/listing-signal/signal-web/internal/address"
)

// ResponseMode asks the Listing Signal API for a JSON reply.
const ResponseMode = "json"

// Payload is the body relayed to the Listing Signal API.
type Payload struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Timeline      string `json:"timeline"`
	Intent        string `json:"intent"`
	ResponseMode  string `json:"responseMode"`
}

// BuildPayload converts a validated form into the API payload. City and state
// fall back to what can be parsed out of the free-text address.
func BuildPayload(f Form) Payload {
	t := f.trimmed()

	city, state := t.City, t.State
	if city == "" || state == "" {
		fbCity, fbState := address.ParseCityState(t.Address)
		if city == "" {
			city = fbCity
		}
		if state == "" {
			state = fbState
		}
	}
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	if len(state) == 2 {
		state = strings.ToUpper(state)
	}

	return Payload{
		FullName:      t.FullName,
		Email:         t.Email,
		Phone:         t.Phone,
		StreetAddress: t.Address,
		City:          city,
		State:         state,
		Zip:           t.Zip,
		Timeline:      t.Timeline,
		Intent:        t.Intent,
		ResponseMode:  ResponseMode,
	}
}
