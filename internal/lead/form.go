// Package lead holds the seller lead form, its validation rules, the payload
// sent to the Listing Signal API, and the relay that delivers it.
package lead

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listing-signal/signal-web/internal/address"
)

// Accepted timeline and intent choices.
var (
	Timelines = []string{"ASAP", "1-3 Months", "3-6 Months", "6+ Months"}
	Intents   = []string{"Yes", "Not Sure", "No"}
)

// Form is the state of the lead form. Field names in JSON match the page.
type Form struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required,loose_email"`
	Address         string `json:"address" validate:"required"`
	Zip             string `json:"zip" validate:"required,us_zip"`
	Phone           string `json:"phone" validate:"required,us_phone"`
	City            string `json:"city"`
	State           string `json:"state"`
	Timeline        string `json:"timeline" validate:"required,oneof=ASAP '1-3 Months' '3-6 Months' '6+ Months'"`
	Intent          string `json:"intent" validate:"required,oneof=Yes 'Not Sure' No"`
	AddressVerified bool   `json:"addressVerified" validate:"required"`
	ConfirmDetails  bool   `json:"confirmDetails" validate:"required"`
}

// Set updates one text field by its JSON name, applying the same input
// formatting as the page.
func (f *Form) Set(name, value string) error {
	switch name {
	case "fullName":
		f.FullName = value
	case "email":
		f.Email = value
	case "address":
		f.Address = value
		f.City = ""
		f.State = ""
		f.Zip = ""
		f.AddressVerified = false
	case "zip":
		f.Zip = address.FormatZip(value)
	case "phone":
		f.Phone = address.FormatPhone(value)
	case "city":
		f.City = value
	case "state":
		f.State = value
	case "timeline":
		f.Timeline = value
	case "intent":
		f.Intent = value
	default:
		return eris.Errorf("lead: unknown form field %q", name)
	}
	return nil
}

// ApplySuggestion fills the address fields from a chosen suggestion and
// marks the address verified. Missing parts keep their previous values.
func (f *Form) ApplySuggestion(s address.Suggestion) {
	f.Address = s.Label
	if zip := address.FormatZip(s.Address.First("postcode")); zip != "" {
		f.Zip = zip
	}
	if city := address.City(s.Address); city != "" {
		f.City = city
	}
	if state := address.State(s.Address); state != "" {
		f.State = state
	}
	f.AddressVerified = true
}

// Reset clears the form.
func (f *Form) Reset() {
	*f = Form{}
}

// trimmed returns a copy with surrounding whitespace removed from text fields.
func (f Form) trimmed() Form {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	f.Zip = strings.TrimSpace(f.Zip)
	f.Phone = strings.TrimSpace(f.Phone)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	return f
}
