package lead

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/listing-signal/signal-web/internal/address"
)

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldErrors maps a form field's JSON name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := fe.Fields()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "lead: invalid form: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Messages shown for each field, keyed by the failing validation tag.
// The "required" entry is the fallback for any other tag.
var messages = map[string]map[string]string{
	"fullName": {"required": "Full Name is required"},
	"email": {
		"required":    "Email is required",
		"loose_email": "Invalid email format",
	},
	"address":         {"required": "Property Address is required"},
	"addressVerified": {"required": "Please select a verified address from the suggestions."},
	"phone": {
		"required": "Phone number is required",
		"us_phone": "Enter a valid phone number.",
	},
	"zip": {
		"required": "Zip Code is required",
		"us_zip":   "Enter a valid 5-digit ZIP (optionally with +4).",
	},
	"timeline":       {"required": "Timeline is required"},
	"intent":         {"required": "Please share your selling timeline."},
	"confirmDetails": {"required": "Please confirm your details before generating your report."},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	mustRegister(v, "us_phone", func(fl validator.FieldLevel) bool {
		return len(address.Digits(fl.Field().String())) >= 10
	})
	mustRegister(v, "us_zip", func(fl validator.FieldLevel) bool {
		return address.ValidZip(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Validate checks the form and returns one message per failing field, or nil
// when the form is ready to submit. An unverified address reports under
// "address".
func (f *Form) Validate() FieldErrors {
	t := f.trimmed()
	err := validate.Struct(t)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		msg := message(field, fe.Tag())
		if field == "addressVerified" {
			field = "address"
		} else if field == "address" {
			if _, ok := out[field]; ok {
				continue
			}
		}
		out[field] = msg
	}
	return out
}

func message(field, tag string) string {
	byTag := messages[field]
	if msg, ok := byTag[tag]; ok {
		return msg
	}
	if msg, ok := byTag["required"]; ok {
		return msg
	}
	return field + " is invalid"
}
