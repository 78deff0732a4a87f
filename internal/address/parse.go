package address

import (
	"regexp"
	"strings"
)

var (
	zipPattern     = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	countyPattern  = regexp.MustCompile(`(?i)county`)
	leadingDigitRe = regexp.MustCompile(`^\d+`)
	nonDigit       = regexp.MustCompile(`\D`)
)

// Fallback values used when free text yields no usable city or state.
const (
	UnknownCity  = "Unknown"
	UnknownState = "NA"
)

// ParseCityState pulls a city and state out of a comma separated free-text
// address such as "12 Oak St, Springfield, Sangamon County, Illinois, 62701".
func ParseCityState(addr string) (city, state string) {
	var parts []string
	for _, p := range strings.Split(addr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	zipIdx := -1
	for i, p := range parts {
		if zipPattern.MatchString(p) {
			zipIdx = i
			break
		}
	}

	var stateCandidate, cityCandidate string
	if zipIdx > 0 {
		stateCandidate = parts[zipIdx-1]
		for i := zipIdx - 2; i >= 0; i-- {
			if !countyPattern.MatchString(parts[i]) && !leadingDigitRe.MatchString(parts[i]) {
				cityCandidate = parts[i]
				break
			}
		}
	}

	switch {
	case stateCandidate == "" && len(parts) >= 2:
		stateCandidate = parts[len(parts)-1]
		cityCandidate = parts[len(parts)-2]
	case stateCandidate == "" && len(parts) == 1:
		cityCandidate = parts[0]
	}

	state = StateCode(stateCandidate)
	if state == "" {
		state = stateCandidate
	}
	if state == "" {
		state = UnknownState
	}

	city = cityCandidate
	if len(city) < 2 {
		city = UnknownCity
	}
	return city, state
}

// Digits strips everything but ASCII digits.
func Digits(v string) string {
	return nonDigit.ReplaceAllString(v, "")
}

// ValidZip reports whether v is a 5-digit ZIP, optionally with a +4 suffix.
func ValidZip(v string) bool {
	return zipPattern.MatchString(strings.TrimSpace(v))
}

// FormatZip keeps up to nine digits and inserts the ZIP+4 hyphen.
func FormatZip(v string) string {
	d := Digits(v)
	if len(d) > 9 {
		d = d[:9]
	}
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// FormatPhone keeps up to ten digits and formats them as (NNN) NNN-NNNN,
// progressively as digits arrive.
func FormatPhone(v string) string {
	d := Digits(v)
	if len(d) > 10 {
		d = d[:10]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	default:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	}
}
