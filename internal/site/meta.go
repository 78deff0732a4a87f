package site

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultSiteURL is used when no site URL is configured.
const DefaultSiteURL = "https://listingsignal.com"

// Page metadata defaults.
const (
	DefaultTitle       = "Listing Signal™ | Data-Backed Timing for Home Sellers"
	TitleTemplate      = "%s | Listing Signal™"
	DefaultDescription = "Listing Signal™ analyzes live market data to reveal when and how to list your home for maximum value. Get a personalized timing score and strategy in minutes."
	serviceDescription = "Listing Signal™ delivers a personalized Signal to Sell Score so homeowners know the best moment to list, backed by 250+ real-time market indicators."
)

// Keywords are the page's meta keywords.
var Keywords = []string{
	"Listing Signal",
	"home selling timing",
	"real estate analytics",
	"sell my house",
	"real estate data",
	"home valuation report",
	"listing strategy",
}

// NormalizeURL trims whitespace and trailing slashes, falling back to
// DefaultSiteURL.
func NormalizeURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return DefaultSiteURL
	}
	return u
}

// Image is an OpenGraph image.
type Image struct {
	URL    string
	Width  int
	Height int
	Alt    string
}

// Metadata is what the page head renders.
type Metadata struct {
	Title       string
	Description string
	Keywords    string
	Canonical   string
	SiteURL     string
	SiteName    string
	Locale      string
	OGImage     Image
	TwitterCard string
	Robots      string
	GoogleBot   string
}

// NewMetadata builds head metadata for siteURL.
func NewMetadata(siteURL string) Metadata {
	site := NormalizeURL(siteURL)
	return Metadata{
		Title:       DefaultTitle,
		Description: DefaultDescription,
		Keywords:    strings.Join(Keywords, ", "),
		Canonical:   site + "/",
		SiteURL:     site,
		SiteName:    "Listing Signal",
		Locale:      "en_US",
		OGImage: Image{
			URL:    site + "/logo.png",
			Width:  1200,
			Height: 630,
			Alt:    "Listing Signal dashboard preview",
		},
		TwitterCard: "summary_large_image",
		Robots:      "index, follow",
		GoogleBot:   "index, follow, max-snippet:-1, max-image-preview:large, max-video-preview:-1",
	}
}

// CTAURL is the in-page target every call to action links to.
func CTAURL(siteURL, target string) string {
	return NormalizeURL(siteURL) + "#" + target
}

// StructuredData builds the schema.org Service description of the product.
// The offer catalog lists the how-it-works steps.
func StructuredData(siteURL string, c *Content) map[string]any {
	site := NormalizeURL(siteURL)
	cta := CTAURL(site, c.CTA.Target)

	catalog := make([]map[string]any, 0, len(c.HowItWorks.Steps))
	for i, s := range c.HowItWorks.Steps {
		catalog = append(catalog, map[string]any{
			"@type":       "ListItem",
			"position":    i + 1,
			"name":        s.Title,
			"description": s.Description,
		})
	}

	return map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Service",
		"name":          "Listing Signal",
		"alternateName": "Listing Signal™",
		"description":   serviceDescription,
		"url":           site,
		"image":         []string{site + "/logo.png"},
		"serviceType":   "Real estate listing timing intelligence",
		"brand":         map[string]any{"@type": "Brand", "name": "Listing Signal"},
		"provider": map[string]any{
			"@type": "Organization",
			"name":  "Listing Signal",
			"url":   site,
			"logo":  site + "/logo.png",
		},
		"areaServed": map[string]any{"@type": "Country", "name": "United States"},
		"audience": map[string]any{
			"@type": "Audience",
			"audienceType": []string{
				"Home sellers",
				"Property owners preparing to list",
				"Real estate clients seeking timing strategy",
			},
		},
		"keywords": []string{
			"listing signal",
			"real estate timing",
			"home selling data",
			"signal to sell score",
			"listing strategy",
		},
		"offers": map[string]any{
			"@type":         "Offer",
			"name":          "Listing Signal Timing Report",
			"price":         "0",
			"priceCurrency": "USD",
			"availability":  "https://schema.org/InStock",
			"url":           cta,
		},
		"hasOfferCatalog": map[string]any{
			"@type":           "OfferCatalog",
			"name":            "How Listing Signal Works",
			"itemListElement": catalog,
		},
		"potentialAction": map[string]any{
			"@type":  "RegisterAction",
			"name":   "Request your Listing Signal report",
			"target": cta,
		},
	}
}

func structuredJSON(siteURL string, c *Content) ([]byte, error) {
	b, err := json.Marshal(StructuredData(siteURL, c))
	if err != nil {
		return nil, eris.Wrap(err, "site: marshal structured data")
	}
	return b, nil
}
