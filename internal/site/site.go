// Package site renders the Listing Signal landing page and its crawler files
// from embedded templates, copy and assets.
package site

import (
	"bytes"
	"embed"
	"encoding/xml"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/listing-signal/signal-web/internal/lead"
	"github.com/listing-signal/signal-web/internal/signal"
	"github.com/listing-signal/signal-web/internal/suggest"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Config holds the values the page needs from configuration.
type Config struct {
	SiteURL     string
	MetaPixelID string
	MapsKey     string
	Debounce    time.Duration
}

// Site renders pages for one configuration.
type Site struct {
	cfg        Config
	content    *Content
	meta       Metadata
	structured template.JS
	tmpl       *template.Template
}

// New parses the embedded templates. A nil content uses the embedded copy.
func New(cfg Config, content *Content) (*Site, error) {
	if content == nil {
		var err error
		if content, err = DefaultContent(); err != nil {
			return nil, err
		}
	}
	cfg.SiteURL = NormalizeURL(cfg.SiteURL)
	cfg.MetaPixelID = strings.TrimSpace(cfg.MetaPixelID)
	cfg.MapsKey = strings.TrimSpace(cfg.MapsKey)
	if cfg.Debounce <= 0 {
		cfg.Debounce = suggest.DefaultDebounce
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "site: parse templates")
	}

	ld, err := structuredJSON(cfg.SiteURL, content)
	if err != nil {
		return nil, err
	}

	return &Site{
		cfg:        cfg,
		content:    content,
		meta:       NewMetadata(cfg.SiteURL),
		structured: template.JS(ld),
		tmpl:       tmpl,
	}, nil
}

// pageData is the template input for the landing page.
type pageData struct {
	Meta           Metadata
	Content        *Content
	StructuredData template.JS
	CTAURL         string
	PixelID        string
	MapsKey        string
	DebounceMS     int64
	MinQueryLength int
	InitialScore   int
	InitialLabel   string
	Timelines      []string
	Intents        []string
}

// Render writes the landing page.
func (s *Site) Render(w io.Writer) error {
	data := pageData{
		Meta:           s.meta,
		Content:        s.content,
		StructuredData: s.structured,
		CTAURL:         CTAURL(s.cfg.SiteURL, s.content.CTA.Target),
		PixelID:        s.cfg.MetaPixelID,
		MapsKey:        s.cfg.MapsKey,
		DebounceMS:     s.cfg.Debounce.Milliseconds(),
		MinQueryLength: suggest.MinQueryLength,
		InitialScore:   signal.InitialScore,
		InitialLabel:   signal.TimingLabel(signal.InitialScore),
		Timelines:      lead.Timelines,
		Intents:        lead.Intents,
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		return eris.Wrap(err, "site: render page")
	}
	_, err := buf.WriteTo(w)
	return err
}

// Metadata returns the page head metadata.
func (s *Site) Metadata() Metadata {
	return s.meta
}

// Robots returns robots.txt.
func (s *Site) Robots() string {
	return "User-agent: *\nAllow: /\n\nSitemap: " + s.cfg.SiteURL + "/sitemap.xml\n"
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap returns sitemap.xml listing the landing page.
func (s *Site) Sitemap() ([]byte, error) {
	set := urlset{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{{
			Loc:        s.cfg.SiteURL + "/",
			ChangeFreq: "weekly",
			Priority:   "1.0",
		}},
	}
	b, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "site: marshal sitemap")
	}
	return append([]byte(xml.Header), b...), nil
}
