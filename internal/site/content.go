package site

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

// Item is a titled block of copy.
type Item struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Step is one "how it works" step.
type Step struct {
	Step        string `yaml:"step"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Pillar is one weighted input of the Signal score.
type Pillar struct {
	Title    string   `yaml:"title"`
	Weight   string   `yaml:"weight"`
	Color    string   `yaml:"color"`
	Headline string   `yaml:"headline"`
	Callouts []string `yaml:"callouts"`
}

// Range describes one published score band.
type Range struct {
	Range   string `yaml:"range"`
	Label   string `yaml:"label"`
	Meaning string `yaml:"meaning"`
	Color   string `yaml:"color"`
}

// Section is a titled section with an intro and optional items.
type Section struct {
	Title string `yaml:"title"`
	Intro string `yaml:"intro"`
	Items []Item `yaml:"items"`
}

// Content is the landing page copy.
type Content struct {
	Hero struct {
		Headline        string `yaml:"headline"`
		Subhead         string `yaml:"subhead"`
		Tagline         string `yaml:"tagline"`
		SlideIntervalMS int    `yaml:"slide_interval_ms"`
		Slides          []Item `yaml:"slides"`
	} `yaml:"hero"`
	Inside     Section  `yaml:"inside"`
	Pillars    []Pillar `yaml:"pillars"`
	Ranges     []Range  `yaml:"ranges"`
	HowItWorks struct {
		Title string `yaml:"title"`
		Intro string `yaml:"intro"`
		Steps []Step `yaml:"steps"`
	} `yaml:"how_it_works"`
	LocalEdge struct {
		Title string   `yaml:"title"`
		Intro string   `yaml:"intro"`
		Items []string `yaml:"items"`
	} `yaml:"local_edge"`
	CTA struct {
		Title  string   `yaml:"title"`
		Intro  string   `yaml:"intro"`
		Target string   `yaml:"target"`
		Labels []string `yaml:"labels"`
	} `yaml:"cta"`
	Form struct {
		Title string `yaml:"title"`
		Intro string `yaml:"intro"`
	} `yaml:"form"`
}

// ParseContent decodes page copy from YAML.
func ParseContent(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "site: parse content")
	}
	if c.CTA.Target == "" {
		c.CTA.Target = "get-signal"
	}
	if len(c.HowItWorks.Steps) == 0 {
		return nil, eris.New("site: content has no how-it-works steps")
	}
	return &c, nil
}

// DefaultContent returns the embedded page copy.
func DefaultContent() (*Content, error) {
	return ParseContent(contentYAML)
}
