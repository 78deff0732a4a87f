package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Site         SiteConfig         `yaml:"site" mapstructure:"site"`
	Geocode      GeocodeConfig      `yaml:"geocode" mapstructure:"geocode"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete" mapstructure:"autocomplete"`
	Lead         LeadConfig         `yaml:"lead" mapstructure:"lead"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// SiteConfig holds the public page settings.
type SiteConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	MetaPixelID string `yaml:"meta_pixel_id" mapstructure:"meta_pixel_id"`
	MapsKey     string `yaml:"maps_key" mapstructure:"maps_key"`
}

// GeocodeConfig configures the address lookup cascade.
type GeocodeConfig struct {
	Sources          []string `yaml:"sources" mapstructure:"sources"`
	GoogleKey        string   `yaml:"google_key" mapstructure:"google_key"`
	UserAgent        string   `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit        float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Limit            int      `yaml:"limit" mapstructure:"limit"`
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheSize        int      `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMins     int      `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	BreakerThreshold int      `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int      `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// AutocompleteConfig configures the suggestion debounce.
type AutocompleteConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	MaxWaitMS  int `yaml:"max_wait_ms" mapstructure:"max_wait_ms"`
}

// LeadConfig configures the lead relay and the post-submit flow.
type LeadConfig struct {
	APIURL       string `yaml:"api_url" mapstructure:"api_url"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FlowTTLMins  int    `yaml:"flow_ttl_mins" mapstructure:"flow_ttl_mins"`
	FlowCapacity int    `yaml:"flow_capacity" mapstructure:"flow_capacity"`
	SMSDelayMS   int    `yaml:"sms_delay_ms" mapstructure:"sms_delay_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// KnownSources lists the lookup backends the cascade can be built from.
var KnownSources = []string{"google", "nominatim", "census"}

// Debounce returns the autocomplete quiet period.
func (c AutocompleteConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// MaxWait returns the longest continuous typing can delay a lookup. Zero
// means no bound.
func (c AutocompleteConfig) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitMS) * time.Millisecond
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LISTING_SIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("site.url", "https://listingsignal.com")
	v.SetDefault("site.meta_pixel_id", "")
	v.SetDefault("site.maps_key", "")
	v.SetDefault("geocode.sources", []string{"google", "nominatim", "census"})
	v.SetDefault("geocode.google_key", "")
	v.SetDefault("geocode.user_agent", "ListingSignalApp/1.0 (contact@listing-signal.com)")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.limit", 5)
	v.SetDefault("geocode.timeout_secs", 5)
	v.SetDefault("geocode.cache_size", 1024)
	v.SetDefault("geocode.cache_ttl_mins", 60)
	v.SetDefault("geocode.breaker_threshold", 5)
	v.SetDefault("geocode.breaker_reset_secs", 30)
	v.SetDefault("autocomplete.debounce_ms", 150)
	v.SetDefault("autocomplete.max_wait_ms", 0)
	v.SetDefault("lead.api_url", "")
	v.SetDefault("lead.timeout_secs", 15)
	v.SetDefault("lead.flow_ttl_mins", 30)
	v.SetDefault("lead.flow_capacity", 10000)
	v.SetDefault("lead.sms_delay_ms", 3200)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of "serve",
// "lookup" or "submit".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if c.Autocomplete.DebounceMS < 0 {
			problems = append(problems, "autocomplete.debounce_ms must be >= 0")
		}
		if c.Autocomplete.MaxWaitMS < 0 {
			problems = append(problems, "autocomplete.max_wait_ms must be >= 0")
		}
		if c.Lead.FlowCapacity < 1 {
			problems = append(problems, "lead.flow_capacity must be > 0")
		}
		problems = append(problems, c.geocodeProblems()...)
	case "lookup":
		problems = append(problems, c.geocodeProblems()...)
	case "submit":
		if strings.TrimSpace(c.Lead.APIURL) == "" {
			problems = append(problems, "lead.api_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New(fmt.Sprintf("config: %s", strings.Join(problems, "; ")))
	}
	return nil
}

func (c *Config) geocodeProblems() []string {
	var problems []string
	if len(c.Geocode.Sources) == 0 {
		problems = append(problems, "geocode.sources must list at least one source")
	}
	for _, name := range c.Geocode.Sources {
		if !slices.Contains(KnownSources, strings.ToLower(strings.TrimSpace(name))) {
			problems = append(problems, fmt.Sprintf("geocode.sources: unknown source %q", name))
		}
	}
	if c.Geocode.RateLimit < 0 {
		problems = append(problems, "geocode.rate_limit must be >= 0")
	}
	if c.Geocode.CacheSize < 0 {
		problems = append(problems, "geocode.cache_size must be >= 0")
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
