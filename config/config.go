package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultLocation is offered when the operator leaves the location prompt empty.
const DefaultLocation = "São Paulo"

// DefaultQueries is the built-in search list.
var DefaultQueries = []string{
	"Casa do norte",
	"casa de produtos naturais",
	"empório",
	"casa de suplementos",
	"casa de tempero",
	"loja de produtos naturais",
	"emporio de produtos naturais",
}

// Config holds all application configuration.
type Config struct {
	Location          string `mapstructure:"location"`
	Queries           string `mapstructure:"queries"`
	UseDefaultQueries bool   `mapstructure:"use_default_queries"`

	OutputPath     string `mapstructure:"output_path"`
	XLSXOutputPath string `mapstructure:"xlsx_output_path"`

	MapsURL   string `mapstructure:"maps_url"`
	Headless  bool   `mapstructure:"headless"`
	ChromeBin string `mapstructure:"chrome_bin"`

	ScrollCount        int `mapstructure:"scroll_count"`
	ScrollDelayMs      int `mapstructure:"scroll_delay_ms"`
	ItemDelayMs        int `mapstructure:"item_delay_ms"`
	DetailDelayMs      int `mapstructure:"detail_delay_ms"`
	PageLoadDelayMs    int `mapstructure:"page_load_delay_ms"`
	SearchDelayMs      int `mapstructure:"search_delay_ms"`
	ResultsTimeoutSecs int `mapstructure:"results_timeout_secs"`
	QueryTimeoutSecs   int `mapstructure:"query_timeout_secs"`

	StoreDriver string `mapstructure:"store_driver"`
	StoreDSN    string `mapstructure:"store_dsn"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// flagKeys maps config keys to the CLI flags that may override them.
var flagKeys = map[string]string{
	"location":            "location",
	"queries":             "queries",
	"use_default_queries": "defaults",
	"output_path":         "output",
	"xlsx_output_path":    "xlsx",
	"headless":            "headless",
	"scroll_count":        "scrolls",
	"store_driver":        "store-driver",
	"store_dsn":           "store-dsn",
	"log_level":           "log-level",
}

// Load reads the .env file, then resolves every key from defaults, the
// environment and any changed flag in fs (which may be nil).
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("location", "")
	v.SetDefault("queries", "")
	v.SetDefault("use_default_queries", false)
	v.SetDefault("output_path", "results.csv")
	v.SetDefault("xlsx_output_path", "")
	v.SetDefault("maps_url", "https://www.google.com/maps")
	v.SetDefault("headless", true)
	v.SetDefault("chrome_bin", "")
	v.SetDefault("scroll_count", 4)
	v.SetDefault("scroll_delay_ms", 2000)
	v.SetDefault("item_delay_ms", 500)
	v.SetDefault("detail_delay_ms", 2000)
	v.SetDefault("page_load_delay_ms", 2000)
	v.SetDefault("search_delay_ms", 3000)
	v.SetDefault("results_timeout_secs", 10)
	v.SetDefault("query_timeout_secs", 600)
	v.SetDefault("store_driver", "")
	v.SetDefault("store_dsn", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if fs != nil {
		for key, name := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "config: bind flag %q", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	switch cfg.StoreDriver {
	case "", "postgres", "sqlite":
	default:
		return nil, eris.Errorf("config: unsupported store driver %q", cfg.StoreDriver)
	}
	if cfg.ScrollCount < 0 {
		return nil, eris.Errorf("config: scroll count must not be negative, got %d", cfg.ScrollCount)
	}

	return &cfg, nil
}

// QueryList splits the comma-separated Queries value, dropping blanks.
func (c *Config) QueryList() []string {
	return SplitQueries(c.Queries)
}

// SplitQueries splits a comma-separated list, trimming entries and dropping blanks.
func SplitQueries(raw string) []string {
	var out []string
	for _, q := range strings.Split(raw, ",") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func (c *Config) ScrollDelay() time.Duration   { return ms(c.ScrollDelayMs) }
func (c *Config) ItemDelay() time.Duration     { return ms(c.ItemDelayMs) }
func (c *Config) DetailDelay() time.Duration   { return ms(c.DetailDelayMs) }
func (c *Config) PageLoadDelay() time.Duration { return ms(c.PageLoadDelayMs) }
func (c *Config) SearchDelay() time.Duration   { return ms(c.SearchDelayMs) }

func (c *Config) ResultsTimeout() time.Duration {
	return time.Duration(c.ResultsTimeoutSecs) * time.Second
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecs) * time.Second
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
