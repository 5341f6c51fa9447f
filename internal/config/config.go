// Package config loads and validates the pipeline configuration from
// config.yaml and the environment, and owns global logger setup.
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Scraping     ScrapingConfig     `yaml:"scraping" mapstructure:"scraping"`
	Paths        PathsConfig        `yaml:"paths" mapstructure:"paths"`
	Queue        QueueConfig        `yaml:"queue" mapstructure:"queue"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// VerificationConfig defines the gates a lead must pass to be published.
// RequireEmail/RequirePhone exist so a verification bypass is an explicit,
// test-covered switch rather than a silent code change.
type VerificationConfig struct {
	EmailPattern   string `yaml:"email_pattern" mapstructure:"email_pattern"`
	MinPhoneDigits int    `yaml:"min_phone_digits" mapstructure:"min_phone_digits"`
	RequireEmail   bool   `yaml:"require_email" mapstructure:"require_email"`
	RequirePhone   bool   `yaml:"require_phone" mapstructure:"require_phone"`
}

// ScrapingConfig configures the acquisition stage.
type ScrapingConfig struct {
	PrimaryNiche    string  `yaml:"primary_niche" mapstructure:"primary_niche"`
	PrimaryCity     string  `yaml:"primary_city" mapstructure:"primary_city"`
	DefaultMaxLeads int     `yaml:"default_max_leads" mapstructure:"default_max_leads"`
	MinYield        float64 `yaml:"min_yield" mapstructure:"min_yield"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CatalogPath     string  `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// PathsConfig locates the pipeline's file resources.
type PathsConfig struct {
	Raw      string `yaml:"raw" mapstructure:"raw"`
	Verified string `yaml:"verified" mapstructure:"verified"`
	Lock     string `yaml:"lock" mapstructure:"lock"`
}

// QueueConfig selects and configures the order queue backend.
type QueueConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend"` // csv, xlsx, or postgres
	Path        string `yaml:"path" mapstructure:"path"`
	SheetName   string `yaml:"sheet_name" mapstructure:"sheet_name"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// StoreConfig configures the run-history store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the order submission server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("verification.email_pattern", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	v.SetDefault("verification.min_phone_digits", 7)
	v.SetDefault("verification.require_email", true)
	v.SetDefault("verification.require_phone", true)
	v.SetDefault("scraping.default_max_leads", 25)
	v.SetDefault("scraping.min_yield", 0.6)
	v.SetDefault("scraping.rate_per_sec", 20.0)
	v.SetDefault("paths.raw", "data/raw/latest_raw_scrape.csv")
	v.SetDefault("paths.verified", "data/verified/verified_leads.csv")
	v.SetDefault("paths.lock", "data/leadgen.lock")
	v.SetDefault("queue.backend", "csv")
	v.SetDefault("queue.path", "data/orders.csv")
	v.SetDefault("queue.sheet_name", "Orders")
	v.SetDefault("store.path", "data/leadgen.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the configuration is complete for the given mode
// (scrape, verify, run, serve). A failure here is fatal: the pipeline
// cannot define "valid lead" without it.
func (c *Config) Validate(mode string) error {
	var problems []string

	needVerification := func() {
		if c.Verification.EmailPattern == "" {
			problems = append(problems, "verification.email_pattern is required")
		} else if _, err := regexp.Compile(c.Verification.EmailPattern); err != nil {
			problems = append(problems, fmt.Sprintf("verification.email_pattern does not compile: %v", err))
		}
		if c.Verification.MinPhoneDigits <= 0 {
			problems = append(problems, "verification.min_phone_digits must be > 0")
		}
	}
	needScraping := func() {
		if c.Scraping.PrimaryNiche == "" {
			problems = append(problems, "scraping.primary_niche is required")
		}
		if c.Scraping.PrimaryCity == "" {
			problems = append(problems, "scraping.primary_city is required")
		}
		if c.Scraping.DefaultMaxLeads <= 0 {
			problems = append(problems, "scraping.default_max_leads must be > 0")
		}
		if c.Scraping.MinYield <= 0 || c.Scraping.MinYield > 1 {
			problems = append(problems, "scraping.min_yield must be in (0, 1]")
		}
	}
	needQueue := func() {
		switch c.Queue.Backend {
		case "csv", "xlsx":
			if c.Queue.Path == "" {
				problems = append(problems, "queue.path is required")
			}
		case "postgres":
			if c.Queue.DatabaseURL == "" {
				problems = append(problems, "queue.database_url is required for the postgres backend")
			}
		default:
			problems = append(problems, fmt.Sprintf("queue.backend %q is not one of csv, xlsx, postgres", c.Queue.Backend))
		}
	}

	switch mode {
	case "scrape":
		needScraping()
		needQueue()
	case "verify":
		needVerification()
	case "run":
		needVerification()
		needScraping()
		needQueue()
	case "orders":
		needQueue()
	case "serve":
		needQueue()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// EmailRegexp compiles the configured email pattern anchored at both ends,
// so validation is a full match and never a substring match. The pattern is
// wrapped in a group so anchoring holds even with top-level alternation.
func (c *Config) EmailRegexp() (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + c.Verification.EmailPattern + ")$")
	if err != nil {
		return nil, eris.Wrap(err, "config: compile email pattern")
	}
	return re, nil
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
