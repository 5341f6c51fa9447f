package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Verification.MinPhoneDigits)
	assert.True(t, cfg.Verification.RequireEmail)
	assert.True(t, cfg.Verification.RequirePhone)
	assert.NotEmpty(t, cfg.Verification.EmailPattern)
	assert.Equal(t, 25, cfg.Scraping.DefaultMaxLeads)
	assert.InDelta(t, 0.6, cfg.Scraping.MinYield, 0.001)
	assert.Equal(t, "data/raw/latest_raw_scrape.csv", cfg.Paths.Raw)
	assert.Equal(t, "data/verified/verified_leads.csv", cfg.Paths.Verified)
	assert.Equal(t, "csv", cfg.Queue.Backend)
	assert.Equal(t, "data/orders.csv", cfg.Queue.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
verification:
  min_phone_digits: 10
scraping:
  primary_niche: dentists
  primary_city: Pune
queue:
  backend: xlsx
  path: orders.xlsx
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Verification.MinPhoneDigits)
	assert.Equal(t, "dentists", cfg.Scraping.PrimaryNiche)
	assert.Equal(t, "Pune", cfg.Scraping.PrimaryCity)
	assert.Equal(t, "xlsx", cfg.Queue.Backend)
	assert.Equal(t, "orders.xlsx", cfg.Queue.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 25, cfg.Scraping.DefaultMaxLeads)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
scraping:
  primary_city: Pune
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADGEN_SCRAPING_PRIMARY_CITY", "Mumbai")
	t.Setenv("LEADGEN_VERIFICATION_MIN_PHONE_DIGITS", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Mumbai", cfg.Scraping.PrimaryCity)
	assert.Equal(t, 9, cfg.Verification.MinPhoneDigits)
}

func validScrapeConfig() *Config {
	cfg := &Config{}
	cfg.Verification.EmailPattern = `[a-z]+@[a-z]+\.[a-z]{2,}`
	cfg.Verification.MinPhoneDigits = 7
	cfg.Scraping.PrimaryNiche = "dentists"
	cfg.Scraping.PrimaryCity = "Pune"
	cfg.Scraping.DefaultMaxLeads = 25
	cfg.Scraping.MinYield = 0.6
	cfg.Queue.Backend = "csv"
	cfg.Queue.Path = "orders.csv"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validScrapeConfig().Validate("run"))
}

func TestValidateVerify_MissingPattern(t *testing.T) {
	cfg := validScrapeConfig()
	cfg.Verification.EmailPattern = ""

	err := cfg.Validate("verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification.email_pattern is required")
}

func TestValidateVerify_BadPattern(t *testing.T) {
	cfg := validScrapeConfig()
	cfg.Verification.EmailPattern = "["

	err := cfg.Validate("verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not compile")
}

func TestValidateVerify_BadMinPhone(t *testing.T) {
	cfg := validScrapeConfig()
	cfg.Verification.MinPhoneDigits = 0

	err := cfg.Validate("verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_phone_digits")
}

func TestValidateScrape_MissingNicheAndCity(t *testing.T) {
	cfg := validScrapeConfig()
	cfg.Scraping.PrimaryNiche = ""
	cfg.Scraping.PrimaryCity = ""

	err := cfg.Validate("scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scraping.primary_niche is required")
	assert.Contains(t, err.Error(), "scraping.primary_city is required")
}

func TestValidateQueueBackends(t *testing.T) {
	cfg := validScrapeConfig()
	cfg.Queue.Backend = "postgres"
	cfg.Queue.DatabaseURL = ""
	err := cfg.Validate("scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue.database_url")

	cfg.Queue.DatabaseURL = "postgres://localhost/leads"
	assert.NoError(t, cfg.Validate("scrape"))

	cfg.Queue.Backend = "carrier-pigeon"
	err = cfg.Validate("scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue.backend")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validScrapeConfig()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validScrapeConfig().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestEmailRegexpAnchoring(t *testing.T) {
	cfg := validScrapeConfig()

	re, err := cfg.EmailRegexp()
	require.NoError(t, err)

	// Full match only: a valid address embedded in junk must not pass.
	assert.True(t, re.MatchString("info@brightstar.com"))
	assert.False(t, re.MatchString("junk info@brightstar.com junk"))
	assert.False(t, re.MatchString("INVALID_EMAIL"))
}

func TestEmailRegexpAlreadyAnchored(t *testing.T) {
	cfg := validScrapeConfig()
	cfg.Verification.EmailPattern = `^[a-z]+@[a-z]+\.[a-z]{2,}$`

	re, err := cfg.EmailRegexp()
	require.NoError(t, err)
	assert.True(t, re.MatchString("info@brightstar.com"))
	assert.False(t, re.MatchString("junk info@brightstar.com"))
}

func TestEmailRegexpAnchorsAlternation(t *testing.T) {
	// A pattern with top-level alternation must be anchored as a whole,
	// not branch by branch.
	cfg := validScrapeConfig()
	cfg.Verification.EmailPattern = `[a-z]+@corp\.com|[a-z]+@biz\.com`

	re, err := cfg.EmailRegexp()
	require.NoError(t, err)
	assert.True(t, re.MatchString("a@corp.com"))
	assert.True(t, re.MatchString("a@biz.com"))
	assert.False(t, re.MatchString("junk junk a@biz.com"))
	assert.False(t, re.MatchString("a@corp.com junk"))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
