// Package scrape implements the acquisition stage: producing a batch of
// raw candidate leads for a scrape target. The stock implementation is a
// synthetic directory source; a real scraper slots in behind the same
// interface without touching the driver.
package scrape

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/leadmart/leadgen-cli/internal/config"
	"github.com/leadmart/leadgen-cli/internal/model"
)

// Source produces raw candidate leads for a target. Implementations must
// not write files — the driver owns persistence.
type Source interface {
	Acquire(ctx context.Context, target model.ScrapeTarget) ([]model.RawLead, error)
}

// DirectorySource synthesizes directory-style lead batches. Batches are
// deterministic per (niche, city, max) and intentionally noisy: some
// records carry the "INVALID_EMAIL" sentinel or an unusably short phone,
// which the verification stage must reject.
type DirectorySource struct {
	catalog Catalog
	yield   float64
	limiter *rate.Limiter
	now     func() time.Time
}

// NewDirectorySource builds a source from the scraping configuration. When
// catalog_path is set the YAML catalog replaces the embedded one.
func NewDirectorySource(cfg config.ScrapingConfig) (*DirectorySource, error) {
	catalog := DefaultCatalog()
	if cfg.CatalogPath != "" {
		loaded, err := LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &DirectorySource{
		catalog: catalog,
		yield:   cfg.MinYield,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}, nil
}

// Acquire produces between ceil(max*yield) and max leads for the target.
// Record identities embed the niche+city slug, so batches from different
// targets in the same run can never collide on the dedup key.
func (s *DirectorySource) Acquire(ctx context.Context, target model.ScrapeTarget) ([]model.RawLead, error) {
	if target.MaxCount <= 0 {
		return nil, eris.Errorf("scrape: target %s/%s has non-positive max_count %d", target.Niche, target.City, target.MaxCount)
	}

	rng := rand.New(rand.NewPCG(targetSeed(target), 0))
	n := batchSize(target.MaxCount, s.yield, rng)
	slug := slugify(target.Niche + "-" + target.City)
	// Niche in the name keeps same-city batches from different targets off
	// each other's dedup key.
	nicheLabel := cases.Title(language.English).String(target.Niche)
	scrapedAt := s.now().UTC().Format(model.TimestampLayout)

	zap.L().Info("scrape: acquiring batch",
		zap.String("niche", target.Niche),
		zap.String("city", target.City),
		zap.Int("max_count", target.MaxCount),
		zap.Int("yield", n),
	)

	leads := make([]model.RawLead, 0, n)
	for i := 0; i < n; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "scrape: rate limit wait")
		}

		stem := s.catalog.Stems[rng.IntN(len(s.catalog.Stems))]
		suffix := s.catalog.Suffixes[rng.IntN(len(s.catalog.Suffixes))]
		name := fmt.Sprintf("%s %s %s %d", stem, nicheLabel, suffix, i+1)

		lead := model.RawLead{
			BusinessName: name,
			Niche:        target.Niche,
			City:         target.City,
			Phone:        fmt.Sprintf("555-%03d-%04d", rng.IntN(900)+100, 1000+i),
			Email:        fmt.Sprintf("contact.%s%d@%s.example.com", slug, i+1, slug),
			SourceURL:    fmt.Sprintf("https://directory.example.com/%s/%d", slug, i+1),
			ScrapedAt:    scrapedAt,
		}

		// Directory noise: the source publishes what it has, the
		// verifier decides what survives.
		switch {
		case i%3 == 2:
			lead.Email = "INVALID_EMAIL"
		case i%7 == 6:
			lead.Phone = "99"
		}

		// Some listings arrive pre-enriched by the directory.
		if i%5 == 4 {
			lead.LeadScore = 60 + rng.IntN(40)
			lead.ReasonToContact = "directory_featured"
			lead.Attribute = "storefront"
		}

		leads = append(leads, lead)
	}

	return leads, nil
}

// batchSize draws the batch length from [ceil(max*yield), max]: not every
// search returns the maximum.
func batchSize(max int, yield float64, rng *rand.Rand) int {
	if yield <= 0 || yield > 1 {
		yield = 1
	}
	lo := int(math.Ceil(float64(max) * yield))
	if lo < 1 {
		lo = 1
	}
	if lo >= max {
		return max
	}
	return lo + rng.IntN(max-lo+1)
}

// targetSeed derives a stable seed from the target so repeated acquisition
// of the same order regenerates an equivalent batch (dedup absorbs exact
// repeats on retry).
func targetSeed(target model.ScrapeTarget) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", target.Niche, target.City, target.MaxCount)
	return h.Sum64()
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
