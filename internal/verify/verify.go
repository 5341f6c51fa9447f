// Package verify implements the verification and deduplication stage: the
// pure transformation from raw scraped leads to the published verified set.
package verify

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/leadmart/leadgen-cli/internal/config"
	"github.com/leadmart/leadgen-cli/internal/model"
)

// Stats reports aggregate survivor counts per gate. Individual rejections
// are expected at scale and never logged per-record.
type Stats struct {
	Input      int `json:"input"`
	AfterDedup int `json:"after_dedup"`
	AfterEmail int `json:"after_email"`
	AfterPhone int `json:"after_phone"`
	Verified   int `json:"verified"`
}

// Verifier applies the verification gates in a fixed, fail-fast order:
// dedup, email, phone, projection. It holds no mutable state; Verify is a
// pure function of its input and the construction-time configuration.
type Verifier struct {
	emailRe        *regexp.Regexp
	minPhoneDigits int
	requireEmail   bool
	requirePhone   bool
}

// New builds a Verifier from configuration. The email pattern is anchored
// at both ends so a lead only passes on a full match.
func New(cfg *config.Config) (*Verifier, error) {
	re, err := cfg.EmailRegexp()
	if err != nil {
		return nil, err
	}
	return &Verifier{
		emailRe:        re,
		minPhoneDigits: cfg.Verification.MinPhoneDigits,
		requireEmail:   cfg.Verification.RequireEmail,
		requirePhone:   cfg.Verification.RequirePhone,
	}, nil
}

// Verify transforms a raw batch into the verified set. It is total and
// deterministic: any well-typed input produces an output, an empty input
// produces an empty output, and the same input always produces the same
// output.
func (v *Verifier) Verify(raw []model.RawLead) ([]model.VerifiedLead, Stats) {
	stats := Stats{Input: len(raw)}

	deduped := dedupe(raw)
	stats.AfterDedup = len(deduped)

	verified := make([]model.VerifiedLead, 0, len(deduped))
	for _, lead := range deduped {
		if v.requireEmail && !v.emailRe.MatchString(lead.Email) {
			continue
		}
		stats.AfterEmail++

		// The digit-only form is validated; the original formatted
		// string is what gets published.
		if v.requirePhone && len(digitsOnly(lead.Phone)) < v.minPhoneDigits {
			continue
		}
		stats.AfterPhone++

		verified = append(verified, project(lead))
	}
	stats.Verified = len(verified)

	return verified, stats
}

// dedupe collapses leads sharing a (business name, city) key with
// keep-first semantics: the earliest occurrence in input order wins.
// Duplicates are expected scrape noise, not an error, and are dropped
// silently.
func dedupe(raw []model.RawLead) []model.RawLead {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(raw))
	out := make([]model.RawLead, 0, len(raw))
	for _, lead := range raw {
		key := folder.String(strings.TrimSpace(lead.BusinessName)) + "\x00" +
			folder.String(strings.TrimSpace(lead.City))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, lead)
	}
	return out
}

// project maps a surviving raw lead onto the fixed output schema, dropping
// all working fields. Missing enrichment values are filled with defaults so
// the column set never varies.
func project(lead model.RawLead) model.VerifiedLead {
	score := lead.LeadScore
	if score == 0 {
		score = scoreLead(lead)
	}
	reason := lead.ReasonToContact
	if reason == "" {
		reason = defaultReason(lead)
	}
	return model.VerifiedLead{
		BusinessName:    lead.BusinessName,
		Phone:           lead.Phone,
		Email:           lead.Email,
		City:            lead.City,
		Niche:           lead.Niche,
		LeadScore:       score,
		ReasonToContact: reason,
		Attribute:       lead.Attribute,
		SourceURL:       lead.SourceURL,
		ScrapedAt:       lead.ScrapedAt,
		SchemaVersion:   model.SchemaVersion,
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
