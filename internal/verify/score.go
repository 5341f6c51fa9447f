package verify

import (
	"strings"

	"github.com/leadmart/leadgen-cli/internal/model"
)

// freeMailDomains are consumer mail providers; a business contact on one of
// these is a weaker signal than a custom domain.
var freeMailDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"aol.com":        {},
	"rediffmail.com": {},
}

// scoreLead computes a 0–100 heuristic quality score for a lead that
// arrived without one. Deterministic: same lead, same score.
func scoreLead(lead model.RawLead) int {
	score := 50

	// Custom-domain email beats a free mailbox.
	if at := strings.LastIndex(lead.Email, "@"); at >= 0 {
		domain := strings.ToLower(lead.Email[at+1:])
		if _, free := freeMailDomains[domain]; free {
			score -= 10
		} else {
			score += 15
		}
	}

	// A full-length phone (country code present) is a completeness signal.
	switch n := len(digitsOnly(lead.Phone)); {
	case n >= 11:
		score += 15
	case n >= 10:
		score += 10
	}

	// Source attribution makes the lead auditable.
	if lead.SourceURL != "" {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// defaultReason derives a reason-to-contact tag when the source provided
// none. Tags are enum-like strings consumed by outreach templates.
func defaultReason(lead model.RawLead) string {
	if len(digitsOnly(lead.Phone)) >= 11 {
		return "verified_contact"
	}
	return "general_outreach"
}
