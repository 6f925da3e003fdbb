// Package score folds the quality flags into a single weighted score
// per row and an aggregate for the dataset.
package score

import (
	"log/slog"

	"github.com/leapstack-labs/rosterdq/internal/roster"
)

// Weights are the penalty points per triggered concern. They sum to 100
// so a row failing everything scores near zero.
//
// Mismatches is a reserved slot: no rule currently feeds it, so it
// contributes nothing. license_state_mismatch is counted inside the
// license disjunction instead.
type Weights struct {
	License       int `koanf:"license"`
	NPI           int `koanf:"npi"`
	Duplicates    int `koanf:"duplicates"`
	ContactFormat int `koanf:"contact_format"`
	Mismatches    int `koanf:"mismatches"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		License:       35,
		NPI:           25,
		Duplicates:    15,
		ContactFormat: 15,
		Mismatches:    10,
	}
}

// Total returns the sum of all weights, reserved slots included.
func (w Weights) Total() int {
	return w.License + w.NPI + w.Duplicates + w.ContactFormat + w.Mismatches
}

// Row computes the bounded quality score for a single record. The
// license penalty applies once when the license was not found, is
// expired, or is state-mismatched; the three conditions never stack.
func Row(p roster.Provider, w Weights) float64 {
	penalty := 0
	if !p.LicenseFound || p.LicenseExpired || p.LicenseStateMismatch {
		penalty += w.License
	}
	if p.NPIMissing {
		penalty += w.NPI
	}
	if p.DuplicateSuspect {
		penalty += w.Duplicates
	}
	if p.PhoneIssue {
		penalty += w.ContactFormat
	}
	// w.Mismatches reserved, never applied.

	s := float64(100 - penalty)
	if s < 0 {
		return 0
	}
	return s
}

// Apply returns a copy of providers with DQScore populated.
func Apply(providers []roster.Provider, w Weights, logger *slog.Logger) []roster.Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := make([]roster.Provider, len(providers))
	copy(out, providers)
	for i := range out {
		out[i].DQScore = Row(out[i], w)
	}
	logger.Debug("scores computed", "rows", len(out), "overall", Overall(out))
	return out
}

// Overall returns the arithmetic mean of the row scores, or 0.0 for an
// empty table.
func Overall(providers []roster.Provider) float64 {
	if len(providers) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, p := range providers {
		sum += p.DQScore
	}
	return sum / float64(len(providers))
}
