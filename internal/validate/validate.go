// Package validate joins the standardized roster against optional
// reference registries and derives the reference-backed quality flags.
// Both validations degrade gracefully: a missing registry yields
// default flags, never an error.
package validate

import (
	"log/slog"
	"time"

	"github.com/leapstack-labs/rosterdq/internal/roster"
)

// Consolidate concatenates license sources in the supplied order and
// drops duplicate license numbers, keeping the first occurrence. The
// roster joins against the result one-to-at-most-one, so a license
// number repeated across registries cannot multiply roster rows.
func Consolidate(sources ...[]roster.License) []roster.License {
	var out []roster.License
	seen := make(map[string]struct{})
	for _, src := range sources {
		for _, lic := range src {
			if _, dup := seen[lic.LicenseNumber]; dup {
				continue
			}
			seen[lic.LicenseNumber] = struct{}{}
			out = append(out, lic)
		}
	}
	return out
}

// Licenses returns a copy of providers with license_found,
// license_state_mismatch, and license_expired populated.
//
// A nil sources slice means no license registry was supplied at all: the
// three flags stay false. When any registry was supplied, unmatched rows
// still get license_expired from their own roster expiration date; for
// matched rows the registry expiration takes precedence and the roster
// date is only a fallback. Expired means strictly before now's calendar
// day.
func Licenses(providers []roster.Provider, sources [][]roster.License, now time.Time, logger *slog.Logger) []roster.Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := make([]roster.Provider, len(providers))
	copy(out, providers)
	if sources == nil {
		logger.Debug("license validation skipped, no registry supplied")
		return out
	}

	consolidated := Consolidate(sources...)
	byNumber := make(map[string]roster.License, len(consolidated))
	for _, lic := range consolidated {
		byNumber[lic.LicenseNumber] = lic
	}

	today := roster.Midnight(now)
	found := 0
	for i := range out {
		p := &out[i]

		var ref roster.License
		ok := false
		if p.LicenseNumber.Valid {
			ref, ok = byNumber[p.LicenseNumber.String]
		}

		p.LicenseFound = ok
		p.LicenseStateMismatch = ok && p.LicenseState.Valid && ref.ValidationState != p.LicenseState.String

		resolved := p.LicenseExpiration
		if ok && ref.Expiration.Valid {
			resolved = ref.Expiration
		}
		p.LicenseExpired = resolved.Valid && resolved.Time.Before(today)

		if ok {
			found++
		}
	}

	logger.Debug("license validation complete",
		"registry_rows", len(consolidated), "matched", found, "roster_rows", len(out))
	return out
}

// NPI returns a copy of providers with npi_missing and npi_found
// populated. npi_missing reflects roster nullity and is computed even
// with no registry; npi_found requires a registry match and stays false
// when set is nil.
func NPI(providers []roster.Provider, set roster.NPISet, logger *slog.Logger) []roster.Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := make([]roster.Provider, len(providers))
	copy(out, providers)

	found := 0
	for i := range out {
		p := &out[i]
		p.NPIMissing = !p.NPI.Valid
		p.NPIFound = set != nil && p.NPI.Valid && set.Contains(p.NPI.String)
		if p.NPIFound {
			found++
		}
	}

	if set == nil {
		logger.Debug("npi validation degraded, no registry supplied")
	} else {
		logger.Debug("npi validation complete", "registry_size", len(set), "matched", found)
	}
	return out
}
