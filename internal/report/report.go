// Package report turns a loaded roster generation into a health report:
// per-check pass/warn/fail results grouped by section, a 0-100 health
// score, and actionable recommendations.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/leapstack-labs/rosterdq/internal/dedupe"
	"github.com/leapstack-labs/rosterdq/internal/engine"
	"github.com/leapstack-labs/rosterdq/internal/roster"
)

// Status is the outcome of a single check.
type Status string

// Check outcomes. A fail is a compliance or claims risk, a warn needs
// review but does not block.
const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one health check result.
type Check struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Section string   `json:"section"`
	Status  Status   `json:"status"`
	Count   int      `json:"count"`
	Details []string `json:"details,omitempty"`
}

// Summary carries roster-level statistics for the report header.
type Summary struct {
	Rows              int       `json:"rows"`
	States            int       `json:"states"`
	Specialties       int       `json:"specialties"`
	LicenseRegistry   bool      `json:"license_registry"`
	NPIRegistry       bool      `json:"npi_registry"`
	DuplicatePairs    int       `json:"duplicate_pairs"`
	DuplicateClusters int       `json:"duplicate_clusters"`
	OverallScore      float64   `json:"overall_score"`
	LoadedAt          time.Time `json:"loaded_at"`
}

// Report is the full health report for one generation.
type Report struct {
	GeneratedAt     time.Time `json:"generated_at"`
	Summary         Summary   `json:"summary"`
	Checks          []Check   `json:"checks"`
	Score           int       `json:"score"`
	Recommendations []string  `json:"recommendations"`
	IssueCount      int       `json:"issue_count"`
}

const maxCheckDetails = 5

// checkDef binds a check to the flag predicate it counts and the
// severity its issues carry.
type checkDef struct {
	id      string
	name    string
	section string
	failing Status
	hit     func(roster.Provider) bool
	skip    func(*engine.Snapshot) string // non-empty detail skips counting
}

var checkDefs = []checkDef{
	{
		id: "ROS01", name: "npi completeness", section: "roster completeness",
		failing: StatusFail,
		hit:     func(p roster.Provider) bool { return p.NPIMissing },
	},
	{
		id: "ROS02", name: "license number presence", section: "roster completeness",
		failing: StatusWarn,
		hit:     func(p roster.Provider) bool { return !p.LicenseNumber.Valid },
	},
	{
		id: "REF01", name: "license registry match", section: "reference validation",
		failing: StatusFail,
		hit:     func(p roster.Provider) bool { return p.LicenseNumber.Valid && !p.LicenseFound },
		skip:    licenseRegistryMissing,
	},
	{
		id: "REF02", name: "license expiration", section: "reference validation",
		failing: StatusFail,
		hit:     func(p roster.Provider) bool { return p.LicenseExpired },
		skip:    licenseRegistryMissing,
	},
	{
		id: "REF03", name: "license state consistency", section: "reference validation",
		failing: StatusFail,
		hit:     func(p roster.Provider) bool { return p.LicenseStateMismatch },
		skip:    licenseRegistryMissing,
	},
	{
		id: "REF04", name: "npi registry match", section: "reference validation",
		failing: StatusWarn,
		hit:     func(p roster.Provider) bool { return p.NPI.Valid && !p.NPIFound },
		skip: func(snap *engine.Snapshot) string {
			if !snap.NPIRegistry {
				return "no NPI registry supplied; match check skipped"
			}
			return ""
		},
	},
	{
		id: "DUP01", name: "duplicate suspects", section: "duplicates",
		failing: StatusWarn,
		hit:     func(p roster.Provider) bool { return p.DuplicateSuspect },
	},
	{
		id: "FMT01", name: "phone hygiene", section: "format rules",
		failing: StatusWarn,
		hit:     func(p roster.Provider) bool { return p.PhoneIssue },
	},
	{
		id: "FMT02", name: "email standardization", section: "format rules",
		failing: StatusWarn,
		hit:     func(p roster.Provider) bool { return p.Email.Valid && !p.EmailClean.Valid },
	},
	{
		id: "FMT03", name: "zip standardization", section: "format rules",
		failing: StatusWarn,
		hit:     func(p roster.Provider) bool { return p.AddressZip.Valid && !p.AddressZip5.Valid },
	},
	{
		id: "LIC01", name: "multi-state single license", section: "practice rules",
		failing: StatusFail,
		hit:     func(p roster.Provider) bool { return p.MultiStateSingleLicense },
	},
}

func licenseRegistryMissing(snap *engine.Snapshot) string {
	if !snap.LicenseRegistry {
		return "no license registry supplied; check skipped"
	}
	return ""
}

var recommendations = map[string]string{
	"ROS01": "Collect NPIs for the rows missing them; claims will not clear without one",
	"ROS02": "Chase license numbers for rows that carry none",
	"REF01": "Refresh the registry extracts or correct roster license numbers that found no match",
	"REF02": "Start renewal outreach for expired licenses (see export_update_list)",
	"REF03": "Reconcile issuing states against the registry before the next filing",
	"REF04": "Verify unmatched NPIs against the NPPES monthly file",
	"DUP01": "Review duplicate clusters and merge confirmed records",
	"FMT01": "Re-collect phone numbers that failed standardization",
	"FMT02": "Fix malformed email addresses before the next outreach campaign",
	"FMT03": "Correct ZIP codes that lack a five-digit core",
	"LIC01": "Audit providers practicing in multiple states on a single license",
	"SCO01": "Prioritize the lowest-scoring rows in the update list",
}

// Build assembles the report for the given generation.
func Build(snap *engine.Snapshot, now time.Time) *Report {
	checks := make([]Check, 0, len(checkDefs)+1)
	for _, def := range checkDefs {
		checks = append(checks, buildCheck(snap, def))
	}
	checks = append(checks, scoreCheck(snap))

	sort.Slice(checks, func(i, j int) bool {
		if checks[i].Section != checks[j].Section {
			return checks[i].Section < checks[j].Section
		}
		return checks[i].ID < checks[j].ID
	})

	issueCount := 0
	for _, c := range checks {
		issueCount += c.Count
	}

	return &Report{
		GeneratedAt:     now,
		Summary:         buildSummary(snap),
		Checks:          checks,
		Score:           healthScore(checks),
		Recommendations: buildRecommendations(checks),
		IssueCount:      issueCount,
	}
}

func buildCheck(snap *engine.Snapshot, def checkDef) Check {
	check := Check{ID: def.id, Name: def.name, Section: def.section, Status: StatusPass}

	if def.skip != nil {
		if reason := def.skip(snap); reason != "" {
			check.Status = StatusWarn
			check.Details = []string{reason}
			return check
		}
	}

	for _, p := range snap.Providers {
		if !def.hit(p) {
			continue
		}
		check.Count++
		if len(check.Details) < maxCheckDetails {
			check.Details = append(check.Details, rowLabel(p))
		}
	}
	if check.Count > 0 {
		check.Status = def.failing
	}
	return check
}

// scoreCheck grades the roster-wide mean: healthy at 90, reviewable at
// 70, failing below.
func scoreCheck(snap *engine.Snapshot) Check {
	check := Check{ID: "SCO01", Name: "overall quality score", Section: "scoring"}

	for _, p := range snap.Providers {
		if p.DQScore < 70 {
			check.Count++
			if len(check.Details) < maxCheckDetails {
				check.Details = append(check.Details, fmt.Sprintf("%s scored %.1f", rowLabel(p), p.DQScore))
			}
		}
	}

	switch {
	case snap.Overall >= 90:
		check.Status = StatusPass
	case snap.Overall >= 70:
		check.Status = StatusWarn
	default:
		check.Status = StatusFail
	}
	return check
}

func rowLabel(p roster.Provider) string {
	name := p.BestName().Or("(unnamed)")
	return fmt.Sprintf("row %d: %s", p.Row, name)
}

func buildSummary(snap *engine.Snapshot) Summary {
	states := make(map[string]struct{})
	specialties := make(map[string]struct{})
	for _, p := range snap.Providers {
		if p.AddressState.Valid {
			states[p.AddressState.String] = struct{}{}
		}
		if p.Specialty.Valid {
			specialties[p.Specialty.String] = struct{}{}
		}
	}

	return Summary{
		Rows:              len(snap.Providers),
		States:            len(states),
		Specialties:       len(specialties),
		LicenseRegistry:   snap.LicenseRegistry,
		NPIRegistry:       snap.NPIRegistry,
		DuplicatePairs:    len(snap.Pairs),
		DuplicateClusters: dedupe.ClusterCount(snap.Pairs),
		OverallScore:      snap.Overall,
		LoadedAt:          snap.LoadedAt,
	}
}

// healthScore starts from 100 and charges 15 per failing check and 5
// per warning check, floored at zero.
func healthScore(checks []Check) int {
	score := 100
	for _, c := range checks {
		switch c.Status {
		case StatusFail:
			score -= 15
		case StatusWarn:
			score -= 5
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

func buildRecommendations(checks []Check) []string {
	var recs []string
	seen := make(map[string]bool)
	for _, c := range checks {
		if c.Status == StatusPass {
			continue
		}
		rec := recommendations[c.ID]
		if rec == "" || seen[rec] {
			continue
		}
		recs = append(recs, rec)
		seen[rec] = true
	}
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}
