// Package rules evaluates the per-row and per-group quality rules not
// covered by reference validation. Rules are data-driven definitions so
// reporting surfaces can enumerate them; each rule computes a boolean
// vector aligned with the input rows and assigns it to its flag field.
package rules

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/leapstack-labs/rosterdq/internal/roster"
)

// Severity indicates how much a triggered rule should worry a reviewer.
type Severity int

const (
	// SeverityError indicates a defect that needs correction.
	SeverityError Severity = iota
	// SeverityWarning indicates a likely defect that should be reviewed.
	SeverityWarning
	// SeverityInfo indicates informational feedback.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// EvalFunc computes one flag per input row.
type EvalFunc func(providers []roster.Provider) []bool

// Rule is a data-driven rule definition. Rules are stateless; Evaluate
// sees the whole table so group-level rules can aggregate, and Assign
// writes the computed flag onto a record.
type Rule struct {
	ID          string // unique identifier, e.g. "contact/phone-format"
	Description string
	Severity    Severity
	Evaluate    EvalFunc
	Assign      func(p *roster.Provider, flag bool)
}

// PhoneFormatRule flags rows whose phone failed standardization or
// whose raw value is not written in an accepted literal format.
var PhoneFormatRule = Rule{
	ID:          "contact/phone-format",
	Description: "phone is unparseable or not in a standard format",
	Severity:    SeverityWarning,
	Evaluate:    PhoneFormat,
	Assign:      func(p *roster.Provider, flag bool) { p.PhoneIssue = flag },
}

// MultiStateRule flags provider groups that practice in several states
// on a single license.
var MultiStateRule = Rule{
	ID:          "license/multi-state-single-license",
	Description: "provider practices in multiple states with at most one license",
	Severity:    SeverityError,
	Evaluate:    MultiStateSingleLicense,
	Assign:      func(p *roster.Provider, flag bool) { p.MultiStateSingleLicense = flag },
}

// Builtin returns the standard rule set in evaluation order.
func Builtin() []Rule {
	return []Rule{PhoneFormatRule, MultiStateRule}
}

// Apply evaluates every rule and returns a copy of providers with the
// rule flags assigned.
func Apply(providers []roster.Provider, ruleSet []Rule, logger *slog.Logger) []roster.Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := make([]roster.Provider, len(providers))
	copy(out, providers)
	for _, rule := range ruleSet {
		flags := rule.Evaluate(out)
		hits := 0
		for i := range out {
			rule.Assign(&out[i], flags[i])
			if flags[i] {
				hits++
			}
		}
		logger.Debug("rule evaluated", "rule", rule.ID, "flagged", hits)
	}
	return out
}

// Accepted literal phone formats: parenthesized area code, separated
// triplets, or ten bare digits.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\(\d{3}\)\s*\d{3}[-\s]?\d{4}$`),
	regexp.MustCompile(`^\d{3}[-\s]\d{3}[-\s]\d{4}$`),
	regexp.MustCompile(`^\d{10}$`),
}

// PhoneFormat flags a row when its standardized phone is null, or when
// the raw value is non-empty and matches none of the accepted literal
// patterns. A standardizable number written unusually is still flagged:
// the rule targets input hygiene, not just validity.
func PhoneFormat(providers []roster.Provider) []bool {
	flags := make([]bool, len(providers))
	for i, p := range providers {
		if !p.PhoneClean.Valid {
			flags[i] = true
			continue
		}
		raw := strings.TrimSpace(p.Phone.Or(""))
		flags[i] = raw != "" && !matchesStandardPhone(raw)
	}
	return flags
}

func matchesStandardPhone(s string) bool {
	for _, re := range phonePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// MultiStateSingleLicense groups rows by provider identity, preferring
// npi and falling back to the cleaned full name. Every row of a group
// spanning more than one practice state with at most one distinct
// license number is flagged. Rows with neither identity field are never
// flagged.
func MultiStateSingleLicense(providers []roster.Provider) []bool {
	type group struct {
		states   map[string]struct{}
		licenses map[string]struct{}
	}
	groups := make(map[string]*group)

	keyOf := func(p roster.Provider) (string, bool) {
		if p.NPI.Valid {
			return p.NPI.String, true
		}
		if p.FullNameClean.Valid {
			return p.FullNameClean.String, true
		}
		return "", false
	}

	for _, p := range providers {
		key, ok := keyOf(p)
		if !ok {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &group{states: make(map[string]struct{}), licenses: make(map[string]struct{})}
			groups[key] = g
		}
		if p.AddressState.Valid {
			g.states[p.AddressState.String] = struct{}{}
		}
		if p.LicenseNumber.Valid {
			g.licenses[p.LicenseNumber.String] = struct{}{}
		}
	}

	flags := make([]bool, len(providers))
	for i, p := range providers {
		key, ok := keyOf(p)
		if !ok {
			continue
		}
		g := groups[key]
		flags[i] = len(g.states) > 1 && len(g.licenses) <= 1
	}
	return flags
}

// FlagColumn names one boolean flag and how to read it off a record.
type FlagColumn struct {
	Name string
	Get  func(p roster.Provider) bool
}

// StandardFlags lists every quality flag in augmented-table order.
func StandardFlags() []FlagColumn {
	return []FlagColumn{
		{"license_state_mismatch", func(p roster.Provider) bool { return p.LicenseStateMismatch }},
		{"license_found", func(p roster.Provider) bool { return p.LicenseFound }},
		{"license_expired", func(p roster.Provider) bool { return p.LicenseExpired }},
		{"npi_missing", func(p roster.Provider) bool { return p.NPIMissing }},
		{"npi_found", func(p roster.Provider) bool { return p.NPIFound }},
		{"phone_issue", func(p roster.Provider) bool { return p.PhoneIssue }},
		{"duplicate_suspect", func(p roster.Provider) bool { return p.DuplicateSuspect }},
		{"multi_state_single_license", func(p roster.Provider) bool { return p.MultiStateSingleLicense }},
	}
}

// StateSummary aggregates flag counts for one practice state.
type StateSummary struct {
	State        string
	Counts       []int // parallel to the FlagColumn list passed in
	TotalRecords int
}

// SummarizeByState counts flags per practice state. Rows without a
// state are excluded; results are sorted by state.
func SummarizeByState(providers []roster.Provider, flags []FlagColumn) []StateSummary {
	byState := make(map[string]*StateSummary)
	for _, p := range providers {
		if !p.AddressState.Valid {
			continue
		}
		s := byState[p.AddressState.String]
		if s == nil {
			s = &StateSummary{State: p.AddressState.String, Counts: make([]int, len(flags))}
			byState[p.AddressState.String] = s
		}
		s.TotalRecords++
		for i, f := range flags {
			if f.Get(p) {
				s.Counts[i]++
			}
		}
	}

	out := make([]StateSummary, 0, len(byState))
	for _, s := range byState {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}
