package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/rosterdq/internal/dedupe"
	"github.com/leapstack-labs/rosterdq/internal/roster"
	"github.com/leapstack-labs/rosterdq/internal/rules"
	"github.com/leapstack-labs/rosterdq/pkg/similarity"
)

// Table is an ordered tabular query result. Cells are strings, bools,
// ints, or float64s; nil marks a null.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Records converts the rows to column-keyed maps, the shape JSON
// consumers expect.
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			if j < len(row) {
				rec[col] = row[j]
			}
		}
		records[i] = rec
	}
	return records
}

// ResultKind says which Result field is populated.
type ResultKind int

const (
	// KindTable marks a tabular result.
	KindTable ResultKind = iota
	// KindInt marks an integer scalar.
	KindInt
	// KindFloat marks a floating-point scalar.
	KindFloat
)

// Result is the typed envelope every intent returns.
type Result struct {
	Intent string
	Kind   ResultKind
	Int    int64
	Float  float64
	Table  *Table
}

// Scalar returns the scalar value and true for scalar results.
func (r *Result) Scalar() (any, bool) {
	switch r.Kind {
	case KindInt:
		return r.Int, true
	case KindFloat:
		return r.Float, true
	default:
		return nil, false
	}
}

// IntentInfo describes one dispatchable intent for help output and
// shell completion.
type IntentInfo struct {
	Name        string
	Params      string
	Description string
}

type intentDef struct {
	info IntentInfo
	run  func(snap *Snapshot, now time.Time, params map[string]any) (*Result, error)
}

// intentTable fixes the queryable surface. Adding an intent here is the
// only way to extend it; free-text interpretation happens in layers
// above, never in the engine.
var intentTable = []intentDef{
	{
		info: IntentInfo{Name: "expired_license_count", Description: "number of rows with an expired license"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			n := int64(0)
			for _, p := range snap.Providers {
				if p.LicenseExpired {
					n++
				}
			}
			return &Result{Kind: KindInt, Int: n}, nil
		},
	},
	{
		info: IntentInfo{Name: "phone_format_issues", Description: "rows whose phone is unparseable or oddly formatted"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.providerTable(func(p roster.Provider) bool { return p.PhoneIssue })), nil
		},
	},
	{
		info: IntentInfo{Name: "missing_npi", Description: "rows without an NPI"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.providerTable(func(p roster.Provider) bool { return p.NPIMissing })), nil
		},
	},
	{
		info: IntentInfo{Name: "duplicate_records", Description: "accepted duplicate pairs, grouped by cluster"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.duplicateTable()), nil
		},
	},
	{
		info: IntentInfo{Name: "overall_quality_score", Description: "mean data-quality score across the roster"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return &Result{Kind: KindFloat, Float: snap.Overall}, nil
		},
	},
	{
		info: IntentInfo{Name: "specialties_with_most_issues", Description: "issue counts per specialty, worst first"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.specialtyIssueTable()), nil
		},
	},
	{
		info: IntentInfo{Name: "state_issue_summary", Description: "flag counts per practice state"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.stateSummaryTable()), nil
		},
	},
	{
		info: IntentInfo{Name: "compliance_report_expired", Description: "expired-license rows with contact details"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.complianceTable()), nil
		},
	},
	{
		info: IntentInfo{Name: "filter_by_expiration_window", Params: "days (int, default 90)", Description: "rows whose license expires within the window"},
		run: func(snap *Snapshot, now time.Time, params map[string]any) (*Result, error) {
			args := struct {
				Days int `mapstructure:"days"`
			}{Days: 90}
			if err := decodeParams(params, &args); err != nil {
				return nil, err
			}
			return tableResult(snap.expirationWindowTable(now, args.Days)), nil
		},
	},
	{
		info: IntentInfo{Name: "multi_state_single_license", Description: "rows flagged for multi-state practice on one license"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.providerTable(func(p roster.Provider) bool { return p.MultiStateSingleLicense })), nil
		},
	},
	{
		info: IntentInfo{Name: "export_update_list", Description: "contact sheet of every row needing any correction"},
		run: func(snap *Snapshot, _ time.Time, _ map[string]any) (*Result, error) {
			return tableResult(snap.updateListTable()), nil
		},
	},
	{
		info: IntentInfo{Name: "search_provider_by_name", Params: "name (string)", Description: "substring search over provider names"},
		run: func(snap *Snapshot, _ time.Time, params map[string]any) (*Result, error) {
			args := struct {
				Name string `mapstructure:"name"`
			}{}
			if err := decodeParams(params, &args); err != nil {
				return nil, err
			}
			return tableResult(snap.searchByNameTable(args.Name)), nil
		},
	},
}

var intentIndex = func() map[string]intentDef {
	m := make(map[string]intentDef, len(intentTable))
	for _, def := range intentTable {
		m[def.info.Name] = def
	}
	return m
}()

// Intents lists the queryable surface in a stable order.
func Intents() []IntentInfo {
	infos := make([]IntentInfo, len(intentTable))
	for i, def := range intentTable {
		infos[i] = def.info
	}
	return infos
}

// RunQuery dispatches a named intent against the current generation.
// Unknown intents fail with ErrUnknownIntent; queries before the first
// load fail with ErrNoData. Every intent is a pure read.
func (s *Session) RunQuery(intent string, params map[string]any) (*Result, error) {
	def, ok := intentIndex[intent]
	if !ok {
		return nil, unknownIntentError(intent)
	}
	snap, loaded := s.Snapshot()
	if !loaded {
		return nil, ErrNoData
	}

	res, err := def.run(snap, s.now(), params)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", intent, err)
	}
	res.Intent = intent
	s.logger.Debug("query served", "intent", intent, "kind", res.Kind)
	return res, nil
}

func unknownIntentError(intent string) error {
	best := ""
	bestDist := 6 // suggestions beyond this edit distance are noise
	for _, def := range intentTable {
		if d := similarity.Levenshtein(intent, def.info.Name); d < bestDist {
			best, bestDist = def.info.Name, d
		}
	}
	if best != "" {
		return fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownIntent, intent, best)
	}
	return fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
}

func decodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := mapstructure.WeakDecode(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadParam, err)
	}
	return nil
}

func tableResult(t *Table) *Result {
	return &Result{Kind: KindTable, Table: t}
}

// providerBaseColumns is the fixed column order for full-row tables;
// pass-through columns from the source file follow it.
var providerBaseColumns = []string{
	"row", "provider_id", "npi", "first_name", "last_name", "full_name",
	"phone", "email", "address_line1", "address_city", "address_state",
	"address_zip", "license_number", "license_state",
	"license_expiration_date", "specialty",
	"phone_clean", "email_clean", "full_name_clean", "address_zip5",
	"license_found", "license_expired", "license_state_mismatch",
	"npi_missing", "npi_found", "phone_issue", "duplicate_suspect",
	"multi_state_single_license", "dq_score",
}

func extraColumnNames(providers []roster.Provider) []string {
	seen := make(map[string]struct{})
	for _, p := range providers {
		for name := range p.Extra {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cell(ns roster.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

func dateCell(nd roster.NullDate) any {
	if nd.Valid {
		return nd.Time.Format(roster.DateLayout)
	}
	return nil
}

// providerTable builds a full augmented-row table from the rows that
// pass filter.
func (g *Snapshot) providerTable(filter func(roster.Provider) bool) *Table {
	columns := append(append([]string(nil), providerBaseColumns...), g.extraColumns...)
	t := &Table{Columns: columns}
	for _, p := range g.Providers {
		if !filter(p) {
			continue
		}
		row := []any{
			p.Row, cell(p.ProviderID), cell(p.NPI), cell(p.FirstName), cell(p.LastName), cell(p.FullName),
			cell(p.Phone), cell(p.Email), cell(p.AddressLine1), cell(p.AddressCity), cell(p.AddressState),
			cell(p.AddressZip), cell(p.LicenseNumber), cell(p.LicenseState),
			dateCell(p.LicenseExpiration), cell(p.Specialty),
			cell(p.PhoneClean), cell(p.EmailClean), cell(p.FullNameClean), cell(p.AddressZip5),
			p.LicenseFound, p.LicenseExpired, p.LicenseStateMismatch,
			p.NPIMissing, p.NPIFound, p.PhoneIssue, p.DuplicateSuspect,
			p.MultiStateSingleLicense, p.DQScore,
		}
		for _, name := range g.extraColumns {
			if v, ok := p.Extra[name]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// duplicateTable lists accepted pairs with both names, sorted by
// cluster then score descending.
func (g *Snapshot) duplicateTable() *Table {
	t := &Table{Columns: []string{"idx_a", "idx_b", "score", "cluster_id", "name_a", "name_b"}}

	nameOf := func(idx int) any {
		if idx < 0 || idx >= len(g.Providers) {
			return nil
		}
		return cell(g.Providers[idx].BestName())
	}

	pairs := append([]dedupe.Pair(nil), g.Pairs...)
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].ClusterID != pairs[j].ClusterID {
			return pairs[i].ClusterID < pairs[j].ClusterID
		}
		return pairs[i].Score > pairs[j].Score
	})

	for _, p := range pairs {
		t.Rows = append(t.Rows, []any{p.IdxA, p.IdxB, p.Score, p.ClusterID, nameOf(p.IdxA), nameOf(p.IdxB)})
	}
	return t
}

// specialtyIssueTable sums the five issue flags per specialty. Rows
// without a specialty form their own group with a null label.
func (g *Snapshot) specialtyIssueTable() *Table {
	issueCount := func(p roster.Provider) int {
		n := 0
		for _, f := range []bool{p.LicenseExpired, p.NPIMissing, p.PhoneIssue, p.DuplicateSuspect, p.LicenseStateMismatch} {
			if f {
				n++
			}
		}
		return n
	}

	totals := make(map[roster.NullString]int)
	for _, p := range g.Providers {
		totals[p.Specialty] += issueCount(p)
	}

	type group struct {
		specialty roster.NullString
		issues    int
	}
	groups := make([]group, 0, len(totals))
	for spec, n := range totals {
		groups = append(groups, group{specialty: spec, issues: n})
	}
	// Specialty ascending with the null group last, then worst first;
	// the stable sort keeps the name order inside equal counts.
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].specialty, groups[j].specialty
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.String < b.String
	})
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].issues > groups[j].issues })

	t := &Table{Columns: []string{"specialty", "issues"}}
	for _, grp := range groups {
		t.Rows = append(t.Rows, []any{cell(grp.specialty), grp.issues})
	}
	return t
}

// stateSummaryTable counts every quality flag per practice state.
func (g *Snapshot) stateSummaryTable() *Table {
	flags := rules.StandardFlags()
	columns := []string{"address_state"}
	for _, f := range flags {
		columns = append(columns, f.Name)
	}
	columns = append(columns, "total_records")

	t := &Table{Columns: columns}
	for _, s := range rules.SummarizeByState(g.Providers, flags) {
		row := []any{s.State}
		for _, c := range s.Counts {
			row = append(row, c)
		}
		row = append(row, s.TotalRecords)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// complianceTable lists expired-license rows with the fields needed to
// chase a renewal, ordered by expiration date (unknown dates last).
func (g *Snapshot) complianceTable() *Table {
	t := &Table{Columns: []string{
		"full_name", "npi", "license_number", "license_state",
		"license_expiration_date", "email_clean", "phone_clean",
		"address_city", "address_state", "address_zip5",
	}}

	var expired []roster.Provider
	for _, p := range g.Providers {
		if p.LicenseExpired {
			expired = append(expired, p)
		}
	}
	sort.SliceStable(expired, func(i, j int) bool {
		a, b := expired[i].LicenseExpiration, expired[j].LicenseExpiration
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Time.Before(b.Time)
	})

	for _, p := range expired {
		t.Rows = append(t.Rows, []any{
			cell(p.FullName), cell(p.NPI), cell(p.LicenseNumber), cell(p.LicenseState),
			dateCell(p.LicenseExpiration), cell(p.EmailClean), cell(p.PhoneClean),
			cell(p.AddressCity), cell(p.AddressState), cell(p.AddressZip5),
		})
	}
	return t
}

// expirationWindowTable keeps rows whose expiration falls inside
// [today, today+days], bounds inclusive.
func (g *Snapshot) expirationWindowTable(now time.Time, days int) *Table {
	today := roster.Midnight(now)
	end := today.AddDate(0, 0, days)
	return g.providerTable(func(p roster.Provider) bool {
		if !p.LicenseExpiration.Valid {
			return false
		}
		d := p.LicenseExpiration.Time
		return !d.Before(today) && !d.After(end)
	})
}

// updateListTable is the corrective-action export: any flagged row,
// reduced to the fields an outreach list needs.
func (g *Snapshot) updateListTable() *Table {
	t := &Table{Columns: []string{
		"full_name", "npi", "license_number", "address_state",
		"email_clean", "phone_clean", "specialty",
	}}
	for _, p := range g.Providers {
		if !(p.LicenseExpired || p.NPIMissing || p.PhoneIssue || p.DuplicateSuspect || p.LicenseStateMismatch) {
			continue
		}
		t.Rows = append(t.Rows, []any{
			cell(p.FullName), cell(p.NPI), cell(p.LicenseNumber), cell(p.AddressState),
			cell(p.EmailClean), cell(p.PhoneClean), cell(p.Specialty),
		})
	}
	return t
}

// searchByNameTable finds providers by case-insensitive substring over
// the full name, falling back to first/last matching when the full
// name finds nothing and the query has at least two words.
func (g *Snapshot) searchByNameTable(name string) *Table {
	fullCols := []string{
		"full_name", "npi", "specialty", "address_city", "address_state",
		"license_number", "license_state", "phone",
	}
	if name == "" {
		return &Table{Columns: fullCols}
	}
	needle := strings.ToLower(strings.TrimSpace(name))

	t := &Table{Columns: fullCols}
	for _, p := range g.Providers {
		if p.FullName.Valid && strings.Contains(strings.ToLower(p.FullName.String), needle) {
			t.Rows = append(t.Rows, []any{
				cell(p.FullName), cell(p.NPI), cell(p.Specialty), cell(p.AddressCity), cell(p.AddressState),
				cell(p.LicenseNumber), cell(p.LicenseState), cell(p.Phone),
			})
		}
	}
	if len(t.Rows) > 0 {
		return t
	}

	parts := strings.Fields(needle)
	if len(parts) < 2 {
		return t
	}
	first, last := parts[0], parts[len(parts)-1]

	fallback := &Table{Columns: []string{
		"first_name", "last_name", "npi", "specialty", "address_city", "address_state",
		"license_number", "license_state", "phone",
	}}
	for _, p := range g.Providers {
		if !p.FirstName.Valid || !p.LastName.Valid {
			continue
		}
		if strings.Contains(strings.ToLower(p.FirstName.String), first) &&
			strings.Contains(strings.ToLower(p.LastName.String), last) {
			fallback.Rows = append(fallback.Rows, []any{
				cell(p.FirstName), cell(p.LastName), cell(p.NPI), cell(p.Specialty), cell(p.AddressCity),
				cell(p.AddressState), cell(p.LicenseNumber), cell(p.LicenseState), cell(p.Phone),
			})
		}
	}
	if len(fallback.Rows) > 0 {
		return fallback
	}
	return t
}
