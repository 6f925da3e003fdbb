// Package ingest reads delimited provider and reference files into the
// canonical roster schema. Header names are matched case-insensitively
// against a synonym table; unmapped columns pass through untouched.
// Designated date columns are parsed permissively and unparseable
// values become null, never errors. A file that cannot be read or
// parsed at all fails the whole load.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/leapstack-labs/rosterdq/internal/roster"
)

// Config configures a Loader. The zero value uses the default synonym
// table and discards logs.
type Config struct {
	// Synonyms overrides the header synonym table. Nil means
	// DefaultSynonyms().
	Synonyms Synonyms
	// Logger receives debug-level ingestion details. Nil discards.
	Logger *slog.Logger
}

// Loader reads roster and reference files.
type Loader struct {
	synonyms Synonyms
	logger   *slog.Logger
}

// New creates a Loader from cfg.
func New(cfg Config) *Loader {
	syn := cfg.Synonyms
	if syn == nil {
		syn = DefaultSynonyms()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{synonyms: syn, logger: logger}
}

// RosterFile reads the provider roster at path.
func (l *Loader) RosterFile(path string) ([]roster.Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	recs, err := l.Roster(f)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return recs, nil
}

// Roster reads a provider roster from r.
func (l *Loader) Roster(r io.Reader) ([]roster.Provider, error) {
	tbl, err := readTable(r)
	if err != nil {
		return nil, err
	}

	mapped := l.mapHeaders(tbl.headers)
	synthesizeName := !mapped.has("full_name") && mapped.has("first_name") && mapped.has("last_name")

	providers := make([]roster.Provider, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		p := roster.Provider{Row: i}
		for col, val := range row {
			canonical, ok := mapped.byIndex[col]
			if !ok {
				if p.Extra == nil {
					p.Extra = make(map[string]string)
				}
				p.Extra[tbl.headers[col]] = val
				continue
			}
			setField(&p, canonical, val)
		}
		if synthesizeName {
			full := strings.TrimSpace(p.FirstName.Or("") + " " + p.LastName.Or(""))
			p.FullName = roster.String(full)
		}
		providers = append(providers, p)
	}

	l.logger.Debug("roster ingested",
		"rows", len(providers),
		"mapped_columns", len(mapped.byIndex),
		"passthrough_columns", len(tbl.headers)-len(mapped.byIndex))
	return providers, nil
}

// LicenseFile reads a state license registry at path, tagging every row
// with the supplied issuing jurisdiction.
func (l *Loader) LicenseFile(path, jurisdiction string) ([]roster.License, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open license reference: %w", err)
	}
	defer f.Close()
	recs, err := l.Licenses(f, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("license reference %s: %w", path, err)
	}
	return recs, nil
}

// Licenses reads a state license registry from r. Rows without a
// license number are dropped; they could never match a roster row.
func (l *Loader) Licenses(r io.Reader, jurisdiction string) ([]roster.License, error) {
	tbl, err := readTable(r)
	if err != nil {
		return nil, err
	}
	mapped := l.mapHeaders(tbl.headers)

	// Expiration fallbacks occasionally seen in state extracts that the
	// synonym table does not cover.
	expFallback := -1
	if !mapped.has("license_expiration_date") {
		for i, h := range tbl.headers {
			if strings.EqualFold(strings.TrimSpace(h), "license_exp") {
				expFallback = i
				break
			}
		}
	}

	licenses := make([]roster.License, 0, len(tbl.rows))
	for _, row := range tbl.rows {
		var rec roster.License
		rec.ValidationState = jurisdiction
		for col, val := range row {
			switch mapped.byIndex[col] {
			case "license_number":
				rec.LicenseNumber = val
			case "license_expiration_date":
				rec.Expiration = ParseDate(val)
			}
		}
		if expFallback >= 0 && expFallback < len(row) {
			rec.Expiration = ParseDate(row[expFallback])
		}
		if rec.LicenseNumber == "" {
			continue
		}
		licenses = append(licenses, rec)
	}

	l.logger.Debug("license reference ingested", "jurisdiction", jurisdiction, "rows", len(licenses))
	return licenses, nil
}

// NPIFile reads the identifier registry at path.
func (l *Loader) NPIFile(path string) (roster.NPISet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open npi reference: %w", err)
	}
	defer f.Close()
	set, err := l.NPISet(f)
	if err != nil {
		return nil, fmt.Errorf("npi reference %s: %w", path, err)
	}
	return set, nil
}

// NPISet reads the identifier registry from r into a de-duplicated set.
func (l *Loader) NPISet(r io.Reader) (roster.NPISet, error) {
	tbl, err := readTable(r)
	if err != nil {
		return nil, err
	}
	mapped := l.mapHeaders(tbl.headers)

	set := make(roster.NPISet)
	for _, row := range tbl.rows {
		for col, val := range row {
			if mapped.byIndex[col] == "npi" && val != "" {
				set[val] = struct{}{}
			}
		}
	}

	l.logger.Debug("npi reference ingested", "identifiers", len(set))
	return set, nil
}

// ParseDate coerces a raw cell value to a calendar date. Empty,
// whitespace-only, and unparseable values are null.
func ParseDate(s string) roster.NullDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return roster.NullDate{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return roster.NullDate{}
	}
	return roster.Date(t)
}

type headerMap struct {
	byIndex   map[int]string
	canonical map[string]bool
}

func (m headerMap) has(canonical string) bool { return m.canonical[canonical] }

// mapHeaders resolves input headers against the synonym table. For each
// canonical field the first matching variant claims its column; when two
// fields claim the same column the later mapping wins.
func (l *Loader) mapHeaders(headers []string) headerMap {
	lower := make(map[string]int, len(headers))
	for i, h := range headers {
		lower[strings.ToLower(strings.TrimSpace(h))] = i
	}

	m := headerMap{byIndex: make(map[int]string), canonical: make(map[string]bool)}
	for _, mapping := range l.synonyms {
		for _, variant := range mapping.Variants {
			idx, ok := lower[strings.ToLower(variant)]
			if !ok {
				continue
			}
			if prev, claimed := m.byIndex[idx]; claimed {
				delete(m.canonical, prev)
			}
			m.byIndex[idx] = mapping.Canonical
			m.canonical[mapping.Canonical] = true
			break
		}
	}
	return m
}

type rawTable struct {
	headers []string
	rows    [][]string
}

// readTable parses CSV content. The first record is the header row; a
// ragged or empty file is a parse error, which fails the load.
func readTable(r io.Reader) (*rawTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = false

	headers, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("parse csv: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}
	headers[0] = strings.TrimPrefix(headers[0], "﻿")

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, row)
	}
	return &rawTable{headers: headers, rows: rows}, nil
}

// setField assigns a raw cell to its canonical slot. Empty cells are
// null, mirroring how missing values arrive in sparse extracts.
func setField(p *roster.Provider, canonical, value string) {
	ns := roster.NullString{}
	if value != "" {
		ns = roster.String(value)
	}
	switch canonical {
	case "provider_id":
		p.ProviderID = ns
	case "npi":
		p.NPI = ns
	case "first_name":
		p.FirstName = ns
	case "last_name":
		p.LastName = ns
	case "full_name":
		p.FullName = ns
	case "phone":
		p.Phone = ns
	case "email":
		p.Email = ns
	case "address_line1":
		p.AddressLine1 = ns
	case "address_city":
		p.AddressCity = ns
	case "address_state":
		p.AddressState = ns
	case "address_zip":
		p.AddressZip = ns
	case "license_number":
		p.LicenseNumber = ns
	case "license_state":
		p.LicenseState = ns
	case "license_expiration_date":
		p.LicenseExpiration = ParseDate(value)
	case "specialty":
		p.Specialty = ns
	}
}
