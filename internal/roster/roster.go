// Package roster defines the canonical provider schema shared by every
// pipeline stage. Ingestion maps heterogeneous input headers onto these
// records once; downstream stages consume only canonical fields and
// never inspect raw column names.
//
// A Provider carries three layers: the canonical source fields, the
// standardized variants derived from them (suffixed Clean, or
// AddressZip5), and the boolean quality flags plus score produced by
// validation, resolution, and rule evaluation. Source fields are never
// overwritten by later stages.
package roster

// Provider is one row of the provider table. Row is the zero-based
// position in the source file and is stable across all stages; duplicate
// pairs reference it.
type Provider struct {
	Row int

	// Canonical source fields.
	ProviderID        NullString
	NPI               NullString
	FirstName         NullString
	LastName          NullString
	FullName          NullString
	Phone             NullString
	Email             NullString
	AddressLine1      NullString
	AddressCity       NullString
	AddressState      NullString
	AddressZip        NullString
	LicenseNumber     NullString
	LicenseState      NullString
	LicenseExpiration NullDate
	Specialty         NullString

	// Unmapped input columns, passed through untouched.
	Extra map[string]string

	// Standardized variants. Originals above stay as ingested.
	PhoneClean    NullString
	EmailClean    NullString
	FullNameClean NullString
	AddressZip5   NullString

	// Quality flags.
	LicenseFound            bool
	LicenseExpired          bool
	LicenseStateMismatch    bool
	NPIMissing              bool
	NPIFound                bool
	PhoneIssue              bool
	DuplicateSuspect        bool
	MultiStateSingleLicense bool

	// Weighted data-quality score in [0,100].
	DQScore float64
}

// BestName returns the cleaned full name when available, falling back
// to the raw full name.
func (p Provider) BestName() NullString {
	if p.FullNameClean.Valid {
		return p.FullNameClean
	}
	return p.FullName
}

// License is one reference-registry row, tagged with the jurisdiction
// that supplied it. After consolidation at most one License survives per
// LicenseNumber (first occurrence wins) so roster joins cannot fan out.
type License struct {
	LicenseNumber   string
	ValidationState string
	Expiration      NullDate
}

// NPISet is the de-duplicated set of identifiers from the national
// registry.
type NPISet map[string]struct{}

// Contains reports whether id is in the set.
func (s NPISet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}
