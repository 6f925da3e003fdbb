// Package standardize derives cleaned variants of provider contact and
// identity fields. Every transform is total: bad input produces a null
// derived value, never an error. Transforms are independent and
// idempotent, and they write new fields instead of overwriting the
// ingested originals.
package standardize

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/leapstack-labs/rosterdq/internal/roster"
)

// DefaultRegion is the region phones are parsed against when the
// configuration does not say otherwise.
const DefaultRegion = "US"

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	spaceRe = regexp.MustCompile(`\s+`)
	zipRe   = regexp.MustCompile(`\d{5}`)
)

// Config controls field standardization.
type Config struct {
	// PhoneRegion is the default region for parsing phone numbers
	// without an explicit country prefix. Empty means DefaultRegion.
	PhoneRegion string
}

// Apply returns a copy of providers with the standardized fields
// populated. Input records are not modified.
func Apply(providers []roster.Provider, cfg Config) []roster.Provider {
	region := cfg.PhoneRegion
	if region == "" {
		region = DefaultRegion
	}

	out := make([]roster.Provider, len(providers))
	copy(out, providers)
	for i := range out {
		p := &out[i]
		if p.Phone.Valid {
			p.PhoneClean = Phone(p.Phone.String, region)
		}
		if p.Email.Valid {
			p.EmailClean = Email(p.Email.String)
		}
		if p.FullName.Valid {
			p.FullNameClean = roster.String(Name(p.FullName.String))
		}
		if p.AddressZip.Valid {
			p.AddressZip5 = Zip(p.AddressZip.String)
		}
	}
	return out
}

// Phone canonicalizes a raw phone number to E.164. The number must
// parse against the given region and be structurally possible for it;
// anything else is null. Carrier assignment is not checked, so
// placeholder ranges standardize like any other number.
func Phone(raw, region string) roster.NullString {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return roster.NullString{}
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return roster.NullString{}
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return roster.NullString{}
	}
	return roster.String(phonenumbers.Format(num, phonenumbers.E164))
}

// Email lower-cases and trims the address, keeping it only when it has
// a basic local@domain.tld shape.
func Email(raw string) roster.NullString {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(s) {
		return roster.NullString{}
	}
	return roster.String(s)
}

// Name trims the input and collapses internal whitespace runs to single
// spaces.
func Name(raw string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
}

// Zip extracts the first run of five consecutive digits. No such run
// means null.
func Zip(raw string) roster.NullString {
	z := zipRe.FindString(raw)
	if z == "" {
		return roster.NullString{}
	}
	return roster.String(z)
}
