package ingest

// Mapping binds one canonical field to the header spellings accepted
// for it. Variant order matters: the first variant present in the input
// claims the column and later variants of the same field pass through.
type Mapping struct {
	Canonical string
	Variants  []string
}

// Synonyms is an ordered synonym table. Order matters when two fields
// claim the same input column: the later mapping wins, mirroring a
// plain map-assignment merge.
type Synonyms []Mapping

// DefaultSynonyms returns the built-in header synonym table. Matching
// is case-insensitive.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		{"provider_id", []string{"provider_id", "id", "prv_id", "provider_identifier"}},
		{"first_name", []string{"first_name", "fname", "given_name", "provider_first_name"}},
		{"last_name", []string{"last_name", "lname", "surname", "provider_last_name"}},
		{"full_name", []string{"full_name", "name", "provider_name"}},
		{"npi", []string{"npi", "npi_number", "provider_npi"}},
		{"license_number", []string{"license_number", "lic_no", "license", "provider_license_number"}},
		{"license_state", []string{"license_state", "state_license", "lic_state", "issuing_state"}},
		{"license_expiration_date", []string{"license_expiration_date", "license_expiration", "expiration_date", "expiry", "exp_date"}},
		{"specialty", []string{"specialty", "primary_specialty", "taxonomy"}},
		{"phone", []string{"phone", "phone_number", "telephone", "contact_phone", "practice_phone"}},
		{"email", []string{"email", "email_address"}},
		{"address_line1", []string{"address_line1", "address1", "street", "practice_address_line1"}},
		{"address_city", []string{"address_city", "city", "practice_city"}},
		{"address_state", []string{"address_state", "state", "practice_state"}},
		{"address_zip", []string{"address_zip", "zip", "zipcode", "postal_code", "practice_zip"}},
	}
}
