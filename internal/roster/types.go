package roster

import (
	"encoding/json"
	"time"
)

// NullString is a string that may be absent. The zero value is null.
// Used instead of pointers so records copy cleanly and absence is
// explicit rather than signalled by "" or sentinel text.
type NullString struct {
	String string
	Valid  bool
}

// String wraps s as a present NullString.
func String(s string) NullString {
	return NullString{String: s, Valid: true}
}

// Or returns the value when present, otherwise def.
func (n NullString) Or(def string) string {
	if n.Valid {
		return n.String
	}
	return def
}

// MarshalJSON encodes the value, or JSON null when absent.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

// UnmarshalJSON decodes JSON null as absent and any string as present.
func (n *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = NullString{String: s, Valid: true}
	return nil
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// NullDate is a calendar date that may be absent. Dates are stored at
// UTC midnight; only the calendar day is meaningful.
type NullDate struct {
	Time  time.Time
	Valid bool
}

// Date wraps t as a present NullDate, truncated to its UTC calendar day.
func Date(t time.Time) NullDate {
	return NullDate{Time: Midnight(t), Valid: true}
}

// DateOf builds a present NullDate from a calendar day.
func DateOf(year int, month time.Month, day int) NullDate {
	return NullDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// Midnight truncates t to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Before reports whether the date is present and strictly before t's
// calendar day.
func (n NullDate) Before(t time.Time) bool {
	return n.Valid && n.Time.Before(Midnight(t))
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or JSON null when absent.
func (n NullDate) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Time.Format(DateLayout))
}

// UnmarshalJSON decodes JSON null as absent and "YYYY-MM-DD" as present.
func (n *NullDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	*n = NullDate{Time: t, Valid: true}
	return nil
}
