package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rosterdq/internal/roster"
)

func runTable(t *testing.T, s *Session, intent string, params map[string]any) *Table {
	t.Helper()
	res, err := s.RunQuery(intent, params)
	require.NoError(t, err)
	require.Equal(t, KindTable, res.Kind)
	require.NotNil(t, res.Table)
	assert.Equal(t, intent, res.Intent)
	return res.Table
}

func TestQueryScalars(t *testing.T) {
	s := loadedSession(t)

	res, err := s.RunQuery("expired_license_count", nil)
	require.NoError(t, err)
	assert.Equal(t, KindInt, res.Kind)
	assert.Equal(t, int64(1), res.Int)

	res, err = s.RunQuery("overall_quality_score", nil)
	require.NoError(t, err)
	assert.Equal(t, KindFloat, res.Kind)
	assert.InDelta(t, 52.5, res.Float, 1e-9)

	v, ok := res.Scalar()
	require.True(t, ok)
	assert.InDelta(t, 52.5, v.(float64), 1e-9)
}

func TestQueryProviderTables(t *testing.T) {
	s := loadedSession(t)

	phones := runTable(t, s, "phone_format_issues", nil)
	require.Len(t, phones.Rows, 2)
	// Full augmented rows, pass-through columns at the end.
	assert.Equal(t, "row", phones.Columns[0])
	assert.Equal(t, "notes", phones.Columns[len(phones.Columns)-1])
	assert.Equal(t, 2, phones.Rows[0][0])
	assert.Equal(t, 3, phones.Rows[1][0])

	npi := runTable(t, s, "missing_npi", nil)
	require.Len(t, npi.Rows, 1)
	rec := npi.Records()[0]
	assert.Equal(t, "Bob Brown", rec["full_name"])
	assert.Nil(t, rec["npi"])
	assert.Equal(t, true, rec["npi_missing"])
	assert.Equal(t, 25.0, rec["dq_score"])

	multi := runTable(t, s, "multi_state_single_license", nil)
	require.Len(t, multi.Rows, 2)
	assert.Equal(t, "John Smith", multi.Records()[0]["full_name"])
	assert.Equal(t, "Jon Smith", multi.Records()[1]["full_name"])

	vip := runTable(t, s, "multi_state_single_license", nil).Records()[0]
	assert.Equal(t, "vip", vip["notes"])
}

func TestQueryDuplicateRecords(t *testing.T) {
	s := loadedSession(t)

	dup := runTable(t, s, "duplicate_records", nil)
	assert.Equal(t, []string{"idx_a", "idx_b", "score", "cluster_id", "name_a", "name_b"}, dup.Columns)
	require.Len(t, dup.Rows, 1)

	row := dup.Rows[0]
	assert.Equal(t, 0, row[0])
	assert.Equal(t, 1, row[1])
	assert.InDelta(t, 94.7368, row[2].(float64), 0.001)
	assert.Equal(t, 0, row[3])
	assert.Equal(t, "John Smith", row[4])
	assert.Equal(t, "Jon Smith", row[5])
}

func TestQuerySpecialtiesWithMostIssues(t *testing.T) {
	s := loadedSession(t)

	spec := runTable(t, s, "specialties_with_most_issues", nil)
	assert.Equal(t, []string{"specialty", "issues"}, spec.Columns)
	require.Len(t, spec.Rows, 3)
	assert.Equal(t, []any{"Cardiology", 3}, spec.Rows[0])
	// Equal counts fall back to name order.
	assert.Equal(t, []any{"Dermatology", 2}, spec.Rows[1])
	assert.Equal(t, []any{"Oncology", 2}, spec.Rows[2])
}

func TestQuerySpecialtiesGroupsMissingSpecialty(t *testing.T) {
	s := NewSession(Config{Now: func() time.Time { return testNow }})
	s.LoadData([]roster.Provider{
		{Row: 0, FullName: roster.String("A One"), Specialty: roster.String("Cardiology"), NPI: roster.String("1")},
		{Row: 1, FullName: roster.String("B Two")}, // no specialty, missing NPI
		{Row: 2, FullName: roster.String("C Three")},
	}, nil, nil)

	spec := runTable(t, s, "specialties_with_most_issues", nil)
	require.Len(t, spec.Rows, 2)
	// Phone and NPI are absent on rows 1 and 2, two issues each.
	assert.Equal(t, []any{nil, 4}, spec.Rows[0])
	assert.Equal(t, []any{"Cardiology", 1}, spec.Rows[1])
}

func TestQueryStateIssueSummary(t *testing.T) {
	s := loadedSession(t)

	sum := runTable(t, s, "state_issue_summary", nil)
	assert.Equal(t, []string{
		"address_state",
		"license_state_mismatch", "license_found", "license_expired",
		"npi_missing", "npi_found", "phone_issue", "duplicate_suspect",
		"multi_state_single_license", "total_records",
	}, sum.Columns)
	require.Len(t, sum.Rows, 3)
	assert.Equal(t, []any{"CA", 0, 1, 0, 0, 1, 0, 1, 1, 1}, sum.Rows[0])
	assert.Equal(t, []any{"NY", 1, 2, 1, 0, 1, 1, 1, 1, 2}, sum.Rows[1])
	assert.Equal(t, []any{"TX", 0, 0, 0, 1, 0, 1, 0, 0, 1}, sum.Rows[2])
}

func TestQueryComplianceReportExpired(t *testing.T) {
	s := loadedSession(t)

	rep := runTable(t, s, "compliance_report_expired", nil)
	assert.Equal(t, []string{
		"full_name", "npi", "license_number", "license_state",
		"license_expiration_date", "email_clean", "phone_clean",
		"address_city", "address_state", "address_zip5",
	}, rep.Columns)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, []any{
		"Jane Doe", "2222222222", "B200", "NY",
		"2020-01-15", "jane@example.com", nil,
		"Buffalo", "NY", "14201",
	}, rep.Rows[0])
}

func TestQueryExpirationWindow(t *testing.T) {
	s := loadedSession(t)

	// Nothing on the test roster expires inside the default window.
	got := runTable(t, s, "filter_by_expiration_window", nil)
	assert.Empty(t, got.Rows)

	// 2027-03-01 sits inside a 200-day window from 2026-08-22.
	got = runTable(t, s, "filter_by_expiration_window", map[string]any{"days": 200})
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Bob Brown", got.Records()[0]["full_name"])

	// Stringly-typed params coerce.
	got = runTable(t, s, "filter_by_expiration_window", map[string]any{"days": "200"})
	assert.Len(t, got.Rows, 1)

	_, err := s.RunQuery("filter_by_expiration_window", map[string]any{"days": "soon"})
	assert.ErrorIs(t, err, ErrBadParam)
}

func TestQueryExpirationWindowBoundsInclusive(t *testing.T) {
	s := NewSession(Config{Now: func() time.Time { return testNow }})
	s.LoadData([]roster.Provider{
		{Row: 0, FullName: roster.String("Expires Today"), LicenseExpiration: roster.Date(testNow)},
		{Row: 1, FullName: roster.String("Expires At Edge"), LicenseExpiration: roster.Date(testNow.AddDate(0, 0, 30))},
		{Row: 2, FullName: roster.String("Expires Beyond"), LicenseExpiration: roster.Date(testNow.AddDate(0, 0, 31))},
		{Row: 3, FullName: roster.String("Expired Already"), LicenseExpiration: roster.Date(testNow.AddDate(0, 0, -1))},
	}, nil, nil)

	got := runTable(t, s, "filter_by_expiration_window", map[string]any{"days": 30})
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Expires Today", got.Records()[0]["full_name"])
	assert.Equal(t, "Expires At Edge", got.Records()[1]["full_name"])
}

func TestQueryExportUpdateList(t *testing.T) {
	s := loadedSession(t)

	list := runTable(t, s, "export_update_list", nil)
	assert.Equal(t, []string{
		"full_name", "npi", "license_number", "address_state",
		"email_clean", "phone_clean", "specialty",
	}, list.Columns)
	// Every roster row carries at least one flag here.
	require.Len(t, list.Rows, 4)
	assert.Equal(t, "John Smith", list.Rows[0][0])
	assert.Nil(t, list.Records()[3]["npi"])
}

func TestQuerySearchProviderByName(t *testing.T) {
	s := loadedSession(t)

	hits := runTable(t, s, "search_provider_by_name", map[string]any{"name": "smith"})
	assert.Equal(t, []string{
		"full_name", "npi", "specialty", "address_city", "address_state",
		"license_number", "license_state", "phone",
	}, hits.Columns)
	require.Len(t, hits.Rows, 2)
	assert.Equal(t, "John Smith", hits.Rows[0][0])
	assert.Equal(t, "Jon Smith", hits.Rows[1][0])
	// The raw phone comes back, not the standardized one.
	assert.Equal(t, "(555) 123-4567", hits.Records()[0]["phone"])

	none := runTable(t, s, "search_provider_by_name", map[string]any{"name": "zzz"})
	assert.Empty(t, none.Rows)

	empty := runTable(t, s, "search_provider_by_name", map[string]any{"name": ""})
	assert.Empty(t, empty.Rows)
	assert.NotEmpty(t, empty.Columns)
}

func TestQuerySearchFallsBackToNameParts(t *testing.T) {
	s := NewSession(Config{Now: func() time.Time { return testNow }})
	s.LoadData([]roster.Provider{
		{
			Row:       0,
			FirstName: roster.String("Jane"),
			LastName:  roster.String("Doe"),
			FullName:  roster.String("J. Doe"),
			NPI:       roster.String("2222222222"),
		},
		{
			Row:       1,
			FirstName: roster.String("Janet"),
			LastName:  roster.String("Dole"),
			FullName:  roster.String("J. Dole"),
		},
	}, nil, nil)

	got := runTable(t, s, "search_provider_by_name", map[string]any{"name": "jane doe"})
	assert.Equal(t, "first_name", got.Columns[0])
	assert.Equal(t, "last_name", got.Columns[1])
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Jane", got.Rows[0][0])
	assert.Equal(t, "Doe", got.Rows[0][1])
}

func TestIntentsMetadata(t *testing.T) {
	infos := Intents()
	require.Len(t, infos, 12)
	assert.Equal(t, "expired_license_count", infos[0].Name)
	assert.Equal(t, "search_provider_by_name", infos[11].Name)

	byName := make(map[string]IntentInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
		assert.NotEmpty(t, info.Description, info.Name)
	}
	assert.Contains(t, byName["filter_by_expiration_window"].Params, "days")
	assert.Contains(t, byName["search_provider_by_name"].Params, "name")
}
