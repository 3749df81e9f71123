package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalOrder(t *testing.T) {
	f := Frame{
		Columns: []string{"resale_price", "town", "month"},
		Rows:    [][]string{{"450000", "BEDOK", "2023-01"}},
	}

	out := Normalize(f)

	assert.Equal(t, CanonicalColumns, out.Columns)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "2023-01", out.Rows[0][0])
	assert.Equal(t, "BEDOK", out.Rows[0][1])
	assert.Equal(t, "450000", out.Rows[0][9])
}

func TestNormalizeMissingColumnsFilled(t *testing.T) {
	f := Frame{
		Columns: []string{"town"},
		Rows:    [][]string{{"BEDOK"}},
	}

	out := Normalize(f)

	require.Len(t, out.Rows, 1)
	for i, col := range out.Columns {
		if col == "town" {
			assert.Equal(t, "BEDOK", out.Rows[0][i])
			continue
		}
		assert.Empty(t, out.Rows[0][i], "column %s should be empty", col)
	}
}

func TestNormalizeHeaderVariants(t *testing.T) {
	f := Frame{
		Columns: []string{"Month", "Town", "Flat Type", "Floor Area (sqm)", "Storey Range", "Resale Price"},
		Rows:    [][]string{{"2023-01", "BEDOK", "4 ROOM", "95", "04 TO 06", "450000"}},
	}

	out := Normalize(f)

	row := out.Rows[0]
	assert.Equal(t, "2023-01", row[0])  // month
	assert.Equal(t, "BEDOK", row[1])    // town
	assert.Equal(t, "4 ROOM", row[2])   // flat_type
	assert.Equal(t, "04 TO 06", row[4]) // storey_range
	assert.Equal(t, "95", row[7])       // floor_area_sqm
	assert.Equal(t, "450000", row[9])   // resale_price
}

func TestNormalizeSynonyms(t *testing.T) {
	tests := []struct {
		source    string
		canonical string
	}{
		{"floor_range", "storey_range"},
		{"street", "street_name"},
		{"area_sqm", "floor_area_sqm"},
		{"lease_commence", "lease_commence_date"},
		{"price", "resale_price"},
		{"transaction_month", "month"},
		{"date", "month"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			out := Normalize(Frame{Columns: []string{tt.source}, Rows: [][]string{{"x"}}})
			for i, col := range out.Columns {
				if col == tt.canonical {
					assert.Equal(t, "x", out.Rows[0][i])
				}
			}
		})
	}
}

func TestNormalizeCollisionPriority(t *testing.T) {
	// Both "price" and "resale_price" resolve to resale_price; the
	// higher-priority synonym wins regardless of source order.
	f := Frame{
		Columns: []string{"price", "resale_price"},
		Rows:    [][]string{{"1", "2"}},
	}

	out := Normalize(f)
	assert.Equal(t, "2", out.Rows[0][9])

	// Duplicate spellings of the same synonym: first source column wins.
	f = Frame{
		Columns: []string{"Month", "MONTH"},
		Rows:    [][]string{{"2023-01", "2024-02"}},
	}
	out = Normalize(f)
	assert.Equal(t, "2023-01", out.Rows[0][0])
}

func TestNormalizeDropsUnknownColumns(t *testing.T) {
	f := Frame{
		Columns: []string{"town", "remaining_lease", "agent_name"},
		Rows:    [][]string{{"BEDOK", "61 years", "someone"}},
	}

	out := Normalize(f)

	assert.Len(t, out.Columns, len(CanonicalColumns))
	assert.NotContains(t, out.Columns, "remaining_lease")
	assert.NotContains(t, out.Columns, "agent_name")
}

func TestNormalizeRaggedRows(t *testing.T) {
	f := Frame{
		Columns: []string{"town", "resale_price"},
		Rows:    [][]string{{"BEDOK"}}, // short row
	}

	out := Normalize(f)
	assert.Equal(t, "BEDOK", out.Rows[0][1])
	assert.Empty(t, out.Rows[0][9])
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Floor Area (sqm)", "floor_area_sqm"},
		{"  Storey Range ", "storey_range"},
		{"RESALE_PRICE", "resale_price"},
		{"flat-type", "flat_type"},
		{"month", "month"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeKey(tt.in))
	}
}
