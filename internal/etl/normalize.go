package etl

import "strings"

// Frame is a small in-memory table of string cells, as read from a CSV
// file. Rows have the same length as Columns; missing cells are "".
type Frame struct {
	Columns []string
	Rows    [][]string
}

// CanonicalColumns is the fixed output column set of the normalizer,
// in order.
var CanonicalColumns = []string{
	"month",
	"town",
	"flat_type",
	"flat_model",
	"storey_range",
	"block",
	"street_name",
	"floor_area_sqm",
	"lease_commence_date",
	"resale_price",
}

// synonyms maps each canonical column to its accepted source spellings,
// in priority order. Lookups happen on normalized keys (lower-cased,
// whitespace and punctuation collapsed to underscores).
var synonyms = map[string][]string{
	"month":               {"month", "transaction_month", "date"},
	"town":                {"town"},
	"flat_type":           {"flat_type"},
	"flat_model":          {"flat_model"},
	"storey_range":        {"storey_range", "floor_range"},
	"block":               {"block"},
	"street_name":         {"street_name", "street"},
	"floor_area_sqm":      {"floor_area_sqm", "area_sqm"},
	"lease_commence_date": {"lease_commence_date", "lease_commence"},
	"resale_price":        {"resale_price", "price"},
}

// Normalize maps a frame with arbitrary column naming onto the canonical
// column set. Columns that cannot be resolved from known synonyms come out
// empty; unrecognized source columns are dropped. When several source
// columns resolve to the same canonical name, the earliest synonym in
// priority order wins, and within one synonym the first source column in
// original order wins. Pure function; the input frame is not modified.
func Normalize(f Frame) Frame {
	keys := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		keys[i] = normalizeKey(col)
	}

	// canonical column -> source column index, -1 when unresolved
	srcIdx := make([]int, len(CanonicalColumns))
	for i, canonical := range CanonicalColumns {
		srcIdx[i] = -1
		for _, syn := range synonyms[canonical] {
			found := -1
			for j, key := range keys {
				if key == syn {
					found = j
					break
				}
			}
			if found >= 0 {
				srcIdx[i] = found
				break
			}
		}
	}

	out := Frame{
		Columns: append([]string(nil), CanonicalColumns...),
		Rows:    make([][]string, len(f.Rows)),
	}
	for r, row := range f.Rows {
		cells := make([]string, len(CanonicalColumns))
		for i, j := range srcIdx {
			if j >= 0 && j < len(row) {
				cells[i] = row[j]
			}
		}
		out.Rows[r] = cells
	}
	return out
}

// normalizeKey lower-cases a column name and collapses whitespace and
// punctuation into single underscores, so "Floor Area (sqm)" matches
// "floor_area_sqm".
func normalizeKey(col string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(col)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
