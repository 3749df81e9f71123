package store

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgdatalabs/btopricer/internal/config"
)

func testPaths(t *testing.T) config.Paths {
	t.Helper()
	return config.Paths{
		DuckDBPath:    filepath.Join(t.TempDir(), "test.duckdb"),
		RawTable:      "raw_transactions",
		CleanTable:    "clean_transactions",
		FeaturesTable: "features",
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), testPaths(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rawRow(month, town, flatType string, price float64) RawRow {
	return RawRow{
		SourceFile:        "test.csv",
		Month:             sql.NullString{String: month, Valid: true},
		Town:              sql.NullString{String: town, Valid: true},
		FlatType:          sql.NullString{String: flatType, Valid: true},
		FloorAreaSqm:      sql.NullFloat64{Float64: 90, Valid: true},
		LeaseCommenceDate: sql.NullInt64{Int64: 1990, Valid: true},
		ResalePrice:       sql.NullFloat64{Float64: price, Valid: true},
	}
}

func seedClean(t *testing.T, s *Store, rows []RawRow) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.EnsureRawTable(ctx))
	require.NoError(t, s.InsertRawRows(ctx, rows))
	require.NoError(t, s.BuildCleanTable(ctx))
}

func TestRecommendTownsAscendingVolume(t *testing.T) {
	s := openTestStore(t)
	seedClean(t, s, []RawRow{
		rawRow("2023-01", "BEDOK", "4 ROOM", 500000),
		rawRow("2023-02", "BEDOK", "4 ROOM", 510000),
		rawRow("2023-03", "BEDOK", "4 ROOM", 520000),
		rawRow("2023-01", "PUNGGOL", "4 ROOM", 480000),
		rawRow("2023-02", "PUNGGOL", "4 ROOM", 490000),
		rawRow("2023-01", "TAMPINES", "4 ROOM", 530000),
	})

	towns, err := s.RecommendTowns(context.Background(), []string{"4 ROOM"}, 2)
	require.NoError(t, err)
	require.Len(t, towns, 2)

	// Lowest recent volume first.
	assert.Equal(t, "TAMPINES", towns[0].Town)
	assert.Equal(t, int64(1), towns[0].Total)
	assert.Equal(t, "PUNGGOL", towns[1].Town)
	assert.Equal(t, int64(2), towns[1].Total)
}

func TestRecommendTownsTieBreakByName(t *testing.T) {
	s := openTestStore(t)
	seedClean(t, s, []RawRow{
		rawRow("2023-01", "YISHUN", "3 ROOM", 400000),
		rawRow("2023-01", "BISHAN", "3 ROOM", 600000),
	})

	towns, err := s.RecommendTowns(context.Background(), []string{"3 ROOM"}, 5)
	require.NoError(t, err)
	require.Len(t, towns, 2)
	assert.Equal(t, "BISHAN", towns[0].Town)
	assert.Equal(t, "YISHUN", towns[1].Town)
}

func TestRecommendTownsIgnoresOldAndOtherFlatTypes(t *testing.T) {
	s := openTestStore(t)
	seedClean(t, s, []RawRow{
		rawRow("2015-06", "BEDOK", "4 ROOM", 450000),   // before the recent cutoff
		rawRow("2023-01", "BEDOK", "5 ROOM", 650000),   // different flat type
		rawRow("2023-01", "PUNGGOL", "4 ROOM", 480000), // counted
	})

	towns, err := s.RecommendTowns(context.Background(), []string{"4 ROOM"}, 10)
	require.NoError(t, err)
	require.Len(t, towns, 1)
	assert.Equal(t, "PUNGGOL", towns[0].Town)
}

func TestRecommendTownsRequiresFlatTypes(t *testing.T) {
	s := openTestStore(t)
	_, err := s.RecommendTowns(context.Background(), nil, 5)
	assert.Error(t, err)
}

func featureRow(town, flatType string, area float64) FeatureRow {
	return FeatureRow{
		ResalePrice:       500000,
		Town:              town,
		FlatType:          flatType,
		FlatModel:         "Improved",
		FloorAreaSqm:      area,
		LeaseCommenceDate: 1990,
		Year:              2023,
		MonthNum:          6,
		StoreyMid:         8,
	}
}

func TestMedianAreas(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFeatureTable(ctx, []FeatureRow{
		featureRow("BEDOK", "4 ROOM", 60),
		featureRow("BEDOK", "4 ROOM", 70),
		featureRow("BEDOK", "4 ROOM", 80),
		featureRow("BEDOK", "3 ROOM", 65),
	}))

	medians, err := s.MedianAreas(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 70, medians[AreaKey{Town: "BEDOK", FlatType: "4 ROOM"}], 1e-9)
	assert.InDelta(t, 65, medians[AreaKey{Town: "BEDOK", FlatType: "3 ROOM"}], 1e-9)
}

func TestFeatureRowsNaNRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row := featureRow("BEDOK", "4 ROOM", 90)
	row.StoreyMid = math.NaN()
	row.LeaseCommenceDate = math.NaN()
	require.NoError(t, s.ReplaceFeatureTable(ctx, []FeatureRow{row}))

	rows, err := s.FeatureRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, math.IsNaN(rows[0].StoreyMid))
	assert.True(t, math.IsNaN(rows[0].LeaseCommenceDate))
	assert.Equal(t, 90.0, rows[0].FloorAreaSqm)
}

func TestDataSnapshot(t *testing.T) {
	s := openTestStore(t)
	seedClean(t, s, []RawRow{
		rawRow("2017-03", "BEDOK", "4 ROOM", 450000),
		rawRow("2024-11", "PUNGGOL", "4 ROOM", 620000),
	})

	snap, err := s.DataSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Rows)
	require.True(t, snap.MinYear.Valid)
	require.True(t, snap.MaxYear.Valid)
	assert.Equal(t, int64(2017), snap.MinYear.Int64)
	assert.Equal(t, int64(2024), snap.MaxYear.Int64)
}

func TestDataSnapshotEmpty(t *testing.T) {
	s := openTestStore(t)
	seedClean(t, s, nil)

	snap, err := s.DataSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Rows)
	assert.False(t, snap.MinYear.Valid)
	assert.False(t, snap.MaxYear.Valid)
}
