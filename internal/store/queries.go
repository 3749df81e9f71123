package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// recentYear is the cutoff for "recent" transaction volume when ranking
// towns for BTO candidacy.
const recentYear = 2017

// TownVolume is a town with its summed recent transaction count.
type TownVolume struct {
	Town  string `json:"town"`
	Total int64  `json:"total_recent"`
}

// RecommendTowns returns up to limit towns ordered by ascending recent
// transaction volume for the given flat types, i.e. the most under-served
// towns first. Ties are broken by town name so the ranking is stable.
func (s *Store) RecommendTowns(ctx context.Context, flatTypes []string, limit int) ([]TownVolume, error) {
	if len(flatTypes) == 0 {
		return nil, fmt.Errorf("at least one flat type is required")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(flatTypes)), ", ")
	query := fmt.Sprintf(`
		WITH recent AS (
			SELECT town, flat_type, COUNT(*) AS n
			FROM %s
			WHERE year >= %d
			GROUP BY town, flat_type
		), ranked AS (
			SELECT town, SUM(n) AS total_recent
			FROM recent
			WHERE flat_type IN (%s)
			GROUP BY town
			ORDER BY total_recent ASC NULLS FIRST, town ASC
		)
		SELECT town, total_recent FROM ranked LIMIT ?`,
		s.paths.CleanTable, recentYear, placeholders)

	args := make([]any, 0, len(flatTypes)+1)
	for _, ft := range flatTypes {
		args = append(args, ft)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to rank towns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []TownVolume
	for rows.Next() {
		var tv TownVolume
		var total sql.NullInt64
		if err := rows.Scan(&tv.Town, &total); err != nil {
			return nil, fmt.Errorf("failed to scan town ranking: %w", err)
		}
		tv.Total = total.Int64
		out = append(out, tv)
	}
	return out, rows.Err()
}

// AreaKey identifies a town and flat type pair.
type AreaKey struct {
	Town     string
	FlatType string
}

// MedianAreas returns the median historical floor area per town and flat
// type from the feature table. Pairs whose median is NULL are omitted.
func (s *Store) MedianAreas(ctx context.Context) (map[AreaKey]float64, error) {
	query := fmt.Sprintf(`
		SELECT town, flat_type, median(floor_area_sqm) AS med_area
		FROM %s
		GROUP BY town, flat_type`, s.paths.FeaturesTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query median areas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[AreaKey]float64)
	for rows.Next() {
		var (
			key AreaKey
			med sql.NullFloat64
		)
		if err := rows.Scan(&key.Town, &key.FlatType, &med); err != nil {
			return nil, fmt.Errorf("failed to scan median area: %w", err)
		}
		if med.Valid {
			out[key] = med.Float64
		}
	}
	return out, rows.Err()
}

// Snapshot summarizes the clean table for the status command.
type Snapshot struct {
	Rows    int64
	MinYear sql.NullInt64
	MaxYear sql.NullInt64
}

// DataSnapshot returns row count and year coverage of the clean table.
func (s *Store) DataSnapshot(ctx context.Context) (*Snapshot, error) {
	query := fmt.Sprintf(
		"SELECT COUNT(*), MIN(year), MAX(year) FROM %s", s.paths.CleanTable)
	var snap Snapshot
	if err := s.db.QueryRowContext(ctx, query).Scan(&snap.Rows, &snap.MinYear, &snap.MaxYear); err != nil {
		return nil, fmt.Errorf("failed to snapshot clean table: %w", err)
	}
	return &snap, nil
}
