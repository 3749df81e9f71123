package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// RawRow is one transaction as ingested from a source file, before any
// derivation. Unresolvable or unparseable fields are NULL.
type RawRow struct {
	SourceFile        string
	Month             sql.NullString
	Town              sql.NullString
	FlatType          sql.NullString
	FlatModel         sql.NullString
	StoreyRange       sql.NullString
	Block             sql.NullString
	StreetName        sql.NullString
	FloorAreaSqm      sql.NullFloat64
	LeaseCommenceDate sql.NullInt64
	ResalePrice       sql.NullFloat64
}

// FeatureRow is one model-ready row from the feature table. Missing
// numeric values are NaN.
type FeatureRow struct {
	ResalePrice       float64
	Town              string
	FlatType          string
	FlatModel         string
	FloorAreaSqm      float64
	LeaseCommenceDate float64
	Year              int
	MonthNum          int
	StoreyMid         float64
}

// EnsureRawTable creates the raw table if it does not exist.
func (s *Store) EnsureRawTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			source_file TEXT,
			month TEXT,
			town TEXT,
			flat_type TEXT,
			flat_model TEXT,
			storey_range TEXT,
			block TEXT,
			street_name TEXT,
			floor_area_sqm DOUBLE,
			lease_commence_date INTEGER,
			resale_price DOUBLE
		)`, s.paths.RawTable) //nolint:gosec // table names validated by config
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create raw table: %w", err)
	}
	return nil
}

// ClearRaw deletes all rows from the raw table so a rerun of the ETL
// reproduces the same state instead of duplicating it.
func (s *Store) ClearRaw(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.paths.RawTable)); err != nil {
		return fmt.Errorf("failed to clear raw table: %w", err)
	}
	return nil
}

// InsertRawRows appends rows to the raw table in a single transaction.
func (s *Store) InsertRawRows(ctx context.Context, rows []RawRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(source_file, month, town, flat_type, flat_model, storey_range, block, street_name, floor_area_sqm, lease_commence_date, resale_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.paths.RawTable))
	if err != nil {
		return fmt.Errorf("failed to prepare raw insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.SourceFile, r.Month, r.Town, r.FlatType, r.FlatModel, r.StoreyRange,
			r.Block, r.StreetName, r.FloorAreaSqm, r.LeaseCommenceDate, r.ResalePrice,
		); err != nil {
			return fmt.Errorf("failed to insert raw row: %w", err)
		}
	}
	return tx.Commit()
}

// BuildCleanTable rebuilds the clean table from the raw table, deriving
// txn_date, year and month_num from the "YYYY-MM" month string and
// dropping rows without a price, town or flat type.
func (s *Store) BuildCleanTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT
			*,
			CAST(strptime(month || '-01', '%%Y-%%m-%%d') AS DATE) AS txn_date,
			CAST(EXTRACT(year FROM CAST(strptime(month || '-01', '%%Y-%%m-%%d') AS DATE)) AS INTEGER) AS year,
			CAST(EXTRACT(month FROM CAST(strptime(month || '-01', '%%Y-%%m-%%d') AS DATE)) AS INTEGER) AS month_num
		FROM %s
		WHERE resale_price IS NOT NULL AND town IS NOT NULL AND flat_type IS NOT NULL`,
		s.paths.CleanTable, s.paths.RawTable)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to build clean table: %w", err)
	}
	return nil
}

// FeatureSource is one clean row that passes the feature filter, with the
// storey range still attached for midpoint derivation.
type FeatureSource struct {
	Row         FeatureRow
	StoreyRange sql.NullString
}

// FeatureSourceRows returns the clean rows eligible for the feature table:
// resale_price > 10000 and floor_area_sqm present.
func (s *Store) FeatureSourceRows(ctx context.Context) ([]FeatureSource, error) {
	query := fmt.Sprintf(`
		SELECT resale_price, town, flat_type, flat_model, floor_area_sqm,
		       lease_commence_date, storey_range, year, month_num
		FROM %s
		WHERE resale_price > 10000 AND floor_area_sqm IS NOT NULL`, s.paths.CleanTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clean rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FeatureSource
	for rows.Next() {
		var (
			src       FeatureSource
			flatModel sql.NullString
			lease     sql.NullInt64
		)
		if err := rows.Scan(
			&src.Row.ResalePrice, &src.Row.Town, &src.Row.FlatType, &flatModel,
			&src.Row.FloorAreaSqm, &lease, &src.StoreyRange,
			&src.Row.Year, &src.Row.MonthNum,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clean row: %w", err)
		}
		src.Row.FlatModel = flatModel.String
		src.Row.LeaseCommenceDate = math.NaN()
		if lease.Valid {
			src.Row.LeaseCommenceDate = float64(lease.Int64)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// ReplaceFeatureTable rebuilds the feature table from the given rows.
// NaN numerics are stored as NULL.
func (s *Store) ReplaceFeatureTable(ctx context.Context, rows []FeatureRow) error {
	ddl := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s (
			resale_price DOUBLE,
			town TEXT,
			flat_type TEXT,
			flat_model TEXT,
			floor_area_sqm DOUBLE,
			lease_commence_date INTEGER,
			year INTEGER,
			month_num INTEGER,
			storey_mid DOUBLE
		)`, s.paths.FeaturesTable)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create feature table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(resale_price, town, flat_type, flat_model, floor_area_sqm, lease_commence_date, year, month_num, storey_mid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.paths.FeaturesTable))
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.ResalePrice, r.Town, r.FlatType, r.FlatModel, r.FloorAreaSqm,
			nullFromFloat(r.LeaseCommenceDate), r.Year, r.MonthNum, nullFromFloat(r.StoreyMid),
		); err != nil {
			return fmt.Errorf("failed to insert feature row: %w", err)
		}
	}
	return tx.Commit()
}

// FeatureRows loads the full feature table for training.
func (s *Store) FeatureRows(ctx context.Context) ([]FeatureRow, error) {
	query := fmt.Sprintf(`
		SELECT resale_price, town, flat_type, flat_model, floor_area_sqm,
		       lease_commence_date, year, month_num, storey_mid
		FROM %s`, s.paths.FeaturesTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FeatureRow
	for rows.Next() {
		var (
			r         FeatureRow
			flatModel sql.NullString
			lease     sql.NullFloat64
			storeyMid sql.NullFloat64
		)
		if err := rows.Scan(
			&r.ResalePrice, &r.Town, &r.FlatType, &flatModel,
			&r.FloorAreaSqm, &lease, &r.Year, &r.MonthNum, &storeyMid,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		r.FlatModel = flatModel.String
		r.LeaseCommenceDate = floatFromNull(lease)
		r.StoreyMid = floatFromNull(storeyMid)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RowCount returns the number of rows in the named table.
func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return n, nil
}

func nullFromFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatFromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
