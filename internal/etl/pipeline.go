// Package etl implements the ingestion pipeline: reading raw transaction
// CSVs, normalizing their schema, and deriving the clean and feature
// tables in the analytical store.
package etl

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sgdatalabs/btopricer/internal/config"
	"github.com/sgdatalabs/btopricer/internal/store"
)

// Pipeline loads transaction CSVs into the analytical store with
// full-refresh semantics: each run clears the raw table and rebuilds the
// clean and feature tables from scratch.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Result summarizes a completed ETL run.
type Result struct {
	Files       int   `json:"files"`
	RawRows     int64 `json:"raw_rows"`
	CleanRows   int64 `json:"clean_rows"`
	FeatureRows int64 `json:"feature_rows"`
}

// NewPipeline creates an ingestion pipeline. A nil logger discards output.
func NewPipeline(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Run ingests the given CSV files. When csvPaths is empty, all *.csv
// files in the working directory are loaded. A read or parse failure on
// any individual file aborts the whole run naming that file; nothing is
// partially committed past the raw-table clear.
func (p *Pipeline) Run(ctx context.Context, csvPaths []string) (*Result, error) {
	if len(csvPaths) == 0 {
		var err error
		csvPaths, err = filepath.Glob("*.csv")
		if err != nil {
			return nil, fmt.Errorf("failed to list csv files: %w", err)
		}
		sort.Strings(csvPaths)
	}

	st, err := store.Open(ctx, p.cfg.Paths)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if err := st.EnsureRawTable(ctx); err != nil {
		return nil, err
	}
	if err := st.ClearRaw(ctx); err != nil {
		return nil, err
	}

	res := &Result{Files: len(csvPaths)}
	for _, path := range csvPaths {
		p.logger.Info("reading source file", "path", path)
		frame, err := readFrame(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows := toRawRows(filepath.Base(path), Normalize(frame))
		if err := st.InsertRawRows(ctx, rows); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		res.RawRows += int64(len(rows))
	}
	p.logger.Info("raw table loaded", "files", res.Files, "rows", res.RawRows)

	if err := st.BuildCleanTable(ctx); err != nil {
		return nil, err
	}
	if res.CleanRows, err = st.RowCount(ctx, p.cfg.Paths.CleanTable); err != nil {
		return nil, err
	}

	sources, err := st.FeatureSourceRows(ctx)
	if err != nil {
		return nil, err
	}
	features := make([]store.FeatureRow, len(sources))
	for i, src := range sources {
		row := src.Row
		row.StoreyMid = math.NaN()
		if src.StoreyRange.Valid {
			row.StoreyMid = StoreyMidpoint(src.StoreyRange.String)
		}
		features[i] = row
	}
	if err := st.ReplaceFeatureTable(ctx, features); err != nil {
		return nil, err
	}
	res.FeatureRows = int64(len(features))

	p.logger.Info("derived tables built", "clean_rows", res.CleanRows, "feature_rows", res.FeatureRows)
	return res, nil
}

// readFrame parses a CSV file into a Frame. The first record is the
// header; data rows may be ragged and are padded during normalization.
func readFrame(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Frame{}, err
	}
	if len(records) == 0 {
		return Frame{}, fmt.Errorf("empty file")
	}
	return Frame{Columns: records[0], Rows: records[1:]}, nil
}

// toRawRows converts a normalized frame into raw store rows, coercing the
// numeric columns. Invalid numerics become NULL rather than failing the
// row; only file-level errors abort a run.
func toRawRows(sourceFile string, f Frame) []store.RawRow {
	idx := make(map[string]int, len(f.Columns))
	for i, col := range f.Columns {
		idx[col] = i
	}
	cell := func(row []string, name string) string {
		return strings.TrimSpace(row[idx[name]])
	}

	rows := make([]store.RawRow, len(f.Rows))
	for i, row := range f.Rows {
		rows[i] = store.RawRow{
			SourceFile:        sourceFile,
			Month:             nullString(cell(row, "month")),
			Town:              nullString(cell(row, "town")),
			FlatType:          nullString(cell(row, "flat_type")),
			FlatModel:         nullString(cell(row, "flat_model")),
			StoreyRange:       nullString(cell(row, "storey_range")),
			Block:             nullString(cell(row, "block")),
			StreetName:        nullString(cell(row, "street_name")),
			FloorAreaSqm:      nullFloat(cell(row, "floor_area_sqm")),
			LeaseCommenceDate: nullInt(cell(row, "lease_commence_date")),
			ResalePrice:       nullPrice(cell(row, "resale_price")),
		}
	}
	return rows
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(s string) sql.NullFloat64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullInt(s string) sql.NullInt64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

// nullPrice parses a price, stripping thousands separators first so
// values like "450,000" survive.
func nullPrice(s string) sql.NullFloat64 {
	return nullFloat(strings.ReplaceAll(s, ",", ""))
}
