package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Instance is one model-ready transaction row, the shape both training
// and prediction feed into the pipeline.
type Instance struct {
	Town              string
	FlatType          string
	FlatModel         string
	FloorAreaSqm      float64
	LeaseCommenceDate float64
	StoreyMid         float64
	Year              float64
	MonthNum          float64
}

// OneHot encodes a categorical field as indicator columns, one per level
// seen at fit time. Unknown levels transform to all zeros.
type OneHot struct {
	Levels []string // sorted
}

// Fit records the distinct values, sorted for a deterministic layout.
func (o *OneHot) Fit(values []string) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	o.Levels = make([]string, 0, len(seen))
	for v := range seen {
		o.Levels = append(o.Levels, v)
	}
	sort.Strings(o.Levels)
}

// transform writes the indicator columns for v into dst.
func (o *OneHot) transform(v string, dst []float64) {
	for i := range dst[:len(o.Levels)] {
		dst[i] = 0
	}
	i := sort.SearchStrings(o.Levels, v)
	if i < len(o.Levels) && o.Levels[i] == v {
		dst[i] = 1
	}
}

// Scaler standardizes a numeric field to zero mean and unit variance.
// NaN inputs are ignored at fit time and transform to 0 (the mean),
// so a missing storey midpoint degrades gracefully instead of poisoning
// the whole vector.
type Scaler struct {
	Mean float64
	Std  float64
}

// Fit computes mean and standard deviation over the non-NaN values.
func (s *Scaler) Fit(values []float64) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		s.Mean, s.Std = 0, 1
		return
	}
	s.Mean = stat.Mean(clean, nil)
	s.Std = stat.StdDev(clean, nil)
	if s.Std == 0 || math.IsNaN(s.Std) {
		s.Std = 1
	}
}

func (s *Scaler) transform(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return (v - s.Mean) / s.Std
}

// Preprocessor is the fitted transform applied before the estimator:
// one-hot encoded town/flat_type/flat_model followed by the five scaled
// numeric fields.
type Preprocessor struct {
	Towns      OneHot
	FlatTypes  OneHot
	FlatModels OneHot

	Area   Scaler
	Lease  Scaler
	Storey Scaler
	Year   Scaler
	Month  Scaler
}

// Fit learns categorical levels and numeric statistics from the data.
func (p *Preprocessor) Fit(data []Instance) {
	towns := make([]string, len(data))
	flatTypes := make([]string, len(data))
	flatModels := make([]string, len(data))
	area := make([]float64, len(data))
	lease := make([]float64, len(data))
	storey := make([]float64, len(data))
	year := make([]float64, len(data))
	month := make([]float64, len(data))
	for i, in := range data {
		towns[i] = in.Town
		flatTypes[i] = in.FlatType
		flatModels[i] = in.FlatModel
		area[i] = in.FloorAreaSqm
		lease[i] = in.LeaseCommenceDate
		storey[i] = in.StoreyMid
		year[i] = in.Year
		month[i] = in.MonthNum
	}
	p.Towns.Fit(towns)
	p.FlatTypes.Fit(flatTypes)
	p.FlatModels.Fit(flatModels)
	p.Area.Fit(area)
	p.Lease.Fit(lease)
	p.Storey.Fit(storey)
	p.Year.Fit(year)
	p.Month.Fit(month)
}

// Width is the length of the transformed feature vector.
func (p *Preprocessor) Width() int {
	return len(p.Towns.Levels) + len(p.FlatTypes.Levels) + len(p.FlatModels.Levels) + 5
}

// Transform maps one instance to a dense feature vector.
func (p *Preprocessor) Transform(in Instance) []float64 {
	out := make([]float64, p.Width())
	off := 0
	p.Towns.transform(in.Town, out[off:])
	off += len(p.Towns.Levels)
	p.FlatTypes.transform(in.FlatType, out[off:])
	off += len(p.FlatTypes.Levels)
	p.FlatModels.transform(in.FlatModel, out[off:])
	off += len(p.FlatModels.Levels)

	out[off] = p.Area.transform(in.FloorAreaSqm)
	out[off+1] = p.Lease.transform(in.LeaseCommenceDate)
	out[off+2] = p.Storey.transform(in.StoreyMid)
	out[off+3] = p.Year.transform(in.Year)
	out[off+4] = p.Month.transform(in.MonthNum)
	return out
}
