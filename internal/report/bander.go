// Package report computes BTO price bands from the trained model and
// renders them as Markdown reports.
package report

import (
	"math"

	"github.com/sgdatalabs/btopricer/internal/model"
	"github.com/sgdatalabs/btopricer/internal/store"
)

// Report-time query context is intentionally frozen rather than derived
// from the wall clock, so bands are reproducible across runs.
const (
	bandFlatModel = "Improved"
	bandLease     = 1990
	bandYear      = 2023
	bandMonth     = 6
)

// Floors holds the representative floor midpoint for each band.
type Floors struct {
	Low  float64
	Mid  float64
	High float64
}

// DefaultFloors are the standard low/mid/high floor levels.
var DefaultFloors = Floors{Low: 5, Mid: 12, High: 25}

// Band is one priced scenario for a town and flat type.
type Band struct {
	Town                 string  `json:"town"`
	FlatType             string  `json:"flat_type"`
	Label                string  `json:"band"`
	FloorMid             float64 `json:"floor_mid"`
	PredictedResalePrice float64 `json:"predicted_resale_price"`
	BTOPrice             float64 `json:"bto_price"`
	MonthlyIncome        float64 `json:"monthly_income_required"`
}

// DefaultArea is the fallback floor area when no historical median
// exists for a town and flat type.
func DefaultArea(flatType string) float64 {
	switch flatType {
	case "3 ROOM":
		return 65
	case "4 ROOM":
		return 95
	default:
		return 80
	}
}

// IncomeRequired converts a BTO price into the monthly household income
// needed to finance it over 5 years at a 30% affordability ratio.
func IncomeRequired(btoPrice float64) float64 {
	return btoPrice / (5 * 12 * 0.3)
}

// Bander turns (town, flat type, floor) queries into price bands using a
// loaded model, the configured discount rate and historical median areas.
type Bander struct {
	pipe     *model.Pipeline
	discount float64
	medians  map[store.AreaKey]float64
}

// NewBander wires a bander. medians may be nil, in which case every
// query falls back to the per-flat-type default area.
func NewBander(pipe *model.Pipeline, discount float64, medians map[store.AreaKey]float64) *Bander {
	return &Bander{pipe: pipe, discount: discount, medians: medians}
}

// area resolves the floor area for a query: an explicit positive
// override wins, then the historical median, then the flat-type default.
func (b *Bander) area(town, flatType string, override float64) float64 {
	if override > 0 {
		return override
	}
	if med, ok := b.medians[store.AreaKey{Town: town, FlatType: flatType}]; ok && !math.IsNaN(med) && med > 0 {
		return med
	}
	return DefaultArea(flatType)
}

// Bands prices the three floor scenarios for a town and flat type.
// areaOverride > 0 pins the floor area; otherwise it is resolved from
// historical medians.
func (b *Bander) Bands(town, flatType string, floors Floors, areaOverride float64) []Band {
	area := b.area(town, flatType, areaOverride)
	levels := []struct {
		label string
		floor float64
	}{
		{"low", floors.Low},
		{"mid", floors.Mid},
		{"high", floors.High},
	}

	out := make([]Band, 0, len(levels))
	for _, lv := range levels {
		pred := b.pipe.Predict(model.Instance{
			Town:              town,
			FlatType:          flatType,
			FlatModel:         bandFlatModel,
			FloorAreaSqm:      area,
			LeaseCommenceDate: bandLease,
			StoreyMid:         lv.floor,
			Year:              bandYear,
			MonthNum:          bandMonth,
		})
		bto := pred * (1 - b.discount)
		out = append(out, Band{
			Town:                 town,
			FlatType:             flatType,
			Label:                lv.label,
			FloorMid:             lv.floor,
			PredictedResalePrice: pred,
			BTOPrice:             bto,
			MonthlyIncome:        IncomeRequired(bto),
		})
	}
	return out
}
