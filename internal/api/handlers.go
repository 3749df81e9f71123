package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sgdatalabs/btopricer/internal/model"
	"github.com/sgdatalabs/btopricer/internal/narrate"
	"github.com/sgdatalabs/btopricer/internal/report"
	"github.com/sgdatalabs/btopricer/internal/store"
	"github.com/sgdatalabs/btopricer/internal/train"
)

// defaultFlatTypes is used when a request names no flat types.
var defaultFlatTypes = []string{"3 ROOM", "4 ROOM"}

const (
	defaultLimit = 5
	maxLimit     = 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	metrics, err := train.LoadMetrics(s.cfg.Paths.MetricsPath)
	if err != nil {
		if errors.Is(err, model.ErrNotTrained) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

type predictRequest struct {
	Town              string  `json:"town"`
	FlatType          string  `json:"flat_type"`
	FloorAreaSqm      float64 `json:"floor_area_sqm"`
	StoreyMid         float64 `json:"storey_mid"`
	FlatModel         string  `json:"flat_model"`
	LeaseCommenceDate float64 `json:"lease_commence_date"`
	Year              float64 `json:"year"`
	MonthNum          float64 `json:"month_num"`
}

type predictBand struct {
	BTOPrice      float64 `json:"bto_price"`
	MonthlyIncome float64 `json:"monthly_income_required"`
}

type predictResponse struct {
	PredictedResalePrice float64                `json:"predicted_resale_price"`
	Bands                map[string]predictBand `json:"bands"`
	Narrative            string                 `json:"narrative"`
}

// handlePredict prices a single unit. Unlike the batch report path,
// the low/mid/high spread comes from scaling the discount rate by
// 1.1/1.0/0.9 rather than varying the floor level.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Town == "" || req.FlatType == "" {
		writeError(w, http.StatusBadRequest, "town and flat_type are required")
		return
	}
	if req.FloorAreaSqm <= 0 {
		writeError(w, http.StatusBadRequest, "floor_area_sqm must be a positive number")
		return
	}
	if req.StoreyMid <= 0 {
		writeError(w, http.StatusBadRequest, "storey_mid must be a positive number")
		return
	}
	if req.FlatModel == "" {
		req.FlatModel = "Improved"
	}
	if req.LeaseCommenceDate == 0 {
		req.LeaseCommenceDate = 1990
	}
	if req.Year == 0 {
		req.Year = 2023
	}
	if req.MonthNum == 0 {
		req.MonthNum = 6
	}

	pipe, err := model.Load(model.PipelinePath(s.cfg.Paths.ModelDir))
	if err != nil {
		if errors.Is(err, model.ErrNotTrained) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pred := pipe.Predict(model.Instance{
		Town:              req.Town,
		FlatType:          req.FlatType,
		FlatModel:         req.FlatModel,
		FloorAreaSqm:      req.FloorAreaSqm,
		LeaseCommenceDate: req.LeaseCommenceDate,
		StoreyMid:         req.StoreyMid,
		Year:              req.Year,
		MonthNum:          req.MonthNum,
	})

	discount := s.cfg.Training.DiscountRate
	bands := make(map[string]predictBand, 3)
	for label, mult := range map[string]float64{"low": 1.1, "mid": 1.0, "high": 0.9} {
		bto := pred * (1 - discount*mult)
		bands[label] = predictBand{BTOPrice: bto, MonthlyIncome: report.IncomeRequired(bto)}
	}

	narrative := s.explainer.Explain(r.Context(), req.Town, req.FlatType, narrate.Bands{
		Low:  bands["low"].BTOPrice,
		Mid:  bands["mid"].BTOPrice,
		High: bands["high"].BTOPrice,
	})

	writeJSON(w, http.StatusOK, predictResponse{
		PredictedResalePrice: pred,
		Bands:                bands,
		Narrative:            narrative,
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	flatTypes := q["flat_types"]
	if len(flatTypes) == 0 {
		flatTypes = defaultFlatTypes
	}

	st, err := store.OpenReadOnly(r.Context(), s.cfg.Paths)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = st.Close() }()

	towns, err := st.RecommendTowns(r.Context(), flatTypes, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if towns == nil {
		towns = []store.TownVolume{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"towns": towns})
}

type analysisRequest struct {
	Towns        []string `json:"towns"`
	FlatTypes    []string `json:"flat_types"`
	LowFloor     float64  `json:"low_floor"`
	MidFloor     float64  `json:"mid_floor"`
	HighFloor    float64  `json:"high_floor"`
	FloorAreaSqm float64  `json:"floor_area_sqm"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.FlatTypes) == 0 {
		req.FlatTypes = defaultFlatTypes
	}
	floors := report.Floors{Low: req.LowFloor, Mid: req.MidFloor, High: req.HighFloor}
	if floors == (report.Floors{}) {
		floors = report.DefaultFloors
	}

	results, err := s.generator.Analyze(
		r.Context(), req.Towns, req.FlatTypes, floors, defaultLimit, req.FloorAreaSqm)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleReportMD generates the Markdown report and returns it as a JSON
// string, taking the same parameters as the report CLI command.
func (s *Server) handleReportMD(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var towns []string
	if owns := strings.TrimSpace(q.Get("owns")); owns != "" {
		for _, t := range strings.Split(owns, ",") {
			if t = strings.TrimSpace(t); t != "" {
				towns = append(towns, t)
			}
		}
	}

	flatTypes := q["flat_types"]
	if len(flatTypes) == 0 {
		flatTypes = defaultFlatTypes
	}

	floors := report.DefaultFloors
	var parseErr error
	parseFloor := func(key string, dst *float64) {
		if raw := q.Get(key); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				parseErr = errors.New(key + " must be numeric")
				return
			}
			*dst = v
		}
	}
	parseFloor("low_floor", &floors.Low)
	parseFloor("mid_floor", &floors.Mid)
	parseFloor("high_floor", &floors.High)
	if parseErr != nil {
		writeError(w, http.StatusBadRequest, parseErr.Error())
		return
	}

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	md, err := s.generator.Generate(r.Context(), report.Options{
		Towns:     towns,
		FlatTypes: flatTypes,
		Floors:    floors,
		Limit:     limit,
	})
	if err != nil {
		if errors.Is(err, model.ErrNotTrained) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"markdown": md})
}
