// Package train fits the resale-price regression pipeline from the
// feature table and persists the model artifact and its metrics.
package train

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sgdatalabs/btopricer/internal/config"
	"github.com/sgdatalabs/btopricer/internal/model"
	"github.com/sgdatalabs/btopricer/internal/store"
)

// Metrics is the evaluation record persisted next to the model.
type Metrics struct {
	Timestamp string  `json:"timestamp"`
	NTrain    int     `json:"n_train"`
	NTest     int     `json:"n_test"`
	MAE       float64 `json:"mae"`
	R2        float64 `json:"r2"`
}

// Trainer owns the model artifact lifecycle: it is the only component
// that creates or overwrites the persisted pipeline.
type Trainer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewTrainer creates a trainer. A nil logger discards output.
func NewTrainer(cfg *config.Config, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Trainer{cfg: cfg, logger: logger}
}

// Train loads the feature table, fits the configured estimator, evaluates
// it on a held-out split and persists both the pipeline and its metrics.
// Returns the model path and the metrics.
func (t *Trainer) Train(ctx context.Context) (string, *Metrics, error) {
	tc := t.cfg.Training
	if tc.Target != "resale_price" {
		return "", nil, fmt.Errorf("unsupported training target %q", tc.Target)
	}

	// Fail on a bad model_type before touching any data.
	pipe, err := model.NewPipeline(model.Kind(tc.ModelType), model.Params{
		NEstimators: tc.NEstimators,
		MaxDepth:    tc.MaxDepth,
		Seed:        tc.RandomState,
	})
	if err != nil {
		return "", nil, err
	}

	st, err := store.OpenReadOnly(ctx, t.cfg.Paths)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = st.Close() }()

	rows, err := st.FeatureRows(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(rows) < 2 {
		return "", nil, fmt.Errorf("feature table has %d rows, not enough to train", len(rows))
	}

	data := make([]model.Instance, len(rows))
	targets := make([]float64, len(rows))
	for i, r := range rows {
		data[i] = instanceFromRow(r)
		targets[i] = r.ResalePrice
	}

	trainIdx, testIdx := model.TrainTestSplit(len(data), tc.TestSize, tc.RandomState)
	trainX, trainY := subset(data, targets, trainIdx)
	testX, testY := subset(data, targets, testIdx)

	t.logger.Info("fitting model",
		"model_type", tc.ModelType, "n_train", len(trainX), "n_test", len(testX))
	if err := pipe.Fit(trainX, trainY); err != nil {
		return "", nil, fmt.Errorf("failed to fit model: %w", err)
	}

	preds := pipe.PredictBatch(testX)
	metrics := &Metrics{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		NTrain:    len(trainX),
		NTest:     len(testX),
		MAE:       model.MAE(preds, testY),
		R2:        model.R2(preds, testY),
	}

	modelPath := model.PipelinePath(t.cfg.Paths.ModelDir)
	if err := pipe.Save(modelPath); err != nil {
		return "", nil, err
	}
	if err := saveMetrics(metrics, t.cfg.Paths.MetricsPath); err != nil {
		return "", nil, err
	}

	t.logger.Info("model saved",
		"path", modelPath, "mae", metrics.MAE, "r2", metrics.R2)
	return modelPath, metrics, nil
}

// LoadMetrics reads the persisted metrics file. A missing file yields
// model.ErrNotTrained.
func LoadMetrics(path string) (*Metrics, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrNotTrained
		}
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	var m Metrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}
	return &m, nil
}

func saveMetrics(m *Metrics, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func instanceFromRow(r store.FeatureRow) model.Instance {
	return model.Instance{
		Town:              r.Town,
		FlatType:          r.FlatType,
		FlatModel:         r.FlatModel,
		FloorAreaSqm:      r.FloorAreaSqm,
		LeaseCommenceDate: r.LeaseCommenceDate,
		StoreyMid:         r.StoreyMid,
		Year:              float64(r.Year),
		MonthNum:          float64(r.MonthNum),
	}
}

func subset(data []model.Instance, y []float64, idx []int) ([]model.Instance, []float64) {
	outX := make([]model.Instance, len(idx))
	outY := make([]float64, len(idx))
	for k, i := range idx {
		outX[k] = data[i]
		outY[k] = y[i]
	}
	return outX, outY
}
