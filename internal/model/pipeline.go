package model

import "fmt"

// Pipeline couples the preprocessing transform with a fitted estimator.
// It is the opaque trained artifact the trainer persists and the report
// and serving layers consume read-only.
type Pipeline struct {
	Kind Kind
	Pre  *Preprocessor
	Est  Estimator
}

// NewPipeline constructs an unfitted pipeline for the given estimator
// kind. Unknown kinds fail here, before any data is touched.
func NewPipeline(kind Kind, p Params) (*Pipeline, error) {
	est, err := NewEstimator(kind, p)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Kind: kind, Pre: &Preprocessor{}, Est: est}, nil
}

// Fit learns the preprocessing statistics and fits the estimator.
func (p *Pipeline) Fit(data []Instance, y []float64) error {
	if len(data) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(data) != len(y) {
		return fmt.Errorf("mismatched training set: %d rows, %d targets", len(data), len(y))
	}
	p.Pre.Fit(data)
	x := make([][]float64, len(data))
	for i, in := range data {
		x[i] = p.Pre.Transform(in)
	}
	return p.Est.Fit(x, y)
}

// Predict returns the predicted resale price for one instance.
func (p *Pipeline) Predict(in Instance) float64 {
	return p.Est.Predict(p.Pre.Transform(in))
}

// PredictBatch predicts a slice of instances.
func (p *Pipeline) PredictBatch(data []Instance) []float64 {
	out := make([]float64, len(data))
	for i, in := range data {
		out[i] = p.Predict(in)
	}
	return out
}
