// Package model implements the regression pipeline used to predict resale
// prices: a preprocessing transform (one-hot encoding plus standard
// scaling) feeding a regression-tree ensemble, with gob persistence.
package model

import (
	"encoding/gob"
	"fmt"
)

// Estimator is a fitted or fittable regressor over dense feature vectors.
type Estimator interface {
	Fit(x [][]float64, y []float64) error
	Predict(x []float64) float64
}

// Kind tags a supported estimator.
type Kind string

// Supported estimator kinds.
const (
	KindRandomForest     Kind = "random_forest"
	KindGradientBoosting Kind = "gradient_boosting"
)

// Params holds estimator hyperparameters shared by all kinds.
type Params struct {
	NEstimators int
	MaxDepth    int // 0 means the kind's default (unlimited for forests)
	Seed        int64
}

// UnknownModelError reports an unsupported model kind along with the
// kinds that are available.
type UnknownModelError struct {
	Kind      Kind
	Supported []Kind
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unsupported model_type %q (supported: %v)", e.Kind, e.Supported)
}

// SupportedKinds lists the estimator kinds NewEstimator accepts.
func SupportedKinds() []Kind {
	return []Kind{KindRandomForest, KindGradientBoosting}
}

// NewEstimator constructs an unfitted estimator of the given kind.
// An unknown kind fails immediately so a bad configuration surfaces
// before any training work starts.
func NewEstimator(kind Kind, p Params) (Estimator, error) {
	switch kind {
	case KindRandomForest:
		return &RandomForest{NEstimators: p.NEstimators, MaxDepth: p.MaxDepth, Seed: p.Seed}, nil
	case KindGradientBoosting:
		return &GradientBoosting{NEstimators: p.NEstimators, MaxDepth: p.MaxDepth, Seed: p.Seed}, nil
	default:
		return nil, &UnknownModelError{Kind: kind, Supported: SupportedKinds()}
	}
}

func init() {
	// Concrete estimators travel through the Pipeline's interface field
	// during gob encoding.
	gob.Register(&RandomForest{})
	gob.Register(&GradientBoosting{})
}
