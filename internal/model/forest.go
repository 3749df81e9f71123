package model

import (
	"fmt"
	"math/rand"
)

// RandomForest averages regression trees grown on bootstrap samples.
type RandomForest struct {
	NEstimators int
	MaxDepth    int // 0 means unlimited
	Seed        int64
	Trees       []*TreeNode
}

// Fit grows the forest. Trees are built sequentially with a deterministic
// per-tree seed so the same inputs always produce the same model.
func (f *RandomForest) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("invalid training set: %d rows, %d targets", len(x), len(y))
	}

	depth := f.MaxDepth
	if depth <= 0 {
		depth = unlimitedDepth
	}
	builder := &treeBuilder{x: x, y: y, maxDepth: depth, minLeaf: 1}

	f.Trees = make([]*TreeNode, f.NEstimators)
	for t := 0; t < f.NEstimators; t++ {
		rng := rand.New(rand.NewSource(f.Seed + int64(t)))
		idx := bootstrapSample(rng, len(x))
		f.Trees[t] = builder.build(idx, 0)
	}
	return nil
}

// Predict averages the per-tree predictions for one feature vector.
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range f.Trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(f.Trees))
}
