package model

import "fmt"

// Default shallow depth for boosted trees when the config leaves
// max_depth unset.
const defaultBoostDepth = 3

// GradientBoosting fits shallow regression trees to the residuals of the
// running prediction, shrunk by a fixed learning rate.
type GradientBoosting struct {
	NEstimators  int
	MaxDepth     int // 0 means defaultBoostDepth
	LearningRate float64
	Seed         int64
	Init         float64
	Trees        []*TreeNode
}

// Fit builds the additive model. The target mean seeds the prediction.
func (g *GradientBoosting) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("invalid training set: %d rows, %d targets", len(x), len(y))
	}

	if g.LearningRate <= 0 {
		g.LearningRate = 0.1
	}
	depth := g.MaxDepth
	if depth <= 0 {
		depth = defaultBoostDepth
	}

	sum := 0.0
	for _, v := range y {
		sum += v
	}
	g.Init = sum / float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.Init
	}
	residual := make([]float64, len(y))
	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}

	g.Trees = make([]*TreeNode, g.NEstimators)
	for t := 0; t < g.NEstimators; t++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		builder := &treeBuilder{x: x, y: residual, maxDepth: depth, minLeaf: 1}
		tree := builder.build(all, 0)
		g.Trees[t] = tree
		for i := range pred {
			pred[i] += g.LearningRate * tree.predict(x[i])
		}
	}
	return nil
}

// Predict evaluates the additive model for one feature vector.
func (g *GradientBoosting) Predict(x []float64) float64 {
	out := g.Init
	for _, tree := range g.Trees {
		out += g.LearningRate * tree.predict(x)
	}
	return out
}
