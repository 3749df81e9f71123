package model

import (
	"math/rand"
	"sort"
)

// TreeNode is a node of a regression tree. Leaves have nil children and
// carry the mean target of their training rows.
type TreeNode struct {
	Feature   int
	Threshold float64
	Value     float64
	Left      *TreeNode
	Right     *TreeNode
}

// predict walks the tree for one feature vector.
func (n *TreeNode) predict(x []float64) float64 {
	for n.Left != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

const unlimitedDepth = 1 << 30

// treeBuilder grows a CART regression tree by greedy variance reduction.
type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
}

func (b *treeBuilder) build(idx []int, depth int) *TreeNode {
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	node := &TreeNode{Value: sum / float64(len(idx))}

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}

// bestSplit scans every feature for the threshold that maximizes the
// variance reduction. Returns ok=false when no split separates the rows.
func (b *treeBuilder) bestSplit(idx []int, total float64) (int, float64, bool) {
	n := len(idx)
	nFeatures := len(b.x[idx[0]])

	type pair struct{ v, y float64 }
	pairs := make([]pair, n)

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	// Baseline score: all rows in one node.
	base := total * total / float64(n)

	for f := 0; f < nFeatures; f++ {
		for k, i := range idx {
			pairs[k] = pair{v: b.x[i][f], y: b.y[i]}
		}
		sort.Slice(pairs, func(a, c int) bool { return pairs[a].v < pairs[c].v })
		if pairs[0].v == pairs[n-1].v {
			continue // constant feature
		}

		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			leftSum += pairs[k].y
			if pairs[k].v == pairs[k+1].v {
				continue // cannot split between equal values
			}
			nl := float64(k + 1)
			nr := float64(n - k - 1)
			if k+1 < b.minLeaf || n-k-1 < b.minLeaf {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/nl + rightSum*rightSum/nr - base
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (pairs[k].v + pairs[k+1].v) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// bootstrapSample draws n row indices with replacement.
func bootstrapSample(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}
