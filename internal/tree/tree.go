// Package tree implements a small CART decision-tree classifier over dense
// numeric features. Both the recipe and the expiry models are built on it.
//
// Splits minimise Gini impurity. Class order is the order in which labels
// first appear in the training set, and every tie (between candidate splits
// or between classes in a leaf) resolves to the earliest candidate, so a
// fixed seed always yields the same tree.
package tree

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand"
	"slices"
)

var (
	ErrNoSamples  = errors.New("no training samples")
	ErrRaggedRows = errors.New("inconsistent training rows")
)

// WidthError reports a feature vector whose length differs from the width
// the classifier was trained on.
type WidthError struct {
	Want int
	Got  int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("feature width %d does not match trained width %d", e.Got, e.Want)
}

// Params bounds tree growth. A MaxDepth of zero or less means unbounded.
type Params struct {
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

// minGain is the smallest impurity decrease accepted as a real split.
const minGain = 1e-12

type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	counts []int
	total  int
}

func (n *node) leaf() bool { return n.left == nil }

// Classifier is an immutable fitted tree. It is safe for concurrent use.
type Classifier struct {
	root    *node
	classes []string
	width   int
}

// Fit grows a tree from the rows of X and their labels y.
func Fit(X [][]float64, y []string, p Params) (*Classifier, error) {
	if len(X) == 0 {
		return nil, ErrNoSamples
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrRaggedRows, len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrRaggedRows, i, len(row), width)
		}
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}

	var classes []string
	classIndex := make(map[string]int)
	labels := make([]int, len(y))
	for i, label := range y {
		c, ok := classIndex[label]
		if !ok {
			c = len(classes)
			classIndex[label] = c
			classes = append(classes, label)
		}
		labels[i] = c
	}

	b := &builder{
		x:        X,
		y:        labels,
		nClasses: len(classes),
		width:    width,
		params:   p,
		rng:      rand.New(rand.NewSource(p.Seed)), //nolint:gosec // split ordering only
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}

	return &Classifier{
		root:    b.grow(idx, 0),
		classes: classes,
		width:   width,
	}, nil
}

type builder struct {
	x        [][]float64
	y        []int
	nClasses int
	width    int
	params   Params
	rng      *rand.Rand
}

func (b *builder) grow(idx []int, depth int) *node {
	n := &node{counts: b.count(idx), total: len(idx)}

	if pure(n.counts) ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) ||
		len(idx) < b.params.MinSamplesSplit {
		return n
	}

	feature, threshold, ok := b.bestSplit(idx, n.counts)
	if !ok {
		return n
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	n.feature = feature
	n.threshold = threshold
	n.left = b.grow(left, depth+1)
	n.right = b.grow(right, depth+1)
	return n
}

func (b *builder) count(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

// bestSplit scans features in a seeded random order and keeps the first
// candidate with the strictly highest Gini gain.
func (b *builder) bestSplit(idx []int, parent []int) (int, float64, bool) {
	total := len(idx)
	parentImpurity := gini(parent, total)

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := minGain

	sorted := make([]int, total)
	leftCounts := make([]int, b.nClasses)
	rightCounts := make([]int, b.nClasses)

	for _, f := range b.rng.Perm(b.width) {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.x[a][f], b.x[c][f])
		})

		clear(leftCounts)
		copy(rightCounts, parent)

		for k := 0; k < total-1; k++ {
			c := b.y[sorted[k]]
			leftCounts[c]++
			rightCounts[c]--

			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}

			nl, nr := k+1, total-k-1
			weighted := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(total)
			if gain := parentImpurity - weighted; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		sum += p * p
	}
	return 1 - sum
}

func pure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// Width is the feature vector length the classifier expects.
func (c *Classifier) Width() int { return c.width }

// Classes returns the labels in first-seen training order.
func (c *Classifier) Classes() []string { return slices.Clone(c.classes) }

// PredictProba returns the class distribution of the leaf x falls into,
// aligned with Classes.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	if len(x) != c.width {
		return nil, &WidthError{Want: c.width, Got: len(x)}
	}
	n := c.root
	for !n.leaf() {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	probs := make([]float64, len(c.classes))
	for i, cnt := range n.counts {
		probs[i] = float64(cnt) / float64(n.total)
	}
	return probs, nil
}

// Predict returns the most probable label and its probability. Ties go to
// the class seen first during training.
func (c *Classifier) Predict(x []float64) (string, float64, error) {
	probs, err := c.PredictProba(x)
	if err != nil {
		return "", 0, err
	}
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return c.classes[best], probs[best], nil
}

// Accuracy is the fraction of rows in X whose prediction equals y.
func (c *Classifier) Accuracy(X [][]float64, y []string) (float64, error) {
	if len(X) == 0 {
		return 0, ErrNoSamples
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d labels", ErrRaggedRows, len(X), len(y))
	}
	hits := 0
	for i, row := range X {
		label, _, err := c.Predict(row)
		if err != nil {
			return 0, err
		}
		if label == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(X)), nil
}

// Depth is the length of the longest root-to-leaf path.
func (c *Classifier) Depth() int { return depth(c.root) }

func depth(n *node) int {
	if n.leaf() {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

// Leaves counts the terminal nodes.
func (c *Classifier) Leaves() int { return leaves(c.root) }

func leaves(n *node) int {
	if n.leaf() {
		return 1
	}
	return leaves(n.left) + leaves(n.right)
}
