package tree

import (
	"fmt"
	"sort"
)

/*
Node is a node of a binary classification tree. It is implemented
by exactly two variants: *Leaf for terminal nodes carrying a
class-probability distribution, and *Split for internal nodes
carrying a feature/threshold test and two children.

A tree is a finite, rooted, strictly binary acyclic structure:
every Split has exactly two children and every node is reachable
by exactly one Path from the root.
*/
type Node interface {
	// NodeStats returns the statistics shared by both node variants.
	NodeStats() Stats
	node()
}

/*
Stats holds the statistics every node carries: the number of
samples that reached the node, the impurity of those samples
under the split criterion, the class-probability rows derived
from them, an optional histogram of the feature the node was
split on, and an optional mask with the dataset row indices
covered by the node.
*/
type Stats struct {
	// Samples is the number of dataset samples that reached the node.
	Samples int
	// Impurity of the samples at the node (gini or entropy).
	Impurity float64
	// Value holds one row per node with the per-class probabilities.
	Value [][]float64
	// Histogram describes the feature distribution at the node, when known.
	Histogram *Histogram
	// Mask lists the dataset row indices covered by the node, when known.
	// A nil mask on the root means the full dataset.
	Mask []int
}

/*
Leaf is a terminal node. A Leaf with Terminal set has been
explicitly marked as not eligible for further splitting.
*/
type Leaf struct {
	Stats
	Terminal bool
}

/*
Split is an internal node imposing a threshold test on a feature:
samples with a feature value less than or equal to Threshold go to
Left, the rest go to Right. Both children are always present and
exclusively owned by the split.
*/
type Split struct {
	Stats
	Feature   string
	Threshold float64
	Left      Node
	Right     Node
}

/*
Histogram describes the distribution of a feature's values at a
node, binned and counted per class. Field names follow the wire
shape served by the statistics backend.
*/
type Histogram struct {
	FeatureValues []float64        `json:"feature_values"`
	ClassLabels   []int            `json:"class_labels"`
	Bins          []float64        `json:"bins"`
	CountsByClass map[string][]int `json:"counts_by_class"`
	Threshold     *float64         `json:"threshold"`
	TotalSamples  int              `json:"total_samples"`
}

// NodeStats returns the statistics of the leaf.
func (l *Leaf) NodeStats() Stats { return l.Stats }

// NodeStats returns the statistics of the split.
func (s *Split) NodeStats() Stats { return s.Stats }

func (l *Leaf) node()  {}
func (s *Split) node() {}

/*
MaxDepth returns the number of levels below the given node: 0 for
a leaf, 1 for a split with two leaf children, and so on. A nil
node has depth 0.
*/
func MaxDepth(n Node) int {
	s, ok := n.(*Split)
	if !ok {
		return 0
	}
	l, r := MaxDepth(s.Left), MaxDepth(s.Right)
	if l > r {
		return l + 1
	}
	return r + 1
}

/*
CountNodes returns the total number of nodes in the subtree rooted
at the given node, the node itself included.
*/
func CountNodes(n Node) int {
	if n == nil {
		return 0
	}
	s, ok := n.(*Split)
	if !ok {
		return 1
	}
	return 1 + CountNodes(s.Left) + CountNodes(s.Right)
}

/*
Validate checks the structural invariants of the subtree rooted at
the given node: every split must have both children, and wherever a
split and both its children carry sample masks, the children masks
must partition the parent mask exactly, with no overlap and no
samples lost. It returns an error describing the first violation
found, or nil if the subtree is valid.
*/
func Validate(n Node) error {
	return validateAt(n, nil)
}

func validateAt(n Node, path Path) error {
	if n == nil {
		return fmt.Errorf("node at %v: missing node", path)
	}
	s, ok := n.(*Split)
	if !ok {
		return nil
	}
	if s.Left == nil || s.Right == nil {
		return fmt.Errorf("split at %v: missing child", path)
	}
	if s.Mask != nil {
		lm, rm := s.Left.NodeStats().Mask, s.Right.NodeStats().Mask
		if lm != nil && rm != nil {
			if err := checkPartition(s.Mask, lm, rm); err != nil {
				return fmt.Errorf("split at %v: %v", path, err)
			}
		}
	}
	if err := validateAt(s.Left, append(path, GoLeft)); err != nil {
		return err
	}
	return validateAt(s.Right, append(path, GoRight))
}

func checkPartition(parent, left, right []int) error {
	if len(left)+len(right) != len(parent) {
		return fmt.Errorf("children masks cover %d samples, parent has %d", len(left)+len(right), len(parent))
	}
	seen := make(map[int]bool, len(parent))
	for _, i := range parent {
		seen[i] = true
	}
	union := make(map[int]bool, len(parent))
	for _, m := range [][]int{left, right} {
		for _, i := range m {
			if !seen[i] {
				return fmt.Errorf("child mask holds sample %d not present in parent", i)
			}
			if union[i] {
				return fmt.Errorf("sample %d appears in both children masks", i)
			}
			union[i] = true
		}
	}
	return nil
}

/*
PredictedClass returns the index and probability of the most
probable class in the first value row of the given node. It
returns -1 and 0 when the node carries no value rows.
*/
func PredictedClass(n Node) (index int, prob float64) {
	index = -1
	st := n.NodeStats()
	if len(st.Value) == 0 || len(st.Value[0]) == 0 {
		return index, 0
	}
	for i, p := range st.Value[0] {
		if p > prob {
			index, prob = i, p
		}
	}
	if index < 0 {
		index = 0
	}
	return index, prob
}

/*
SortedMask returns a sorted copy of the mask of the given node, or
nil when the node carries no mask. Callers that need a
deterministic order over sample indices should use this rather
than the raw mask.
*/
func SortedMask(n Node) []int {
	m := n.NodeStats().Mask
	if m == nil {
		return nil
	}
	out := make([]int, len(m))
	copy(out, m)
	sort.Ints(out)
	return out
}
