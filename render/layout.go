package render

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

/*
Layout holds the spacing rules used to position a transformed
tree. Vertical position is depth-proportional with a fixed height
per level. Horizontal position comes from a tidy layout that
separates sibling subtrees by SiblingGap and subtrees rooted at
different parents by the wider SubtreeGap, so cousins sit visibly
further apart than siblings.
*/
type Layout struct {
	// LevelHeight is the fixed vertical distance between depth levels.
	LevelHeight float64
	// SiblingGap is the minimum horizontal gap between direct siblings.
	SiblingGap float64
	// SubtreeGap is the minimum horizontal gap between nodes of
	// different subtrees. Kept at 3:2 over SiblingGap by default.
	SubtreeGap float64
	// NodeRadius is the radius nodes are drawn with, used when
	// routing links and sizing the scene margins.
	NodeRadius float64
}

/*
DefaultLayout returns the spacing the visualizations ship with:
non-sibling separation at 3:2 over sibling separation.
*/
func DefaultLayout() Layout {
	return Layout{
		LevelHeight: 90,
		SiblingGap:  48,
		SubtreeGap:  72,
		NodeRadius:  16,
	}
}

/*
Position assigns X and Y to every node of the hierarchy. Y is
Depth*LevelHeight; X comes from a bottom-up contour merge and is
normalized so the leftmost node sits at x=0. Positioning is
deterministic: the same tree and layout always produce the same
coordinates.
*/
func (l Layout) Position(root *TransformedNode) {
	if root == nil {
		return
	}
	l.place(root)
	minX := math.Inf(1)
	root.Walk(func(tn *TransformedNode) {
		tn.Y = float64(tn.Depth) * l.LevelHeight
		if tn.X < minX {
			minX = tn.X
		}
	})
	root.Walk(func(tn *TransformedNode) {
		tn.X -= minX
	})
}

/*
place positions the subtree in its own coordinate space and
returns its left and right contours: the outermost x at each level
below (and including) the subtree root.
*/
func (l Layout) place(tn *TransformedNode) (leftC, rightC []float64) {
	if len(tn.Children) != 2 {
		tn.X = 0
		return []float64{0}, []float64{0}
	}
	left, right := tn.Children[0], tn.Children[1]
	llc, lrc := l.place(left)
	rlc, rrc := l.place(right)

	// Push the right subtree far enough that every level clears the
	// left subtree's right contour. Direct children keep SiblingGap
	// between them; deeper levels hold nodes from different parents
	// and get the wider SubtreeGap.
	depth := len(lrc)
	if len(rlc) < depth {
		depth = len(rlc)
	}
	needed := make([]float64, depth)
	for i := 0; i < depth; i++ {
		gap := l.SubtreeGap
		if i == 0 {
			gap = l.SiblingGap
		}
		needed[i] = lrc[i] + gap - rlc[i]
	}
	shift := floats.Max(needed)
	right.Walk(func(n *TransformedNode) {
		n.X += shift
	})

	tn.X = (left.X + right.X) / 2
	leftC = mergeContours(tn.X, llc, shifted(rlc, shift), math.Min)
	rightC = mergeContours(tn.X, lrc, shifted(rrc, shift), math.Max)
	return leftC, rightC
}

func shifted(c []float64, by float64) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = v + by
	}
	return out
}

func mergeContours(rootX float64, a, b []float64, pick func(float64, float64) float64) []float64 {
	depth := len(a)
	if len(b) > depth {
		depth = len(b)
	}
	out := make([]float64, 0, depth+1)
	out = append(out, rootX)
	for i := 0; i < depth; i++ {
		switch {
		case i >= len(a):
			out = append(out, b[i])
		case i >= len(b):
			out = append(out, a[i])
		default:
			out = append(out, pick(a[i], b[i]))
		}
	}
	return out
}
