/*
Package render turns a classification tree into a positioned,
styled scene. A tree snapshot is first projected into a hierarchy
of TransformedNodes, a Mode then decides which nodes and links are
shown at a given playback step and how far each one is revealed,
and the layout assigns every visible node a position. The result
is a Scene that can be encoded to SVG.
*/
package render

import (
	"github.com/local-minima-lab/arbor/tree"
)

/*
TransformedNode is the presentation-layer projection of a tree
node. It is a derived, disposable view recomputed on every render
and never fed back into the tree model.
*/
type TransformedNode struct {
	// Node is the projected tree node.
	Node tree.Node
	// Path addresses the node from the root.
	Path tree.Path
	// Depth is the number of links between the node and the root.
	Depth int
	// IsOnPath marks nodes along the highlighted prediction path.
	IsOnPath bool
	// IsCurrentNode marks the deepest node of the highlighted path.
	IsCurrentNode bool
	// Children holds the projected children, left before right.
	// Empty for leaves.
	Children []*TransformedNode
	// X and Y are assigned by the layout step.
	X, Y float64
}

/*
Transform projects a tree into its presentation hierarchy,
assigning every node its path and depth. It returns nil for a nil
tree.
*/
func Transform(root tree.Node) *TransformedNode {
	return transform(root, nil, 0)
}

func transform(n tree.Node, p tree.Path, depth int) *TransformedNode {
	if n == nil {
		return nil
	}
	tn := &TransformedNode{Node: n, Path: p.Clone(), Depth: depth}
	if s, ok := n.(*tree.Split); ok {
		tn.Children = []*TransformedNode{
			transform(s.Left, append(p, tree.GoLeft), depth+1),
			transform(s.Right, append(p, tree.GoRight), depth+1),
		}
	}
	return tn
}

/*
Walk calls fn on the node and every node below it, parents before
children and left before right.
*/
func (tn *TransformedNode) Walk(fn func(*TransformedNode)) {
	if tn == nil {
		return
	}
	fn(tn)
	for _, c := range tn.Children {
		c.Walk(fn)
	}
}

/*
MarkPath flags the nodes along the given path as on-path and the
deepest reachable one as the current node, clearing both flags
everywhere else. A path that over-runs a leaf marks the nodes it
does reach.
*/
func MarkPath(root *TransformedNode, p tree.Path) {
	root.Walk(func(tn *TransformedNode) {
		tn.IsOnPath = false
		tn.IsCurrentNode = false
	})
	tn := root
	if tn == nil {
		return
	}
	tn.IsOnPath = true
	for _, d := range p {
		if len(tn.Children) != 2 {
			break
		}
		tn = tn.Children[d]
		tn.IsOnPath = true
	}
	tn.IsCurrentNode = true
}
