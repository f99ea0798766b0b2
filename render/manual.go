package render

import (
	"github.com/local-minima-lab/arbor/tree"
)

/*
ManualMode draws the whole tree with no animation and exposes the
editing affordances of the manual-build editor: splits and
non-terminal leaves are interactive, terminal leaves render as
plain leaves with no affordance.
*/
type ManualMode struct{}

// NewManualMode returns the manual-edit rendering strategy.
func NewManualMode() *ManualMode { return &ManualMode{} }

// Name implements Mode.
func (*ManualMode) Name() string { return "manual" }

// NodeVisible implements Mode. The whole tree is always drawn.
func (*ManualMode) NodeVisible(n *TransformedNode, step float64) bool { return true }

// NodeReveal implements Mode. There is no reveal animation.
func (*ManualMode) NodeReveal(n *TransformedNode, step float64) float64 { return 1 }

// LinkVisible implements Mode. Every link is always drawn.
func (*ManualMode) LinkVisible(parent, child *TransformedNode, step float64) bool {
	return true
}

// LinkReveal implements Mode. There is no reveal animation.
func (*ManualMode) LinkReveal(parent, child *TransformedNode, step float64) float64 {
	return 1
}

/*
Interactive reports whether the node can be selected for editing.
Splits can be re-split or collapsed; leaves can be split unless
explicitly marked terminal.
*/
func (*ManualMode) Interactive(n *TransformedNode) bool {
	if l, ok := n.Node.(*tree.Leaf); ok {
		return !l.Terminal
	}
	return true
}
