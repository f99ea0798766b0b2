package render

/*
Mode is a rendering strategy over a shared layout. Implementations
decide per step which nodes and links are drawn, how far each one
is revealed, and whether a node accepts editing interaction.

Reveal factors are always in [0,1] and monotonically non-decreasing
as the step advances, reaching exactly 1 at or after the node's
threshold step.
*/
type Mode interface {
	// Name identifies the mode ("training", "prediction", "manual").
	Name() string
	// NodeVisible reports whether the node is drawn at the given step.
	NodeVisible(n *TransformedNode, step float64) bool
	// NodeReveal returns the reveal factor for the node at the given step.
	NodeReveal(n *TransformedNode, step float64) float64
	// LinkVisible reports whether the parent-child link is drawn.
	LinkVisible(parent, child *TransformedNode, step float64) bool
	// LinkReveal returns the reveal factor for the parent-child link.
	// In prediction mode this carries the path-highlight animation.
	LinkReveal(parent, child *TransformedNode, step float64) float64
	// Interactive reports whether the node accepts editing clicks.
	Interactive(n *TransformedNode) bool
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
