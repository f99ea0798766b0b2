package render

import (
	"github.com/local-minima-lab/arbor/tree"
)

/*
PredictionMode plays back a prediction over an already fully drawn
tree. Every node and link is always visible; the animation lives
in the highlight of the links along the prediction path, revealed
one level per step. Off-path links carry a zero reveal factor.
*/
type PredictionMode struct {
	// Path is the root-to-leaf sequence being played back.
	Path tree.Path
}

/*
NewPredictionMode returns the prediction-playback strategy for the
given path. The path is typically computed with
tree.PredictionPath from a query point or replayed from backend
instructions with tree.FollowInstructions.
*/
func NewPredictionMode(p tree.Path) *PredictionMode {
	return &PredictionMode{Path: p.Clone()}
}

// Name implements Mode.
func (*PredictionMode) Name() string { return "prediction" }

// NodeVisible implements Mode. The whole tree is always drawn.
func (*PredictionMode) NodeVisible(n *TransformedNode, step float64) bool { return true }

// NodeReveal implements Mode. Nodes are always fully drawn.
func (*PredictionMode) NodeReveal(n *TransformedNode, step float64) float64 { return 1 }

// LinkVisible implements Mode. Every link is always drawn.
func (*PredictionMode) LinkVisible(parent, child *TransformedNode, step float64) bool {
	return true
}

/*
LinkReveal returns the highlight reveal of the link. Links off the
prediction path stay at 0; the link into the path node at depth d
ramps from 0 at step d-1 to 1 at step d.
*/
func (*PredictionMode) LinkReveal(parent, child *TransformedNode, step float64) float64 {
	if !child.IsOnPath || !parent.IsOnPath {
		return 0
	}
	return clamp01(step - float64(child.Depth) + 1)
}

// Interactive implements Mode. Playback is read-only.
func (*PredictionMode) Interactive(n *TransformedNode) bool { return false }
