package render

/*
TrainingMode reveals a trained tree level by level as the step
advances. A node becomes visible once the step reaches its depth,
appears partially revealed during that step, and is fully revealed
one step later. The root is always fully revealed. Nothing is
interactive while the reveal plays.
*/
type TrainingMode struct{}

// NewTrainingMode returns the training-reveal rendering strategy.
func NewTrainingMode() *TrainingMode { return &TrainingMode{} }

// Name implements Mode.
func (*TrainingMode) Name() string { return "training" }

// NodeVisible reports whether the step has reached the node's depth.
func (*TrainingMode) NodeVisible(n *TransformedNode, step float64) bool {
	return float64(n.Depth) <= step
}

/*
NodeReveal ramps from partial to full over the step after the
node's depth: a node at depth d is half revealed at step d and
fully revealed from step d+1 on.
*/
func (*TrainingMode) NodeReveal(n *TransformedNode, step float64) float64 {
	if n.Depth == 0 {
		return 1
	}
	return clamp01((step - float64(n.Depth) + 1) / 2)
}

// LinkVisible draws a link as soon as its child is visible.
func (m *TrainingMode) LinkVisible(parent, child *TransformedNode, step float64) bool {
	return m.NodeVisible(child, step)
}

// LinkReveal follows the child's reveal so link and child appear together.
func (m *TrainingMode) LinkReveal(parent, child *TransformedNode, step float64) float64 {
	return m.NodeReveal(child, step)
}

// Interactive implements Mode. Training reveals are read-only.
func (*TrainingMode) Interactive(n *TransformedNode) bool { return false }
