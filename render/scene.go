package render

import (
	"fmt"
	"strconv"

	"github.com/local-minima-lab/arbor/tree"
)

/*
Scene is the drawn product of a render pass: the nodes and links a
Mode left visible at a step, positioned by the layout and carrying
their reveal factors and labels. A Scene is disposable and
recomputed on every step.
*/
type Scene struct {
	// Mode names the strategy that produced the scene.
	Mode string
	// Step is the playback step the scene was composed at.
	Step float64
	// Width and Height bound the positioned content, margins included.
	Width, Height float64
	// Nodes holds the visible nodes, parents before children.
	Nodes []SceneNode
	// Links holds the visible links, in the order their child
	// nodes were visited.
	Links []SceneLink
}

/*
SceneNode is a positioned, styled node of the scene.
*/
type SceneNode struct {
	// Path addresses the node in the source tree.
	Path tree.Path
	// X and Y are the node center.
	X, Y float64
	// Label is the node caption: the tested feature for splits,
	// the predicted class for leaves.
	Label string
	// Reveal is the animation factor in [0,1].
	Reveal float64
	// Interactive marks nodes that accept editing clicks.
	Interactive bool
	// IsLeaf distinguishes leaves from splits.
	IsLeaf bool
	// Terminal marks leaves the user forbade splitting further.
	Terminal bool
	// OnPath and Current mirror the prediction-path flags.
	OnPath  bool
	Current bool
}

/*
SceneLink is a positioned parent-child link with an elbow route
from the parent's bottom to the child's top and a comparison label
at the route midpoint, offset toward the child's side. The
operator is derived from the side the link leads to, so it stays
consistent when thresholds are edited.
*/
type SceneLink struct {
	// FromX, FromY, ToX, ToY are the route endpoints.
	FromX, FromY, ToX, ToY float64
	// PointsX and PointsY trace the elbow route, endpoints included.
	PointsX, PointsY []float64
	// Label is the comparison shown on the link ("≤ 2.45" or "> 2.45").
	Label string
	// LabelX and LabelY position the label.
	LabelX, LabelY float64
	// Reveal is the animation factor in [0,1]. In prediction mode
	// it carries the path highlight.
	Reveal float64
	// OnPath marks links along the highlighted prediction path.
	OnPath bool
}

/*
Compose runs a full render pass: it projects the tree, lets the
mode filter and style nodes and links at the given step, and
positions everything with the layout. Class names label the
leaves; a nil slice falls back to class indices.
*/
func Compose(root tree.Node, mode Mode, step float64, l Layout, classNames []string) *Scene {
	sc := &Scene{Mode: mode.Name(), Step: step}
	tn := Transform(root)
	if tn == nil {
		return sc
	}
	if pm, ok := mode.(*PredictionMode); ok {
		MarkPath(tn, pm.Path)
	}
	l.Position(tn)

	maxX, maxY := 0.0, 0.0
	tn.Walk(func(n *TransformedNode) {
		if !mode.NodeVisible(n, step) {
			return
		}
		sc.Nodes = append(sc.Nodes, SceneNode{
			Path:        n.Path,
			X:           n.X,
			Y:           n.Y,
			Label:       nodeLabel(n.Node, classNames),
			Reveal:      mode.NodeReveal(n, step),
			Interactive: mode.Interactive(n),
			IsLeaf:      isLeaf(n.Node),
			Terminal:    isTerminal(n.Node),
			OnPath:      n.IsOnPath,
			Current:     n.IsCurrentNode,
		})
		if n.X > maxX {
			maxX = n.X
		}
		if n.Y > maxY {
			maxY = n.Y
		}
		for i, c := range n.Children {
			if !mode.NodeVisible(c, step) || !mode.LinkVisible(n, c, step) {
				continue
			}
			sc.Links = append(sc.Links, composeLink(n, c, i == 0, mode.LinkReveal(n, c, step), l))
		}
	})
	sc.Width = maxX + 2*l.NodeRadius + 2*sceneMargin
	sc.Height = maxY + 2*l.NodeRadius + 2*sceneMargin
	return sc
}

const sceneMargin = 24

/*
composeLink routes an elbow from the parent's bottom to the
child's top: down to the midpoint between levels, across, then
down. The label sits at the route midpoint nudged toward the
child's side.
*/
func composeLink(parent, child *TransformedNode, leftSide bool, reveal float64, l Layout) SceneLink {
	fromX, fromY := parent.X, parent.Y+l.NodeRadius
	toX, toY := child.X, child.Y-l.NodeRadius
	midY := (fromY + toY) / 2

	label := "> "
	if leftSide {
		label = "≤ "
	}
	if s, ok := parent.Node.(*tree.Split); ok {
		label += strconv.FormatFloat(s.Threshold, 'g', -1, 64)
	}
	offset := 10.0
	if toX < fromX {
		offset = -offset
	}
	return SceneLink{
		FromX: fromX, FromY: fromY,
		ToX: toX, ToY: toY,
		PointsX: []float64{fromX, fromX, toX, toX},
		PointsY: []float64{fromY, midY, midY, toY},
		Label:   label,
		LabelX:  (fromX+toX)/2 + offset,
		LabelY:  midY - 4,
		Reveal:  reveal,
		OnPath:  parent.IsOnPath && child.IsOnPath,
	}
}

func nodeLabel(n tree.Node, classNames []string) string {
	if s, ok := n.(*tree.Split); ok {
		return s.Feature
	}
	i, p := tree.PredictedClass(n)
	if i < 0 {
		return "?"
	}
	name := strconv.Itoa(i)
	if i < len(classNames) {
		name = classNames[i]
	}
	return fmt.Sprintf("%s (%.0f%%)", name, p*100)
}

func isLeaf(n tree.Node) bool {
	_, ok := n.(*tree.Leaf)
	return ok
}

func isTerminal(n tree.Node) bool {
	l, ok := n.(*tree.Leaf)
	return ok && l.Terminal
}
