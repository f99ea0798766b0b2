package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo/float"
)

const (
	linkColor      = "#94a3b8"
	highlightColor = "#f59e0b"
	splitFill      = "#3b82f6"
	leafFill       = "#10b981"
	terminalFill   = "#6b7280"
	labelColor     = "#334155"
)

/*
WriteSVG encodes a scene as an SVG document. Reveal factors map to
opacity for nodes and ordinary links; on a highlighted link the
reveal draws the highlight stroke over the base link. Interactive
nodes get a wider stroke so the editor affordance is visible in
static output too.
*/
func WriteSVG(w io.Writer, sc *Scene, l Layout) error {
	canvas := svg.New(w)
	canvas.Start(sc.Width, sc.Height)
	canvas.Gtransform(fmt.Sprintf("translate(%g,%g)", float64(sceneMargin)+l.NodeRadius, float64(sceneMargin)+l.NodeRadius))

	for _, link := range sc.Links {
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5;stroke-opacity:%.3f", linkColor, linkOpacity(sc, link))
		canvas.Polyline(link.PointsX, link.PointsY, style)
		if link.OnPath && link.Reveal > 0 {
			hl := fmt.Sprintf("fill:none;stroke:%s;stroke-width:3;stroke-opacity:%.3f", highlightColor, link.Reveal)
			canvas.Polyline(link.PointsX, link.PointsY, hl)
		}
		canvas.Text(link.LabelX, link.LabelY, link.Label,
			fmt.Sprintf("font-size:11px;fill:%s;fill-opacity:%.3f;text-anchor:middle", labelColor, linkOpacity(sc, link)))
	}
	for _, n := range sc.Nodes {
		fill := splitFill
		switch {
		case n.Terminal:
			fill = terminalFill
		case n.IsLeaf:
			fill = leafFill
		}
		style := fmt.Sprintf("fill:%s;fill-opacity:%.3f", fill, nodeOpacity(sc, n))
		if n.Interactive {
			style += ";stroke:#1e293b;stroke-width:2"
		}
		if n.Current {
			style += fmt.Sprintf(";stroke:%s;stroke-width:3", highlightColor)
		}
		canvas.Circle(n.X, n.Y, l.NodeRadius, style)
		canvas.Text(n.X, n.Y+l.NodeRadius+14, n.Label,
			fmt.Sprintf("font-size:12px;fill:%s;fill-opacity:%.3f;text-anchor:middle", labelColor, nodeOpacity(sc, n)))
	}

	canvas.Gend()
	canvas.End()
	return nil
}

/*
Prediction scenes animate the highlight, not node existence, so
everything off the highlight stays fully opaque there. Training
scenes fade nodes and links in with their reveal.
*/
func nodeOpacity(sc *Scene, n SceneNode) float64 {
	if sc.Mode == "prediction" || sc.Mode == "manual" {
		return 1
	}
	return n.Reveal
}

func linkOpacity(sc *Scene, link SceneLink) float64 {
	if sc.Mode == "prediction" || sc.Mode == "manual" {
		return 1
	}
	return link.Reveal
}
