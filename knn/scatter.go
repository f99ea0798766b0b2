package knn

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo/float"
	"gonum.org/v1/gonum/floats"
)

/*
ScatterScene is a two-feature projection of the training set with
the query point and its neighbor links. Coordinates are already
scaled to the canvas.
*/
type ScatterScene struct {
	Width, Height float64
	// Points holds every training point.
	Points []ScatterPoint
	// Query is the classified point.
	Query ScatterPoint
	// Links connect the query to its nearest neighbors, nearest
	// first, each with its playback reveal factor.
	Links []NeighborLink
	// XFeature and YFeature name the projected axes.
	XFeature, YFeature string
}

// ScatterPoint is one positioned point of the scatter.
type ScatterPoint struct {
	X, Y  float64
	Label string
}

// NeighborLink is one query-to-neighbor segment.
type NeighborLink struct {
	ToX, ToY float64
	Distance float64
	Reveal   float64
}

const scatterMargin = 32

/*
Scatter projects the training points and the query onto the two
chosen feature axes and scales everything to a canvas of the given
size. Neighbor links get their reveal factor for the given step.
*/
func (v *QueryVisualization) Scatter(points [][]float64, labels []string, featureNames []string, xFeature, yFeature int, step, width, height float64) (*ScatterScene, error) {
	if xFeature < 0 || yFeature < 0 {
		return nil, fmt.Errorf("building scatter: negative feature indexes %d,%d", xFeature, yFeature)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("building scatter: no training points")
	}
	for _, p := range points {
		if xFeature >= len(p) || yFeature >= len(p) {
			return nil, fmt.Errorf("building scatter: features %d,%d outside %d dimensions", xFeature, yFeature, len(p))
		}
	}
	if xFeature >= len(v.queryPoint) || yFeature >= len(v.queryPoint) {
		return nil, fmt.Errorf("building scatter: features %d,%d outside query's %d dimensions", xFeature, yFeature, len(v.queryPoint))
	}

	xs := make([]float64, 0, len(points)+1)
	ys := make([]float64, 0, len(points)+1)
	for _, p := range points {
		xs = append(xs, p[xFeature])
		ys = append(ys, p[yFeature])
	}
	xs = append(xs, v.queryPoint[xFeature])
	ys = append(ys, v.queryPoint[yFeature])

	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	scaleX := scaler(minX, maxX, scatterMargin, width-scatterMargin)
	// SVG y grows downward; flip so larger feature values plot higher.
	scaleY := scaler(minY, maxY, height-scatterMargin, scatterMargin)

	sc := &ScatterScene{Width: width, Height: height}
	if xFeature < len(featureNames) {
		sc.XFeature = featureNames[xFeature]
	}
	if yFeature < len(featureNames) {
		sc.YFeature = featureNames[yFeature]
	}
	for i, p := range points {
		sp := ScatterPoint{X: scaleX(p[xFeature]), Y: scaleY(p[yFeature])}
		if i < len(labels) {
			sp.Label = labels[i]
		}
		sc.Points = append(sc.Points, sp)
	}
	sc.Query = ScatterPoint{
		X:     scaleX(v.queryPoint[xFeature]),
		Y:     scaleY(v.queryPoint[yFeature]),
		Label: v.prediction,
	}
	for i, n := range v.neighbors {
		if n.Index >= len(points) {
			return nil, fmt.Errorf("building scatter: neighbor index %d outside training set", n.Index)
		}
		p := points[n.Index]
		sc.Links = append(sc.Links, NeighborLink{
			ToX:      scaleX(p[xFeature]),
			ToY:      scaleY(p[yFeature]),
			Distance: n.Distance,
			Reveal:   v.NeighborReveal(i, step),
		})
	}
	return sc, nil
}

func scaler(from, to, outFrom, outTo float64) func(float64) float64 {
	span := to - from
	return func(v float64) float64 {
		if span == 0 {
			return (outFrom + outTo) / 2
		}
		return outFrom + (v-from)/span*(outTo-outFrom)
	}
}

/*
WriteScatterSVG encodes a scatter scene as an SVG document.
Neighbor links use their reveal factor as stroke opacity.
*/
func WriteScatterSVG(w io.Writer, sc *ScatterScene) error {
	canvas := svg.New(w)
	canvas.Start(sc.Width, sc.Height)

	for _, link := range sc.Links {
		if link.Reveal <= 0 {
			continue
		}
		canvas.Line(sc.Query.X, sc.Query.Y, link.ToX, link.ToY,
			fmt.Sprintf("stroke:#f59e0b;stroke-width:1.5;stroke-opacity:%.3f", link.Reveal))
	}
	for _, p := range sc.Points {
		canvas.Circle(p.X, p.Y, 4, fmt.Sprintf("fill:%s", classColor(p.Label)))
	}
	canvas.Circle(sc.Query.X, sc.Query.Y, 6, "fill:#ef4444;stroke:#1e293b;stroke-width:2")
	if sc.XFeature != "" {
		canvas.Text(sc.Width/2, sc.Height-8, sc.XFeature, "font-size:11px;fill:#334155;text-anchor:middle")
	}
	if sc.YFeature != "" {
		canvas.Gtransform(fmt.Sprintf("translate(12,%g) rotate(-90)", sc.Height/2))
		canvas.Text(0, 0, sc.YFeature, "font-size:11px;fill:#334155;text-anchor:middle")
		canvas.Gend()
	}

	canvas.End()
	return nil
}

var classPalette = []string{"#3b82f6", "#10b981", "#8b5cf6", "#f59e0b", "#ec4899"}

func classColor(label string) string {
	if label == "" {
		return "#94a3b8"
	}
	h := 0
	for _, r := range label {
		h = h*31 + int(r)
	}
	if h < 0 {
		h = -h
	}
	return classPalette[h%len(classPalette)]
}
