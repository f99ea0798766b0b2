/*
Package knn builds the visualization of a k-nearest-neighbors
prediction: the query point, its nearest neighbors sorted by
distance, and a scatter projection where the neighbor links are
revealed progressively during playback.
*/
package knn

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/local-minima-lab/arbor/client"
)

/*
QueryVisualization describes one classified query point. It is
built once from a backend prediction response and immutable
thereafter: the constructor copies every slice it keeps, and
accessors return copies of the neighbor list.
*/
type QueryVisualization struct {
	queryPoint   []float64
	neighbors    []client.Neighbor
	prediction   string
	allDistances []float64
}

/*
NewQueryVisualization builds the visualization for the query at
queryIndex of a backend KNN prediction response. Neighbors are
sorted ascending by distance and truncated to k; ties keep the
backend's order. Distances reported per neighbor must agree with
the full distance table when both are present.
*/
func NewQueryVisualization(query []float64, res *client.KNNPredictResponse, queryIndex, k int) (*QueryVisualization, error) {
	if res == nil {
		return nil, fmt.Errorf("building knn visualization: nil response")
	}
	if queryIndex < 0 || queryIndex >= len(res.Predictions) {
		return nil, fmt.Errorf("building knn visualization: no prediction for query %d", queryIndex)
	}
	if k <= 0 {
		return nil, fmt.Errorf("building knn visualization: k must be positive, got %d", k)
	}

	var neighbors []client.Neighbor
	if queryIndex < len(res.NeighborsInfo) {
		neighbors = append(neighbors, res.NeighborsInfo[queryIndex]...)
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}

	var distances []float64
	if queryIndex < len(res.AllDistances) {
		distances = append(distances, res.AllDistances[queryIndex]...)
	}
	for _, n := range neighbors {
		if n.Index < 0 || (distances != nil && n.Index >= len(distances)) {
			return nil, fmt.Errorf("building knn visualization: neighbor index %d outside training set", n.Index)
		}
	}

	return &QueryVisualization{
		queryPoint:   append([]float64(nil), query...),
		neighbors:    neighbors,
		prediction:   res.Predictions[queryIndex],
		allDistances: distances,
	}, nil
}

// Prediction returns the predicted class label.
func (v *QueryVisualization) Prediction() string { return v.prediction }

// QueryPoint returns a copy of the query point coordinates.
func (v *QueryVisualization) QueryPoint() []float64 {
	return append([]float64(nil), v.queryPoint...)
}

/*
Neighbors returns a copy of the k nearest neighbors, ascending by
distance.
*/
func (v *QueryVisualization) Neighbors() []client.Neighbor {
	return append([]client.Neighbor(nil), v.neighbors...)
}

/*
AllDistances returns a copy of the query's distance to every
training point, aligned by training-set index.
*/
func (v *QueryVisualization) AllDistances() []float64 {
	return append([]float64(nil), v.allDistances...)
}

/*
NeighborReveal returns the [0,1] reveal factor of the i-th nearest
neighbor's link at the given playback step. Links appear one per
step, nearest first, and the factor never decreases as the step
advances.
*/
func (v *QueryVisualization) NeighborReveal(i int, step float64) float64 {
	r := step - float64(i)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

/*
Distance returns the Euclidean distance from the query point to
the given point. Dimensions must match.
*/
func (v *QueryVisualization) Distance(point []float64) (float64, error) {
	if len(point) != len(v.queryPoint) {
		return 0, fmt.Errorf("computing distance: point has %d dimensions, query has %d", len(point), len(v.queryPoint))
	}
	return floats.Distance(v.queryPoint, point, 2), nil
}
