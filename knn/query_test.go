package knn_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/knn"
)

func predictResponse() *client.KNNPredictResponse {
	return &client.KNNPredictResponse{
		Success:     true,
		Predictions: []string{"versicolor"},
		NeighborsInfo: [][]client.Neighbor{{
			{Index: 2, Distance: 0.9, Label: "virginica"},
			{Index: 0, Distance: 0.2, Label: "versicolor"},
			{Index: 1, Distance: 0.5, Label: "versicolor"},
			{Index: 3, Distance: 1.4, Label: "setosa"},
		}},
		TrainingPoints: [][]float64{{4.9, 1.4}, {4.5, 1.3}, {5.6, 2.1}, {1.5, 0.2}},
		TrainingLabels: []string{"versicolor", "versicolor", "virginica", "setosa"},
		AllDistances:   [][]float64{{0.2, 0.5, 0.9, 1.4}},
		FeatureNames:   []string{"petal_length", "petal_width"},
	}
}

func TestNewQueryVisualizationSortsAndTruncatesNeighbors(t *testing.T) {
	v, err := knn.NewQueryVisualization([]float64{4.8, 1.5}, predictResponse(), 0, 3)
	require.NoError(t, err)

	neighbors := v.Neighbors()
	require.Len(t, neighbors, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{neighbors[0].Index, neighbors[1].Index, neighbors[2].Index})
	for i := 1; i < len(neighbors); i++ {
		assert.GreaterOrEqual(t, neighbors[i].Distance, neighbors[i-1].Distance)
	}
	assert.Equal(t, "versicolor", v.Prediction())
	assert.Equal(t, []float64{0.2, 0.5, 0.9, 1.4}, v.AllDistances())
}

func TestQueryVisualizationIsImmutable(t *testing.T) {
	query := []float64{4.8, 1.5}
	v, err := knn.NewQueryVisualization(query, predictResponse(), 0, 2)
	require.NoError(t, err)

	// Mutating the caller's slice, or anything an accessor returned,
	// must not show up in later reads.
	query[0] = -1
	v.Neighbors()[0].Distance = 99
	v.AllDistances()[0] = 99
	v.QueryPoint()[0] = 99

	assert.Equal(t, []float64{4.8, 1.5}, v.QueryPoint())
	assert.Equal(t, 0.2, v.Neighbors()[0].Distance)
	assert.Equal(t, 0.2, v.AllDistances()[0])
}

func TestNewQueryVisualizationValidation(t *testing.T) {
	res := predictResponse()

	_, err := knn.NewQueryVisualization(nil, nil, 0, 3)
	assert.Error(t, err)
	_, err = knn.NewQueryVisualization(nil, res, 1, 3)
	assert.Error(t, err, "no prediction for query index 1")
	_, err = knn.NewQueryVisualization(nil, res, 0, 0)
	assert.Error(t, err, "k must be positive")

	bad := predictResponse()
	bad.NeighborsInfo[0][0].Index = 40
	_, err = knn.NewQueryVisualization(nil, bad, 0, 3)
	assert.Error(t, err, "neighbor index outside training set")
}

func TestNeighborReveal(t *testing.T) {
	v, err := knn.NewQueryVisualization([]float64{4.8, 1.5}, predictResponse(), 0, 3)
	require.NoError(t, err)

	assert.Equal(t, 0.0, v.NeighborReveal(0, 0))
	assert.Equal(t, 0.5, v.NeighborReveal(0, 0.5))
	assert.Equal(t, 1.0, v.NeighborReveal(0, 1))
	assert.Equal(t, 0.0, v.NeighborReveal(2, 1.5))
	assert.Equal(t, 1.0, v.NeighborReveal(2, 3))

	// Monotone in the step for every neighbor.
	for i := 0; i < 3; i++ {
		prev := -1.0
		for step := 0.0; step <= 4; step += 0.25 {
			r := v.NeighborReveal(i, step)
			require.GreaterOrEqual(t, r, 0.0)
			require.LessOrEqual(t, r, 1.0)
			require.GreaterOrEqual(t, r, prev)
			prev = r
		}
	}
}

func TestDistance(t *testing.T) {
	v, err := knn.NewQueryVisualization([]float64{3, 4}, predictResponse(), 0, 3)
	require.NoError(t, err)

	d, err := v.Distance([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	_, err = v.Distance([]float64{1})
	assert.Error(t, err)
}

func TestScatterScalesPointsAndLinks(t *testing.T) {
	res := predictResponse()
	v, err := knn.NewQueryVisualization([]float64{4.8, 1.5}, res, 0, 2)
	require.NoError(t, err)

	sc, err := v.Scatter(res.TrainingPoints, res.TrainingLabels, res.FeatureNames, 0, 1, 3, 400, 300)
	require.NoError(t, err)

	assert.Len(t, sc.Points, 4)
	assert.Len(t, sc.Links, 2)
	assert.Equal(t, "petal_length", sc.XFeature)
	assert.Equal(t, "petal_width", sc.YFeature)
	for _, p := range sc.Points {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 400.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 300.0)
	}
	for _, l := range sc.Links {
		assert.Equal(t, 1.0, l.Reveal, "step 3 fully reveals both links")
	}
}

func TestScatterRejectsBadFeatureIndexes(t *testing.T) {
	res := predictResponse()
	v, err := knn.NewQueryVisualization([]float64{4.8, 1.5}, res, 0, 2)
	require.NoError(t, err)

	_, err = v.Scatter(res.TrainingPoints, res.TrainingLabels, res.FeatureNames, 0, 7, 0, 400, 300)
	assert.Error(t, err)

	_, err = v.Scatter(res.TrainingPoints, res.TrainingLabels, res.FeatureNames, -1, 1, 0, 400, 300)
	assert.Error(t, err, "negative x feature index must be rejected, not panic")

	_, err = v.Scatter(res.TrainingPoints, res.TrainingLabels, res.FeatureNames, 0, -2, 0, 400, 300)
	assert.Error(t, err, "negative y feature index must be rejected, not panic")
}

func TestWriteScatterSVG(t *testing.T) {
	res := predictResponse()
	v, err := knn.NewQueryVisualization([]float64{4.8, 1.5}, res, 0, 2)
	require.NoError(t, err)
	sc, err := v.Scatter(res.TrainingPoints, res.TrainingLabels, res.FeatureNames, 0, 1, 3, 400, 300)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, knn.WriteScatterSVG(&buf, sc))
	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "</svg>")
	assert.Equal(t, 5, strings.Count(out, "<circle"), "four training points plus the query")
	assert.Equal(t, 2, strings.Count(out, "<line"), "one fully revealed link per neighbor")
	assert.Contains(t, out, "petal_length", "x axis labeled")
	assert.Contains(t, out, "petal_width", "y axis labeled")
	assert.Contains(t, out, "rotate(-90)", "y axis label rotated at the left margin")
}
