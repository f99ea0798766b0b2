package kmeans_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/kmeans"
)

func trainResponse() *client.KMeansTrainResponse {
	return &client.KMeansTrainResponse{
		Success:    true,
		DataPoints: [][]float64{{0, 0}, {1, 0}, {9, 9}, {10, 9}},
		Iterations: []client.KMeansIteration{
			{
				Iteration:      0,
				Assignments:    []int{0, 0, 1, 1},
				Centroids:      [][]float64{{0, 0}, {8, 8}},
				NewCentroids:   [][]float64{{0.5, 0}, {9.5, 9}},
				CentroidShifts: []float64{0.5, 1.8},
			},
			{
				Iteration:      1,
				Assignments:    []int{0, 0, 1, 1},
				Centroids:      [][]float64{{0.5, 0}, {9.5, 9}},
				NewCentroids:   [][]float64{{0.5, 0}, {9.5, 9}},
				CentroidShifts: []float64{0, 0},
				Converged:      true,
			},
		},
		TotalIterations: 2,
		Converged:       true,
	}
}

func TestFrameAtInterpolatesCentroids(t *testing.T) {
	p, err := kmeans.NewPlayback(trainResponse())
	require.NoError(t, err)
	require.Equal(t, 2, p.Steps())

	start := p.FrameAt(0)
	assert.Equal(t, 0, start.Iteration)
	assert.Equal(t, [][]float64{{0, 0}, {8, 8}}, start.Centroids)

	mid := p.FrameAt(0.5)
	assert.Equal(t, 0, mid.Iteration)
	assert.InDelta(t, 0.25, mid.Centroids[0][0], 1e-9)
	assert.InDelta(t, 8.75, mid.Centroids[1][0], 1e-9)
	assert.InDelta(t, 8.5, mid.Centroids[1][1], 1e-9)

	next := p.FrameAt(1)
	assert.Equal(t, 1, next.Iteration)
	assert.Equal(t, [][]float64{{0.5, 0}, {9.5, 9}}, next.Centroids)
}

func TestFrameAtClampsOutOfRangeSteps(t *testing.T) {
	p, err := kmeans.NewPlayback(trainResponse())
	require.NoError(t, err)

	before := p.FrameAt(-1)
	assert.Equal(t, 0, before.Iteration)
	assert.Equal(t, 0.0, before.Progress)

	after := p.FrameAt(10)
	assert.Equal(t, 1, after.Iteration)
	assert.Equal(t, 1.0, after.Progress)
	assert.True(t, after.Converged)
}

func TestFrameCarriesAssignments(t *testing.T) {
	p, err := kmeans.NewPlayback(trainResponse())
	require.NoError(t, err)

	f := p.FrameAt(0.3)
	assert.Equal(t, []int{0, 0, 1, 1}, f.Assignments)
	assert.False(t, f.Converged)
}

func TestPlaybackIsImmutable(t *testing.T) {
	res := trainResponse()
	p, err := kmeans.NewPlayback(res)
	require.NoError(t, err)

	// Mutations of the source response or of returned frames must
	// not leak into later frames.
	res.Iterations[0].Centroids[0][0] = 99
	f := p.FrameAt(0)
	f.Centroids[0][0] = 42
	f.Assignments[0] = 7

	fresh := p.FrameAt(0)
	assert.Equal(t, 0.0, fresh.Centroids[0][0])
	assert.Equal(t, 0, fresh.Assignments[0])

	points := p.Points()
	points[0][0] = 77
	assert.Equal(t, 0.0, p.Points()[0][0])
}

func TestNewPlaybackValidation(t *testing.T) {
	_, err := kmeans.NewPlayback(nil)
	assert.Error(t, err)

	_, err = kmeans.NewPlayback(&client.KMeansTrainResponse{})
	assert.Error(t, err, "no iterations")

	bad := trainResponse()
	bad.Iterations[0].Assignments = []int{0}
	_, err = kmeans.NewPlayback(bad)
	assert.Error(t, err, "assignment count mismatch")

	bad = trainResponse()
	bad.Iterations[1].NewCentroids = bad.Iterations[1].NewCentroids[:1]
	_, err = kmeans.NewPlayback(bad)
	assert.Error(t, err, "centroid count changed")
}
