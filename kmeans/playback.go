/*
Package kmeans plays back the iteration history of a k-means run:
each step shows the assignments of one iteration with the
centroids moving continuously from their start positions to the
recomputed ones as the step's fractional part advances.
*/
package kmeans

import (
	"fmt"

	"github.com/local-minima-lab/arbor/client"
)

/*
Playback holds an immutable copy of a k-means run. Frames are
derived views: FrameAt never mutates the playback and always
returns freshly built slices.
*/
type Playback struct {
	points     [][]float64
	iterations []client.KMeansIteration
	converged  bool
}

/*
Frame is the state of the run at one playback step: the active
iteration, every point's cluster assignment, and the centroid
positions interpolated within the iteration.
*/
type Frame struct {
	// Iteration is the index of the active iteration.
	Iteration int
	// Assignments maps every data point to its cluster.
	Assignments []int
	// Centroids holds the interpolated centroid positions.
	Centroids [][]float64
	// Progress is the [0,1] position within the iteration.
	Progress float64
	// Converged is set on the final frame of a converged run.
	Converged bool
}

/*
NewPlayback builds a playback from a backend k-means training
response. The response must carry at least one iteration, and
every iteration must assign every data point.
*/
func NewPlayback(res *client.KMeansTrainResponse) (*Playback, error) {
	if res == nil || len(res.Iterations) == 0 {
		return nil, fmt.Errorf("building kmeans playback: no iterations")
	}
	for _, it := range res.Iterations {
		if len(it.Assignments) != len(res.DataPoints) {
			return nil, fmt.Errorf("building kmeans playback: iteration %d assigns %d of %d points",
				it.Iteration, len(it.Assignments), len(res.DataPoints))
		}
		if len(it.Centroids) != len(it.NewCentroids) {
			return nil, fmt.Errorf("building kmeans playback: iteration %d centroid count changed", it.Iteration)
		}
	}
	p := &Playback{converged: res.Converged}
	for _, point := range res.DataPoints {
		p.points = append(p.points, append([]float64(nil), point...))
	}
	for _, it := range res.Iterations {
		p.iterations = append(p.iterations, copyIteration(it))
	}
	return p, nil
}

// Steps returns the number of playback steps, one per iteration.
func (p *Playback) Steps() int { return len(p.iterations) }

// Points returns a copy of the data points.
func (p *Playback) Points() [][]float64 {
	out := make([][]float64, len(p.points))
	for i, point := range p.points {
		out[i] = append([]float64(nil), point...)
	}
	return out
}

// Converged reports whether the run converged.
func (p *Playback) Converged() bool { return p.converged }

/*
FrameAt returns the frame for a continuous step. The integer part
selects the iteration and the fractional part moves the centroids
linearly from their start positions to the recomputed ones. Steps
before 0 clamp to the first frame, steps past the end to the final
one with the centroids fully moved.
*/
func (p *Playback) FrameAt(step float64) Frame {
	if step < 0 {
		step = 0
	}
	last := len(p.iterations) - 1
	idx := int(step)
	progress := step - float64(idx)
	if idx > last {
		idx = last
		progress = 1
	}
	it := p.iterations[idx]

	centroids := make([][]float64, len(it.Centroids))
	for i := range it.Centroids {
		centroids[i] = lerp(it.Centroids[i], it.NewCentroids[i], progress)
	}
	return Frame{
		Iteration:   idx,
		Assignments: append([]int(nil), it.Assignments...),
		Centroids:   centroids,
		Progress:    progress,
		Converged:   p.converged && idx == last && progress >= 1,
	}
}

func lerp(from, to []float64, t float64) []float64 {
	out := make([]float64, len(from))
	for i := range from {
		out[i] = from[i] + (to[i]-from[i])*t
	}
	return out
}

func copyIteration(it client.KMeansIteration) client.KMeansIteration {
	out := client.KMeansIteration{
		Iteration: it.Iteration,
		Converged: it.Converged,
	}
	out.Assignments = append([]int(nil), it.Assignments...)
	out.CentroidShifts = append([]float64(nil), it.CentroidShifts...)
	for _, c := range it.Centroids {
		out.Centroids = append(out.Centroids, append([]float64(nil), c...))
	}
	for _, c := range it.NewCentroids {
		out.NewCentroids = append(out.NewCentroids, append([]float64(nil), c...))
	}
	return out
}
