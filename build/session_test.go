package build_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local-minima-lab/arbor/build"
	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/tree"
)

type fakeBackend struct {
	featureStats func(context.Context, client.FeatureStatsRequest) (*client.FeatureStatsResponse, error)
	nodeStats    func(context.Context, client.NodeStatsRequest) (*client.NodeStatsResponse, error)
	evaluate     func(context.Context, tree.Node, *client.DatasetRef) (*client.Metrics, error)
}

func (f *fakeBackend) FeatureStats(ctx context.Context, req client.FeatureStatsRequest) (*client.FeatureStatsResponse, error) {
	if f.featureStats == nil {
		return &client.FeatureStatsResponse{}, nil
	}
	return f.featureStats(ctx, req)
}

func (f *fakeBackend) NodeStats(ctx context.Context, req client.NodeStatsRequest) (*client.NodeStatsResponse, error) {
	if f.nodeStats == nil {
		return &client.NodeStatsResponse{}, nil
	}
	return f.nodeStats(ctx, req)
}

func (f *fakeBackend) Evaluate(ctx context.Context, root tree.Node, ds *client.DatasetRef) (*client.Metrics, error) {
	if f.evaluate == nil {
		return &client.Metrics{}, nil
	}
	return f.evaluate(ctx, root, ds)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func rootLeaf() tree.Node {
	return &tree.Leaf{
		Stats: tree.Stats{
			Samples:  150,
			Impurity: 0.667,
			Value:    [][]float64{{0.33, 0.33, 0.34}},
		},
	}
}

func irisClassNames() []string { return []string{"setosa", "versicolor", "virginica"} }

// petalLengthBackend serves the stats of the canonical first iris
// split: petal_length at 2.5 separating setosa from the rest.
func petalLengthBackend() *fakeBackend {
	return &fakeBackend{
		featureStats: func(_ context.Context, req client.FeatureStatsRequest) (*client.FeatureStatsResponse, error) {
			return &client.FeatureStatsResponse{
				Feature: req.Feature,
				Thresholds: []client.ThresholdStats{
					{Threshold: 1.5, InformationGain: 0.3},
					{Threshold: 2.5, InformationGain: 0.9},
				},
				BestThreshold:      2.5,
				BestThresholdIndex: 1,
				FeatureRange:       []float64{1.0, 6.9},
				ClassNames:         irisClassNames(),
			}, nil
		},
		nodeStats: func(_ context.Context, req client.NodeStatsRequest) (*client.NodeStatsResponse, error) {
			left := make([]int, 50)
			right := make([]int, 100)
			for i := range left {
				left[i] = i
			}
			for i := range right {
				right[i] = 50 + i
			}
			return &client.NodeStatsResponse{
				Feature:   req.Feature,
				Threshold: req.Threshold,
				SplitStats: client.SplitStats{
					ParentStats: client.NodeStats{
						Samples: 150, Impurity: 0.667,
						ClassProbabilities: map[string]float64{"setosa": 0.33, "versicolor": 0.33, "virginica": 0.34},
					},
					LeftStats: client.NodeStats{
						Samples: 50, Impurity: 0,
						ClassProbabilities: map[string]float64{"setosa": 1},
					},
					RightStats: client.NodeStats{
						Samples: 100, Impurity: 0.5,
						ClassProbabilities: map[string]float64{"versicolor": 0.5, "virginica": 0.5},
					},
					InformationGain: 0.9,
				},
				LeftSamplesMask:  left,
				RightSamplesMask: right,
				ClassNames:       irisClassNames(),
			}, nil
		},
	}
}

func TestManualSplitScenario(t *testing.T) {
	backend := petalLengthBackend()
	backend.evaluate = func(context.Context, tree.Node, *client.DatasetRef) (*client.Metrics, error) {
		return &client.Metrics{Accuracy: 0.96}, nil
	}
	s := build.NewSession(rootLeaf(), backend, build.WithLogger(quietLogger()))
	ctx := context.Background()

	require.Equal(t, build.PhaseIdle, s.Phase())
	require.NoError(t, s.SelectNode(nil))
	require.Equal(t, build.PhaseFeatureSelection, s.Phase())

	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	require.Equal(t, build.PhaseThresholdReady, s.Phase())
	// The threshold defaults to the server's best candidate.
	assert.Equal(t, 2.5, s.Threshold())
	assert.True(t, s.CanSplit())

	require.NoError(t, s.UpdateThreshold(2.5))
	require.NoError(t, s.SplitNode(ctx))

	root, ok := s.Tree().(*tree.Split)
	require.True(t, ok)
	assert.Equal(t, "petal_length", root.Feature)
	assert.Equal(t, 2.5, root.Threshold)

	left := root.Left.NodeStats()
	right := root.Right.NodeStats()
	assert.Equal(t, 150, left.Samples+right.Samples)
	require.NoError(t, tree.Validate(root))

	// Terminal action clears the selection and refreshes metrics.
	assert.Equal(t, build.PhaseIdle, s.Phase())
	_, selected := s.Selection()
	assert.False(t, selected)
	require.NotNil(t, s.Metrics())
	assert.Equal(t, 0.96, s.Metrics().Accuracy)
}

func TestSplitChildrenMasksPartitionParent(t *testing.T) {
	s := build.NewSession(rootLeaf(), petalLengthBackend(), build.WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	require.NoError(t, s.SplitNode(ctx))

	root := s.Tree().(*tree.Split)
	lm := root.Left.NodeStats().Mask
	rm := root.Right.NodeStats().Mask
	require.Len(t, lm, 50)
	require.Len(t, rm, 100)
	seen := map[int]bool{}
	for _, i := range append(append([]int{}, lm...), rm...) {
		require.False(t, seen[i], "sample %d in both children", i)
		seen[i] = true
	}
}

func TestMarkAsLeafDiscardsSubtree(t *testing.T) {
	s := build.NewSession(rootLeaf(), petalLengthBackend(), build.WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	require.NoError(t, s.SplitNode(ctx))
	split := s.Tree().(*tree.Split)

	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.MarkAsLeaf(ctx))

	leaf, ok := s.Tree().(*tree.Leaf)
	require.True(t, ok)
	assert.True(t, leaf.Terminal)
	// The split's pre-existing statistics survive unchanged.
	assert.Equal(t, split.Samples, leaf.Samples)
	assert.Equal(t, split.Impurity, leaf.Impurity)
	assert.Equal(t, split.Value, leaf.Value)
	assert.Equal(t, build.PhaseIdle, s.Phase())
}

func TestSelectNodeValidation(t *testing.T) {
	s := build.NewSession(rootLeaf(), &fakeBackend{}, build.WithLogger(quietLogger()))

	err := s.SelectNode(tree.Path{tree.GoLeft})
	require.ErrorIs(t, err, build.ErrNoSuchNode)
	assert.Equal(t, build.PhaseIdle, s.Phase())
}

func TestSelectionResetClearsCandidate(t *testing.T) {
	s := build.NewSession(rootLeaf(), petalLengthBackend(), build.WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	require.Equal(t, build.PhaseThresholdReady, s.Phase())

	// Re-selecting resets feature, threshold and stats.
	require.NoError(t, s.SelectNode(nil))
	assert.Equal(t, build.PhaseFeatureSelection, s.Phase())
	assert.Equal(t, "", s.Feature())
	assert.Equal(t, 0.0, s.Threshold())
	assert.Nil(t, s.FeatureStats())

	s.Deselect()
	assert.Equal(t, build.PhaseIdle, s.Phase())
}

func TestLoadFeatureStatsFailureLeavesStateUntouched(t *testing.T) {
	s := build.NewSession(rootLeaf(), &fakeBackend{
		featureStats: func(context.Context, client.FeatureStatsRequest) (*client.FeatureStatsResponse, error) {
			return nil, errors.New("backend down")
		},
	}, build.WithLogger(quietLogger()))

	require.NoError(t, s.SelectNode(nil))
	err := s.LoadFeatureStats(context.Background(), "petal_length")
	require.Error(t, err)

	assert.Equal(t, build.PhaseFeatureSelection, s.Phase())
	assert.Equal(t, "", s.Feature())
	assert.Nil(t, s.FeatureStats())
}

func TestSplitNodeFailureLeavesTreeUntouched(t *testing.T) {
	backend := petalLengthBackend()
	backend.nodeStats = func(context.Context, client.NodeStatsRequest) (*client.NodeStatsResponse, error) {
		return nil, errors.New("backend down")
	}
	s := build.NewSession(rootLeaf(), backend, build.WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	err := s.SplitNode(ctx)
	require.Error(t, err)

	_, isLeaf := s.Tree().(*tree.Leaf)
	assert.True(t, isLeaf, "tree must stay in its last-good state")
}

func TestStaleFeatureStatsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := build.NewSession(rootLeaf(), &fakeBackend{
		featureStats: func(context.Context, client.FeatureStatsRequest) (*client.FeatureStatsResponse, error) {
			close(started)
			<-release
			return &client.FeatureStatsResponse{Feature: "petal_length", BestThreshold: 2.5}, nil
		},
	}, build.WithLogger(quietLogger()))

	require.NoError(t, s.SelectNode(nil))

	done := make(chan error, 1)
	go func() {
		done <- s.LoadFeatureStats(context.Background(), "petal_length")
	}()
	<-started

	// The user deselects while the request is in flight; the late
	// response must be discarded, not applied.
	s.Deselect()
	close(release)

	err := <-done
	require.ErrorIs(t, err, build.ErrStaleResponse)
	assert.Equal(t, build.PhaseIdle, s.Phase())
	assert.Nil(t, s.FeatureStats())
}

func TestCanSplit(t *testing.T) {
	backend := petalLengthBackend()
	s := build.NewSession(rootLeaf(), backend, build.WithLogger(quietLogger()))
	ctx := context.Background()

	assert.False(t, s.CanSplit(), "idle session cannot split")

	require.NoError(t, s.SelectNode(nil))
	assert.False(t, s.CanSplit(), "no feature chosen yet")

	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	assert.True(t, s.CanSplit())

	// After splitting, the root is a Split: preparing another split
	// of it is possible, but CanSplit stays false for non-leaves.
	require.NoError(t, s.SplitNode(ctx))
	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	assert.False(t, s.CanSplit())
}

func TestTerminalLeafRejectsFeatureStats(t *testing.T) {
	s := build.NewSession(&tree.Leaf{
		Stats:    tree.Stats{Samples: 10, Value: [][]float64{{1, 0}}},
		Terminal: true,
	}, &fakeBackend{}, build.WithLogger(quietLogger()))

	require.NoError(t, s.SelectNode(nil))
	err := s.LoadFeatureStats(context.Background(), "petal_length")
	require.ErrorIs(t, err, build.ErrTerminalLeaf)
}

func TestUpdateThresholdRequiresStats(t *testing.T) {
	s := build.NewSession(rootLeaf(), &fakeBackend{}, build.WithLogger(quietLogger()))
	require.ErrorIs(t, s.UpdateThreshold(2.5), build.ErrNotReady)

	require.NoError(t, s.SelectNode(nil))
	require.ErrorIs(t, s.UpdateThreshold(2.5), build.ErrNotReady)
}

func TestEvaluationFailureKeepsPreviousMetrics(t *testing.T) {
	evalCalls := 0
	backend := petalLengthBackend()
	backend.evaluate = func(context.Context, tree.Node, *client.DatasetRef) (*client.Metrics, error) {
		evalCalls++
		if evalCalls == 1 {
			return &client.Metrics{Accuracy: 0.5}, nil
		}
		return nil, errors.New("backend down")
	}
	s := build.NewSession(rootLeaf(), backend, build.WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	require.NoError(t, s.SplitNode(ctx))
	require.NotNil(t, s.Metrics())
	assert.Equal(t, 0.5, s.Metrics().Accuracy)

	// The second mutation's evaluation fails: the split itself
	// succeeds and the previous metrics survive.
	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.MarkAsLeaf(ctx))
	require.NotNil(t, s.Metrics())
	assert.Equal(t, 0.5, s.Metrics().Accuracy)
}

func TestSplitRequestScopedToNodeMask(t *testing.T) {
	var gotMasks [][]int
	backend := petalLengthBackend()
	inner := backend.featureStats
	backend.featureStats = func(ctx context.Context, req client.FeatureStatsRequest) (*client.FeatureStatsResponse, error) {
		gotMasks = append(gotMasks, req.ParentSamplesMask)
		return inner(ctx, req)
	}
	s := build.NewSession(rootLeaf(), backend, build.WithLogger(quietLogger()))
	ctx := context.Background()

	// Root carries no mask: the request is scoped to the full dataset.
	require.NoError(t, s.SelectNode(nil))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_length"))
	require.NoError(t, s.SplitNode(ctx))
	require.Nil(t, gotMasks[0])

	// A child node's request carries the child's mask.
	require.NoError(t, s.SelectNode(tree.Path{tree.GoLeft}))
	require.NoError(t, s.LoadFeatureStats(ctx, "petal_width"))
	require.Len(t, gotMasks[1], 50)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", build.PhaseIdle.String())
	assert.Equal(t, "feature-selection", build.PhaseFeatureSelection.String())
	assert.Equal(t, "threshold-ready", build.PhaseThresholdReady.String())
	assert.Equal(t, fmt.Sprintf("phase(%d)", 9), build.Phase(9).String())
}
