package tree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/local-minima-lab/arbor/tree"
)

// irisFixture builds a small three-class tree with sample masks:
//
//	[petal_length <= 2.45]
//	|__{ setosa }
//	|__[petal_width <= 1.75]
//	   |__{ versicolor }
//	   |__{ virginica }
func irisFixture() tree.Node {
	return &tree.Split{
		Stats: tree.Stats{
			Samples:  6,
			Impurity: 0.667,
			Value:    [][]float64{{0.333, 0.333, 0.334}},
			Mask:     []int{0, 1, 2, 3, 4, 5},
		},
		Feature:   "petal_length",
		Threshold: 2.45,
		Left: &tree.Leaf{
			Stats: tree.Stats{Samples: 2, Impurity: 0, Value: [][]float64{{1, 0, 0}}, Mask: []int{0, 1}},
		},
		Right: &tree.Split{
			Stats: tree.Stats{
				Samples:  4,
				Impurity: 0.5,
				Value:    [][]float64{{0, 0.5, 0.5}},
				Mask:     []int{2, 3, 4, 5},
			},
			Feature:   "petal_width",
			Threshold: 1.75,
			Left: &tree.Leaf{
				Stats: tree.Stats{Samples: 2, Impurity: 0, Value: [][]float64{{0, 1, 0}}, Mask: []int{2, 3}},
			},
			Right: &tree.Leaf{
				Stats: tree.Stats{Samples: 2, Impurity: 0, Value: [][]float64{{0, 0, 1}}, Mask: []int{4, 5}},
			},
		},
	}
}

func TestParsePath(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    tree.Path
		wantErr bool
	}{
		{"Empty", "", nil, false},
		{"Digits", "010", tree.Path{tree.GoLeft, tree.GoRight, tree.GoLeft}, false},
		{"Letters", "LRr", tree.Path{tree.GoLeft, tree.GoRight, tree.GoRight}, false},
		{"Separators", "0.1/0 1", tree.Path{tree.GoLeft, tree.GoRight, tree.GoLeft, tree.GoRight}, false},
		{"Garbage", "0x1", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tree.ParsePath(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equal(tc.want), "ParsePath(%q) = %v; want %v", tc.in, got, tc.want)
		})
	}
}

func TestAt(t *testing.T) {
	root := irisFixture()

	cases := []struct {
		name        string
		path        tree.Path
		wantOK      bool
		wantSamples int
	}{
		{"Root", nil, true, 6},
		{"Left", tree.Path{tree.GoLeft}, true, 2},
		{"RightLeft", tree.Path{tree.GoRight, tree.GoLeft}, true, 2},
		{"PastLeaf", tree.Path{tree.GoLeft, tree.GoLeft}, false, 0},
		{"WayPastLeaf", tree.Path{tree.GoRight, tree.GoRight, tree.GoLeft, tree.GoLeft}, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, ok := tree.At(root, tc.path)
			require.Equal(t, tc.wantOK, ok)
			if ok {
				require.Equal(t, tc.wantSamples, n.NodeStats().Samples)
			} else {
				require.Nil(t, n)
			}
		})
	}
}

func TestAtNilRoot(t *testing.T) {
	_, ok := tree.At(nil, nil)
	require.False(t, ok)
}

func TestReplaceAtReflectsUpdate(t *testing.T) {
	root := irisFixture()
	path := tree.Path{tree.GoRight, tree.GoLeft}
	repl := &tree.Leaf{
		Stats:    tree.Stats{Samples: 2, Impurity: 0, Value: [][]float64{{0, 1, 0}}, Mask: []int{2, 3}},
		Terminal: true,
	}

	updated := tree.ReplaceAt(root, path, repl)

	n, ok := tree.At(updated, path)
	require.True(t, ok)
	leaf, ok := n.(*tree.Leaf)
	require.True(t, ok)
	require.True(t, leaf.Terminal)
}

func TestReplaceAtDoesNotMutateInput(t *testing.T) {
	root := irisFixture()
	repl := &tree.Leaf{Stats: tree.Stats{Samples: 2, Value: [][]float64{{1, 0, 0}}}}

	tree.ReplaceAt(root, tree.Path{tree.GoRight, tree.GoRight}, repl)

	// The original tree must be deeply unchanged.
	require.Equal(t, irisFixture(), root)
}

func TestReplaceAtSharesUntouchedSiblings(t *testing.T) {
	root := irisFixture().(*tree.Split)
	repl := &tree.Leaf{Stats: tree.Stats{Samples: 4, Value: [][]float64{{0, 0.5, 0.5}}}}

	updated := tree.ReplaceAt(root, tree.Path{tree.GoRight}, repl).(*tree.Split)

	// Ancestors along the path are fresh nodes, the untouched left
	// subtree is shared.
	require.False(t, updated == root)
	require.True(t, updated.Left == root.Left)
	require.True(t, updated.Right == tree.Node(repl))
}

func TestReplaceAtEmptyPathReplacesRoot(t *testing.T) {
	root := irisFixture()
	repl := &tree.Leaf{Stats: tree.Stats{Samples: 6, Value: [][]float64{{0.333, 0.333, 0.334}}}}

	updated := tree.ReplaceAt(root, nil, repl)

	require.True(t, updated == tree.Node(repl))
	require.Equal(t, irisFixture(), root)
}

func TestReplaceAtTruncatesPastLeaf(t *testing.T) {
	root := irisFixture()
	repl := &tree.Leaf{Stats: tree.Stats{Samples: 2, Value: [][]float64{{1, 0, 0}}}, Terminal: true}

	// The path overruns the left leaf; the replacement applies at
	// the deepest reachable node instead of failing.
	updated := tree.ReplaceAt(root, tree.Path{tree.GoLeft, tree.GoLeft, tree.GoRight}, repl)

	n, ok := tree.At(updated, tree.Path{tree.GoLeft})
	require.True(t, ok)
	leaf, ok := n.(*tree.Leaf)
	require.True(t, ok)
	require.True(t, leaf.Terminal)
	require.Equal(t, irisFixture(), root)
}

func TestRewriteAt(t *testing.T) {
	root := irisFixture()

	updated := tree.RewriteAt(root, tree.Path{tree.GoRight}, func(n tree.Node) tree.Node {
		s := *(n.(*tree.Split))
		s.Threshold = 1.65
		return &s
	})

	n, ok := tree.At(updated, tree.Path{tree.GoRight})
	require.True(t, ok)
	require.Equal(t, 1.65, n.(*tree.Split).Threshold)
	require.Equal(t, irisFixture(), root)
}

func TestValidate(t *testing.T) {
	require.NoError(t, tree.Validate(irisFixture()))
}

func TestValidateRejectsBrokenMaskPartition(t *testing.T) {
	root := irisFixture()
	// Make the right-left leaf claim a sample its parent does not hold.
	broken := tree.RewriteAt(root, tree.Path{tree.GoRight, tree.GoLeft}, func(n tree.Node) tree.Node {
		l := *(n.(*tree.Leaf))
		l.Mask = []int{2, 99}
		return &l
	})
	require.Error(t, tree.Validate(broken))
}

func TestValidateRejectsOverlappingMasks(t *testing.T) {
	root := irisFixture()
	broken := tree.RewriteAt(root, tree.Path{tree.GoRight, tree.GoLeft}, func(n tree.Node) tree.Node {
		l := *(n.(*tree.Leaf))
		l.Mask = []int{3, 4}
		return &l
	})
	require.Error(t, tree.Validate(broken))
}

func TestMaxDepthAndCountNodes(t *testing.T) {
	root := irisFixture()
	require.Equal(t, 2, tree.MaxDepth(root))
	require.Equal(t, 5, tree.CountNodes(root))
	require.Equal(t, 0, tree.MaxDepth(&tree.Leaf{}))
	require.Equal(t, 0, tree.CountNodes(nil))
}

func TestPredictedClass(t *testing.T) {
	idx, prob := tree.PredictedClass(&tree.Leaf{Stats: tree.Stats{Value: [][]float64{{0.1, 0.7, 0.2}}}})
	require.Equal(t, 1, idx)
	require.Equal(t, 0.7, prob)

	idx, prob = tree.PredictedClass(&tree.Leaf{})
	require.Equal(t, -1, idx)
	require.Equal(t, 0.0, prob)
}

func TestSortedMask(t *testing.T) {
	leaf := &tree.Leaf{Stats: tree.Stats{Mask: []int{5, 1, 3}}}
	require.Equal(t, []int{1, 3, 5}, tree.SortedMask(leaf))
	// The node's own mask is untouched.
	require.Equal(t, []int{5, 1, 3}, leaf.Mask)
	require.Nil(t, tree.SortedMask(&tree.Leaf{}))
}
