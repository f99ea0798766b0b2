/*
Package build implements the manual tree-building state machine: a
Session owns a living tree, the current node selection and the
candidate feature/threshold, and mutates the tree through
copy-on-path updates synchronized against server-computed
statistics.
*/
package build

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/tree"
)

/*
Phase is the state of the manual-build state machine. A session is
Idle until a node is selected, in FeatureSelection until feature
statistics are loaded, and ThresholdReady once a feature and a
threshold are chosen. Terminal actions (split, mark-as-leaf) and
deselection return the session to Idle.
*/
type Phase int

const (
	// PhaseIdle means no node is selected.
	PhaseIdle Phase = iota
	// PhaseFeatureSelection means a node is selected but no feature chosen.
	PhaseFeatureSelection
	// PhaseThresholdReady means feature statistics are loaded and a
	// threshold is chosen (user-picked or defaulted to the server's best).
	PhaseThresholdReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFeatureSelection:
		return "feature-selection"
	case PhaseThresholdReady:
		return "threshold-ready"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var (
	// ErrNoSelection is returned by operations that require a selected node.
	ErrNoSelection = errors.New("build: no node selected")
	// ErrNoSuchNode is returned when a path does not address a node in the tree.
	ErrNoSuchNode = errors.New("build: path does not address a node")
	// ErrNotReady is returned when an operation requires a chosen
	// feature and threshold.
	ErrNotReady = errors.New("build: feature and threshold not chosen")
	// ErrTerminalLeaf is returned when attempting to prepare a split
	// on a leaf explicitly marked as terminal.
	ErrTerminalLeaf = errors.New("build: node is a terminal leaf")
	// ErrStaleResponse is returned when a backend response arrives
	// after the selection it was requested for has changed. The
	// response is discarded and the session state is untouched.
	ErrStaleResponse = errors.New("build: stale backend response discarded")
)

/*
Backend is the slice of the statistics service a Session needs:
candidate-threshold statistics for a feature, the statistics of
one specific split, and whole-tree evaluation metrics.
*/
type Backend interface {
	FeatureStats(ctx context.Context, req client.FeatureStatsRequest) (*client.FeatureStatsResponse, error)
	NodeStats(ctx context.Context, req client.NodeStatsRequest) (*client.NodeStatsResponse, error)
	Evaluate(ctx context.Context, root tree.Node, dataset *client.DatasetRef) (*client.Metrics, error)
}

/*
Session is the single owner of a manually built tree. All
mutations go through it; the tree value it exposes is immutable
and safe to hand to renderers while further edits proceed.

Every backend request carries a generation token; responses
arriving after the selection has moved on are discarded rather
than applied, so a slow response can never overwrite newer state.
*/
type Session struct {
	mu sync.Mutex

	id      string
	root    tree.Node
	phase   Phase
	path    tree.Path
	feature string

	threshold float64
	stats     *client.FeatureStatsResponse
	metrics   *client.Metrics

	criterion     string
	maxThresholds int
	dataset       *client.DatasetRef

	backend Backend
	logger  logrus.FieldLogger

	gen     uint64
	evalGen uint64
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session identifier used by session stores.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithCriterion sets the split criterion sent on every statistics
// request ("gini" or "entropy"). The default is "gini".
func WithCriterion(criterion string) Option {
	return func(s *Session) { s.criterion = criterion }
}

// WithDataset scopes the session to a named backend dataset.
func WithDataset(ref *client.DatasetRef) Option {
	return func(s *Session) { s.dataset = ref }
}

// WithMaxThresholds caps the number of candidate thresholds
// requested per feature. The default is 50.
func WithMaxThresholds(n int) Option {
	return func(s *Session) { s.maxThresholds = n }
}

// WithLogger sets the session logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Session) { s.logger = logger }
}

/*
NewSession returns a Session owning the given tree, typically a
single root leaf covering the whole dataset. The backend must not
be nil.
*/
func NewSession(root tree.Node, backend Backend, opts ...Option) *Session {
	s := &Session{
		root:          root,
		phase:         PhaseIdle,
		criterion:     "gini",
		maxThresholds: 50,
		backend:       backend,
		logger:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/*
SelectNode selects the node addressed by the given path and moves
the session to FeatureSelection. Any previously chosen feature,
threshold and loaded statistics are cleared, and responses still
in flight for the previous selection will be discarded on arrival.
ErrNoSuchNode is returned if the path does not address a node.
*/
func (s *Session) SelectNode(p tree.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := tree.At(s.root, p); !ok {
		return ErrNoSuchNode
	}
	s.path = p.Clone()
	s.phase = PhaseFeatureSelection
	s.feature = ""
	s.threshold = 0
	s.stats = nil
	s.gen++
	return nil
}

/*
Deselect clears the selection and returns the session to Idle.
This is the explicit "nothing selected" signal; renderers must
show no editor for an idle session.
*/
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelectionLocked()
}

func (s *Session) clearSelectionLocked() {
	s.path = nil
	s.phase = PhaseIdle
	s.feature = ""
	s.threshold = 0
	s.stats = nil
	s.gen++
}

/*
LoadFeatureStats requests the candidate-threshold statistics of
the given feature for the selected node, scoped to the node's
sample mask (the full dataset when the node carries none). On
success the statistics are stored, the feature is chosen and the
threshold defaults to the server's best candidate, moving the
session to ThresholdReady.

A failure leaves the prior selection state untouched and is
returned to the caller; there is no automatic retry. A response
arriving after the selection changed is discarded and reported as
ErrStaleResponse.
*/
func (s *Session) LoadFeatureStats(ctx context.Context, feature string) error {
	s.mu.Lock()
	if s.phase == PhaseIdle {
		s.mu.Unlock()
		return ErrNoSelection
	}
	node, ok := tree.At(s.root, s.path)
	if !ok {
		s.mu.Unlock()
		return ErrNoSuchNode
	}
	if leaf, ok := node.(*tree.Leaf); ok && leaf.Terminal {
		s.mu.Unlock()
		return ErrTerminalLeaf
	}
	s.gen++
	gen := s.gen
	req := client.FeatureStatsRequest{
		Feature:           feature,
		ParentSamplesMask: node.NodeStats().Mask,
		Criterion:         s.criterion,
		MaxThresholds:     s.maxThresholds,
		Dataset:           s.dataset,
	}
	s.mu.Unlock()

	res, err := s.backend.FeatureStats(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.WithField("feature", feature).Debug("discarding stale feature statistics")
		return ErrStaleResponse
	}
	if err != nil {
		return fmt.Errorf("loading feature statistics for %q: %v", feature, err)
	}
	s.feature = feature
	s.stats = res
	s.threshold = res.BestThreshold
	s.phase = PhaseThresholdReady
	return nil
}

/*
UpdateThreshold sets the candidate threshold. It is a pure local
update used for live slider feedback and never triggers a request.
ErrNotReady is returned before feature statistics are loaded.
*/
func (s *Session) UpdateThreshold(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseThresholdReady {
		return ErrNotReady
	}
	s.threshold = v
	return nil
}

/*
CanSplit reports whether the split action is available: a node is
selected, it is a leaf not marked terminal, and a feature and
threshold are chosen.
*/
func (s *Session) CanSplit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseThresholdReady || s.feature == "" {
		return false
	}
	node, ok := tree.At(s.root, s.path)
	if !ok {
		return false
	}
	leaf, ok := node.(*tree.Leaf)
	return ok && !leaf.Terminal
}

/*
SplitNode replaces the selected node with a Split on the chosen
feature and threshold, carrying two fresh Leaf children built from
the server-computed statistics. Splitting a node that is already a
Split discards and replaces its children; the operation is
destructive and has no undo. On success the selection is cleared
and the whole-tree metrics are re-evaluated.

A backend failure leaves the tree in its last-good state and is
returned to the caller. A response arriving after the selection
changed is discarded and reported as ErrStaleResponse.
*/
func (s *Session) SplitNode(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseThresholdReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	node, ok := tree.At(s.root, s.path)
	if !ok {
		s.mu.Unlock()
		return ErrNoSuchNode
	}
	s.gen++
	gen := s.gen
	req := client.NodeStatsRequest{
		Feature:           s.feature,
		Threshold:         s.threshold,
		ParentSamplesMask: node.NodeStats().Mask,
		Criterion:         s.criterion,
		Dataset:           s.dataset,
	}
	path := s.path.Clone()
	s.mu.Unlock()

	res, err := s.backend.NodeStats(ctx, req)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.WithField("path", path.String()).Debug("discarding stale split statistics")
		return ErrStaleResponse
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("splitting node at %v: %v", path, err)
	}

	split := newSplit(req.Feature, req.Threshold, node.NodeStats().Mask, res)
	s.root = tree.ReplaceAt(s.root, path, split)
	s.clearSelectionLocked()
	root := s.root
	s.mu.Unlock()

	s.refreshMetrics(ctx, root)
	return nil
}

/*
MarkAsLeaf replaces the selected node with a Leaf marked terminal,
discarding any subtree below it while preserving the node's
samples, impurity, value and mask unchanged. On success the
selection is cleared and the whole-tree metrics are re-evaluated.
*/
func (s *Session) MarkAsLeaf(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseIdle {
		s.mu.Unlock()
		return ErrNoSelection
	}
	node, ok := tree.At(s.root, s.path)
	if !ok {
		s.mu.Unlock()
		return ErrNoSuchNode
	}
	st := node.NodeStats()
	leaf := &tree.Leaf{
		Stats: tree.Stats{
			Samples:  st.Samples,
			Impurity: st.Impurity,
			Value:    st.Value,
			Mask:     st.Mask,
		},
		Terminal: true,
	}
	s.root = tree.ReplaceAt(s.root, s.path, leaf)
	s.clearSelectionLocked()
	root := s.root
	s.mu.Unlock()

	s.refreshMetrics(ctx, root)
	return nil
}

/*
Evaluate re-computes the whole-tree metrics against the session
dataset and stores them. Unlike the evaluation triggered by
SplitNode and MarkAsLeaf, a failure here is returned.
*/
func (s *Session) Evaluate(ctx context.Context) error {
	s.mu.Lock()
	root := s.root
	dataset := s.dataset
	s.evalGen++
	gen := s.evalGen
	s.mu.Unlock()

	m, err := s.backend.Evaluate(ctx, root, dataset)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.evalGen {
		return ErrStaleResponse
	}
	if err != nil {
		return fmt.Errorf("evaluating tree: %v", err)
	}
	s.metrics = m
	return nil
}

// refreshMetrics re-evaluates after a mutation. Failures keep the
// previous metrics and are logged, never fatal.
func (s *Session) refreshMetrics(ctx context.Context, root tree.Node) {
	s.mu.Lock()
	s.evalGen++
	gen := s.evalGen
	s.mu.Unlock()

	m, err := s.backend.Evaluate(ctx, root, s.dataset)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.evalGen {
		s.logger.Debug("discarding stale evaluation metrics")
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("tree evaluation failed, keeping previous metrics")
		return
	}
	s.metrics = m
}

// Tree returns the current tree. The returned value is immutable:
// later session mutations build new trees and never touch it.
func (s *Session) Tree() tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Phase returns the current state-machine phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Selection returns the selected path and whether a node is
// selected at all.
func (s *Session) Selection() (tree.Path, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIdle {
		return nil, false
	}
	return s.path.Clone(), true
}

// Feature returns the chosen candidate feature, empty before one
// is chosen.
func (s *Session) Feature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feature
}

// Threshold returns the chosen candidate threshold.
func (s *Session) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// FeatureStats returns the statistics loaded for the chosen
// feature, nil before LoadFeatureStats succeeds.
func (s *Session) FeatureStats() *client.FeatureStatsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Metrics returns the most recent whole-tree metrics, nil before
// the first successful evaluation.
func (s *Session) Metrics() *client.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// ID returns the session identifier, empty until assigned.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// SetID assigns the session identifier. Session stores call this
// when persisting a session for the first time.
func (s *Session) SetID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

func newSplit(feature string, threshold float64, parentMask []int, res *client.NodeStatsResponse) *tree.Split {
	return &tree.Split{
		Stats: tree.Stats{
			Samples:   res.SplitStats.ParentStats.Samples,
			Impurity:  res.SplitStats.ParentStats.Impurity,
			Value:     valueRows(res.SplitStats.ParentStats.ClassProbabilities, res.ClassNames),
			Histogram: res.Histogram,
			Mask:      parentMask,
		},
		Feature:   feature,
		Threshold: threshold,
		Left: &tree.Leaf{
			Stats: tree.Stats{
				Samples:  res.SplitStats.LeftStats.Samples,
				Impurity: res.SplitStats.LeftStats.Impurity,
				Value:    valueRows(res.SplitStats.LeftStats.ClassProbabilities, res.ClassNames),
				Mask:     res.LeftSamplesMask,
			},
		},
		Right: &tree.Leaf{
			Stats: tree.Stats{
				Samples:  res.SplitStats.RightStats.Samples,
				Impurity: res.SplitStats.RightStats.Impurity,
				Value:    valueRows(res.SplitStats.RightStats.ClassProbabilities, res.ClassNames),
				Mask:     res.RightSamplesMask,
			},
		},
	}
}

// valueRows orders per-class probabilities into the value-row
// shape nodes carry. Class order follows classNames; when the
// backend sent none, sorted map keys keep the row deterministic.
func valueRows(probs map[string]float64, classNames []string) [][]float64 {
	if len(classNames) == 0 {
		classNames = make([]string, 0, len(probs))
		for name := range probs {
			classNames = append(classNames, name)
		}
		sort.Strings(classNames)
	}
	row := make([]float64, len(classNames))
	for i, name := range classNames {
		row[i] = probs[name]
	}
	return [][]float64{row}
}
