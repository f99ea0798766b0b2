package client

import (
	"github.com/local-minima-lab/arbor/tree"
)

/*
DatasetRef selects one of the datasets the backend knows by name,
such as "iris" or "wine". A nil *DatasetRef in a request means the
backend default dataset.
*/
type DatasetRef struct {
	Name string `json:"name"`
}

/*
NodeStats are the statistics the backend computes for one node of
a candidate split: sample count, impurity, and per-class counts
and probabilities keyed by class name.
*/
type NodeStats struct {
	Samples            int                `json:"samples"`
	Impurity           float64            `json:"impurity"`
	ClassDistribution  map[string]int     `json:"class_distribution"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
}

/*
SplitStats describe a candidate split: the statistics of the
parent and of both children, with the information gain and
weighted impurity the split achieves.
*/
type SplitStats struct {
	ParentStats      NodeStats `json:"parent_stats"`
	LeftStats        NodeStats `json:"left_stats"`
	RightStats       NodeStats `json:"right_stats"`
	InformationGain  float64   `json:"information_gain"`
	WeightedImpurity float64   `json:"weighted_impurity"`
}

/*
ThresholdStats describe one candidate threshold of a feature: the
threshold value, the information gain it achieves, the full split
statistics and the sample masks of both resulting children.
*/
type ThresholdStats struct {
	Threshold        float64    `json:"threshold"`
	InformationGain  float64    `json:"information_gain"`
	SplitStats       SplitStats `json:"split_stats"`
	LeftSamplesMask  []int      `json:"left_samples_mask"`
	RightSamplesMask []int      `json:"right_samples_mask"`
}

/*
FeatureStatsRequest asks the backend for the statistics of every
candidate threshold of a feature, scoped to the samples listed in
ParentSamplesMask (the full dataset when nil).
*/
type FeatureStatsRequest struct {
	Feature           string      `json:"feature"`
	ParentSamplesMask []int       `json:"parent_samples_mask"`
	Criterion         string      `json:"criterion"`
	MaxThresholds     int         `json:"max_thresholds"`
	Dataset           *DatasetRef `json:"dataset,omitempty"`
}

/*
FeatureStatsResponse carries the per-threshold statistics of a
feature at a node, with the best threshold (highest information
gain) called out for use as the default selection.
*/
type FeatureStatsResponse struct {
	Feature            string           `json:"feature"`
	FeatureIndex       int              `json:"feature_index"`
	Thresholds         []ThresholdStats `json:"thresholds"`
	BestThreshold      float64          `json:"best_threshold"`
	BestThresholdIndex int              `json:"best_threshold_index"`
	FeatureRange       []float64        `json:"feature_range"`
	Histogram          *tree.Histogram  `json:"histogram_data"`
	TotalUniqueValues  int              `json:"total_unique_values"`
	AvailableFeatures  []string         `json:"available_features"`
	ClassNames         []string         `json:"class_names"`
}

/*
NodeStatsRequest asks the backend for the statistics of one
specific feature/threshold split, scoped to ParentSamplesMask.
*/
type NodeStatsRequest struct {
	Feature           string      `json:"feature"`
	Threshold         float64     `json:"threshold"`
	ParentSamplesMask []int       `json:"parent_samples_mask"`
	Criterion         string      `json:"criterion"`
	Dataset           *DatasetRef `json:"dataset,omitempty"`
}

/*
NodeStatsResponse carries the server-computed statistics for one
split: parent/left/right stats, the sample masks of both children
and the histogram of the split feature at the node.
*/
type NodeStatsResponse struct {
	Feature          string          `json:"feature"`
	FeatureIndex     int             `json:"feature_index"`
	Threshold        float64         `json:"threshold"`
	SplitStats       SplitStats      `json:"split_stats"`
	Histogram        *tree.Histogram `json:"histogram_data"`
	LeftSamplesMask  []int           `json:"left_samples_mask"`
	RightSamplesMask []int           `json:"right_samples_mask"`
	ClassNames       []string        `json:"class_names"`
}

/*
Metrics are whole-tree classification metrics computed by the
backend against the evaluation split of the dataset.
*/
type Metrics struct {
	ConfusionMatrix [][]int `json:"confusion_matrix"`
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
}

/*
EvaluateResponse is the backend's answer to a manual-tree
evaluation request.
*/
type EvaluateResponse struct {
	Metrics Metrics `json:"metrics"`
}

/*
TrainRequest asks the backend to grow a decision tree on a
dataset. Parameter fields mirror the backend's training knobs;
zero values are omitted and fall back to server defaults.
*/
type TrainRequest struct {
	MaxDepth        int         `json:"max_depth,omitempty"`
	Criterion       string      `json:"criterion,omitempty"`
	MinSamplesSplit int         `json:"min_samples_split,omitempty"`
	MinSamplesLeaf  int         `json:"min_samples_leaf,omitempty"`
	RandomState     *int        `json:"random_state,omitempty"`
	Dataset         *DatasetRef `json:"dataset,omitempty"`
}

/*
TrainResponse carries a server-grown tree with its evaluation
metrics and the dataset metadata needed to label a rendering.
*/
type TrainResponse struct {
	Success  bool      `json:"success"`
	ModelKey string    `json:"model_key"`
	Cached   bool      `json:"cached"`
	Tree     tree.Node `json:"-"`
	Metrics  Metrics   `json:"metrics"`
	Metadata struct {
		FeatureNames []string `json:"feature_names"`
		ClassNames   []string `json:"class_names"`
	} `json:"metadata"`
}

/*
PredictResponse is the backend's answer to a traversal prediction
request: the predicted class with its confidence, and the
instruction sequence a rendering replays to animate the path.
*/
type PredictResponse struct {
	PredictedClass      string             `json:"predicted_class"`
	PredictedClassIndex int                `json:"predicted_class_index"`
	Confidence          float64            `json:"confidence"`
	Instructions        []tree.Instruction `json:"instructions"`
}

/*
Neighbor describes one training point among the k nearest to a
query point.
*/
type Neighbor struct {
	Index       int       `json:"index"`
	Distance    float64   `json:"distance"`
	Label       string    `json:"label"`
	Coordinates []float64 `json:"coordinates"`
}

/*
KNNPredictRequest asks the backend to classify query points with a
k-nearest-neighbors model trained on the referenced dataset.
*/
type KNNPredictRequest struct {
	QueryPoints [][]float64 `json:"query_points"`
	Parameters  struct {
		NNeighbors int    `json:"n_neighbors,omitempty"`
		Weights    string `json:"weights,omitempty"`
		Metric     string `json:"metric,omitempty"`
	} `json:"parameters"`
	Dataset *DatasetRef `json:"dataset,omitempty"`
}

/*
KNNPredictResponse carries per-query predictions with the
neighbor and distance information a visualization needs.
*/
type KNNPredictResponse struct {
	Success           bool         `json:"success"`
	Predictions       []string     `json:"predictions"`
	PredictionIndices []int        `json:"prediction_indices"`
	NeighborsInfo     [][]Neighbor `json:"neighbors_info"`
	TrainingPoints    [][]float64  `json:"training_points"`
	TrainingLabels    []string     `json:"training_labels"`
	AllDistances      [][]float64  `json:"all_distances"`
	FeatureNames      []string     `json:"feature_names"`
	ClassNames        []string     `json:"class_names"`
	NDimensions       int          `json:"n_dimensions"`
}

/*
KMeansIteration is one iteration of a k-means run: the cluster
assignment of every point, the centroids at the start of the
iteration, the recomputed centroids, and how far each moved.
*/
type KMeansIteration struct {
	Iteration      int         `json:"iteration"`
	Assignments    []int       `json:"assignments"`
	Centroids      [][]float64 `json:"centroids"`
	NewCentroids   [][]float64 `json:"new_centroids"`
	CentroidShifts []float64   `json:"centroid_shifts"`
	Converged      bool        `json:"converged"`
}

/*
KMeansTrainRequest asks the backend to run k-means to convergence
and report every iteration.
*/
type KMeansTrainRequest struct {
	Parameters struct {
		NClusters int `json:"n_clusters,omitempty"`
	} `json:"parameters"`
	Centroids     [][]float64 `json:"centroids,omitempty"`
	Dataset       *DatasetRef `json:"dataset,omitempty"`
	MaxIterations int         `json:"max_iterations,omitempty"`
}

/*
KMeansTrainResponse carries the full iteration history of a
k-means run for playback.
*/
type KMeansTrainResponse struct {
	Success          bool              `json:"success"`
	DataPoints       [][]float64       `json:"data_points"`
	Iterations       []KMeansIteration `json:"iterations"`
	TotalIterations  int               `json:"total_iterations"`
	Converged        bool              `json:"converged"`
	FinalCentroids   [][]float64       `json:"final_centroids"`
	FinalAssignments []int             `json:"final_assignments"`
}
