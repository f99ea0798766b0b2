/*
Package client implements the HTTP client for the ML statistics
backend. The backend owns all dataset access and all numeric work
(threshold candidates, split statistics, whole-tree metrics,
k-nearest-neighbor search, k-means iterations); this client only
ships requests and decodes the documented response shapes.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/local-minima-lab/arbor/tree"
	treejson "github.com/local-minima-lab/arbor/tree/json"
)

// Client talks to one backend instance. It is safe for concurrent
// use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

/*
New returns a Client for the backend at baseURL. Requests time out
after the given duration. The logger must not be nil.
*/
func New(baseURL string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

/*
FeatureStats requests the candidate-threshold statistics of a
feature at a node.
*/
func (c *Client) FeatureStats(ctx context.Context, req FeatureStatsRequest) (*FeatureStatsResponse, error) {
	res := &FeatureStatsResponse{}
	if err := c.post(ctx, "/api/dt/manual/feature-stats", req, res); err != nil {
		return nil, errors.Wrapf(err, "feature stats for %q", req.Feature)
	}
	return res, nil
}

/*
NodeStats requests the statistics of one feature/threshold split
at a node.
*/
func (c *Client) NodeStats(ctx context.Context, req NodeStatsRequest) (*NodeStatsResponse, error) {
	res := &NodeStatsResponse{}
	if err := c.post(ctx, "/api/dt/manual/node-stats", req, res); err != nil {
		return nil, errors.Wrapf(err, "node stats for %q at %v", req.Feature, req.Threshold)
	}
	return res, nil
}

/*
Evaluate submits a tree for evaluation against the referenced
dataset and returns the whole-tree metrics.
*/
func (c *Client) Evaluate(ctx context.Context, root tree.Node, dataset *DatasetRef) (*Metrics, error) {
	rawTree, err := treejson.MarshalNode(root)
	if err != nil {
		return nil, errors.Wrap(err, "encode tree")
	}
	req := struct {
		Tree    json.RawMessage `json:"tree"`
		Dataset *DatasetRef     `json:"dataset,omitempty"`
	}{rawTree, dataset}
	res := &EvaluateResponse{}
	if err := c.post(ctx, "/api/dt/manual/evaluate", req, res); err != nil {
		return nil, errors.Wrap(err, "evaluate tree")
	}
	return &res.Metrics, nil
}

/*
Train asks the backend to grow a decision tree and returns the
tree with its metrics and dataset metadata.
*/
func (c *Client) Train(ctx context.Context, req TrainRequest) (*TrainResponse, error) {
	var wire struct {
		TrainResponse
		RawTree json.RawMessage `json:"tree"`
	}
	if err := c.post(ctx, "/api/dt/train", req, &wire); err != nil {
		return nil, errors.Wrap(err, "train tree")
	}
	root, err := treejson.UnmarshalNode(wire.RawTree)
	if err != nil {
		return nil, errors.Wrap(err, "decode trained tree")
	}
	res := wire.TrainResponse
	res.Tree = root
	return &res, nil
}

/*
Predict submits a tree and a query point and returns the backend's
prediction with the traversal instructions a rendering replays.
*/
func (c *Client) Predict(ctx context.Context, root tree.Node, point map[string]float64, classNames []string) (*PredictResponse, error) {
	rawTree, err := treejson.MarshalNode(root)
	if err != nil {
		return nil, errors.Wrap(err, "encode tree")
	}
	req := struct {
		Tree       json.RawMessage    `json:"tree"`
		Points     map[string]float64 `json:"points"`
		ClassNames []string           `json:"class_names,omitempty"`
	}{rawTree, point, classNames}
	res := &PredictResponse{}
	if err := c.post(ctx, "/api/dt/predict", req, res); err != nil {
		return nil, errors.Wrap(err, "predict")
	}
	return res, nil
}

// PredictKNN classifies query points with a k-nearest-neighbors model.
func (c *Client) PredictKNN(ctx context.Context, req KNNPredictRequest) (*KNNPredictResponse, error) {
	res := &KNNPredictResponse{}
	if err := c.post(ctx, "/api/knn/predict", req, res); err != nil {
		return nil, errors.Wrap(err, "knn predict")
	}
	return res, nil
}

// TrainKMeans runs k-means to convergence and returns every iteration.
func (c *Client) TrainKMeans(ctx context.Context, req KMeansTrainRequest) (*KMeansTrainResponse, error) {
	res := &KMeansTrainResponse{}
	if err := c.post(ctx, "/api/kmeans/train", req, res); err != nil {
		return nil, errors.Wrap(err, "kmeans train")
	}
	return res, nil
}

type apiError struct {
	Detail string `json:"detail"`
}

func (c *Client) post(ctx context.Context, path string, reqBody, resBody interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return errors.Wrap(err, "marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create POST request")
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithField("path", path).Debug("backend request")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "do POST request")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(res.Body)
		if err != nil {
			return errors.Wrap(err, "read error response body")
		}
		apiErr := apiError{}
		if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Detail != "" {
			return fmt.Errorf("backend returned status %d: %s", res.StatusCode, apiErr.Detail)
		}
		return fmt.Errorf("backend returned status %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(resBody); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}
