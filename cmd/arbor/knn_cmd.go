package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/knn"
)

type knnCmdConfig struct {
	*rootCmdConfig
	point     string
	neighbors int
	dataset   string
	xFeature  int
	yFeature  int
	svgOutput string
	step      float64
}

func knnCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &knnCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "knn",
		Short: "Classify a point with k-nearest-neighbors",
		Long:  `Classify a query point with a backend KNN model, print the nearest neighbors ascending by distance, and optionally render the query as a two-feature scatter SVG`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			cfg, err := rootConfig.loadConfig()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if config.dataset != "" {
				cfg.Dataset = config.dataset
			}
			query, err := config.parseQuery()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			c := rootConfig.backendClient(cfg)
			req := client.KNNPredictRequest{
				QueryPoints: [][]float64{query},
				Dataset:     &client.DatasetRef{Name: cfg.Dataset},
			}
			req.Parameters.NNeighbors = config.neighbors
			res, err := c.PredictKNN(context.Background(), req)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			v, err := knn.NewQueryVisualization(query, res, 0, config.neighbors)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}

			fmt.Printf("predicted class: %s\n", v.Prediction())
			for i, n := range v.Neighbors() {
				fmt.Printf("%2d. point %-4d distance %-8.4f %s\n", i+1, n.Index, n.Distance, n.Label)
			}

			if config.svgOutput != "" {
				sc, err := v.Scatter(res.TrainingPoints, res.TrainingLabels, res.FeatureNames,
					config.xFeature, config.yFeature, config.step, 480, 360)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(6)
				}
				f, err := os.Create(config.svgOutput)
				if err != nil {
					fmt.Fprintf(os.Stderr, "creating output file %q: %v\n", config.svgOutput, err)
					os.Exit(7)
				}
				defer f.Close()
				err = knn.WriteScatterSVG(f, sc)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(8)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&(config.point), "point", "p", "", "query point as comma-separated coordinates (required)")
	cmd.Flags().IntVarP(&(config.neighbors), "neighbors", "k", 5, "number of neighbors")
	cmd.Flags().StringVarP(&(config.dataset), "dataset", "d", "", "name of the backend dataset (defaults to the configured dataset)")
	cmd.Flags().IntVarP(&(config.xFeature), "x-feature", "x", 0, "feature index on the scatter's x axis")
	cmd.Flags().IntVarP(&(config.yFeature), "y-feature", "y", 1, "feature index on the scatter's y axis")
	cmd.Flags().StringVarP(&(config.svgOutput), "svg", "o", "", "path to a file to which the scatter SVG will be written")
	cmd.Flags().Float64VarP(&(config.step), "step", "s", 0, "playback step the scatter is rendered at (one neighbor link per step; 0 shows none)")
	return cmd
}

func (kcc *knnCmdConfig) Validate() error {
	if kcc.point == "" {
		return fmt.Errorf("required point flag was not set")
	}
	if kcc.neighbors <= 0 {
		return fmt.Errorf("neighbors must be positive")
	}
	if kcc.xFeature < 0 || kcc.yFeature < 0 {
		return fmt.Errorf("feature indexes must not be negative")
	}
	return nil
}

func (kcc *knnCmdConfig) parseQuery() ([]float64, error) {
	var query []float64
	for _, part := range strings.Split(kcc.point, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %v", part, err)
		}
		query = append(query, v)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("point declares no coordinates")
	}
	return query, nil
}
