package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/kmeans"
)

type kmeansCmdConfig struct {
	*rootCmdConfig
	clusters      int
	dataset       string
	maxIterations int
	framesPerStep int
}

func kmeansCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &kmeansCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "kmeans",
		Short: "Run k-means on the backend and play back its iterations",
		Long:  `Run k-means clustering on a backend dataset and print the iteration history, with centroid positions interpolated between iterations the way the playback animates them`,
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
			c := rootConfig.backendClient(cfg)
			req := client.KMeansTrainRequest{
				Dataset:       &client.DatasetRef{Name: cfg.Dataset},
				MaxIterations: config.maxIterations,
			}
			req.Parameters.NClusters = config.clusters
			res, err := c.TrainKMeans(context.Background(), req)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			playback, err := kmeans.NewPlayback(res)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}

			perStep := config.framesPerStep
			for i := 0; i < playback.Steps(); i++ {
				for j := 0; j < perStep; j++ {
					step := float64(i) + float64(j)/float64(perStep)
					frame := playback.FrameAt(step)
					fmt.Printf("iteration %d progress %.2f centroids %v\n", frame.Iteration, frame.Progress, frame.Centroids)
				}
			}
			final := playback.FrameAt(float64(playback.Steps()))
			fmt.Printf("final centroids %v\n", final.Centroids)
			if playback.Converged() {
				fmt.Printf("converged after %d iterations\n", playback.Steps())
			} else {
				fmt.Printf("stopped without convergence after %d iterations\n", playback.Steps())
			}
		},
	}
	cmd.Flags().IntVarP(&(config.clusters), "clusters", "k", 3, "number of clusters")
	cmd.Flags().StringVarP(&(config.dataset), "dataset", "d", "", "name of the backend dataset (defaults to the configured dataset)")
	cmd.Flags().IntVarP(&(config.maxIterations), "max-iterations", "m", 0, "iteration cap (0 leaves it to the backend)")
	cmd.Flags().IntVarP(&(config.framesPerStep), "frames-per-step", "f", 1, "interpolated frames printed per iteration")
	return cmd
}

func (kcc *kmeansCmdConfig) Validate() error {
	if kcc.clusters <= 0 {
		return fmt.Errorf("clusters must be positive")
	}
	if kcc.framesPerStep <= 0 {
		return fmt.Errorf("frames-per-step must be positive")
	}
	return nil
}
