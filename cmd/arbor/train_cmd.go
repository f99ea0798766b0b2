package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/render"
	"github.com/local-minima-lab/arbor/tree"
)

type trainCmdConfig struct {
	*rootCmdConfig
	dataset    string
	maxDepth   int
	criterion  string
	treeOutput    string
	framesDir     string
	framesPerStep int
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a tree on the backend and save it",
		Long:  `Ask the backend to grow a decision tree on a dataset, save the tree as JSON, print its metrics and optionally render the training reveal as SVG frames`,
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
			if config.criterion != "" {
				cfg.Criterion = config.criterion
			}
			c := rootConfig.backendClient(cfg)
			res, err := c.Train(context.Background(), client.TrainRequest{
				MaxDepth:  config.maxDepth,
				Criterion: cfg.Criterion,
				Dataset:   &client.DatasetRef{Name: cfg.Dataset},
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			err = saveTree(config.treeOutput, res.Tree)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			fmt.Println(tree.Sprint(res.Tree, res.Metadata.ClassNames))
			fmt.Printf("accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f\n",
				res.Metrics.Accuracy, res.Metrics.Precision, res.Metrics.Recall, res.Metrics.F1)
			if config.framesDir != "" {
				maxStep := float64(tree.MaxDepth(res.Tree)) + 1
				err = writeFrames(config.framesDir, res.Tree, render.NewTrainingMode(), maxStep, config.framesPerStep, cfg.RenderLayout(), res.Metadata.ClassNames)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(5)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&(config.dataset), "dataset", "d", "", "name of the backend dataset to train on (defaults to the configured dataset)")
	cmd.Flags().IntVarP(&(config.maxDepth), "max-depth", "m", 0, "maximum depth of the grown tree (0 leaves it to the backend)")
	cmd.Flags().StringVar(&(config.criterion), "criterion", "", "impurity criterion, gini or entropy (defaults to the configured criterion)")
	cmd.Flags().StringVarP(&(config.treeOutput), "output", "o", "", "path to a file to which the trained tree will be written as JSON (required)")
	cmd.Flags().StringVarP(&(config.framesDir), "frames", "f", "", "directory to which the training-reveal SVG frames will be written")
	cmd.Flags().IntVar(&(config.framesPerStep), "frames-per-step", 2, "number of SVG frames rendered per playback step")
	return cmd
}

func (tcc *trainCmdConfig) Validate() error {
	if tcc.treeOutput == "" {
		return fmt.Errorf("required output flag was not set")
	}
	if tcc.framesPerStep <= 0 {
		return fmt.Errorf("frames-per-step must be positive")
	}
	return nil
}
