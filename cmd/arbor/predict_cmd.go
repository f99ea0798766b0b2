package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/local-minima-lab/arbor/render"
	"github.com/local-minima-lab/arbor/tree"
)

type predictCmdConfig struct {
	*rootCmdConfig
	treeInput     string
	point         string
	classNames    string
	framesDir     string
	framesPerStep int
	local         bool
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a class for a point and play back the path",
		Long:  `Run a query point through a tree, print the predicted class with the visited path, and optionally render the prediction playback as SVG frames. By default the backend resolves the traversal; --local follows the thresholds in the tree itself`,
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
			root, err := loadTree(config.treeInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			point, err := parsePoint(config.point)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			classNames := config.classNameList()

			var path tree.Path
			if config.local {
				class, confidence, p := tree.Predict(root, point)
				path = p
				fmt.Printf("predicted class: %s (confidence %.4f)\n", className(classNames, class), confidence)
			} else {
				c := rootConfig.backendClient(cfg)
				res, err := c.Predict(context.Background(), root, point, classNames)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(5)
				}
				path = tree.FollowInstructions(root, res.Instructions)
				fmt.Printf("predicted class: %s (confidence %.4f)\n", res.PredictedClass, res.Confidence)
			}
			fmt.Printf("path: %s\n", path)

			if config.framesDir != "" {
				maxStep := float64(len(path)) + 1
				err = writeFrames(config.framesDir, root, render.NewPredictionMode(path), maxStep, config.framesPerStep, cfg.RenderLayout(), classNames)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(6)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&(config.treeInput), "tree", "t", "", "path to a file from which the tree will be read and parsed as JSON (required)")
	cmd.Flags().StringVarP(&(config.point), "point", "p", "", "query point as comma-separated feature=value pairs (required)")
	cmd.Flags().StringVar(&(config.classNames), "class-names", "", "comma-separated class names used to label the prediction")
	cmd.Flags().StringVarP(&(config.framesDir), "frames", "f", "", "directory to which the prediction-playback SVG frames will be written")
	cmd.Flags().IntVar(&(config.framesPerStep), "frames-per-step", 2, "number of SVG frames rendered per playback step")
	cmd.Flags().BoolVarP(&(config.local), "local", "l", false, "resolve the traversal locally instead of asking the backend")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.treeInput == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	if pcc.point == "" {
		return fmt.Errorf("required point flag was not set")
	}
	if pcc.framesPerStep <= 0 {
		return fmt.Errorf("frames-per-step must be positive")
	}
	return nil
}

func (pcc *predictCmdConfig) classNameList() []string {
	if pcc.classNames == "" {
		return nil
	}
	names := strings.Split(pcc.classNames, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

func className(names []string, class int) string {
	if class >= 0 && class < len(names) {
		return names[class]
	}
	return fmt.Sprintf("class %d", class)
}
