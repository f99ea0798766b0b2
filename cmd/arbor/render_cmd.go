package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/local-minima-lab/arbor/render"
	"github.com/local-minima-lab/arbor/tree"
)

type renderCmdConfig struct {
	*rootCmdConfig
	treeInput  string
	mode       string
	step       float64
	path       string
	output     string
	classNames string
}

func renderCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &renderCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a tree as SVG",
		Long:  `Render a tree JSON file as an SVG scene in training, prediction or manual mode at a given playback step`,
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
			mode, err := config.renderMode()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			l := cfg.RenderLayout()
			sc := render.Compose(root, mode, config.step, l, config.classNameList())
			f, err := os.Create(config.output)
			if err != nil {
				fmt.Fprintf(os.Stderr, "creating output file %q: %v\n", config.output, err)
				os.Exit(5)
			}
			defer f.Close()
			err = render.WriteSVG(f, sc, l)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.treeInput), "tree", "t", "", "path to a file from which the tree to render will be read and parsed as JSON (required)")
	cmd.Flags().StringVarP(&(config.mode), "mode", "m", "manual", "rendering mode: training, prediction or manual")
	cmd.Flags().Float64VarP(&(config.step), "step", "s", 0, "playback step to render at")
	cmd.Flags().StringVarP(&(config.path), "path", "p", "", "prediction path to highlight, as L/R letters (prediction mode only)")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the SVG will be written (required)")
	cmd.Flags().StringVar(&(config.classNames), "class-names", "", "comma-separated class names used to label leaves")
	return cmd
}

func (rcc *renderCmdConfig) Validate() error {
	if rcc.treeInput == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	if rcc.output == "" {
		return fmt.Errorf("required output flag was not set")
	}
	return nil
}

func (rcc *renderCmdConfig) renderMode() (render.Mode, error) {
	switch rcc.mode {
	case "training":
		return render.NewTrainingMode(), nil
	case "manual":
		return render.NewManualMode(), nil
	case "prediction":
		p, err := tree.ParsePath(rcc.path)
		if err != nil {
			return nil, fmt.Errorf("parsing prediction path: %v", err)
		}
		return render.NewPredictionMode(p), nil
	}
	return nil, fmt.Errorf("unknown mode %q: must be training, prediction or manual", rcc.mode)
}

func (rcc *renderCmdConfig) classNameList() []string {
	if rcc.classNames == "" {
		return nil
	}
	names := strings.Split(rcc.classNames, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}
