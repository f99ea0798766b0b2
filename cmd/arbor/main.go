package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose    bool
	configPath string
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "arbor",
		Short: "arbor visualizes classifiers as you train, predict and edit them",
		Long:  `A tool to render decision trees as they train, play back predictions over them, build trees node by node against server-computed statistics, and visualize KNN and k-means models`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "")
	rootCmd.PersistentFlags().StringVarP(&(config.configPath), "config", "c", "", "path to a YML configuration file")
	rootCmd.AddCommand(versionCmd(), trainCmd(config), renderCmd(config), predictCmd(config), buildCmd(config), knnCmd(config), kmeansCmd(config))
	return rootCmd
}
