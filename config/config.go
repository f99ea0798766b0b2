/*
Package config parses the client configuration from YAML
documents: the backend the visualizations talk to, the dataset and
split criterion manual builds use, and the layout spacing the
renderer applies.
*/
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/local-minima-lab/arbor/render"
)

/*
Config is the parsed client configuration. Zero or missing fields
take the defaults from Default.
*/
type Config struct {
	// BackendURL is the base URL of the statistics backend.
	BackendURL string `yaml:"backend_url"`
	// TimeoutSeconds bounds every backend request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Dataset names the dataset manual builds and evaluations run against.
	Dataset string `yaml:"dataset"`
	// Criterion is the impurity criterion, gini or entropy.
	Criterion string `yaml:"criterion"`
	// MaxThresholds caps the candidate thresholds requested per feature.
	MaxThresholds int `yaml:"max_thresholds"`
	// Layout overrides the renderer spacing.
	Layout LayoutConfig `yaml:"layout"`
}

// LayoutConfig carries the renderer spacing overrides.
type LayoutConfig struct {
	LevelHeight float64 `yaml:"level_height"`
	SiblingGap  float64 `yaml:"sibling_gap"`
	SubtreeGap  float64 `yaml:"subtree_gap"`
	NodeRadius  float64 `yaml:"node_radius"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BackendURL:     "http://localhost:8000",
		TimeoutSeconds: 30,
		Dataset:        "iris",
		Criterion:      "gini",
		MaxThresholds:  50,
	}
}

/*
Read parses a YAML configuration document, fills missing fields
with defaults and validates the result.
*/
func Read(doc []byte) (*Config, error) {
	c := Default()
	err := yaml.Unmarshal(doc, c)
	if err != nil {
		return nil, fmt.Errorf("parsing yml config: %v", err)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = Default().TimeoutSeconds
	}
	if c.MaxThresholds <= 0 {
		c.MaxThresholds = Default().MaxThresholds
	}
	if c.Criterion != "gini" && c.Criterion != "entropy" {
		return nil, fmt.Errorf("invalid criterion %q: must be gini or entropy", c.Criterion)
	}
	if c.BackendURL == "" {
		return nil, fmt.Errorf("config declares no backend_url")
	}
	return c, nil
}

/*
ReadFile takes a filepath string, reads its contents and uses Read
to parse them. If the file cannot be opened for reading an error
will be returned.
*/
func ReadFile(filepath string) (*Config, error) {
	doc, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %v", filepath, err)
	}
	c, err := Read(doc)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %q: %v", filepath, err)
	}
	return c, nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

/*
RenderLayout returns the renderer layout with the config's
overrides applied over the default spacing.
*/
func (c *Config) RenderLayout() render.Layout {
	l := render.DefaultLayout()
	if c.Layout.LevelHeight > 0 {
		l.LevelHeight = c.Layout.LevelHeight
	}
	if c.Layout.SiblingGap > 0 {
		l.SiblingGap = c.Layout.SiblingGap
	}
	if c.Layout.SubtreeGap > 0 {
		l.SubtreeGap = c.Layout.SubtreeGap
	}
	if c.Layout.NodeRadius > 0 {
		l.NodeRadius = c.Layout.NodeRadius
	}
	return l
}
