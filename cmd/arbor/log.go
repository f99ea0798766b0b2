package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/config"
)

func (rcc *rootCmdConfig) logger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = os.Stderr
	if rcc.verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

func (rcc *rootCmdConfig) loadConfig() (*config.Config, error) {
	if rcc.configPath == "" {
		return config.Default(), nil
	}
	return config.ReadFile(rcc.configPath)
}

func (rcc *rootCmdConfig) backendClient(cfg *config.Config) *client.Client {
	return client.New(cfg.BackendURL, cfg.Timeout(), rcc.logger())
}
