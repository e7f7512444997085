package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/inovacc/brdecode/internal/config"
	"github.com/inovacc/brdecode/internal/runner"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.CLI.Debug {
		logrus.Info("debug mode enabled")
		logrus.SetLevel(logrus.DebugLevel)
	}

	if !cfg.CLI.Quiet {
		displayConfig(cfg)
	}

	r, err := runner.New(cfg, afero.NewOsFs(), os.Stdout)
	if err != nil {
		logrus.Errorf("unable to create runner: %s", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := r.Run(ctx)

	if !cfg.CLI.Quiet && !cfg.CLI.DryRun {
		var total int64
		for _, res := range results {
			total += res.Size
		}
		logrus.Infof("decoded %d stream(s), %d bytes", len(results), total)
	}

	if err != nil {
		logrus.Errorf("error during run: %s", err)
		stop()
		os.Exit(1)
	}
}

func displayConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	logrus.Info("brdecode settings:")
	logrus.Info("  [CLI]")
	logrus.Infof("  version: %s", config.VERSION)
	logrus.Infof("  debug: %v", cfg.CLI.Debug)
	logrus.Infof("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Infof("  inputs: %v", cfg.CLI.Inputs)
	logrus.Infof("  output dir: %s", cfg.CLI.OutputDir)
	logrus.Infof("  dictionary: %s", cfg.CLI.Dictionary)
	logrus.Infof("  custom dictionary: %s", cfg.CLI.CustomDictionary)
	logrus.Infof("  large window: %v", cfg.CLI.LargeWindow)
	logrus.Infof("  chunk size: %d", cfg.CLI.ChunkSize)
	logrus.Infof("  sum: %v", cfg.CLI.Sum)
	logrus.Infof("  force: %v", cfg.CLI.Force)
	logrus.Infof("  crawl: %v", cfg.CLI.Crawl)
	logrus.Infof("  dry run: %v", cfg.CLI.DryRun)
	logrus.Info("")
	logrus.Info("  [FETCH]")
	logrus.Infof("  fetch.timeout: %s", cfg.TOML.Fetch.Timeout)
	logrus.Infof("  fetch.user_agent: %s", cfg.TOML.Fetch.UserAgent)
}
