package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/cli"
	"github.com/kukshaus/family-planner/config"
	"github.com/kukshaus/family-planner/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Debug("config loaded", zap.Stringer("config", cfg))

	if err := cli.Execute(context.Background(), cfg, log, os.Args[1:]); err != nil {
		log.Error("command failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}
