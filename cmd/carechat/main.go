package main

import (
	"context"

	"github.com/joho/godotenv"

	"carechat/internal/app"
	"carechat/pkg/config"
	"carechat/pkg/logger"
	"carechat/pkg/shutdown"
)

// build metadata - set via ldflags during release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseFlags()
	cfg, err := config.LoadEffective(flags)
	if err != nil {
		logger.Init()
		shutdown.Abort("config load failed", err, "")
	}

	logger.InitWithLevel(cfg.Logging.Level)

	a, err := app.New(cfg, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, cfg.Server.DBPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, cfg.Server.DBPath)
	}
}
