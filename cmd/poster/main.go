package main

import (
	"os"

	"insta-poster/internal/app"
	"insta-poster/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	application, err := app.NewApp(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create app")
	}

	if err := application.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("App failed")
	}

	zlog.Logger.Info().Msg("App exited successfully")
	os.Exit(0)
}
