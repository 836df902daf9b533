package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/akhatri/ledger-alerts/internal/app"
	"github.com/akhatri/ledger-alerts/internal/model"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	if err := a.Run(); err != nil {
		os.Exit(1)
	}
}
