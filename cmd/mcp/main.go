package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/growbox/pkg/config"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	growboxmcp "github.com/urmzd/growbox/pkg/mcp"
	"github.com/urmzd/growbox/pkg/settings"
)

func main() {
	// stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configPath := flag.String("config", "", "Path to config file (default: ~/.config/growbox/config.yaml)")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/growbox/growbox.db)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	ctx := context.Background()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
	}

	var controller device.Controller
	if _, err := os.Stat(cfg.Zigbee.StateFile); err != nil {
		log.Warn().Err(err).Msg("Zigbee data unavailable, using null controller")
		controller = device.NewNullController()
	} else {
		controller = device.NewFileController(cfg.Zigbee.StateFile, cfg.Zigbee.DatabaseFile)
	}
	defer controller.Close()

	mcpServer := growboxmcp.NewServer(database, controller, settings.NewValidator())

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
