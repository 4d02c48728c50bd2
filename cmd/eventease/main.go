package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/elisaschroeder/eventease/docs"
	"github.com/elisaschroeder/eventease/internal/app"
	"github.com/elisaschroeder/eventease/internal/config"
	"github.com/elisaschroeder/eventease/internal/logging"
)

// @title EventEase API
// @version 1.0
// @description Event catalog, registrations, attendance tracking and visitor sessions.
// @host localhost:8080
// @BasePath /
func main() {
	bootLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		bootLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		bootLogger.Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, settings.Environment())

	application, err := app.New(cfg, settings, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
