// Package main is the entry point for the gradient MCP server.
//
// The main package is kept minimal — its job is to:
// 1. Read configuration (env vars, with a .env file for local development)
// 2. Create dependencies (logger, server)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, etc.). This separation makes the app testable and its
// components reusable.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/gradient-mcp/internal/config"
	"github.com/sakif/gradient-mcp/internal/server"
)

func main() {
	// === 1. SET UP LOGGING ===
	// Structured logs to stdout. LevelInfo keeps production output useful;
	// set LOG_DEBUG=1 to see everything during development.
	level := slog.LevelInfo
	if os.Getenv("LOG_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 2. READ CONFIGURATION ===
	// .env is a local-development convenience; in real deployments the
	// environment comes from the orchestrator, so a missing file is fine.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
