// Package main is the entry point for the code-mentor server.
//
// Its job is deliberately small:
//  1. Load configuration (a local .env if present, then real env vars)
//  2. Create the logger and the OpenAI-backed assistant client
//  3. Hand everything to internal/server and block until shutdown
//
// All actual logic lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/code-mentor/internal/assistant"
	"github.com/sakif/code-mentor/internal/server"
)

// Insecure placeholders used when the corresponding env var is unset.
// They keep local development friction-free; anything reachable from the
// internet must set the real values.
const (
	devJWTSecret = "dev-only-jwt-secret-change-me!!"
	devOpenAIKey = "sk-placeholder"
)

func main() {
	// .env is optional — a missing file is not an error. Real environment
	// variables always win because godotenv never overwrites existing ones.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/codementor.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET must be a long random string in production:
	//   JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Warn("JWT_SECRET not set — using an insecure development secret")
		jwtSecret = devJWTSecret
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY not set — assist requests will fail upstream")
		apiKey = devOpenAIKey
	}

	assistantClient, err := assistant.NewClient(assistant.Config{
		APIKey: apiKey,
		Model:  os.Getenv("OPENAI_MODEL"),
	}, logger)
	if err != nil {
		logger.Error("failed to create assistant client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
	}, logger, assistantClient)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
