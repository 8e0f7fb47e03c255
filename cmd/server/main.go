// Package main is the entry point for the gardening API server.
//
// main stays minimal: load the environment, build the config, start the
// server. All logic lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/gardenhub/internal/plants"
	"github.com/sakif/gardenhub/internal/server"
	"github.com/sakif/gardenhub/internal/supabase"
)

func main() {
	// A .env file is a development convenience; in production the
	// variables come from the deployment environment and the file is
	// simply absent.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
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

	cachePath := os.Getenv("PLANT_CACHE_PATH")
	if cachePath == "" {
		cachePath = "data/plantcache.db"
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		logger.Error("failed to create cache directory",
			slog.String("dir", filepath.Dir(cachePath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	cfg := server.Config{
		Port:          port,
		AllowedOrigin: os.Getenv("FRONTEND_ORIGIN"),
		Supabase: supabase.Config{
			BaseURL:    os.Getenv("SUPABASE_URL"),
			AnonKey:    os.Getenv("SUPABASE_PUBLIC_KEY"),
			ServiceKey: os.Getenv("SUPABASE_KEY"),
		},
		JWTCoordX: os.Getenv("SUPABASE_JWT_X"),
		JWTCoordY: os.Getenv("SUPABASE_JWT_Y"),
		Houseplants: plants.HouseplantsConfig{
			APIKey:  os.Getenv("RAPID_API_KEY"),
			Host:    os.Getenv("RAPID_API_HOST"),
			BaseURL: os.Getenv("RAPIDAPI_BASE_URL"),
		},
		Perenual: plants.PerenualConfig{
			APIKey:  os.Getenv("PERENUAL_API_KEY"),
			BaseURL: perenualBaseURL(),
		},
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		CachePath:    cachePath,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func perenualBaseURL() string {
	if url := os.Getenv("PERENUAL_BASE_URL"); url != "" {
		return url
	}
	return "https://perenual.com/api"
}
