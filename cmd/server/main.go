package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oppwire/harvester/app/ai"
	"github.com/oppwire/harvester/app/api"
	"github.com/oppwire/harvester/app/cfg"
	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/dedup"
	"github.com/oppwire/harvester/app/feedcfg"
	"github.com/oppwire/harvester/app/pipeline"
	"github.com/oppwire/harvester/app/prompt"
	"github.com/oppwire/harvester/app/publish"
	"github.com/oppwire/harvester/app/scraper"
	"github.com/oppwire/harvester/app/settings"
	"github.com/oppwire/harvester/app/source"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting Opportunity Harvester", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser, appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	entityRepo := database.NewEntityRepository(db)
	fingerprintRepo := database.NewFingerprintRepository(db)
	settingsRepo := database.NewSettingsRepository(db)
	analyticsRepo := database.NewAnalyticsRepository(db)

	settingsStore := settings.NewStore(settingsRepo)

	slog.Info("Loading feed definitions", "dir", appCfg.FeedsDir)
	definitions, err := feedcfg.NewLoader(appCfg.FeedsDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load feed definitions", "error", err)
		os.Exit(1)
	}

	registered := 0
	for name, def := range definitions {
		id, err := feedRepo.UpsertFeed(def.ToFeed())
		if err != nil {
			slog.Warn("Failed to register feed", "feed", name, "error", err)
			continue
		}
		slog.Debug("Registered feed", "feed", name, "id", id)
		registered++
	}
	slog.Info("Feed definitions registered", "registered", registered, "loaded", len(definitions))

	imageStore, err := publish.NewLocalImageStore(appCfg.ImagesDir, appCfg.BaseUrl, appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to initialize image store", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{}
	reader := source.NewReader(httpClient, settingsStore)
	contentScraper := scraper.New(httpClient, settingsStore)
	detector := dedup.NewDetector(fingerprintRepo, entityRepo, settingsStore)
	prompts := prompt.NewSelector(settingsStore)
	orchestrator := ai.NewOrchestrator(settingsStore)
	creator := publish.NewCreator(entityRepo, imageStore)

	processor := pipeline.NewProcessor(feedRepo, analyticsRepo, reader, contentScraper,
		detector, prompts, orchestrator, creator, settingsStore)

	runner := pipeline.NewRunner(processor, time.Duration(appCfg.SchedulerInterval)*time.Second)
	runner.Start()
	defer runner.Stop()

	apiHandler := api.NewHandler(feedRepo, entityRepo, settingsStore, processor, runner)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey, appCfg.ImagesDir)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
