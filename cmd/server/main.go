package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sundaytable/internal/config"
	"sundaytable/internal/database"
	"sundaytable/internal/handlers"
	"sundaytable/internal/livesync"
	"sundaytable/internal/security"
	"sundaytable/internal/service"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	seed, err := config.LoadSeed(cfg.FamiliesFile)
	if err != nil {
		log.Fatalf("Failed to load families: %v", err)
	}

	emailService, err := service.NewEmailService(ctx, service.EmailConfig{
		Region:   cfg.AWSRegion,
		From:     cfg.SESFromEmail,
		FromName: cfg.SESFromName,
		BaseURL:  cfg.AppBaseURL,
		Debug:    cfg.Debug,
	})
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	hub := livesync.NewHub(cfg.SubscriberBuffer)
	defer hub.Close()

	dinnerService := service.NewDinnerService(db, hub, service.DinnerOptions{
		MaxAttempts:  cfg.StoreMaxAttempts,
		WindowMonths: cfg.WindowMonths,
		Notifier:     emailService,
	})

	rotation, err := dinnerService.EnsureConfig(ctx, seed.Families, seed.HostRotation)
	if err != nil {
		log.Fatalf("Failed to seed rotation config: %v", err)
	}
	log.Printf("Rotation config ready: %d families, last host index %d", len(rotation.Families), rotation.LastHostIndex)

	suggestionService := service.NewSuggestionService(service.SuggestionConfig{
		APIURL:  cfg.SuggestAPIURL,
		APIKey:  cfg.SuggestAPIKey,
		Model:   cfg.SuggestModel,
		Timeout: cfg.SuggestTimeout,
	})
	if !suggestionService.IsEnabled() {
		log.Println("Meal suggestions disabled: SUGGEST_API_KEY not configured")
	}

	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx, 10*time.Minute)

	handler := handlers.NewRouter(
		handlers.NewDinnerHandler(dinnerService, suggestionService),
		handlers.NewEventsHandler(dinnerService, 0),
		limiter,
	)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.SuggestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Server shutting down...")

	// close live streams first so Shutdown does not wait on them
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
