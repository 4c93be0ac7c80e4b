package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/quiplabs/quip-backend/internal/db"
	"github.com/quiplabs/quip-backend/internal/handlers"
	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/repos"
	"github.com/quiplabs/quip-backend/internal/server"
	"github.com/quiplabs/quip-backend/internal/services"
	"github.com/quiplabs/quip-backend/internal/sse"
	"github.com/quiplabs/quip-backend/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment")
	}

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	database, err := db.NewDatabaseService(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	theDB := database.DB()

	// Repos
	sessionRepo := repos.NewSessionRepo(theDB, log)
	courseRepo := repos.NewCourseRepo(theDB, log)
	sectionRepo := repos.NewSectionRepo(theDB, log)

	// SSE hub, optionally bridged across instances through Redis
	hub := sse.NewHub(log)
	var bus services.SSEBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		bus, err = services.NewRedisSSEBus(log)
		if err != nil {
			log.Fatal("Redis SSE bus init failed", "error", err)
		}
		defer bus.Close()
		if err := bus.StartForwarder(ctx, hub.Broadcast); err != nil {
			log.Fatal("Redis SSE forwarder failed", "error", err)
		}
		log.Info("SSE bus enabled")
	}
	notifier := services.NewSessionNotifier(log, hub, bus)

	// Generation collaborator
	ai, err := services.NewGeminiClient(log)
	if err != nil {
		log.Fatal("Gemini client init failed", "error", err)
	}

	// Services
	validationEnabled := utils.GetEnvAsBool("COURSE_VALIDATION_ENABLED", true, log)
	creationService := services.NewCourseCreationService(theDB, log, sessionRepo, courseRepo, sectionRepo, ai, notifier, validationEnabled)
	completionService := services.NewCompletionService(theDB, log, courseRepo, sectionRepo)
	courseService := services.NewCourseService(theDB, log, courseRepo, sectionRepo)
	analyticsService := services.NewAnalyticsService(theDB, log, courseRepo, sectionRepo)

	// Handlers + router
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:     strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "*", log), ","),
		HomeHandler:      handlers.NewHomeHandler(database),
		CreateHandler:    handlers.NewCreateHandler(log, creationService),
		RealtimeHandler:  handlers.NewRealtimeHandler(log, hub),
		CourseHandler:    handlers.NewCourseHandler(log, courseService),
		SectionHandler:   handlers.NewSectionHandler(log, completionService),
		AnalyticsHandler: handlers.NewAnalyticsHandler(log, analyticsService),
	})

	port := utils.GetEnv("PORT", "8000", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server error", "error", err)
	}
	log.Info("Server stopped")
}
