package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/fieldpipe/fieldpipe/internal/config"
	"github.com/fieldpipe/fieldpipe/internal/db"
	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/mapper"
	"github.com/fieldpipe/fieldpipe/internal/middleware"
	"github.com/fieldpipe/fieldpipe/internal/pipeline"
	"github.com/fieldpipe/fieldpipe/internal/registry"
	"github.com/fieldpipe/fieldpipe/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rules, err := settings.Pipeline.CompileRules()
	if err != nil {
		logger.Fatal("invalid validation rules", zap.Error(err))
	}

	var (
		recordStore  repository.RecordStore
		mappingStore repository.MappingStore
	)

	if settings.Pipeline.StorageDriver == "memory" {
		logger.Info("using in-memory record store")
		recordStore = repository.NewMemoryRecordStore()
		mappingStore = repository.NewMemoryMappingStore()
	} else {
		conn, err := db.NewConnection(ctx, settings.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer conn.Close()

		if err := conn.RunMigrations(ctx, "./migrations"); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}

		recordStore = repository.NewRecordStore(conn.Pool)
		mappingStore = repository.NewMappingStore(conn.Pool)
	}

	reg, err := registry.New(
		settings.Pipeline.DefaultMapping(),
		settings.Pipeline.RequiredFields,
		registry.WithStore(mappingStore),
		registry.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("failed to initialize mapping registry", zap.Error(err))
	}

	// Seed additional named configs from the config file, then overlay any
	// previously persisted registrations.
	for name, targets := range settings.Pipeline.Mappings {
		if name == domain.DefaultMappingName {
			continue
		}
		if err := reg.Register(ctx, name, domain.NewMappingConfig(name, targets)); err != nil {
			logger.Fatal("failed to seed mapping config", zap.String("name", name), zap.Error(err))
		}
	}
	if err := reg.LoadPersisted(ctx); err != nil {
		logger.Fatal("failed to load persisted mapping configs", zap.Error(err))
	}

	service := pipeline.NewService(
		reg,
		mapper.New(mapper.MatchMode(settings.Pipeline.MatchMode)),
		rules,
		recordStore,
		settings.Pipeline.KeyField,
		logger,
	)
	handler := pipeline.NewHandler(service)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logging(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	router.Post("/api/upload", handler.Submit)
	router.Get("/api/mappings", handler.ListMappings)
	router.Post("/api/mappings", handler.RegisterMapping)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   settings.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         settings.Server.Addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", settings.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
