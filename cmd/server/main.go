package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"diagramlab/internal/auth"
	"diagramlab/internal/capabilities"
	"diagramlab/internal/config"
	"diagramlab/internal/handler"
	"diagramlab/internal/middleware"
	"diagramlab/internal/prompts"
	"diagramlab/internal/repository/filesystem"
	serviceExamples "diagramlab/internal/service/examples"
	serviceGeneration "diagramlab/internal/service/generation"
	serviceLLM "diagramlab/internal/service/llm"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger, closeLog, err := config.NewLogger(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"examples_dir", cfg.ExamplesDir,
	)

	// Admin gate for destructive operations
	adminGate, err := auth.NewAdminGate(cfg.AdminPassword, cfg.AdminTokenSecret, cfg.AdminSessionTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create admin gate: %v", err)
	}

	// Create repositories
	exampleRepo, err := filesystem.NewExampleRepository(&filesystem.RepositoryConfig{
		Root:      cfg.ExamplesDir,
		TrashRoot: cfg.TrashDir,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to open example store: %v", err)
	}

	// Setup LLM providers
	providerRegistry, err := serviceLLM.SetupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup LLM providers: %v", err)
	}

	// Initialize prompt registry
	promptRegistry, err := prompts.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize prompt registry: %v", err)
	}
	if _, err := promptRegistry.Get(cfg.PromptProfile); err != nil {
		log.Fatalf("Invalid PROMPT_PROFILE: %v", err)
	}
	logger.Info("prompt registry initialized", "profiles", promptRegistry.Names())

	// Model catalogue for image gating and the model picker
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}

	referenceImages, err := serviceGeneration.LoadReferenceImages(cfg.ReferenceImagesDir)
	if err != nil {
		log.Fatalf("Failed to load reference images: %v", err)
	}
	logger.Info("reference images loaded", "dir", cfg.ReferenceImagesDir, "count", len(referenceImages))

	// Create services
	exampleService := serviceExamples.NewExampleService(exampleRepo, logger)
	generationService := serviceGeneration.NewService(promptRegistry, providerRegistry, exampleService, serviceGeneration.ServiceConfig{
		DefaultProfile:      cfg.PromptProfile,
		DefaultCount:        cfg.VariantCount,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		ReferenceSampleSize: cfg.ReferenceSampleSize,
		ParserStrict:        cfg.ParserStrict,
		ReferenceImages:     referenceImages,
		Models:              capabilityRegistry,
	}, logger)

	// Create handlers
	exampleHandler := handler.NewExampleHandler(exampleService, logger)
	generationHandler := handler.NewGenerationHandler(generationService, promptRegistry, logger)
	sessionHandler := handler.NewSessionHandler(adminGate, logger)
	modelsHandler := handler.NewModelsHandler(cfg, logger, capabilityRegistry)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Session routes
	mux.HandleFunc("POST /api/session/unlock", sessionHandler.Unlock)
	mux.HandleFunc("GET /api/session", sessionHandler.Status)

	// Example routes
	mux.HandleFunc("GET /api/examples", exampleHandler.ListExamples)
	mux.HandleFunc("POST /api/examples", exampleHandler.CreateExample)
	mux.HandleFunc("GET /api/examples/{id}", exampleHandler.GetExample)
	mux.HandleFunc("GET /api/examples/{id}/diagram", exampleHandler.GetDiagram)
	mux.HandleFunc("DELETE /api/examples/{id}", exampleHandler.DeleteExample)

	// Trash routes
	mux.HandleFunc("GET /api/trash", exampleHandler.ListTrash)
	mux.HandleFunc("POST /api/trash/{trashId}/restore", exampleHandler.RestoreExample)
	mux.HandleFunc("DELETE /api/trash/{trashId}", exampleHandler.PurgeTrashed)

	// Generation routes
	mux.HandleFunc("GET /api/prompts", generationHandler.ListProfiles)
	mux.HandleFunc("GET /api/models", modelsHandler.GetCapabilities)
	mux.HandleFunc("POST /api/generations", generationHandler.GenerateVariants)

	// Debug routes
	if cfg.Debug {
		mux.HandleFunc("POST /debug/api/generations/preview", generationHandler.PreviewRequest)
		logger.Warn("Debug route registered: POST /debug/api/generations/preview (assembled request preview)")
	}

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Logging → Recovery → Session → Routes
	h = middleware.AdminSession(adminGate, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     h,
		ReadTimeout: 30 * time.Second,
		// Sized for the largest generate call, not the default count
		WriteTimeout: cfg.GenerationWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
