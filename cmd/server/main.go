package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"platformo/internal/auth"
	"platformo/internal/config"
	"platformo/internal/handler"
	"platformo/internal/i18n"
	"platformo/internal/middleware"
	"platformo/internal/realtime"
	"platformo/internal/repository/postgres"
	"platformo/internal/service"
	authz "platformo/internal/service/auth"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"autosave_debounce", cfg.AutosaveDebounce,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database connected")

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgres.NewProjectRepository(repoConfig)
	contentRepo := postgres.NewContentRepository(repoConfig)
	prefsRepo := postgres.NewUserPreferencesRepository(repoConfig)
	txManager := postgres.NewTransactionManager(repoConfig)

	// Realtime fan-out: Redis when configured so several instances share events
	var hub realtime.Hub
	if cfg.RedisURL != "" {
		redisHub, err := realtime.NewRedisHub(ctx, cfg.RedisURL, cfg.TablePrefix, logger)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		hub = redisHub
		logger.Info("realtime hub: redis")
	} else {
		hub = realtime.NewMemoryHub(logger)
		logger.Info("realtime hub: in-process")
	}
	defer hub.Close()

	translations, err := i18n.NewStore(cfg.DefaultLanguage)
	if err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}

	// Create services
	authorizer := authz.NewOwnerBasedAuthorizer(projectRepo)
	projectService := service.NewProjectService(projectRepo, txManager, authorizer, hub, logger)
	contentService := service.NewContentService(contentRepo, authorizer, hub, logger)
	prefsService := service.NewUserPreferencesService(prefsRepo, translations.Languages(), logger)

	corsOrigins := splitOrigins(cfg.CORSOrigins)

	// Create handlers
	projectHandler := handler.NewProjectHandler(projectService, logger)
	contentHandler := handler.NewContentHandler(contentService, logger)
	eventsHandler := handler.NewEventsHandler(contentService, hub, nil, logger)
	workspaceHandler := handler.NewWorkspaceHandler(ctx, contentService, prefsService, hub, translations, cfg.AutosaveDebounce, corsOrigins, logger)
	i18nHandler := handler.NewI18nHandler(translations)
	prefsHandler := handler.NewUserPreferencesHandler(prefsService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("PATCH /api/projects/{id}", projectHandler.UpdateProject)

	// Workspace content
	mux.HandleFunc("GET /api/projects/{id}/content", contentHandler.GetContent)
	mux.HandleFunc("PUT /api/projects/{id}/content", contentHandler.SaveContent)

	// Live editing and realtime
	mux.HandleFunc("GET /api/projects/{id}/workspace", workspaceHandler.OpenWorkspace) // websocket
	mux.HandleFunc("GET /api/projects/{id}/events", eventsHandler.StreamEvents)       // SSE

	// User preferences routes
	mux.HandleFunc("GET /api/users/me/preferences", prefsHandler.GetPreferences)
	mux.HandleFunc("PATCH /api/users/me/preferences", prefsHandler.UpdatePreferences)

	// Translations and block catalog (public)
	mux.HandleFunc("GET /api/i18n/{lang}", i18nHandler.GetStrings)
	mux.HandleFunc("GET /api/blocks", i18nHandler.GetBlocks)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, logger, "/health", "/api/i18n/", "/api/blocks")(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Workspace sessions observe ctx and cancel their pending autosaves.
	// Saves already in flight finish on their own detached context.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
