// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware,
// the MCP transport, and routes. It is the composition root: the entire
// dependency chain is assembled here rather than scattered across the
// codebase.
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "load config, start the server")
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sakif/gradient-mcp/internal/auth"
	"github.com/sakif/gradient-mcp/internal/config"
	"github.com/sakif/gradient-mcp/internal/handler"
	"github.com/sakif/gradient-mcp/internal/mcptool"
	"github.com/sakif/gradient-mcp/internal/middleware"
	sqliteRepo "github.com/sakif/gradient-mcp/internal/repository/sqlite"
	"github.com/sakif/gradient-mcp/internal/service"
)

const (
	serverName    = "gradient-mcp"
	serverVersion = "1.0.0"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. When the server shuts down, the
// connection must be closed to flush the WAL and release the file lock;
// Start() handles that during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the given config.
//
// DEPENDENCY CHAIN:
//  1. sqlite.DB implements repository.ProfileRepository
//  2. ProfileService receives the repository interface
//  3. Invoker receives the verifier and the profile service
//  4. MCP tool handlers and HTTP handlers receive the services
//
// The handlers never touch the database directly; the services never touch
// HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware, handlers, and the MCP mount.
//
// ROUTE STRUCTURE:
// POST /mcp                                       → MCP streamable transport (tools)
// GET  /.well-known/oauth-protected-resource      → OAuth discovery (RFC 9728)
// GET  /.well-known/oauth-authorization-server    → OAuth discovery (RFC 8414)
// POST /auth/sync                                 → verify credential, sync profile, issue session
// POST /auth/logout                               → clear session cookie
// GET  /api/me                                    → current session's profile (session required)
// GET  /healthz                                   → liveness probe
// GET  /, /login                                  → login page
// GET  /static/*                                  → widget assets
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID — assigns a unique ID to each request (for tracing)
// 2. RealIP — extracts the real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. CORS — MCP clients and the widget run on other origins
// 5. Logger — logs each request with timing info
// 6. Rate limiter — per-IP, before any credential verification happens
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)

	// MCP clients are native apps and browser extensions; the gradient
	// widget is embeddable. Origins are unknowable in advance, and the only
	// cookie-bearing routes are same-site, so a permissive policy is safe.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(middleware.Logger(s.logger))

	limiter := middleware.NewRateLimiter(rate.Limit(s.config.RateLimit), s.config.RateLimitBurst)
	s.router.Use(limiter.Handler)

	// === Services ===
	verifier := auth.NewIssuerVerifier(s.config.AuthenticateURL, s.config.ProjectID, s.config.ProjectSecret)
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	profiles := service.NewProfileService(s.db, s.logger)
	invoker := service.NewInvoker(verifier, profiles, s.logger)

	// === MCP Transport ===
	// One MCP server instance serves all sessions; the streamable handler
	// multiplexes them. WithBearer captures the Authorization credential
	// into the context so tool handlers can reach it — each tool call
	// decides for itself whether to verify or take the anonymous path.
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcptool.Register(mcpServer, invoker)

	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)
	s.router.Handle("/mcp", auth.WithBearer(streamable))
	s.router.Handle("/mcp/*", auth.WithBearer(streamable))

	// === OAuth Discovery ===
	metadata := handler.NewMetadataHandler(s.config.ServerURL, s.config.IssuerURL, oauth2.Endpoint{
		AuthURL:  s.config.AuthorizationURL,
		TokenURL: s.config.TokenURL,
	})
	s.router.Get("/.well-known/oauth-protected-resource", metadata.HandleProtectedResource)
	s.router.Get("/.well-known/oauth-authorization-server", metadata.HandleAuthorizationServer)

	// === Session Routes ===
	authHandler := handler.NewAuthHandler(verifier, tokens, profiles, s.logger, metadata.ResourceMetadataURL())
	s.router.Post("/auth/sync", authHandler.HandleSync)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireSession(tokens))
		r.Get("/me", authHandler.HandleMe)
	})

	// === Health & Static ===
	s.router.Get("/healthz", handler.HandleHealthz)

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	serveLogin := func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.config.StaticDir, "index.html"))
	}
	s.router.Get("/", serveLogin)
	s.router.Get("/login", serveLogin)

	return nil
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases the file lock)
//
// The `defer s.db.Close()` ensures step 3 happens even if something panics.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.ServerURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
