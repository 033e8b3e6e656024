/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the points withdrawal service. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and environment configuration
  2. Build the logger
  3. Open the local SQLite store (session + attempt journal)
  4. Create the backend client and withdrawal coordinator
  5. Configure the HTTP router
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

ENVIRONMENT:
  HTTP_PORT                       Listen port (default 8080)
  BACKEND_BASE_URL                Platform backend root (default http://localhost:5000/api)
  DB_PATH                         SQLite path, ":memory:" for in-memory
  HTTP_TIMEOUT                    Backend request timeout (default 30s)
  MIN_POINTS_FOR_WITHDRAWAL       Eligibility floor (default 20)
  POINTS_TO_CEDI_CONVERSION_RATE  GHS per point (default 0.1)
  MIN_DAYS_ON_PLATFORM            Account age floor (default 30)
  APP_ENV                         "production" switches to JSON logs

SEE ALSO:
  - api/server.go: Router configuration
  - withdraw/coordinator.go: The domain flow behind the API
  - store/sqlite/sqlite.go: Local persistence
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/relayhq/points-engine/api"
	"github.com/relayhq/points-engine/backend"
	"github.com/relayhq/points-engine/config"
	"github.com/relayhq/points-engine/store/sqlite"
	"github.com/relayhq/points-engine/withdraw"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	client := backend.New(cfg.BackendBaseURL,
		backend.WithTimeout(cfg.HTTPTimeout),
		backend.WithLogger(logger.Named("backend")),
	)

	coordinator := withdraw.NewCoordinator(client, cfg.Conversion(), store,
		withdraw.WithLogger(logger.Named("withdraw")),
	)

	handler := api.NewHandler(coordinator, store, logger.Named("api"))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr()),
			zap.String("backend", cfg.BackendBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
