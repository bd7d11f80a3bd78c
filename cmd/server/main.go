/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the benefit engine server: rate table, store,
  handler, router, graceful shutdown.

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: benefit.db)
           Use ":memory:" for an in-memory database
  -rates   YAML rate table path (default: built-in enacted history)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - factory/rates.go: Rate table loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/velferd/benefit-engine/api"
	"github.com/velferd/benefit-engine/benefit"
	"github.com/velferd/benefit-engine/factory"
	"github.com/velferd/benefit-engine/ledger"
	"github.com/velferd/benefit-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "benefit.db", "SQLite database path")
	ratesPath := flag.String("rates", "", "YAML rate table path (empty = built-in history)")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Rate table
	rates := factory.DefaultRateTable()
	if *ratesPath != "" {
		loaded, err := factory.LoadRateFile(*ratesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *ratesPath).Msg("failed to load rate table")
		}
		rates = loaded
	}

	// Store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Engine wiring
	clock := ledger.SystemClock()
	handler := api.NewHandler(
		store,
		benefit.NewCalculator(rates),
		ledger.NewGenerator(clock, ledger.NewKeyGenerator(clock)),
		clock,
		log,
	)
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", *port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
