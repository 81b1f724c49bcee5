/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the PetGuardian quote engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration, apply command-line flags
  2. Initialize logger and SQLite store
  3. Install the last persisted tariff (or the defaults)
  4. Connect optional collaborators: quote cache, booking publisher
  5. Configure HTTP router, start the tariff refresher
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT, default: 8080)
  -db      SQLite database path (overrides DB_PATH, default: quotes.db)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the tariff refresher
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close publisher, cache and database
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/quotes.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Pull pricing every 5 minutes, publish bookings to Kafka
  PRICING_URL=https://script.example/exec PRICING_REFRESH_INTERVAL=5m \
  KAFKA_ENABLED=true KAFKA_BROKERS=localhost:9092 ./server

ENVIRONMENT:
  See config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petguardian/quote-engine/api"
	"github.com/petguardian/quote-engine/cache"
	"github.com/petguardian/quote-engine/config"
	"github.com/petguardian/quote-engine/events"
	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/logger"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/petguardian/quote-engine/source"
	"github.com/petguardian/quote-engine/store/sqlite"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.Server.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Server.DBPath, "SQLite database path")
	flag.Parse()

	log := logger.New(&cfg.Logger)
	generic.CurrencySymbol = cfg.Pricing.CurrencySymbol

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Initialize publisher
	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.Kafka.Enabled {
		producer, err := events.NewProducer(&cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect booking publisher")
		}
		publisher = producer
	}
	defer publisher.Close()

	// Initialize handler with the last installed tariff
	book := pricing.NewTariffBook(pricing.DefaultTariff())
	handler := api.NewHandler(store, book, publisher, log)
	if !decimal.NewFromFloat(cfg.Pricing.DepositPercent).Equal(pricing.DefaultTariff().DepositPercent()) {
		handler.DefaultOverrides = map[string]any{string(pricing.RateDepositPercent): cfg.Pricing.DepositPercent}
	}

	ctx := context.Background()
	tariff, err := pricing.LoadLatest(ctx, store)
	switch {
	case err == nil:
		book.Install(tariff)
		log.WithField("version", tariff.Version()).WithField("source", string(tariff.Source())).Info("Stored tariff installed")
	case errors.Is(err, generic.ErrTariffNotFound):
		handler.InstallTariff(ctx, handler.DefaultTariff())
	default:
		log.WithError(err).Warn("Failed to load stored tariff, using defaults")
		book.Install(handler.DefaultTariff())
	}

	// Quote cache
	if cfg.Redis.Enabled {
		qc, err := cache.Connect(&cfg.Redis, log)
		if err != nil {
			log.WithError(err).Warn("Quote cache unavailable, quoting without it")
		} else {
			handler.Cache = qc
			defer qc.Close()
		}
	}

	// Tariff refresher
	if cfg.Pricing.RefreshEnabled() {
		src, err := source.NewHTTPSource(cfg.Pricing.URL, cfg.Pricing.Timeout)
		if err != nil {
			log.WithError(err).Fatal("Invalid pricing source")
		}
		refresher := api.NewTariffRefresher(handler, src, log)
		refresher.CheckInterval = cfg.Pricing.RefreshInterval
		handler.Refresher = refresher
		refresher.Start()
		defer refresher.Stop()
	}

	// Create router
	router := api.NewRouter(handler, cfg.Server.CORSOrigins, log)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", *port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server stopped")
}
