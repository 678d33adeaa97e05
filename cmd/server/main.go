/*
main.go - Application entry point

PURPOSE:
  Starts the debt ledger server. Wires configuration, the in-memory
  ledger store, the SQLite sink, the sync outbox, and the HTTP router,
  then runs with graceful shutdown.

STARTUP SEQUENCE:
  1. Parse flags and load config (viper; flags override)
  2. Open the SQLite sink and restore persisted customers
  3. Seed the in-memory store from the restored snapshot
  4. Start the outbox worker
  5. Start the HTTP server

COMMAND-LINE FLAGS:
  -config  Optional YAML config file
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config; ":memory:" works)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Stop the outbox worker, flushing queued sync tasks
  3. Close the database

SEE ALSO:
  - api/server.go: Router configuration
  - outbox: Best-effort sync worker
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/debt-engine/api"
	"github.com/warp/debt-engine/config"
	"github.com/warp/debt-engine/ledger"
	"github.com/warp/debt-engine/outbox"
	"github.com/warp/debt-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log := newLogger(cfg.Log.Level)
	defer log.Sync()

	// Durable sink + restore.
	sink, err := sqlite.New(cfg.Database.Path, log)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer sink.Close()

	store := ledger.NewStore()
	restored, err := sink.LoadAll(context.Background())
	if err != nil {
		log.Fatal("failed to restore ledger", zap.Error(err))
	}
	for _, c := range restored {
		if _, err := store.AddCustomer(c); err != nil {
			log.Warn("skipping unrestorable customer",
				zap.String("customer_id", string(c.ID)), zap.Error(err))
		}
	}
	log.Info("ledger restored", zap.Int("customers", len(restored)))

	alloc := ledger.NewAllocator(store, nil)

	// Outbox worker: in-memory mutations flow to the sink best-effort.
	ob := outbox.New(sink, log, outbox.Options{
		Buffer:       cfg.Outbox.Buffer,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		RetryBackoff: cfg.Outbox.RetryBackoff,
		SaveTimeout:  cfg.Outbox.SaveTimeout,
	})
	obCtx, obCancel := context.WithCancel(context.Background())
	go ob.Run(obCtx)

	handler := api.NewHandler(store, alloc, ob, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	// Stop the worker; Run flushes buffered tasks before returning.
	obCancel()
	ob.Wait()

	log.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
