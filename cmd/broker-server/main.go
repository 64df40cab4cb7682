// Package main provides the remote-control session broker server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang/glog"

	"github.com/opsdeck/remote-broker/internal/db"
	"github.com/opsdeck/remote-broker/pkg/assets"
	"github.com/opsdeck/remote-broker/pkg/audit"
	"github.com/opsdeck/remote-broker/pkg/authz"
	"github.com/opsdeck/remote-broker/pkg/cache"
	"github.com/opsdeck/remote-broker/pkg/ice"
	"github.com/opsdeck/remote-broker/pkg/policy"
	"github.com/opsdeck/remote-broker/pkg/session"
	"github.com/opsdeck/remote-broker/pkg/telemetry"
	"github.com/opsdeck/remote-broker/pkg/tenancy"
	"github.com/opsdeck/remote-broker/pkg/token"
)

func main() {
	var (
		listenAddr   string
		configPath   string
		databaseType string
		databaseDSN  string
	)

	flag.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	flag.StringVar(&configPath, "config", "/config/broker.yaml", "Path to broker config")
	flag.StringVar(&databaseType, "db-type", "", "Database type (postgres, mysql, or sqlite)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.Parse()

	// Initialize glog for backwards compatibility
	_ = flag.Set("logtostderr", "true")

	// Set up structured logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := LoadBrokerConfig(configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("starting session broker",
		"listen", listenAddr,
		"tenancyMode", cfg.TenancyMode,
		"tokenTtlMinutes", cfg.TokenTTLMinutes,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := db.Connect(resolveDBType(databaseType), resolveDSN(databaseDSN))
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	secret := os.Getenv("BROKER_TOKEN_SECRET")
	if secret == "" {
		glog.Fatalf("BROKER_TOKEN_SECRET is required")
	}
	issuer, err := token.NewIssuerTTL([]byte(secret), time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	if err != nil {
		glog.Fatalf("Failed to create token issuer: %v", err)
	}

	// Stores and migrations. The migration lock serializes AutoMigrate
	// across replicas starting at the same time.
	policies := policy.NewStore(gormDB)
	sessions := session.NewStore(gormDB)
	ledger := audit.NewStore(gormDB)
	directory := assets.NewDBDirectory(gormDB)
	locker := db.NewMigrationLocker(gormDB)
	err = locker.WithLock(ctx, func() error {
		for name, migrate := range map[string]func() error{
			"policies": policies.AutoMigrate,
			"sessions": sessions.AutoMigrate,
			"audit":    ledger.AutoMigrate,
			"assets":   directory.AutoMigrate,
		} {
			if err := migrate(); err != nil {
				return fmt.Errorf("failed to migrate %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		glog.Fatalf("Migration failed: %v", err)
	}

	gate := authz.NewGate(policies, directory)
	registry := session.NewRegistry(sessions, gate, policies, ledger, issuer)
	consent := session.NewConsentCoordinator(registry)
	sink := telemetry.NewSink(sessions)
	iceProvider := ice.NewProvider(cfg.ICE)
	caches := cache.NewManager(cache.ConfigFromEnv())
	if caches == nil {
		logger.Info("response caching disabled")
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(tenancy.NewMiddleware(cfg.TenancyMode))
		r.Mount("/sessions", session.NewRouter(registry, consent, ledger, sink))
		r.Mount("/policy", caches.PolicyMiddleware()(policy.NewRouter(policies)))
		r.Mount("/audit", audit.NewRouter(ledger))
		r.Mount("/ice-servers", caches.ICEMiddleware()(ice.NewRouter(iceProvider)))
	})

	logger.Info("session broker ready", "listen", listenAddr)

	// Create HTTP server with graceful shutdown
	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("session broker stopped")
}

// resolveDBType falls back to the DATABASE_TYPE env var, then sqlite.
func resolveDBType(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		return v
	}
	return db.TypeSQLite
}

// resolveDSN falls back to the DATABASE_DSN env var.
func resolveDSN(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		return v
	}
	return "broker.db"
}
