// Command server exposes the latest attribution report over HTTP for
// the dashboard, reading through the Redis cache with a Postgres
// fallthrough.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/unitesync/attribution-engine/internal/api"
	"github.com/unitesync/attribution-engine/internal/cache"
	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/pkg/logger"
	"github.com/unitesync/attribution-engine/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var store api.ReportStore
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatalf("pinging database: %v", err)
		}
		cancel()
		store = postgres.NewReportRepo(db)
	} else {
		logger.Warn("no DATABASE_URL configured, serving from cache only")
	}

	reportCache := cache.New(cfg.Redis)
	defer reportCache.Close()

	handlers := api.NewHandlers(reportCache, store)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.Routes(handlers, cfg.Server.AllowedOrigins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("report API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	logger.Info("server stopped")
}
