// Command attribute runs one attribution batch: load the JSON source
// exports, build indexes, attribute every client, enrich with thread
// variants, and write the report.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/unitesync/attribution-engine/internal/bison"
	"github.com/unitesync/attribution-engine/internal/cache"
	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/loader"
	"github.com/unitesync/attribution-engine/internal/pipeline"
	"github.com/unitesync/attribution-engine/internal/pkg/logger"
	"github.com/unitesync/attribution-engine/internal/repository/postgres"
	"github.com/unitesync/attribution-engine/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		inputDir   = flag.String("input", "data", "directory of JSON source exports")
		save       = flag.Bool("save", false, "persist the report to Postgres")
		warmCache  = flag.Bool("cache", false, "push the report into the Redis cache")
		offline    = flag.Bool("offline", false, "skip the thread-detail fetch (no network)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	rules, err := config.LoadVariantRules(cfg.Engine.VariantRulesPath)
	if err != nil {
		log.Fatalf("loading variant rules: %v", err)
	}

	src, err := loader.FromDir(*inputDir)
	if err != nil {
		log.Fatalf("loading sources: %v", err)
	}

	ctx := context.Background()

	deps := pipeline.Deps{Engine: cfg.Engine, Rules: rules}
	if !*offline {
		deps.Fetcher = bison.NewClient(cfg.Bison)
	}

	rep, err := pipeline.Run(ctx, src, deps)
	if err != nil {
		log.Fatalf("attribution run: %v", err)
	}

	switch cfg.Storage.Backend {
	case "file":
		path, err := storage.NewLocalExporter(cfg.Storage.LocalDir).Export(ctx, rep)
		if err != nil {
			log.Fatalf("exporting report: %v", err)
		}
		fmt.Printf("report written to %s\n", path)
	case "s3":
		exporter, err := storage.NewS3Exporter(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("creating S3 exporter: %v", err)
		}
		key, err := exporter.Export(ctx, rep)
		if err != nil {
			log.Fatalf("exporting report: %v", err)
		}
		fmt.Printf("report uploaded to s3://%s/%s\n", cfg.Storage.S3Bucket, key)
	case "none":
	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if *save {
		if cfg.Database.URL == "" {
			log.Fatal("-save requires DATABASE_URL or database.url in the config")
		}
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			log.Fatalf("pinging database: %v", err)
		}

		repo := postgres.NewReportRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("migrating: %v", err)
		}
		if err := repo.Save(ctx, rep); err != nil {
			log.Fatalf("saving report: %v", err)
		}
		logger.Info("report saved", "run_id", rep.Meta.RunID)
	}

	if *warmCache {
		c := cache.New(cfg.Redis)
		defer c.Close()
		if err := c.SetLatest(ctx, rep); err != nil {
			// Cache warm failure is not worth failing the run over.
			logger.Warn("caching report failed", "error", err.Error())
		}
	}

	unattributed := 0
	for _, c := range rep.Clients {
		if c.Attribution == nil {
			unattributed++
		}
	}
	fmt.Printf("run %s: %d clients, %d unattributed, enrichment_ok=%v\n",
		rep.Meta.RunID, len(rep.Clients), unattributed, rep.Meta.EnrichmentOK)
}
