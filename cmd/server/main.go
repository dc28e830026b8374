package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/idea-validator/internal/api"
	"github.com/ignite/idea-validator/internal/config"
	"github.com/ignite/idea-validator/internal/orchestrator"
	"github.com/ignite/idea-validator/internal/pkg/distlock"
	"github.com/ignite/idea-validator/internal/pkg/logger"
	"github.com/ignite/idea-validator/internal/progress"
	"github.com/ignite/idea-validator/internal/repository/postgres"
	"github.com/ignite/idea-validator/internal/scraper"
	"github.com/ignite/idea-validator/internal/scraper/appstore"
	"github.com/ignite/idea-validator/internal/scraper/feeds"
	"github.com/ignite/idea-validator/internal/scraper/reddit"
	"github.com/ignite/idea-validator/internal/service/validation"
	"github.com/ignite/idea-validator/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func logLevel(name string) logger.Level {
	switch strings.ToLower(name) {
	case "debug":
		return logger.DEBUG
	case "warn":
		return logger.WARN
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	if cfg.Database.URL == "" {
		log.Fatal("database.url is required (or set DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Database unreachable at %s: %v", extractHost(cfg.Database.URL), err)
	}
	pingCancel()
	log.Printf("Connected to database at %s", extractHost(cfg.Database.URL))

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("[redis] unreachable at %s, progress tracking degraded: %v", cfg.Redis.Addr, err)
		} else {
			log.Printf("[redis] connected at %s", cfg.Redis.Addr)
		}
	}
	phases := progress.New(redisClient, time.Hour)

	orch := orchestrator.New(orchestrator.Config{
		MaxConcurrent:     cfg.Scraping.MaxConcurrentSources,
		Deadline:          cfg.Scraping.Deadline(),
		EnrichmentTimeout: cfg.Scraping.EnrichmentTimeout(),
		DetailCompetitors: cfg.Scraping.DetailCompetitors,
		Progress:          phases,
	})

	register := func(s scraper.SourceScraper) {
		if orch.Register(s) {
			log.Printf("Registered source: %s", s.Name())
		}
	}
	if cfg.AppStore.Enabled {
		register(appstore.New(appstore.Config{
			Country:    cfg.AppStore.Country,
			Limit:      cfg.AppStore.Limit,
			MaxQueries: cfg.AppStore.MaxQueries,
		}, nil))
	}
	if cfg.Reddit.Enabled {
		register(reddit.New(reddit.Config{
			Limit:      cfg.Reddit.Limit,
			MaxQueries: cfg.Reddit.MaxQueries,
			TimeWindow: cfg.Reddit.TimeWindow,
		}, nil))
	}
	if cfg.Feeds.Enabled {
		register(feeds.New(feeds.Config{
			FeedURLs:        cfg.Feeds.URLs,
			MaxItemsPerFeed: cfg.Feeds.MaxItemsPerFeed,
		}, nil))
	}
	if len(orch.ListSources()) == 0 {
		log.Fatal("No sources enabled; enable at least one of app_store, reddit, feeds")
	}

	repo := postgres.NewValidationRepo(db)
	opts := []validation.Option{
		validation.WithProgress(phases),
		validation.WithLocks(func(jobID string, ttl time.Duration) distlock.DistLock {
			return distlock.ForValidation(redisClient, db, jobID, ttl)
		}),
	}
	if cfg.Archive.Enabled && cfg.Archive.S3Bucket != "" {
		archive, err := storage.NewS3Archive(context.Background(),
			cfg.Archive.S3Bucket, cfg.Archive.AWSRegion, cfg.Archive.GetAWSProfile())
		if err != nil {
			log.Fatalf("Failed to initialize S3 archive: %v", err)
		}
		opts = append(opts, validation.WithArchiver(archive))
		log.Printf("Archiving enabled to s3://%s", cfg.Archive.S3Bucket)
	}
	svc := validation.NewService(repo, orch, opts...)

	server := api.NewServer(api.NewHandlers(svc, phases))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s (sources: %s)", addr, strings.Join(orch.ListSources(), ", "))
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := orch.Close(); err != nil {
		log.Printf("Scraper shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()
	log.Println("Server stopped")
}
