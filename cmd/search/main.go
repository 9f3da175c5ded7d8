// Command search runs the search service: either as an HTTP server
// exposing GET /search behind an API-key guard and Redis query cache, or,
// with -interactive, as a REPL that prints the top 10 results for each
// query line, matching the reference cosine search tool's "Q> " prompt.
//
// Usage:
//
//	go run ./cmd/search [-config configs/development.yaml] [-interactive]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elias-vance/lexishard/internal/events"
	"github.com/elias-vance/lexishard/internal/normalize"
	"github.com/elias-vance/lexishard/internal/present"
	"github.com/elias-vance/lexishard/internal/querycache"
	"github.com/elias-vance/lexishard/internal/searchguard"
	"github.com/elias-vance/lexishard/internal/searchsvc"
	"github.com/elias-vance/lexishard/internal/stopwords"
	"github.com/elias-vance/lexishard/pkg/config"
	"github.com/elias-vance/lexishard/pkg/health"
	"github.com/elias-vance/lexishard/pkg/kafka"
	"github.com/elias-vance/lexishard/pkg/logger"
	"github.com/elias-vance/lexishard/pkg/metrics"
	"github.com/elias-vance/lexishard/pkg/middleware"
	"github.com/elias-vance/lexishard/pkg/postgres"
	pkgredis "github.com/elias-vance/lexishard/pkg/redis"
)

// buildVersion is overridable at link time via -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	interactive := flag.Bool("interactive", false, "run an interactive query REPL instead of the HTTP server")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Startup("search", buildVersion)

	stops, err := stopwords.Load(cfg.Index.StopwordsPath)
	if err != nil {
		slog.Error("failed to load stopwords", "error", err)
		os.Exit(1)
	}
	norm := normalize.New(stops)
	m := metrics.New()

	var cache *querycache.Cache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cache = querycache.New(redisClient, cfg.Redis.CacheTTL, m)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var guard *searchguard.Guard
	var pgClient *postgres.Client
	pgClient, err = postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, api key auth disabled", "error", err)
	} else {
		defer pgClient.Close()
		guard = searchguard.New(searchguard.NewKeyValidator(pgClient), searchguard.NewLimiter(time.Minute))
	}

	svc, err := searchsvc.New(searchsvc.Config{
		IndexDir:     cfg.Index.IndexDir,
		InputDir:     cfg.Index.InputDir,
		Normalizer:   norm,
		Cache:        cache,
		Guard:        guard,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
		Metrics:      m,
	})
	if err != nil {
		slog.Error("failed to start search service", "error", err)
		os.Exit(1)
	}

	if *interactive {
		runInteractive(svc)
		return
	}
	runServer(cfg, svc, m, cache, pgClient, redisClient)
}

// runInteractive prints the top 10 results for each line read from stdin,
// mirroring the reference tool's "Q> " prompt loop.
func runInteractive(svc interface {
	Search(ctx context.Context, rawQuery string, limit int) ([]present.Line, error)
}) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Q> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		lines, err := svc.Search(context.Background(), line, 10)
		if err != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
			continue
		}
		if len(lines) == 0 {
			fmt.Println("Query contains no valid terms after processing.")
			continue
		}
		fmt.Println("Top 10 results:")
		fmt.Print(present.Format(lines))
	}
}

// runServer starts the HTTP server exposing GET /search plus health and
// metrics endpoints, consuming index.built events to trigger shard reloads.
func runServer(cfg *config.Config, svc *searchsvc.Service, m *metrics.Metrics, cache *querycache.Cache, pgClient *postgres.Client, redisClient *pkgredis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloadConsumer := kafka.NewConsumer(cfg.Kafka, events.TopicIndexBuilt, func(ctx context.Context, key, value []byte) error {
		slog.Info("index.built received, reloading shards")
		return svc.Reload()
	})
	go func() {
		if err := reloadConsumer.Start(ctx); err != nil {
			slog.Error("reload consumer error", "error", err)
		}
	}()
	defer reloadConsumer.Close()

	checker := health.NewChecker()
	checker.Register("shard_set", func(ctx context.Context) health.ComponentHealth {
		terms, docs := svc.Stats()
		if docs == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no documents loaded"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d terms, %d documents", terms, docs)}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if cache != nil {
		checker.Register("query_cache", func(ctx context.Context) health.ComponentHealth {
			size, err := cache.Size(ctx)
			if err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d cached queries", size)}
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", svc.HTTPHandler())
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
