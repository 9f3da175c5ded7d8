// Command indexer runs a batch build_index + shard write pass over the
// already-normalized input directory: index -> shard.Write -> catalog build
// record -> publish index.built. It
// triggers either once via -once, or on every corpus.updated Kafka event,
// matching the domain stack's "batch, not incremental" rebuild model.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/elias-vance/lexishard/internal/catalog"
	"github.com/elias-vance/lexishard/internal/events"
	"github.com/elias-vance/lexishard/internal/indexer"
	"github.com/elias-vance/lexishard/internal/shard"
	"github.com/elias-vance/lexishard/pkg/config"
	"github.com/elias-vance/lexishard/pkg/kafka"
	"github.com/elias-vance/lexishard/pkg/logger"
	"github.com/elias-vance/lexishard/pkg/metrics"
	"github.com/elias-vance/lexishard/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single build pass and exit, instead of consuming corpus.updated")
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
	slog.Info("starting indexer service", "input_dir", cfg.Index.InputDir, "index_dir", cfg.Index.IndexDir, "num_shards", cfg.Index.NumShards)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, build history will not be recorded", "error", err)
	}
	m := metrics.New()
	var cat *catalog.Catalog
	if db != nil {
		defer db.Close()
		cat = catalog.New(db, m)
	}

	producer := kafka.NewProducer(cfg.Kafka, events.TopicIndexBuilt)
	defer producer.Close()
	publisher := events.NewPublisher(producer, 1000)
	defer publisher.Close()

	runBuild := func(ctx context.Context) error {
		return build(ctx, cfg, cat, publisher, m)
	}

	if *once {
		if err := runBuild(context.Background()); err != nil {
			slog.Error("build failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka, events.TopicCorpusUpdated, func(ctx context.Context, key, value []byte) error {
		slog.Info("corpus.updated received, triggering rebuild", "key", string(key))
		return runBuild(ctx)
	})
	defer consumer.Close()

	slog.Info("indexer service ready, waiting for corpus.updated events", "topic", events.TopicCorpusUpdated)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}
	slog.Info("indexer service stopped")
}

// build runs one full normalize -> build_index -> shard write pass and
// records/publishes its outcome.
func build(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, publisher *events.Publisher, m *metrics.Metrics) error {
	start := time.Now()

	result, err := indexer.BuildIndex(cfg.Index.InputDir)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	if err := shard.Write(result.Index, cfg.Index.IndexDir, cfg.Index.NumShards); err != nil {
		m.IndexFlushesTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("writing shards: %w", err)
	}
	m.IndexFlushesTotal.WithLabelValues("success").Inc()
	m.DocsIndexedTotal.Add(float64(result.DocTable.Len()))
	m.ActiveShards.Set(float64(cfg.Index.NumShards))
	for i, count := range shard.TermCounts(result.Index, cfg.Index.NumShards) {
		m.ShardTermCount.WithLabelValues(strconv.Itoa(i)).Set(float64(count))
	}

	builtAt := time.Now().UTC()
	slog.Info("build complete",
		"documents", result.DocTable.Len(),
		"terms", result.Index.Len(),
		"shards", cfg.Index.NumShards,
		"took", time.Since(start),
	)

	if cat != nil {
		if err := cat.RecordBuild(ctx, catalog.BuildRecord{
			DocCount:   result.DocTable.Len(),
			TermCount:  result.Index.Len(),
			ShardCount: cfg.Index.NumShards,
			BuiltAt:    builtAt,
		}); err != nil {
			slog.Error("failed to record build in catalog", "error", err)
		}
	}

	if err := publisher.PublishIndexBuilt(ctx, events.IndexBuilt{
		ShardDir:   cfg.Index.IndexDir,
		DocCount:   result.DocTable.Len(),
		TermCount:  result.Index.Len(),
		ShardCount: cfg.Index.NumShards,
		BuiltAt:    builtAt,
	}); err != nil {
		slog.Error("failed to publish index.built", "error", err)
	}

	return nil
}
