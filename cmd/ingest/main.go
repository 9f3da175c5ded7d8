// Command ingest unzips every ".zip" archive under the -archives directory,
// normalizes its text, writes the result as a mirrored ".txt" file under the
// configured index input directory, records each document in the catalog,
// and publishes a single corpus.updated event for the indexer service to
// pick up.
//
// Usage:
//
//	go run ./cmd/ingest [-config configs/development.yaml] -archives input-files
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/elias-vance/lexishard/internal/catalog"
	"github.com/elias-vance/lexishard/internal/events"
	"github.com/elias-vance/lexishard/internal/ingest"
	"github.com/elias-vance/lexishard/internal/normalize"
	"github.com/elias-vance/lexishard/internal/stopwords"
	"github.com/elias-vance/lexishard/pkg/config"
	"github.com/elias-vance/lexishard/pkg/kafka"
	"github.com/elias-vance/lexishard/pkg/logger"
	"github.com/elias-vance/lexishard/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	archivesDir := flag.String("archives", "input-files", "directory to scan for .zip archives")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	stops, err := stopwords.Load(cfg.Index.StopwordsPath)
	if err != nil {
		slog.Error("failed to load stopwords", "error", err)
		os.Exit(1)
	}
	norm := normalize.New(stops)

	adapter := ingest.New(norm, *archivesDir, cfg.Index.InputDir)
	results, err := adapter.Walk()
	if err != nil {
		slog.Error("ingest walk failed", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion complete", "archives_processed", len(results))
	if len(results) == 0 {
		slog.Warn("no archives processed, skipping corpus.updated")
		return
	}

	ctx := context.Background()

	if db, err := postgres.New(cfg.Postgres); err != nil {
		slog.Warn("postgres unavailable, document records will not be saved", "error", err)
	} else {
		defer db.Close()
		cat := catalog.New(db)
		for _, r := range results {
			if err := cat.RecordDocument(ctx, r.OutputPath, r.Bytes); err != nil {
				slog.Error("failed to record document", "path", r.OutputPath, "error", err)
			}
		}
	}

	producer := kafka.NewProducer(cfg.Kafka, events.TopicCorpusUpdated)
	defer producer.Close()
	publisher := events.NewPublisher(producer, 100)
	defer publisher.Close()

	if err := publisher.PublishCorpusUpdated(ctx, events.CorpusUpdated{
		InputDir:  cfg.Index.InputDir,
		DocCount:  len(results),
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		slog.Error("failed to publish corpus.updated", "error", err)
		os.Exit(1)
	}
	slog.Info("published corpus.updated", "doc_count", len(results))
}
