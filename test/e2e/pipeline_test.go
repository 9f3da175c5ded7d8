// Package e2e exercises the full ingest -> index -> shard -> search
// pipeline end to end against the local filesystem, with no live Postgres,
// Kafka, or Redis dependency.
package e2e

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/elias-vance/lexishard/internal/indexer"
	"github.com/elias-vance/lexishard/internal/ingest"
	"github.com/elias-vance/lexishard/internal/normalize"
	"github.com/elias-vance/lexishard/internal/searchsvc"
	"github.com/elias-vance/lexishard/internal/shard"
)

func writeArchive(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// TestFullPipeline walks two zip archives through ingestion normalization,
// batch indexing, shard persistence, and finally a ranked search, asserting
// the document most relevant to the query sorts first.
func TestFullPipeline(t *testing.T) {
	archiveDir := t.TempDir()
	inputDir := t.TempDir()
	indexDir := t.TempDir()

	writeArchive(t, filepath.Join(archiveDir, "reports", "doc1.zip"), map[string]string{
		"doc1.txt": "Market analysts predict the market will see a rise in share price.",
	})
	writeArchive(t, filepath.Join(archiveDir, "reports", "doc2.zip"), map[string]string{
		"doc2.txt": "Demand softened and the price of the commodity was cut overnight.",
	})

	stopwords := map[string]struct{}{
		"the": {}, "a": {}, "in": {}, "of": {}, "and": {}, "will": {}, "was": {},
	}
	norm := normalize.New(stopwords)

	adapter := ingest.New(norm, archiveDir, inputDir)
	results, err := adapter.Walk()
	if err != nil {
		t.Fatalf("ingest walk: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 archives processed, got %d", len(results))
	}

	built, err := indexer.BuildIndex(inputDir)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if built.DocTable.Len() != 2 {
		t.Fatalf("expected 2 documents indexed, got %d", built.DocTable.Len())
	}

	if err := shard.Write(built.Index, indexDir, 3); err != nil {
		t.Fatalf("shard write: %v", err)
	}

	svc, err := searchsvc.New(searchsvc.Config{
		IndexDir:     indexDir,
		InputDir:     inputDir,
		Normalizer:   norm,
		DefaultLimit: 10,
		MaxResults:   100,
	})
	if err != nil {
		t.Fatalf("new search service: %v", err)
	}

	lines, err := svc.Search(context.Background(), "market share price", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected at least one result")
	}
	if lines[0].Rank != 1 {
		t.Fatalf("expected first line to have rank 1, got %d", lines[0].Rank)
	}
	if lines[0].Path != filepath.Join("reports", "doc1.txt") {
		t.Fatalf("expected reports/doc1.txt to rank first, got %s", lines[0].Path)
	}
}

// TestFullPipelineReloadAfterRebuild confirms a second ingest+build+shard
// pass is picked up by an already-running search service via Reload.
func TestFullPipelineReloadAfterRebuild(t *testing.T) {
	archiveDir := t.TempDir()
	inputDir := t.TempDir()
	indexDir := t.TempDir()

	writeArchive(t, filepath.Join(archiveDir, "doc1.zip"), map[string]string{
		"doc1.txt": "Quarterly earnings beat expectations across the board.",
	})

	norm := normalize.New(map[string]struct{}{"the": {}, "across": {}})
	adapter := ingest.New(norm, archiveDir, inputDir)
	if _, err := adapter.Walk(); err != nil {
		t.Fatalf("ingest walk: %v", err)
	}

	built, err := indexer.BuildIndex(inputDir)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if err := shard.Write(built.Index, indexDir, 2); err != nil {
		t.Fatalf("shard write: %v", err)
	}

	svc, err := searchsvc.New(searchsvc.Config{
		IndexDir:     indexDir,
		InputDir:     inputDir,
		Normalizer:   norm,
		DefaultLimit: 10,
		MaxResults:   100,
	})
	if err != nil {
		t.Fatalf("new search service: %v", err)
	}

	writeArchive(t, filepath.Join(archiveDir, "doc2.zip"), map[string]string{
		"doc2.txt": "Guidance for next quarter was revised upward.",
	})
	if _, err := adapter.Walk(); err != nil {
		t.Fatalf("second ingest walk: %v", err)
	}
	rebuilt, err := indexer.BuildIndex(inputDir)
	if err != nil {
		t.Fatalf("rebuild index: %v", err)
	}
	if err := shard.Write(rebuilt.Index, indexDir, 2); err != nil {
		t.Fatalf("reshard: %v", err)
	}

	if err := svc.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	lines, err := svc.Search(context.Background(), "quarter", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected both documents to match 'quarter' after reload, got %d", len(lines))
	}
}
