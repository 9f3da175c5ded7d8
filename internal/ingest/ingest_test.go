package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/elias-vance/lexishard/internal/normalize"
)

func writeZip(t *testing.T, path, entryName, content string) {
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
	w, err := zw.Create(entryName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWalkProcessesArchiveAndMirrorsPath(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeZip(t, filepath.Join(inputDir, "sub", "doc1.zip"), "doc1.txt", "Running runners ran\nquickly")

	norm := normalize.New(map[string]struct{}{})
	adapter := New(norm, inputDir, outputDir)

	results, err := adapter.Walk()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	wantPath := filepath.Join(outputDir, "sub", "doc1.txt")
	if results[0].OutputPath != wantPath {
		t.Fatalf("output path = %s, want %s", results[0].OutputPath, wantPath)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty normalized output")
	}
}

func TestWalkSkipsNonZipFiles(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inputDir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	norm := normalize.New(map[string]struct{}{})
	results, err := New(norm, inputDir, outputDir).Walk()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}

func TestWalkContinuesAfterOneArchiveFails(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	badPath := filepath.Join(inputDir, "bad.zip")
	if err := os.WriteFile(badPath, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeZip(t, filepath.Join(inputDir, "good.zip"), "good.txt", "hello world")

	norm := normalize.New(map[string]struct{}{})
	results, err := New(norm, inputDir, outputDir).Walk()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 successful result, got %d", len(results))
	}
}
