// Package ingest unzips raw-text archives and writes normalized ".txt"
// files into an index input directory, mirroring each archive's relative
// path. It is grounded on the reference project's zip-transform tool: one
// text file per archive, normalized line by line and joined with spaces.
package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/elias-vance/lexishard/internal/normalize"
)

// Result summarizes one archive's ingestion outcome.
type Result struct {
	ArchivePath string
	OutputPath  string
	Bytes       int
}

// Adapter unzips archives under inputDir and writes one normalized ".txt"
// file per archive under outputDir, preserving the archive's path relative
// to inputDir (with the .zip extension swapped for .txt).
type Adapter struct {
	norm      *normalize.Normalizer
	inputDir  string
	outputDir string
	logger    *slog.Logger
}

// New creates an Adapter that normalizes archive contents with norm.
func New(norm *normalize.Normalizer, inputDir, outputDir string) *Adapter {
	return &Adapter{
		norm:      norm,
		inputDir:  inputDir,
		outputDir: outputDir,
		logger:    slog.Default().With("component", "ingest"),
	}
}

// Walk discovers every ".zip" file under a.inputDir and processes it,
// returning the successfully produced results. A single archive's failure
// is logged and skipped; it does not abort the remaining archives.
func (a *Adapter) Walk() ([]Result, error) {
	var zipPaths []string
	err := filepath.WalkDir(a.inputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
			zipPaths = append(zipPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walking %s: %w", a.inputDir, err)
	}

	results := make([]Result, 0, len(zipPaths))
	for _, zp := range zipPaths {
		res, err := a.processArchive(zp)
		if err != nil {
			a.logger.Error("failed to process archive", "path", zp, "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// processArchive unzips one archive, normalizes every text entry line by
// line, and writes the joined result to the mirrored output path.
func (a *Adapter) processArchive(zipPath string) (Result, error) {
	rel, err := filepath.Rel(a.inputDir, zipPath)
	if err != nil {
		return Result{}, fmt.Errorf("relativizing %s: %w", zipPath, err)
	}
	outRel := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".txt"
	outPath := filepath.Join(a.outputDir, outRel)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output dir for %s: %w", outPath, err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return Result{}, fmt.Errorf("opening archive %s: %w", zipPath, err)
	}
	defer r.Close()

	var b strings.Builder
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := appendNormalizedEntry(&b, a.norm, f); err != nil {
			return Result{}, fmt.Errorf("reading entry %s in %s: %w", f.Name, zipPath, err)
		}
	}

	content := strings.TrimSpace(b.String())
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", outPath, err)
	}

	a.logger.Info("archive ingested", "archive", zipPath, "output", outPath, "bytes", len(content))
	return Result{ArchivePath: zipPath, OutputPath: outPath, Bytes: len(content)}, nil
}

// appendNormalizedEntry reads a single zip entry line by line, normalizes
// each line, and appends space-joined tokens to b.
func appendNormalizedEntry(b *strings.Builder, norm *normalize.Normalizer, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(raw), "\n") {
		tokens := norm.Line(line)
		if len(tokens) == 0 {
			continue
		}
		b.WriteString(strings.Join(tokens, " "))
		b.WriteByte(' ')
	}
	return nil
}
