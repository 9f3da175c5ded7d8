// Package indexer builds a positional inverted index from a directory of
// pre-normalized text files. A build is a single, non-incremental pass:
// the spec does not support adding documents to an already-built index.
package indexer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/elias-vance/lexishard/internal/corpus"
	"github.com/elias-vance/lexishard/internal/index"
)

// Result is the output of a completed build: the in-memory index and the
// document table used to number the documents it contains.
type Result struct {
	Index    *index.Index
	DocTable *corpus.DocTable
}

// BuildIndex walks folder (via internal/corpus, so doc ids agree with the
// searcher side), reads every assigned document, and indexes its terms.
// Documents are assumed to already be normalized: BuildIndex only lowercases
// and splits on non-alphanumeric runs, it does not stem or filter
// stopwords again.
//
// Returns corpus.ErrNotADirectory / corpus.ErrEmpty on a missing or empty
// input directory; I/O errors while reading a document propagate as-is.
func BuildIndex(folder string) (*Result, error) {
	table, err := corpus.Build(folder)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	for docID := uint32(1); docID <= uint32(table.Len()); docID++ {
		path := table.Path(docID)
		if err := indexFile(idx, filepath.Join(folder, path), docID); err != nil {
			return nil, fmt.Errorf("indexing %s: %w", path, err)
		}
	}

	return &Result{Index: idx, DocTable: table}, nil
}

// indexFile reads path line by line, lowercases, splits on runs of
// non-[a-z0-9] characters, and feeds each emitted token to idx with a
// per-document position counter that increments once per emitted token.
func indexFile(idx *index.Index, path string, docID uint32) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	position := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, tok := range strings.FieldsFunc(strings.ToLower(scanner.Text()), isNotAlphaNumeric) {
			position++
			idx.Add(tok, docID, position)
		}
	}
	return scanner.Err()
}

func isNotAlphaNumeric(r rune) bool {
	isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	return !isAlnum
}
