// Package corpus builds the doc_id -> path mapping shared by the indexer
// and the searcher. Both sides must assign identical ids to the same
// directory of documents, so this walk/sort/assign rule is factored into a
// single place rather than duplicated.
package corpus

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// DocTable maps a dense, 1-based document id to its path, relative to the
// folder it was built from.
type DocTable struct {
	paths map[uint32]string
}

// NewDocTableForTest builds a DocTable directly from a doc_id -> path map,
// bypassing Build's filesystem walk. For use by other packages' tests that
// need a table without writing files to disk.
func NewDocTableForTest(paths map[uint32]string) *DocTable {
	copied := make(map[uint32]string, len(paths))
	for k, v := range paths {
		copied[k] = v
	}
	return &DocTable{paths: copied}
}

// Path returns the path for id, or "" if id is unknown.
func (t *DocTable) Path(id uint32) string {
	return t.paths[id]
}

// Len returns the number of documents in the table.
func (t *DocTable) Len() int {
	return len(t.paths)
}

// Build walks folder recursively, collects every regular file named
// "*.txt", sorts the results by full path (lexicographic byte order), and
// assigns doc_id 1, 2, 3, ... in that order. It fails if folder does not
// exist or is not a directory, or if no ".txt" files are found.
func Build(folder string) (*DocTable, error) {
	info, err := fsStat(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, folder)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, folder)
	}

	var paths []string
	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".txt" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, folder)
	}

	sort.Strings(paths)

	table := &DocTable{paths: make(map[uint32]string, len(paths))}
	for i, p := range paths {
		rel, err := filepath.Rel(folder, p)
		if err != nil {
			rel = p
		}
		table.paths[uint32(i+1)] = rel
	}
	return table, nil
}
