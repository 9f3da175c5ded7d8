// Package shard serializes an in-memory index to N term-hash-partitioned
// text files and reloads them. The on-disk grammar is exact and stable:
//
//	<term> SP <posting>(";" <posting>)*
//	<posting> := <doc_id> ":" <term_freq> ":" <position>("," <position>)*
//
// Files are named shard-<i>.txt for i in [0, N).
package shard

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	farmhash "github.com/leemcloughlin/gofarmhash"

	"github.com/elias-vance/lexishard/internal/index"
	"github.com/elias-vance/lexishard/internal/posting"
	"github.com/elias-vance/lexishard/pkg/logger"
)

// shardFilePrefix names every shard file; the reader discovers shards by
// this prefix rather than relying on an exact count.
const shardFilePrefix = "shard-"

// shardID assigns a term to one of numShards files. This must be the same
// function on the writer and reader side (and across independently built
// binaries), which is why it is implemented on top of a content-only hash
// with no process- or platform-dependent seed.
func shardID(term string, numShards int) int {
	return int(farmhash.Hash32WithSeed([]byte(term), 0) % uint32(numShards))
}

// Write creates dir if absent and writes idx out as numShards files named
// shard-0.txt ... shard-(numShards-1).txt, one line per term, each term
// assigned to exactly one file by shardID. Every writer is closed on every
// return path, including on error.
func Write(idx *index.Index, dir string, numShards int) error {
	if numShards <= 0 {
		return fmt.Errorf("shard: num_shards must be positive, got %d", numShards)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("shard: creating %s: %w", dir, err)
	}

	writers := make([]*bufio.Writer, numShards)
	files := make([]*os.File, numShards)
	defer func() {
		for _, f := range files {
			if f != nil {
				f.Close()
			}
		}
	}()

	for i := 0; i < numShards; i++ {
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s%d.txt", shardFilePrefix, i)))
		if err != nil {
			return fmt.Errorf("shard: creating shard %d: %w", i, err)
		}
		files[i] = f
		writers[i] = bufio.NewWriter(f)
	}

	termCounts := make([]int, numShards)
	var writeErr error
	idx.Terms(func(term string, postings posting.List) {
		if writeErr != nil {
			return
		}
		id := shardID(term, numShards)
		w := writers[id]
		if _, err := w.WriteString(formatLine(term, postings)); err != nil {
			writeErr = err
			return
		}
		termCounts[id]++
	})
	if writeErr != nil {
		return fmt.Errorf("shard: writing term: %w", writeErr)
	}

	for i, w := range writers {
		if err := w.Flush(); err != nil {
			return fmt.Errorf("shard: flushing shard %d: %w", i, err)
		}
		logger.WithShard(i).Info("shard written", "terms", termCounts[i])
	}
	return nil
}

// TermCounts reports how many terms shardID would assign to each of
// numShards shards for idx, without writing anything. cmd/indexer uses this
// to populate the shard_term_count gauge after a build.
func TermCounts(idx *index.Index, numShards int) []int {
	counts := make([]int, numShards)
	idx.Terms(func(term string, _ posting.List) {
		counts[shardID(term, numShards)]++
	})
	return counts
}

// formatLine renders one term's posting list per the shard grammar,
// including the trailing newline.
func formatLine(term string, postings posting.List) string {
	var b strings.Builder
	b.WriteString(term)
	b.WriteByte(' ')
	for i, p := range postings {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatUint(uint64(p.DocID), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(p.TermFreq), 10))
		b.WriteByte(':')
		for j, pos := range p.Positions {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(pos))
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// Read loads every file named "shard-*" under dir into a fresh in-memory
// Index. Lines missing a space separator are skipped; a line with a
// malformed posting after the separator is a fatal parse error.
func Read(dir string) (*index.Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("shard: reading %s: %w", dir, err)
	}

	idx := index.New()
	shardsRead := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), shardFilePrefix) {
			continue
		}
		if err := readShardFile(idx, filepath.Join(dir, e.Name())); err != nil {
			return nil, fmt.Errorf("shard: parsing %s: %w", e.Name(), err)
		}
		shardsRead++
	}
	logger.WithComponent("shard").Info("shards loaded", "files", shardsRead, "terms", idx.Len())
	return idx, nil
}

func readShardFile(idx *index.Index, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		term, postings, err := parseLine(line)
		if err != nil {
			if err == errNoSeparator {
				continue
			}
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		idx.Put(term, postings)
	}
	return scanner.Err()
}

var errNoSeparator = fmt.Errorf("missing term/posting separator")

func parseLine(line string) (string, posting.List, error) {
	term, rest, found := strings.Cut(line, " ")
	if !found {
		return "", nil, errNoSeparator
	}

	docParts := strings.Split(rest, ";")
	postings := make(posting.List, 0, len(docParts))
	for _, part := range docParts {
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return "", nil, fmt.Errorf("malformed posting %q", part)
		}
		docID, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("malformed doc id in %q: %w", part, err)
		}
		termFreq, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("malformed term freq in %q: %w", part, err)
		}
		posStrs := strings.Split(fields[2], ",")
		positions := make([]int, 0, len(posStrs))
		for _, ps := range posStrs {
			pos, err := strconv.Atoi(ps)
			if err != nil {
				return "", nil, fmt.Errorf("malformed position in %q: %w", part, err)
			}
			positions = append(positions, pos)
		}
		postings = append(postings, posting.Posting{
			DocID:     uint32(docID),
			TermFreq:  uint32(termFreq),
			Positions: positions,
		})
	}
	return term, postings, nil
}
