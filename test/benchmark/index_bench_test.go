// Package benchmark contains Go benchmarks for the in-memory positional
// index, the batch indexer, and the ranker, measuring throughput and
// allocation behaviour.
package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/elias-vance/lexishard/internal/index"
	"github.com/elias-vance/lexishard/internal/indexer"
	"github.com/elias-vance/lexishard/internal/posting"
)

// BenchmarkIndexAdd measures per-position insert throughput into the
// in-memory inverted index.
func BenchmarkIndexAdd(b *testing.B) {
	idx := index.New()
	terms := []string{"market", "predict", "demand", "price", "share", "surg", "cut"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		term := terms[i%len(terms)]
		idx.Add(term, uint32(i/len(terms)), i%500)
	}
}

// BenchmarkIndexGet measures single-term lookup latency over a populated
// index.
func BenchmarkIndexGet(b *testing.B) {
	idx := index.New()
	for doc := uint32(0); doc < 10000; doc++ {
		idx.Add("market", doc, 0)
		idx.Add("predict", doc, 1)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		postings, _ := idx.Get("market")
		_ = postings
	}
}

// BenchmarkIndexTerms measures the cost of a full lexicographic term scan,
// the pattern shard.Write relies on for deterministic shard output.
func BenchmarkIndexTerms(b *testing.B) {
	idx := index.New()
	for doc := uint32(0); doc < 2000; doc++ {
		for t := 0; t < 50; t++ {
			idx.Add(fmt.Sprintf("term%d", t), doc, t)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		count := 0
		idx.Terms(func(term string, postings posting.List) {
			count++
		})
	}
}

// BenchmarkBuildIndex measures the full index build pass across
// pre-loaded corpora of increasing document count.
func BenchmarkBuildIndex(b *testing.B) {
	sizes := []int{10, 100, 500}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			dir := b.TempDir()
			for d := 0; d < numDocs; d++ {
				path := filepath.Join(dir, fmt.Sprintf("doc%d.txt", d))
				body := "market predict market share demand price cut surg"
				if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				result, err := indexer.BuildIndex(dir)
				if err != nil {
					b.Fatal(err)
				}
				_ = result
			}
		})
	}
}
