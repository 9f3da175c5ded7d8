package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/elias-vance/lexishard/internal/normalize"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Market analysts predict quarterly demand will shift as supply constraints
        ease across the sector. Each regional desk maintains its own forecast model and
        reacts to macro signals independently. Results are merged using a weighted
        consensus that accounts for historical accuracy and current volatility across the
        entire portfolio. This process enables same-day rebalancing even with thousands
        of positions spread across dozens of funds.`,
	"long": strings.Repeat(`Quantitative research teams form the backbone of modern trading
        desks. These teams combine normalization, stemming, and stop word removal to
        turn raw filings into searchable terms. The inverted index maps each term to the
        documents containing it, along with positional information for proximity
        scoring. Cosine ranking considers term frequency and document vector length to
        produce relevance scores. Caching layers reduce latency for repeated queries while
        circuit breakers protect against cascading failures in the ingestion pipeline. `, 20),
}

func defaultBenchStopwords() map[string]struct{} {
	return map[string]struct{}{"the": {}, "a": {}, "and": {}, "its": {}, "own": {}, "of": {}, "will": {}}
}

func BenchmarkNormalizeText(b *testing.B) {
	norm := normalize.New(defaultBenchStopwords())
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := norm.Text(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkNormalizeTextParallel(b *testing.B) {
	norm := normalize.New(defaultBenchStopwords())
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := norm.Text(text)
			_ = tokens
		}
	})
}

func BenchmarkStemming(b *testing.B) {
	norm := normalize.New(defaultBenchStopwords())
	words := []string{
		"running", "predicting", "searching", "indexing",
		"normalization", "efficiently", "processing",
		"forecasting", "rebalancing", "scalability",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, w := range words {
			tokens := norm.Line(w)
			_ = tokens
		}
	}
}

func BenchmarkNormalizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "market predict demand price surg cut "
	norm := normalize.New(defaultBenchStopwords())
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := norm.Text(text)
				_ = tokens
			}
		})
	}
}
