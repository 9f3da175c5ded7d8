package present

import (
	"strings"
	"testing"

	"github.com/elias-vance/lexishard/internal/corpus"
	"github.com/elias-vance/lexishard/internal/ranker"
)

func TestTopTruncatesAndResolvesPaths(t *testing.T) {
	table := corpus.NewDocTableForTest(map[uint32]string{
		1: "a.txt",
		2: "b.txt",
		3: "c.txt",
	})
	ranked := []ranker.ScoredDoc{
		{DocID: 2, Score: 0.9},
		{DocID: 1, Score: 0.5},
		{DocID: 3, Score: 0.1},
	}

	lines := Top(ranked, table, 2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Path != "b.txt" || lines[0].Rank != 1 {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Path != "a.txt" || lines[1].Rank != 2 {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
}

func TestTopDefaultsWhenNonPositive(t *testing.T) {
	table := corpus.NewDocTableForTest(map[uint32]string{1: "a.txt"})
	ranked := []ranker.ScoredDoc{{DocID: 1, Score: 1}}
	lines := Top(ranked, table, 0)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
}

func TestFormatProducesReadableLines(t *testing.T) {
	lines := []Line{{Rank: 1, Path: "a.txt", Score: 0.5}}
	out := Format(lines)
	if !strings.Contains(out, "a.txt") || !strings.Contains(out, "0.5000") {
		t.Fatalf("unexpected format output: %q", out)
	}
}
