package shard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elias-vance/lexishard/internal/index"
	"github.com/elias-vance/lexishard/internal/posting"
)

func buildCalibrationIndex() *index.Index {
	idx := index.New()
	for _, pos := range []int{3, 11, 15, 25} {
		idx.Add("market", 1, pos)
	}
	idx.Add("market", 2, 4)
	for _, pos := range []int{10, 23} {
		idx.Add("predict", 1, pos)
	}
	idx.Add("predict", 2, 2)
	idx.Add("document", 1, 1)
	idx.Add("document", 2, 1)
	return idx
}

func TestWriteReadRoundTrip(t *testing.T) {
	idx := buildCalibrationIndex()
	dir := filepath.Join(t.TempDir(), "shards")

	if err := Write(idx, dir, 3); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, term := range []string{"market", "predict", "document"} {
		want, ok := idx.Get(term)
		if !ok {
			t.Fatalf("expected term %q in original index", term)
		}
		got, ok := reloaded.Get(term)
		if !ok {
			t.Fatalf("term %q missing after reload", term)
		}
		if !postingsEqual(want, got) {
			t.Fatalf("term %q round-trip mismatch: want %+v got %+v", term, want, got)
		}
	}
}

func TestWriteProducesExactGrammar(t *testing.T) {
	idx := index.New()
	idx.Add("market", 1, 3)
	idx.Add("market", 1, 11)
	idx.Add("market", 1, 15)
	idx.Add("market", 2, 4)

	dir := filepath.Join(t.TempDir(), "shards")
	if err := Write(idx, dir, 1); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "shard-0.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "market 1:3:3,11,15;2:1:4\n"; got != want {
		t.Fatalf("shard-0.txt = %q, want %q", got, want)
	}

	reloaded, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}
	list, ok := reloaded.Get("market")
	if !ok {
		t.Fatal("expected term market")
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(list))
	}
	if list[0].DocID != 1 || list[0].TermFreq != 3 {
		t.Fatalf("unexpected doc1 posting: %+v", list[0])
	}
	if list[1].DocID != 2 || list[1].TermFreq != 1 || list[1].Positions[0] != 4 {
		t.Fatalf("unexpected doc2 posting: %+v", list[1])
	}
}

func TestWriteRejectsNonPositiveShardCount(t *testing.T) {
	idx := index.New()
	idx.Add("a", 1, 1)
	if err := Write(idx, t.TempDir(), 0); err == nil {
		t.Fatal("expected error for zero shard count")
	}
}

func TestReadSkipsLinesWithoutSeparator(t *testing.T) {
	_, postings, err := parseLine("lonelyterm")
	if err != errNoSeparator {
		t.Fatalf("expected errNoSeparator, got err=%v postings=%v", err, postings)
	}
}

func TestReadRejectsMalformedPosting(t *testing.T) {
	_, _, err := parseLine("market 1:notanumber:3")
	if err == nil {
		t.Fatal("expected parse error for malformed term freq")
	}
}

func postingsEqual(a, b posting.List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].DocID != b[i].DocID || a[i].TermFreq != b[i].TermFreq {
			return false
		}
		if len(a[i].Positions) != len(b[i].Positions) {
			return false
		}
		for j := range a[i].Positions {
			if a[i].Positions[j] != b[i].Positions[j] {
				return false
			}
		}
	}
	return true
}
