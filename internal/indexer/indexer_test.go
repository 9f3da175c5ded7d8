package indexer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildIndexCalibration(t *testing.T) {
	dir := t.TempDir()

	doc1 := "document describ market strategi carri compani agricultur chemic report predict market share chemic report market statist agrochem pesticid herbicid fungicid insecticid fertil predict sale market share stimul demand price cut volum sale"
	doc2 := "document predict sale market share demand price cut"

	if err := os.WriteFile(filepath.Join(dir, "doc1.txt"), []byte(doc1), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "doc2.txt"), []byte(doc2), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := BuildIndex(dir)
	if err != nil {
		t.Fatal(err)
	}

	assertPostings := func(term string, wantDoc1Freq, wantDoc2Freq int, wantDoc1Pos, wantDoc2Pos []int) {
		t.Helper()
		list, ok := result.Index.Get(term)
		if !ok {
			t.Fatalf("term %q not indexed", term)
		}
		if len(list) != 2 {
			t.Fatalf("term %q: expected 2 postings, got %d (%v)", term, len(list), list)
		}
		if int(list[0].TermFreq) != wantDoc1Freq || !intsEqual(list[0].Positions, wantDoc1Pos) {
			t.Fatalf("term %q doc1: got freq=%d pos=%v, want freq=%d pos=%v", term, list[0].TermFreq, list[0].Positions, wantDoc1Freq, wantDoc1Pos)
		}
		if int(list[1].TermFreq) != wantDoc2Freq || !intsEqual(list[1].Positions, wantDoc2Pos) {
			t.Fatalf("term %q doc2: got freq=%d pos=%v, want freq=%d pos=%v", term, list[1].TermFreq, list[1].Positions, wantDoc2Freq, wantDoc2Pos)
		}
	}

	assertPostings("market", 4, 1, []int{3, 11, 15, 25}, []int{4})
	assertPostings("predict", 2, 1, []int{10, 23}, []int{2})
	assertPostings("document", 1, 1, []int{1}, []int{1})
}

func TestBuildIndexEmptyDirectory(t *testing.T) {
	_, err := BuildIndex(t.TempDir())
	if err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestBuildIndexMissingDirectory(t *testing.T) {
	_, err := BuildIndex(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
