package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTxt(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildAssignsSortedIds(t *testing.T) {
	dir := t.TempDir()
	writeTxt(t, filepath.Join(dir, "b.txt"))
	writeTxt(t, filepath.Join(dir, "a.txt"))
	writeTxt(t, filepath.Join(dir, "sub", "c.txt"))
	writeTxt(t, filepath.Join(dir, "ignore.md"))

	table, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 docs, got %d", table.Len())
	}
	if table.Path(1) != "a.txt" {
		t.Fatalf("doc 1 = %q, want a.txt", table.Path(1))
	}
	if table.Path(2) != "b.txt" {
		t.Fatalf("doc 2 = %q, want b.txt", table.Path(2))
	}
	if table.Path(3) != filepath.Join("sub", "c.txt") {
		t.Fatalf("doc 3 = %q, want sub/c.txt", table.Path(3))
	}
}

func TestBuildMissingFolder(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestBuildEmptyFolder(t *testing.T) {
	dir := t.TempDir()
	_, err := Build(dir)
	if err == nil {
		t.Fatal("expected error for empty folder")
	}
}
