package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFind_IncludeExclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.md"), "b")
	writeFile(t, filepath.Join(dir, "skip.log"), "x")
	writeFile(t, filepath.Join(dir, "draft.txt"), "d")

	got, err := Find(dir, []string{"*.txt", "*.md"}, []string{"draft*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 files", got)
	}
	if filepath.Base(got[0]) != "a.txt" || filepath.Base(got[1]) != "b.md" {
		t.Errorf("got %v, want sorted [a.txt b.md]", got)
	}
}

func TestFind_SkipsDotDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), "k")
	writeFile(t, filepath.Join(dir, ".hidden", "lost.txt"), "l")

	got, err := Find(dir, []string{"*.txt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "keep.txt" {
		t.Errorf("got %v, want only keep.txt", got)
	}
}

func TestFind_SingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "only.txt")
	writeFile(t, file, "content")

	got, err := Find(file, []string{"*.txt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != file {
		t.Errorf("got %v, want [%s]", got, file)
	}

	got, err = Find(file, []string{"*.md"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty for non-matching file root", got)
	}
}

func TestChunks_NoSplitUnderLimit(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "small.txt")
	writeFile(t, file, "short content\n")

	chunks, err := Chunks(file, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "short content\n" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestChunks_SplitsAtNewline(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "big.txt")
	content := strings.Repeat("line one two three\n", 20)
	writeFile(t, file, content)

	chunks, err := Chunks(file, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want split", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d has %d bytes, want <= 100", i, len(c))
		}
		if strings.HasPrefix(c, "\n") {
			t.Errorf("chunk %d starts with newline", i)
		}
	}
	joined := strings.Join(chunks, "\n") + "\n"
	if strings.ReplaceAll(joined, "\n", "") != strings.ReplaceAll(content, "\n", "") {
		t.Error("chunk contents lost data")
	}
}

func TestChunks_ZeroSizeMeansWhole(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "any.txt")
	writeFile(t, file, strings.Repeat("x", 500))

	chunks, err := Chunks(file, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || len(chunks[0]) != 500 {
		t.Errorf("chunks = %d pieces", len(chunks))
	}
}
