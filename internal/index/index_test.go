package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-index-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func upsert(t *testing.T, db *DB, path, title, category, body string, links []string) {
	t.Helper()
	err := db.UpsertNote(NoteRow{
		Path:      path,
		Title:     title,
		Category:  category,
		Tags:      []string{"tag-one"},
		Checksum:  "abc",
		Source:    "test.txt",
		CreatedAt: time.Now(),
	}, body, links)
	if err != nil {
		t.Fatalf("upsert %s: %v", path, err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "tech/a.md", "Note A", "Technology", "body text", []string{"Note B"})

	n, err := db.GetNote("tech/a.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n.Title != "Note A" || n.Category != "Technology" {
		t.Errorf("row = %+v", n)
	}
	if len(n.Tags) != 1 || n.Tags[0] != "tag-one" {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetNote("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsert_ReplacesExisting(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", "Old", "Knowledge", "old body", nil)
	upsert(t, db, "a.md", "New", "Finance", "new body", nil)

	n, err := db.GetNote("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "New" || n.Category != "Finance" {
		t.Errorf("row = %+v, want replaced values", n)
	}

	_, total, err := db.ListNotes(10, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestListNotes_CategoryFilter(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", "A", "Technology", "x", nil)
	upsert(t, db, "b.md", "B", "Finance", "x", nil)
	upsert(t, db, "c.md", "C", "Technology", "x", nil)

	rows, total, err := db.ListNotes(10, 0, "Technology")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("total = %d len = %d, want 2/2", total, len(rows))
	}
	for _, r := range rows {
		if r.Category != "Technology" {
			t.Errorf("row %s category = %q", r.Path, r.Category)
		}
	}
}

func TestSearch_TitleAndBody(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", "Docker Guide", "Technology", "container runtime basics", nil)
	upsert(t, db, "b.md", "Recipes", "Personal", "tomato soup with DOCKER mentioned oddly", nil)
	upsert(t, db, "c.md", "Unrelated", "Knowledge", "nothing here", nil)

	hits, err := db.Search("docker", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("hits = %v, want title and body match", hits)
	}
}

func TestCategoryCounts(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", "A", "Technology", "x", nil)
	upsert(t, db, "b.md", "B", "Technology", "x", nil)
	upsert(t, db, "c.md", "C", "Finance", "x", nil)

	counts, err := db.CategoryCounts()
	if err != nil {
		t.Fatal(err)
	}
	if counts["Technology"] != 2 || counts["Finance"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestAllNotes_ForCorpusRebuild(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", "A", "Knowledge", "alpha body", nil)
	upsert(t, db, "b.md", "B", "Knowledge", "beta body", nil)

	entries, err := db.AllNotes()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Path == "" || e.Body == "" {
			t.Errorf("entry = %+v, want path and body", e)
		}
	}
}

func TestAllPaths(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", "A", "Knowledge", "x", nil)

	paths, err := db.AllPaths()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := paths["a.md"]; !ok || len(paths) != 1 {
		t.Errorf("paths = %v", paths)
	}
}
