package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/converter"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/linker"
	"github.com/starford/ansuz/internal/stats"
	"github.com/starford/ansuz/internal/testutil"
)

type stubProvider struct{ response string }

func (s *stubProvider) Invoke(_ context.Context, _ string) (string, error) {
	return s.response, nil
}

func (s *stubProvider) Name() string { return "stub" }

func newTestServer(t *testing.T, authEnabled bool, token string) (*httptest.Server, *index.DB) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	tracker := stats.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := &stubProvider{
		response: "---\ntitle: \"API Note\"\ntags: [\"api\"]\ncategory: Technology\n---\n# API Note\n\nCreated through the API.\n",
	}
	svc := converter.New(store, db, provider, nil, linker.NewCorpus(linker.DefaultParams()),
		tracker, logger, converter.Options{}, nil)

	srv := httptest.NewServer(NewRouter(svc, db, tracker, authEnabled, token, nil))
	t.Cleanup(srv.Close)
	return srv, db
}

func seedNote(t *testing.T, db *index.DB, path, title, category string) {
	t.Helper()
	err := db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     title,
		Category:  category,
		Tags:      []string{"seed"},
		CreatedAt: time.Now(),
	}, "seeded body text", nil)
	if err != nil {
		t.Fatal(err)
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestListNotes(t *testing.T) {
	srv, db := newTestServer(t, false, "")
	seedNote(t, db, "a.md", "Note A", "Technology")
	seedNote(t, db, "b.md", "Note B", "Finance")

	var body struct {
		Notes []map[string]any `json:"notes"`
		Total int              `json:"total"`
	}
	if code := getJSON(t, srv.URL+"/notes", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Total != 2 || len(body.Notes) != 2 {
		t.Errorf("total = %d len = %d", body.Total, len(body.Notes))
	}

	if code := getJSON(t, srv.URL+"/notes?category=Finance", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Total != 1 {
		t.Errorf("filtered total = %d, want 1", body.Total)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, false, "")
	if code := getJSON(t, srv.URL+"/notes/missing.md", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	srv, db := newTestServer(t, false, "")
	seedNote(t, db, "a.md", "Docker Guide", "Technology")

	if code := getJSON(t, srv.URL+"/search", nil); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without q", code)
	}

	var body struct {
		Results []map[string]any `json:"results"`
	}
	if code := getJSON(t, srv.URL+"/search?q=docker", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Results) != 1 {
		t.Errorf("results = %v, want 1 hit", body.Results)
	}
}

func TestConvert(t *testing.T) {
	srv, db := newTestServer(t, false, "")

	resp, err := http.Post(srv.URL+"/convert", "application/json",
		strings.NewReader(`{"content":"raw text to convert","label":"upload"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body struct {
		Paths []string `json:"paths"`
		Count int      `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || len(body.Paths) != 1 {
		t.Fatalf("body = %+v", body)
	}
	if _, err := db.GetNote(body.Paths[0]); err != nil {
		t.Errorf("created note not indexed: %v", err)
	}
}

func TestConvert_EmptyContentRejected(t *testing.T) {
	srv, _ := newTestServer(t, false, "")
	resp, err := http.Post(srv.URL+"/convert", "application/json", strings.NewReader(`{"content":"  "}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t, false, "")
	var report stats.Report
	if code := getJSON(t, srv.URL+"/stats", &report); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if report.Timestamp == "" {
		t.Error("report missing timestamp")
	}
}

func TestCategories_IncludesZeroCounts(t *testing.T) {
	srv, db := newTestServer(t, false, "")
	seedNote(t, db, "a.md", "A", "Technology")

	var body struct {
		Categories map[string]int `json:"categories"`
	}
	if code := getJSON(t, srv.URL+"/categories", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Categories) != 6 {
		t.Errorf("categories = %v, want all six canonical entries", body.Categories)
	}
	if body.Categories["Technology"] != 1 || body.Categories["Finance"] != 0 {
		t.Errorf("categories = %v", body.Categories)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, true, "secret")

	if code := getJSON(t, srv.URL+"/notes", nil); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without token", code)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 with token", resp.StatusCode)
	}

	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 with wrong token", resp.StatusCode)
	}
}
