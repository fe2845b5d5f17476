package stats

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/testutil"
)

func TestSnapshot_Counts(t *testing.T) {
	tr := New()
	tr.RecordFile()
	tr.RecordFile()
	tr.RecordFailure()
	tr.RecordNote("Technology", []string{"docker", "linux"}, 100, 600)
	tr.RecordNote("Technology", []string{"docker"}, 50, 300)
	tr.RecordNote("Finance", nil, 20, 120)

	r := tr.Snapshot()
	if r.ProcessedFiles != 2 {
		t.Errorf("ProcessedFiles = %d, want 2", r.ProcessedFiles)
	}
	if r.CreatedNotes != 3 {
		t.Errorf("CreatedNotes = %d, want 3", r.CreatedNotes)
	}
	if r.FailedFiles != 1 {
		t.Errorf("FailedFiles = %d, want 1", r.FailedFiles)
	}
	if r.Categories["Technology"] != 2 || r.Categories["Finance"] != 1 {
		t.Errorf("Categories = %v", r.Categories)
	}
	if r.TotalWords != 170 || r.TotalCharacters != 1020 {
		t.Errorf("words = %d chars = %d", r.TotalWords, r.TotalCharacters)
	}
	if len(r.TopTags) == 0 || r.TopTags[0] != "docker" {
		t.Errorf("TopTags = %v, want docker first", r.TopTags)
	}
}

func TestSnapshot_LLMMetrics(t *testing.T) {
	tr := New()
	tr.RecordLLMCall(2*time.Second, false)
	tr.RecordLLMCall(4*time.Second, false)
	tr.RecordLLMCall(0, true)
	tr.RecordLLMCall(0, true)

	r := tr.Snapshot()
	if r.LLMCalls != 4 || r.CacheHits != 2 {
		t.Errorf("calls = %d hits = %d", r.LLMCalls, r.CacheHits)
	}
	if r.CacheHitRate != 50 {
		t.Errorf("CacheHitRate = %v, want 50", r.CacheHitRate)
	}
	if r.AvgLLMSeconds != 3 {
		t.Errorf("AvgLLMSeconds = %v, want 3", r.AvgLLMSeconds)
	}
}

func TestSnapshot_EmptyTrackerNoDivideByZero(t *testing.T) {
	r := New().Snapshot()
	if r.CacheHitRate != 0 || r.AvgLLMSeconds != 0 {
		t.Errorf("rates = %v/%v, want zero", r.CacheHitRate, r.AvgLLMSeconds)
	}
}

func TestTracker_ConcurrentRecords(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordFile()
			tr.RecordNote("Knowledge", []string{"note"}, 1, 5)
		}()
	}
	wg.Wait()
	r := tr.Snapshot()
	if r.ProcessedFiles != 50 || r.CreatedNotes != 50 {
		t.Errorf("processed = %d created = %d, want 50/50", r.ProcessedFiles, r.CreatedNotes)
	}
}

func TestSaveReport(t *testing.T) {
	_, store := testutil.TestVault(t)
	tr := New()
	tr.RecordFile()

	path, err := tr.SaveReport(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(path, ".stats/conversion_stats_") {
		t.Errorf("path = %q", path)
	}
	data, err := store.Read(path)
	if err != nil {
		t.Fatalf("report not readable: %v", err)
	}
	if !strings.Contains(string(data), `"processed_files": 1`) {
		t.Errorf("report = %s", data)
	}
}

func TestTopKeys_TiesAlphabetical(t *testing.T) {
	got := topKeys(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topKeys = %v, want %v", got, want)
		}
	}
}
