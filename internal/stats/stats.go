// Package stats aggregates statistics about one conversion run.
package stats

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/storage"
)

// Tracker accumulates counters across workers. All methods are safe for
// concurrent use.
type Tracker struct {
	mu         sync.Mutex
	start      time.Time
	processed  int
	created    int
	failed     int
	categories map[string]int
	tags       map[string]int
	words      int
	chars      int
	llmCalls   int
	cacheHits  int
	llmTime    time.Duration
}

// New creates a tracker with the clock started.
func New() *Tracker {
	return &Tracker{
		start:      time.Now(),
		categories: make(map[string]int),
		tags:       make(map[string]int),
	}
}

// RecordFile counts one processed source file or chunk.
func (t *Tracker) RecordFile() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed++
}

// RecordFailure counts one failed source file.
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
}

// RecordNote counts one created note with its category, tags, and size.
func (t *Tracker) RecordNote(category string, tags []string, words, chars int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.created++
	if category != "" {
		t.categories[category]++
	}
	for _, tag := range tags {
		t.tags[tag]++
	}
	t.words += words
	t.chars += chars
}

// RecordLLMCall counts one LLM invocation. Cache hits do not contribute to
// the accumulated call duration.
func (t *Tracker) RecordLLMCall(d time.Duration, cacheHit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.llmCalls++
	if cacheHit {
		t.cacheHits++
	} else {
		t.llmTime += d
	}
}

// Report is a point-in-time snapshot of the run.
type Report struct {
	Timestamp       string         `json:"timestamp"`
	DurationSeconds float64        `json:"duration_seconds"`
	ProcessedFiles  int            `json:"processed_files"`
	CreatedNotes    int            `json:"created_notes"`
	FailedFiles     int            `json:"failed_files"`
	Categories      map[string]int `json:"categories"`
	TopTags         []string       `json:"top_tags"`
	TotalWords      int            `json:"total_words"`
	TotalCharacters int            `json:"total_characters"`
	LLMCalls        int            `json:"llm_calls"`
	CacheHits       int            `json:"cache_hits"`
	CacheHitRate    float64        `json:"cache_hit_rate"`
	AvgLLMSeconds   float64        `json:"avg_llm_seconds"`
}

// Snapshot returns the current report.
func (t *Tracker) Snapshot() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := Report{
		Timestamp:       time.Now().Format(time.RFC3339),
		DurationSeconds: time.Since(t.start).Seconds(),
		ProcessedFiles:  t.processed,
		CreatedNotes:    t.created,
		FailedFiles:     t.failed,
		Categories:      make(map[string]int, len(t.categories)),
		TotalWords:      t.words,
		TotalCharacters: t.chars,
		LLMCalls:        t.llmCalls,
		CacheHits:       t.cacheHits,
	}
	for k, v := range t.categories {
		r.Categories[k] = v
	}
	if t.llmCalls > 0 {
		r.CacheHitRate = float64(t.cacheHits) / float64(t.llmCalls) * 100
	}
	if misses := t.llmCalls - t.cacheHits; misses > 0 {
		r.AvgLLMSeconds = t.llmTime.Seconds() / float64(misses)
	}
	r.TopTags = topKeys(t.tags, 5)
	return r
}

// SaveReport writes the snapshot as JSON under .stats/ in the vault.
func (t *Tracker) SaveReport(store storage.Provider) (string, error) {
	data, err := json.MarshalIndent(t.Snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("stats: marshal report: %w", err)
	}
	path := fmt.Sprintf(".stats/conversion_stats_%s.json", time.Now().Format("20060102_150405"))
	if err := store.Write(path, data); err != nil {
		return "", fmt.Errorf("stats: save report: %w", err)
	}
	return path, nil
}

func topKeys(m map[string]int, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if m[keys[a]] != m[keys[b]] {
			return m[keys[a]] > m[keys[b]]
		}
		return keys[a] < keys[b]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
