// Package converter orchestrates the text-to-vault pipeline: chunked
// reading, LLM invocation with caching, note extraction and repair,
// similarity linking, vault writing, and index bookkeeping.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/linker"
	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/repair"
	"github.com/starford/ansuz/internal/source"
	"github.com/starford/ansuz/internal/stats"
	"github.com/starford/ansuz/internal/storage"
)

// EventFunc is called after notable pipeline events, e.g. for SSE
// broadcasting. kind is one of "note.created", "file.processed",
// "file.failed".
type EventFunc func(kind, path string)

// Options tunes the conversion pipeline.
type Options struct {
	ChunkSize           int
	MaxLinks            int
	SimilarityThreshold float64
}

// Service wires the pipeline components together.
type Service struct {
	store    storage.Provider
	db       index.NoteIndex
	provider llm.Provider
	cache    *llm.Cache
	corpus   *linker.Corpus
	tracker  *stats.Tracker
	logger   *slog.Logger
	opts     Options
	events   EventFunc
	now      func() time.Time
}

// New creates a conversion service. cache and events may be nil.
func New(store storage.Provider, db index.NoteIndex, provider llm.Provider, cache *llm.Cache,
	corpus *linker.Corpus, tracker *stats.Tracker, logger *slog.Logger, opts Options, events EventFunc) *Service {
	if opts.MaxLinks <= 0 {
		opts.MaxLinks = 5
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.3
	}
	return &Service{
		store:    store,
		db:       db,
		provider: provider,
		cache:    cache,
		corpus:   corpus,
		tracker:  tracker,
		logger:   logger,
		opts:     opts,
		events:   events,
		now:      time.Now,
	}
}

// ProcessFile converts one source file into vault notes and returns the
// created paths. Large files are processed in chunks, each an independent
// LLM invocation.
func (s *Service) ProcessFile(ctx context.Context, path string) ([]string, error) {
	chunks, err := source.Chunks(path, s.opts.ChunkSize)
	if err != nil {
		s.tracker.RecordFailure()
		return nil, err
	}

	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var created []string
	for i, chunk := range chunks {
		chunkLabel := label
		if len(chunks) > 1 {
			chunkLabel = fmt.Sprintf("%s (part %d)", label, i+1)
		}
		paths, err := s.ConvertText(ctx, chunk, chunkLabel)
		if err != nil {
			s.tracker.RecordFailure()
			s.emit("file.failed", path)
			return created, fmt.Errorf("converter: %s: %w", path, err)
		}
		created = append(created, paths...)
	}

	s.tracker.RecordFile()
	s.emit("file.processed", path)
	s.logger.Info("file processed",
		slog.String("path", path),
		slog.Int("notes", len(created)))
	return created, nil
}

// ConvertText runs one text blob through the LLM and writes the resulting
// notes. label names the source for logging and title fallback.
func (s *Service) ConvertText(ctx context.Context, content, label string) ([]string, error) {
	raw, err := s.invoke(ctx, content, label)
	if err != nil {
		return nil, err
	}

	records := extract.Notes(raw, label)

	var created []string
	for _, rec := range records {
		path, err := s.writeNote(rec, label)
		if err != nil {
			// A single failed note does not abort the batch.
			s.logger.Warn("note write failed",
				slog.String("title", rec.Title),
				slog.String("error", err.Error()))
			continue
		}
		created = append(created, path)
	}
	return created, nil
}

// invoke returns the raw LLM response for content, consulting the cache
// first.
func (s *Service) invoke(ctx context.Context, content, label string) (string, error) {
	key := checksum.Sum([]byte(content))
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.tracker.RecordLLMCall(0, true)
			s.logger.Debug("llm cache hit", slog.String("label", label))
			return cached, nil
		}
	}

	start := s.now()
	raw, err := s.provider.Invoke(ctx, llm.BuildPrompt(content, label))
	if err != nil {
		return "", fmt.Errorf("llm invoke: %w", err)
	}
	s.tracker.RecordLLMCall(time.Since(start), false)

	if s.cache != nil {
		s.cache.Put(key, raw)
	}
	return raw, nil
}

// writeNote repairs, links, and persists one note record, then registers
// it with the similarity corpus and the index. The corpus insert happens
// strictly after the durable write, so a note never appears in its own
// link suggestions.
func (s *Service) writeNote(rec models.NoteRecord, sourceLabel string) (string, error) {
	body := repair.Repair(rec.Body)

	full := body
	if !strings.HasPrefix(strings.TrimSpace(full), "---") {
		full = Frontmatter(rec.Title, rec.Tags, rec.Category, s.now()) + full
	}

	plain := stripFrontmatter(full)

	suggestions := s.corpus.Query(plain, s.opts.MaxLinks, s.opts.SimilarityThreshold)
	if len(suggestions) > 0 {
		var b strings.Builder
		b.WriteString(strings.TrimRight(full, "\n"))
		b.WriteString("\n\n## Related Notes\n\n")
		for _, sug := range suggestions {
			stem := strings.TrimSuffix(filepath.Base(sug.Key), ".md")
			fmt.Fprintf(&b, "- [[%s|%s]]\n", sug.Title, stem)
		}
		full = b.String()
	}

	path := s.uniquePath(rec.Title, rec.Category)
	data := []byte(full)
	if err := s.store.Write(path, data); err != nil {
		return "", err
	}

	if err := s.corpus.Insert(path, rec.Title, plain); err != nil {
		// Precondition violation: the path was generated to be unique.
		return "", err
	}

	var links []string
	for _, sug := range suggestions {
		links = append(links, sug.Title)
	}
	if err := s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     rec.Title,
		Category:  rec.Category.String(),
		Tags:      rec.Tags,
		Checksum:  checksum.Sum(data),
		Source:    sourceLabel,
		CreatedAt: s.now(),
	}, plain, links); err != nil {
		s.logger.Warn("index upsert failed", slog.String("path", path), slog.String("error", err.Error()))
	}

	s.tracker.RecordNote(rec.Category.String(), rec.Tags, len(strings.Fields(plain)), len(plain))
	s.emit("note.created", path)
	return path, nil
}

// uniquePath returns a vault path that collides neither with the corpus
// nor with an existing file, suffixing the slug when needed.
func (s *Service) uniquePath(title string, category models.Category) string {
	base := Filename(title, category, s.now())
	path := base
	for n := 2; s.corpus.Has(path) || s.store.Exists(path); n++ {
		path = strings.TrimSuffix(base, ".md") + fmt.Sprintf("-%d.md", n)
	}
	return path
}

func (s *Service) emit(kind, path string) {
	if s.events != nil {
		s.events(kind, path)
	}
}

// stripFrontmatter returns the document body without a leading frontmatter
// block; used for similarity comparison.
func stripFrontmatter(doc string) string {
	trimmed := strings.TrimLeft(doc, "\n\r")
	if !strings.HasPrefix(trimmed, "---") {
		return doc
	}
	rest := trimmed[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return doc
	}
	return strings.TrimSpace(rest[idx+4:])
}
