// Package linker maintains the growing corpus of written notes and
// suggests related notes for new content via keyword-boosted TF-IDF
// similarity.
//
// The corpus is the only shared mutable state in the pipeline. Entries are
// append-only and immutable, guarded by an RWMutex: a query snapshots the
// entry slice under the read lock and computes outside it, inserts take the
// write lock. A note is never compared against itself because it is
// inserted only after its own query.
package linker

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Params holds the linker's heuristic constants. Their values are
// unverifiable folklore, so they are configuration rather than literals.
type Params struct {
	// ThresholdScale softens the caller-supplied similarity threshold.
	ThresholdScale float64
	// ThresholdFloor is the minimum effective threshold.
	ThresholdFloor float64
	// PhraseWeight is how many times a phrase-level term (quoted, bracketed,
	// emphasized, heading) is repeated in the weighted query document.
	PhraseWeight int
	// ConceptWeight is the repetition count for dictionary concept hits.
	ConceptWeight int
	// MaxFeatures caps the vectorizer vocabulary.
	MaxFeatures int
	// MaxNGram is the longest n-gram length.
	MaxNGram int
	// MaxDocFreq drops terms present in more than this fraction of documents.
	MaxDocFreq float64
}

// DefaultParams returns the stock heuristic constants.
func DefaultParams() Params {
	return Params{
		ThresholdScale: 0.8,
		ThresholdFloor: 0.15,
		PhraseWeight:   3,
		ConceptWeight:  2,
		MaxFeatures:    5000,
		MaxNGram:       3,
		MaxDocFreq:     0.95,
	}
}

type entry struct {
	key   string
	title string
	body  string
}

// Corpus is the in-memory collection of previously written notes.
type Corpus struct {
	mu      sync.RWMutex
	entries []entry
	keys    map[string]struct{}
	params  Params
}

// NewCorpus creates an empty corpus. Zero-valued params fields are filled
// with defaults.
func NewCorpus(p Params) *Corpus {
	d := DefaultParams()
	if p.ThresholdScale <= 0 {
		p.ThresholdScale = d.ThresholdScale
	}
	if p.ThresholdFloor <= 0 {
		p.ThresholdFloor = d.ThresholdFloor
	}
	if p.PhraseWeight <= 0 {
		p.PhraseWeight = d.PhraseWeight
	}
	if p.ConceptWeight <= 0 {
		p.ConceptWeight = d.ConceptWeight
	}
	if p.MaxFeatures <= 0 {
		p.MaxFeatures = d.MaxFeatures
	}
	if p.MaxNGram <= 0 {
		p.MaxNGram = d.MaxNGram
	}
	if p.MaxDocFreq <= 0 {
		p.MaxDocFreq = d.MaxDocFreq
	}
	return &Corpus{keys: make(map[string]struct{}), params: p}
}

// Insert appends a note to the corpus. It must be called only after the
// note is durably written. A duplicate or empty key is a contract violation
// and fails loudly.
func (c *Corpus) Insert(key, title, body string) error {
	if key == "" {
		return fmt.Errorf("linker: insert with empty key")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.keys[key]; dup {
		return fmt.Errorf("linker: %w: %s", apperr.ErrDuplicateKey, key)
	}
	c.keys[key] = struct{}{}
	c.entries = append(c.entries, entry{key: key, title: title, body: body})
	return nil
}

// Has reports whether key is already in the corpus.
func (c *Corpus) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.keys[key]
	return ok
}

// Len returns the number of corpus entries.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Query returns up to maxResults notes related to body, each either a
// direct keyword-title match or scoring above the effective threshold
// max(threshold*ThresholdScale, ThresholdFloor). Direct matches are listed
// first in corpus order, then similarity matches by descending score.
// Linking is best-effort: any internal failure yields an empty result.
func (c *Corpus) Query(body string, maxResults int, threshold float64) (out []models.Suggestion) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()

	c.mu.RLock()
	snapshot := c.entries
	c.mu.RUnlock()

	if len(snapshot) == 0 || maxResults <= 0 {
		return nil
	}

	phrases, concepts := extractTerms(body)
	weighted := weightedDocument(body, phrases, concepts, c.params)

	docs := make([]string, 0, len(snapshot)+1)
	for _, e := range snapshot {
		docs = append(docs, e.body)
	}
	docs = append(docs, weighted)

	vecs, err := vectorize(docs, c.params)
	if err != nil {
		return nil
	}
	query := vecs[len(vecs)-1]

	scores := make([]float64, len(snapshot))
	for i := range snapshot {
		scores[i] = dot(vecs[i], query)
	}

	effective := math.Max(threshold*c.params.ThresholdScale, c.params.ThresholdFloor)

	candidateCount := maxResults
	if candidateCount < 8 {
		candidateCount = 8
	}
	if candidateCount > 20 {
		candidateCount = 20
	}

	order := make([]int, len(snapshot))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if len(order) > candidateCount {
		order = order[:candidateCount]
	}

	direct := directMatches(snapshot, phrases, concepts)

	picked := make(map[int]struct{}, candidateCount)
	for i := range snapshot {
		if _, ok := direct[i]; ok {
			picked[i] = struct{}{}
			out = append(out, models.Suggestion{Title: snapshot[i].title, Key: snapshot[i].key})
		}
	}
	for _, i := range order {
		if _, ok := picked[i]; ok {
			continue
		}
		if scores[i] > effective {
			out = append(out, models.Suggestion{Title: snapshot[i].title, Key: snapshot[i].key})
		}
	}

	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// directMatches returns the indices of entries whose title contains one of
// the query's salient terms, case-insensitively. Direct matches bypass the
// similarity threshold entirely.
func directMatches(entries []entry, phrases, concepts []string) map[int]struct{} {
	terms := make([]string, 0, len(phrases)+len(concepts))
	for _, t := range append(append([]string{}, phrases...), concepts...) {
		t = strings.ToLower(strings.TrimSpace(t))
		if len(t) > 3 {
			terms = append(terms, t)
		}
	}
	out := make(map[int]struct{})
	if len(terms) == 0 {
		return out
	}
	for i, e := range entries {
		title := strings.ToLower(e.title)
		for _, t := range terms {
			if strings.Contains(title, t) {
				out[i] = struct{}{}
				break
			}
		}
	}
	return out
}

// weightedDocument biases the vector space toward salient terms by
// appending phrase-level terms PhraseWeight times and concept-level terms
// ConceptWeight times to the original body.
func weightedDocument(body string, phrases, concepts []string, p Params) string {
	var b strings.Builder
	b.WriteString(body)
	for _, ph := range phrases {
		for i := 0; i < p.PhraseWeight; i++ {
			b.WriteByte(' ')
			b.WriteString(ph)
		}
	}
	for _, co := range concepts {
		for i := 0; i < p.ConceptWeight; i++ {
			b.WriteByte(' ')
			b.WriteString(co)
		}
	}
	return b.String()
}
