package linker

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// vectorize builds L2-normalized TF-IDF vectors for docs over a shared
// vocabulary of word n-grams. Terms appearing in more than MaxDocFreq of
// the documents are dropped, and the vocabulary is capped at MaxFeatures
// terms by descending corpus frequency.
func vectorize(docs []string, p Params) ([]map[int]float64, error) {
	n := len(docs)
	if n == 0 {
		return nil, errors.New("linker: no documents")
	}

	grams := make([][]string, n)
	for i, doc := range docs {
		grams[i] = ngrams(tokenize(doc), p.MaxNGram)
	}

	df := make(map[string]int)
	total := make(map[string]int)
	for _, g := range grams {
		seen := make(map[string]struct{}, len(g))
		for _, term := range g {
			total[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	maxDoc := p.MaxDocFreq * float64(n)
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if float64(count) > maxDoc {
			continue
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, errors.New("linker: empty vocabulary")
	}

	// Cap the vocabulary by descending corpus frequency, ties alphabetical
	// for determinism.
	if len(terms) > p.MaxFeatures {
		sort.Slice(terms, func(a, b int) bool {
			if total[terms[a]] != total[terms[b]] {
				return total[terms[a]] > total[terms[b]]
			}
			return terms[a] < terms[b]
		})
		terms = terms[:p.MaxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		// Smoothed IDF.
		idf[i] = math.Log((1+float64(n))/(1+float64(df[term]))) + 1.0
	}

	vecs := make([]map[int]float64, n)
	for i, g := range grams {
		tf := make(map[int]int)
		kept := 0
		for _, term := range g {
			if idx, ok := vocab[term]; ok {
				tf[idx]++
				kept++
			}
		}
		vec := make(map[int]float64, len(tf))
		if kept > 0 {
			for idx, count := range tf {
				vec[idx] = float64(count) / float64(kept) * idf[idx]
			}
			norm := 0.0
			for _, v := range vec {
				norm += v * v
			}
			norm = math.Sqrt(norm)
			if norm > 0 {
				for idx := range vec {
					vec[idx] /= norm
				}
			}
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// dot computes the cosine similarity of two L2-normalized sparse vectors.
func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	sum := 0.0
	for idx, v := range a {
		sum += v * b[idx]
	}
	return sum
}

// tokenize lowercases text and splits it into word tokens, dropping
// stopwords, single characters, and purely numeric tokens.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		current.Reset()
		if len(tok) < 2 || numericOnly(tok) {
			return
		}
		if _, stop := stopwords[tok]; stop {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func numericOnly(tok string) bool {
	for _, r := range tok {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// ngrams returns all n-grams of length 1..max over tokens, joined by
// spaces.
func ngrams(tokens []string, max int) []string {
	out := make([]string, 0, len(tokens)*max)
	for n := 1; n <= max; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
