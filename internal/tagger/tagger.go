// Package tagger derives kebab-case tags from note titles and bodies when
// the LLM response did not supply usable ones.
package tagger

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/classify"
)

// MaxTags caps the number of tags returned by Synthesize.
const MaxTags = 10

// TechTerms and FinanceTerms are domain dictionaries scanned as substrings
// against lowercased bodies. They double as concept vocabulary for the
// similarity linker.
var (
	TechTerms = []string{
		"python", "golang", "javascript", "typescript", "rust", "docker",
		"kubernetes", "database", "sqlite", "postgres", "linux", "api",
		"server", "cloud", "git", "terminal", "encryption", "security",
		"network", "frontend", "backend", "devops", "machine-learning",
		"automation", "algorithm", "compiler", "browser",
	}
	FinanceTerms = []string{
		"bitcoin", "ethereum", "crypto", "investing", "investment", "stocks",
		"portfolio", "banking", "budget", "trading", "dividend", "interest",
		"savings", "mortgage", "inflation", "tax", "etf", "broker",
	}
)

var titleStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"from": {}, "about": {}, "into": {}, "your": {}, "their": {}, "what": {},
	"when": {}, "where": {}, "how": {}, "why": {}, "are": {}, "was": {},
	"were": {}, "has": {}, "have": {}, "not": {}, "you": {}, "all": {},
}

var (
	titleWordRe    = regexp.MustCompile(`[a-zA-Z0-9]{3,}`)
	fenceOpenRe    = regexp.MustCompile("(?m)^```([a-zA-Z0-9+-]*)[ \t]*$")
	urlRe          = regexp.MustCompile(`https?://([^/\s)]+)`)
	isoDateRe      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	bulletLineRe   = regexp.MustCompile(`(?m)^\s*[-*]\s+`)
	numberedLineRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	tableRowRe     = regexp.MustCompile(`(?m)^\s*\|.+\|\s*$`)
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\(`)
	kebabStripRe   = regexp.MustCompile(`[^a-z0-9]+`)
)

// siteTags maps recognized URL hosts to a site-specific tag.
var siteTags = map[string]string{
	"github.com":        "github",
	"stackoverflow.com": "stackoverflow",
	"wikipedia.org":     "wikipedia",
	"youtube.com":       "youtube",
	"reddit.com":        "reddit",
}

// Synthesize derives up to MaxTags kebab-case tags from a title and body.
// Tags are deduplicated preserving first-seen order, then stably sorted by
// descending length (a proxy for specificity). If fewer than three tags
// result, the lowercased category of the title and the literal tag "note"
// are appended. Pure function, total over all inputs.
func Synthesize(title, body string) []string {
	var raw []string

	for _, w := range titleWordRe.FindAllString(strings.ToLower(title), -1) {
		if _, stop := titleStopwords[w]; !stop {
			raw = append(raw, w)
		}
	}

	lowerBody := strings.ToLower(body)
	for _, term := range TechTerms {
		if strings.Contains(lowerBody, term) {
			raw = append(raw, term)
		}
	}
	for _, term := range FinanceTerms {
		if strings.Contains(lowerBody, term) {
			raw = append(raw, term)
		}
	}

	raw = append(raw, structuralTags(body)...)

	tags := normalize(raw)
	if len(tags) < 3 {
		cat := strings.ToLower(classify.Categorize(title).String())
		tags = normalize(append(tags, cat, "note"))
	}

	sort.SliceStable(tags, func(i, j int) bool { return len(tags[i]) > len(tags[j]) })

	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}

// structuralTags inspects markdown structure for marker tags.
func structuralTags(body string) []string {
	var out []string

	if fences := fenceOpenRe.FindAllStringSubmatch(body, -1); len(fences) > 0 {
		out = append(out, "code-snippet")
		for _, m := range fences {
			if m[1] != "" {
				out = append(out, strings.ToLower(m[1])+"-code")
				break
			}
		}
	}

	if hosts := urlRe.FindAllStringSubmatch(body, -1); len(hosts) > 0 {
		out = append(out, "links")
		for _, m := range hosts {
			host := strings.TrimPrefix(strings.ToLower(m[1]), "www.")
			if tag, ok := siteTags[host]; ok {
				out = append(out, tag)
			}
		}
	}

	if isoDateRe.MatchString(body) {
		out = append(out, "dated")
	}
	if len(bulletLineRe.FindAllString(body, -1)) >= 4 {
		out = append(out, "list")
	}
	if len(numberedLineRe.FindAllString(body, -1)) >= 4 {
		out = append(out, "numbered-list")
	}
	if tableRowRe.MatchString(body) {
		out = append(out, "table")
	}
	if imageRe.MatchString(body) {
		out = append(out, "images")
	}

	return out
}

// normalize kebab-cases every candidate, drops those shorter than two
// characters, and deduplicates preserving first-seen order.
func normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, t := range raw {
		k := Kebab(t)
		if len(k) < 2 {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Kebab converts s to kebab-case: ASCII lowercase letters, digits, and
// single interior hyphens only.
func Kebab(s string) string {
	k := kebabStripRe.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(k, "-")
}
