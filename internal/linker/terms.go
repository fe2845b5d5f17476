package linker

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/tagger"
)

// Phrase-level patterns: text a human marked as salient. Minimum content
// length of four keeps trivial fragments out.
var (
	quotedRe  = regexp.MustCompile(`"([^"\n]{4,})"`)
	bracketRe = regexp.MustCompile(`\[\[?([^\[\]\n]{4,})\]?\]`)
	parenRe   = regexp.MustCompile(`\(([^()\n]{4,})\)`)
	boldRe    = regexp.MustCompile(`\*\*([^*\n]{4,})\*\*`)
	italicRe  = regexp.MustCompile(`\*([^*\n]{4,})\*`)
	headingRe = regexp.MustCompile("(?m)^#{1,6}[ \t]+(.+)$")
)

// extractTerms pulls the salient terms out of a query body: phrases (quoted,
// bracketed, parenthesized, emphasized, headings) and dictionary concepts
// (technology and finance vocabulary found as substrings).
func extractTerms(body string) (phrases, concepts []string) {
	seen := make(map[string]struct{})
	add := func(list *[]string, term string) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		*list = append(*list, term)
	}

	for _, re := range []*regexp.Regexp{quotedRe, bracketRe, parenRe, boldRe, italicRe, headingRe} {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			add(&phrases, m[1])
		}
	}

	lower := strings.ToLower(body)
	for _, term := range tagger.TechTerms {
		if strings.Contains(lower, term) {
			add(&concepts, term)
		}
	}
	for _, term := range tagger.FinanceTerms {
		if strings.Contains(lower, term) {
			add(&concepts, term)
		}
	}
	return phrases, concepts
}
