// Package repair post-processes assembled note markdown, fixing structural
// defects the LLM commonly introduces: duplicated headings, unbalanced code
// fences, meta-commentary lines, missing frontmatter fields, a missing
// Related Concepts section, and sloppy whitespace.
//
// Repair is idempotent: applying it to already-clean input is a no-op.
// Every fix skips gracefully when its precondition is absent.
package repair

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/classify"
	"github.com/starford/ansuz/internal/models"
)

// Repair applies all fixes to a note document in sequence.
func Repair(doc string) string {
	doc = collapseDuplicateHeadings(doc)
	doc = balanceFences(doc)
	doc = stripMetaCommentary(doc)
	doc = ensureRelatedConcepts(doc)
	doc = completeFrontmatter(doc, time.Now())
	doc = normalizeWhitespace(doc)
	return doc
}

var headingLineRe = regexp.MustCompile(`^#{1,6}\s+\S`)

func isHeading(line string) bool { return headingLineRe.MatchString(line) }

func isFence(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), "```") }

// collapseDuplicateHeadings drops a heading line that immediately repeats
// the previous heading (same level, same text), allowing only blank lines
// between the two. Fenced code blocks are left untouched.
func collapseDuplicateHeadings(doc string) string {
	lines := strings.Split(doc, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	lastHeading := ""
	blanksOnly := false

	for _, line := range lines {
		if isFence(line) {
			inFence = !inFence
			out = append(out, line)
			lastHeading = ""
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		if isHeading(line) {
			trimmed := strings.TrimSpace(line)
			if blanksOnly && trimmed == lastHeading {
				continue
			}
			lastHeading = trimmed
			blanksOnly = true
			out = append(out, line)
			continue
		}
		if strings.TrimSpace(line) != "" {
			lastHeading = ""
			blanksOnly = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// balanceFences removes empty fenced blocks, strips a fence left dangling
// at the very end of the document, and appends a closing fence when opens
// outnumber closes.
func balanceFences(doc string) string {
	lines := strings.Split(doc, "\n")

	// Collapse open-immediately-followed-by-close pairs.
	out := make([]string, 0, len(lines))
	inFence := false
	for i := 0; i < len(lines); i++ {
		if !inFence && isFence(lines[i]) && i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "```" {
			i++ // skip both
			continue
		}
		if isFence(lines[i]) {
			inFence = !inFence
		}
		out = append(out, lines[i])
	}

	// Recount after collapsing.
	open := false
	lastFence := -1
	for i, line := range out {
		if isFence(line) {
			open = !open
			lastFence = i
		}
	}
	if !open {
		return strings.Join(out, "\n")
	}

	// Dangling opener with nothing after it: strip rather than close.
	trailing := out[lastFence+1:]
	empty := true
	for _, line := range trailing {
		if strings.TrimSpace(line) != "" {
			empty = false
			break
		}
	}
	if empty {
		out = append(out[:lastFence], trailing...)
		return strings.Join(out, "\n")
	}

	return strings.Join(out, "\n") + "\n```"
}

// metaLineRes matches self-referential LLM commentary that has no place in
// a note body.
var metaLineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*I(?:'ve| have) (?:analyzed|organized|created|structured|converted)\b.*$`),
	regexp.MustCompile(`(?i)^\s*Based on the (?:content|text|provided)\b.*$`),
	regexp.MustCompile(`(?i)^\s*This note (?:covers|contains|summarizes|captures|is about)\b.*$`),
	regexp.MustCompile(`(?i)^\s*Here (?:is|are) the\b.*\bnotes?\b.*$`),
	regexp.MustCompile(`(?i)^\s*Let me know if\b.*$`),
	regexp.MustCompile(`(?i)^\s*As an AI\b.*$`),
}

func stripMetaCommentary(doc string) string {
	lines := strings.Split(doc, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
lineLoop:
	for _, line := range lines {
		if isFence(line) {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if !inFence {
			for _, re := range metaLineRes {
				if re.MatchString(line) {
					continue lineLoop
				}
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

var relatedHeadingRe = regexp.MustCompile(`(?mi)^#{2,3}\s+Related Concepts\s*$`)

// relatedLinks is the fixed per-category link set used when a note has no
// Related Concepts section of its own.
var relatedLinks = map[models.Category][3]string{
	models.CategoryTechnology: {"Programming Concepts", "Software Tools", "System Design"},
	models.CategoryFinance:    {"Personal Finance", "Investment Basics", "Market Analysis"},
	models.CategoryPersonal:   {"Habits", "Goals", "Wellbeing"},
	models.CategoryProjects:   {"Project Planning", "Task Management", "Collaboration"},
	models.CategoryKnowledge:  {"Learning Methods", "Core Concepts", "Further Reading"},
	models.CategoryReference:  {"Guides", "Documentation", "Resources"},
}

var genericLinks = [3]string{"Core Concepts", "Further Reading", "Open Questions"}

// ensureRelatedConcepts appends a Related Concepts section with exactly
// three category-dependent links when none exists.
func ensureRelatedConcepts(doc string) string {
	if relatedHeadingRe.MatchString(doc) {
		return doc
	}

	links, ok := relatedLinks[documentCategory(doc)]
	if !ok {
		links = genericLinks
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(doc, "\n"))
	b.WriteString("\n\n## Related Concepts\n\n")
	for _, l := range links {
		fmt.Fprintf(&b, "- [[%s]]\n", l)
	}
	return b.String()
}

var categoryFieldRe = regexp.MustCompile(`(?m)^category:[ \t]*(.+)$`)

// documentCategory reads the category from a leading frontmatter block, or
// classifies the first heading when frontmatter is absent.
func documentCategory(doc string) models.Category {
	if fm, _, ok := splitLeadingFrontmatter(doc); ok {
		if m := categoryFieldRe.FindStringSubmatch(fm); m != nil {
			cat := models.Category(strings.Trim(strings.TrimSpace(m[1]), `"'`))
			if cat.Valid() {
				return cat
			}
		}
	}
	if m := anyHeadingRe.FindStringSubmatch(doc); m != nil {
		return classify.Categorize(m[1])
	}
	return models.CategoryKnowledge
}

var anyHeadingRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// splitLeadingFrontmatter returns (frontmatter, rest, true) when the
// document starts with a --- delimited block.
func splitLeadingFrontmatter(doc string) (string, string, bool) {
	trimmed := strings.TrimLeft(doc, "\n\r")
	if !strings.HasPrefix(trimmed, "---") {
		return "", doc, false
	}
	rest := trimmed[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", doc, false
	}
	return rest[:idx], rest[idx+4:], true
}

// frontmatterKeys are the fields every note's frontmatter must carry.
var frontmatterKeys = []string{"title", "date", "tags", "category", "created", "modified", "alias"}

// completeFrontmatter appends any missing required key to a leading
// frontmatter block with a computed default. Documents without frontmatter
// are returned unchanged.
func completeFrontmatter(doc string, now time.Time) string {
	fm, rest, ok := splitLeadingFrontmatter(doc)
	if !ok {
		return doc
	}

	present := make(map[string]bool, len(frontmatterKeys))
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(fm), &parsed); err == nil {
		for k := range parsed {
			present[strings.ToLower(k)] = true
		}
	} else {
		// Malformed YAML: fall back to line-anchored key detection.
		for _, key := range frontmatterKeys {
			re := regexp.MustCompile(`(?m)^` + key + `[ \t]*:`)
			present[key] = re.MatchString(fm)
		}
	}

	heading := ""
	if m := anyHeadingRe.FindStringSubmatch(rest); m != nil {
		heading = strings.TrimSpace(m[1])
	}
	today := now.Format("2006-01-02")

	var missing []string
	for _, key := range frontmatterKeys {
		if present[key] {
			continue
		}
		switch key {
		case "title":
			missing = append(missing, fmt.Sprintf("title: %q", heading))
		case "alias":
			missing = append(missing, fmt.Sprintf("alias: [%q]", heading))
		case "date", "created", "modified":
			missing = append(missing, key+": "+today)
		case "tags":
			missing = append(missing, "tags: []")
		case "category":
			missing = append(missing, "category: "+models.CategoryKnowledge.String())
		}
	}
	if len(missing) == 0 {
		return doc
	}

	fm = strings.TrimRight(fm, "\n") + "\n" + strings.Join(missing, "\n")
	return "---" + fm + "\n---" + rest
}

var excessBlankRe = regexp.MustCompile(`\n{3,}`)

// normalizeWhitespace ensures a blank line follows every heading, collapses
// runs of three or more newlines to a single blank line, and trims the tail
// to exactly one terminating newline.
func normalizeWhitespace(doc string) string {
	lines := strings.Split(doc, "\n")
	out := make([]string, 0, len(lines)+4)
	inFence := false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
		}
		out = append(out, line)
		if inFence {
			continue
		}
		if isHeading(line) && i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			out = append(out, "")
		}
	}

	doc = strings.Join(out, "\n")
	doc = excessBlankRe.ReplaceAllString(doc, "\n\n")
	return strings.TrimRight(doc, " \t\n") + "\n"
}
