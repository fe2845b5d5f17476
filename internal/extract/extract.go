// Package extract turns raw LLM output into validated note records.
//
// The output is treated as untrusted, schema-less text: four strategies of
// decreasing strictness are tried in order, each returning zero or more
// records, and the first non-empty result wins. A post-pass re-validates
// every record regardless of which strategy produced it. Extraction never
// fails: the worst case is a single minimal fallback record.
package extract

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/classify"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/tagger"
)

const untitled = "Untitled Note"

// maxFallbackTitle bounds titles derived from a first content line.
const maxFallbackTitle = 50

type strategy func(text string) []models.NoteRecord

// Notes extracts an ordered list of note records from raw LLM output.
// contextLabel (typically the source file name) is used only as a title
// fallback of last resort.
func Notes(raw, contextLabel string) []models.NoteRecord {
	strategies := []strategy{
		strictFrontmatter,
		relaxedFrontmatter,
		headingSplit,
	}
	for _, s := range strategies {
		if recs := s(raw); len(recs) > 0 {
			return finalize(recs)
		}
	}
	return finalize([]models.NoteRecord{wholeDocument(raw, contextLabel)})
}

// finalize is the post-pass applied to every extraction result: categories
// outside the canonical set are replaced via classification of the title,
// empty titles are defaulted, and missing tags are synthesized.
func finalize(recs []models.NoteRecord) []models.NoteRecord {
	for i := range recs {
		if strings.TrimSpace(recs[i].Title) == "" {
			recs[i].Title = untitled
		}
		if !recs[i].Category.Valid() {
			recs[i].Category = classify.Categorize(recs[i].Title)
		}
		if len(recs[i].Tags) == 0 {
			recs[i].Tags = tagger.Synthesize(recs[i].Title, recs[i].Body)
		}
	}
	return recs
}

var strictDelimRe = regexp.MustCompile(`(?m)^---[ \t]*$`)

// strictFrontmatter splits on line-anchored --- delimiters. Each block is a
// frontmatter section followed by a body that runs until the next delimiter
// or end of text. Blocks that fail to parse are skipped individually.
func strictFrontmatter(text string) []models.NoteRecord {
	delims := strictDelimRe.FindAllStringIndex(text, -1)
	return splitOnDelims(text, delims)
}

// relaxedFrontmatter tolerates --- delimiters without newline anchoring,
// e.g. blocks concatenated on one line or padded with stray characters.
func relaxedFrontmatter(text string) []models.NoteRecord {
	var delims [][]int
	for off := 0; ; {
		i := strings.Index(text[off:], "---")
		if i < 0 {
			break
		}
		start := off + i
		delims = append(delims, []int{start, start + 3})
		off = start + 3
	}
	return splitOnDelims(text, delims)
}

// splitOnDelims pairs delimiters into (frontmatter, body) blocks: delimiter
// 2k opens frontmatter, 2k+1 closes it, and the body runs until delimiter
// 2k+2 or end of text.
func splitOnDelims(text string, delims [][]int) []models.NoteRecord {
	var out []models.NoteRecord
	for i := 0; i+1 < len(delims); i += 2 {
		fm := text[delims[i][1]:delims[i+1][0]]
		bodyEnd := len(text)
		if i+2 < len(delims) {
			bodyEnd = delims[i+2][0]
		}
		body := strings.TrimSpace(text[delims[i+1][1]:bodyEnd])
		if rec, ok := parseBlock(fm, body); ok {
			out = append(out, rec)
		}
	}
	return out
}

var (
	titleFieldRe    = regexp.MustCompile(`(?m)^[ \t]*title:[ \t]*(.+)$`)
	tagsFieldRe     = regexp.MustCompile(`(?s)tags:[ \t]*\[(.*?)\]`)
	categoryFieldRe = regexp.MustCompile(`(?m)^[ \t]*category:[ \t]*(.+)$`)
	tagTokenRe      = regexp.MustCompile(`"([^"]+)"|'([^']+)'|([^,\s\]"']+)`)
)

// parseBlock extracts one record from a frontmatter section and its body.
// It reports false for blocks with neither a title field nor body content,
// which keeps delimiter noise (horizontal rules, stray dashes) out of the
// result without aborting the surrounding extraction.
func parseBlock(frontmatter, body string) (models.NoteRecord, bool) {
	var rec models.NoteRecord

	if m := titleFieldRe.FindStringSubmatch(frontmatter); m != nil {
		rec.Title = strings.Trim(strings.TrimSpace(m[1]), `"'`)
	}
	if rec.Title == "" && body == "" {
		return rec, false
	}

	if m := tagsFieldRe.FindStringSubmatch(frontmatter); m != nil {
		rec.Tags = parseTagList(m[1])
	}
	if m := categoryFieldRe.FindStringSubmatch(frontmatter); m != nil {
		cat := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		rec.Category = models.Category(cat)
	}

	if rec.Title == "" {
		rec.Title = untitled
	}
	rec.Body = body
	return rec, true
}

// parseTagList parses the bracket contents of a tags field. Three stylings
// are tolerated: double-quoted, single-quoted, and bare comma-separated
// tokens. Empty tokens are discarded after trimming.
func parseTagList(inner string) []string {
	var tags []string
	for _, m := range tagTokenRe.FindAllStringSubmatch(inner, -1) {
		tag := m[1]
		if tag == "" {
			tag = m[2]
		}
		if tag == "" {
			tag = m[3]
		}
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

var (
	h1Re = regexp.MustCompile(`(?m)^# (.+)$`)
	h2Re = regexp.MustCompile(`(?m)^## (.+)$`)
)

// headingSplit segments the text on level-1 headings, falling back to
// level-2. Each segment keeps its heading line as the start of the body;
// the heading text becomes the title.
func headingSplit(text string) []models.NoteRecord {
	for _, re := range []*regexp.Regexp{h1Re, h2Re} {
		locs := re.FindAllStringSubmatchIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		var out []models.NoteRecord
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			title := strings.TrimSpace(text[loc[2]:loc[3]])
			body := strings.TrimSpace(text[loc[0]:end])
			out = append(out, models.NoteRecord{Title: title, Body: body})
		}
		return out
	}
	return nil
}

var anyHeadingRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// wholeDocument treats the entire output as a single note. The title comes
// from the first heading, else the first non-empty line (truncated), else
// the context label, else a fixed default.
func wholeDocument(text, contextLabel string) models.NoteRecord {
	trimmed := strings.TrimSpace(text)

	title := ""
	if m := anyHeadingRe.FindStringSubmatch(trimmed); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if title == "" {
		for _, line := range strings.Split(trimmed, "\n") {
			if l := strings.TrimSpace(line); l != "" {
				title = l
				if runes := []rune(title); len(runes) > maxFallbackTitle {
					title = string(runes[:maxFallbackTitle]) + "..."
				}
				break
			}
		}
	}
	if title == "" {
		title = strings.TrimSpace(contextLabel)
	}
	if title == "" {
		title = untitled
	}

	body := trimmed
	if !strings.HasPrefix(body, "#") {
		body = "## " + title + "\n\n" + body
	}
	return models.NoteRecord{Title: title, Body: strings.TrimSpace(body)}
}
