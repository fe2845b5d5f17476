package converter

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// Frontmatter renders the metadata block prepended to note bodies that the
// LLM returned without one. Ends with a blank line so the body heading
// stays separated.
func Frontmatter(title string, tags []string, category models.Category, now time.Time) string {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = fmt.Sprintf("%q", t)
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", title)
	fmt.Fprintf(&b, "date: %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(quoted, ", "))
	if category != "" {
		fmt.Fprintf(&b, "category: %s\n", category)
	}
	b.WriteString("---\n\n")
	return b.String()
}
