package converter

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/tagger"
)

// maxSlugLen bounds slugs so filenames stay manageable.
const maxSlugLen = 60

// Slugify converts a title into a filename-safe slug.
func Slugify(s string) string {
	slug := tagger.Kebab(s)
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// Filename builds the vault-relative path for a note: a slugified category
// folder containing a timestamp-prefixed slug.
func Filename(title string, category models.Category, now time.Time) string {
	name := fmt.Sprintf("%s-%s.md", now.Format("200601021504"), Slugify(title))
	if category == "" {
		return name
	}
	return Slugify(category.String()) + "/" + name
}
