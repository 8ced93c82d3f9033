package dashboard

import (
	"fmt"
	"strings"

	"github.com/ettle/strcase"
)

const fallbackSlug = "dashboard"

// Slugify turns a dashboard name into a URL-safe kebab-case slug.
// "Foo Bar" becomes "foo-bar"; characters outside [a-z0-9] act as separators.
func Slugify(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return ' '
		}
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return fallbackSlug
	}
	return strcase.ToKebab(cleaned)
}

// suffixedSlug returns the slug tried on the n-th collision.
func suffixedSlug(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, attempt)
}
