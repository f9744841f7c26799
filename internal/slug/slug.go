// Package slug turns display titles into ASCII identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	lower      = cases.Lower(language.Czech)
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Make lower-cases title, strips diacritics, drops everything but [a-z0-9 -]
// and joins the remaining words with "-". "Kdo se dívá?" becomes "kdo-se-diva".
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(t, lower.String(title))
	if err != nil {
		return ""
	}
	s = disallowed.ReplaceAllString(s, "")
	return spaces.ReplaceAllString(strings.TrimSpace(s), "-")
}
