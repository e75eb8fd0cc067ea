// Package school holds the name-level heuristics for U.S. high school names:
// normalization into grouping keys, school-type classification, qualifier
// extraction, suffix handling, and the curated prep-school registry.
//
// Every function here is pure and safe for concurrent use. Package-level
// tables are built once at init and never mutated.
package school

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	// One trailing suffix: HIGH SCHOOL, HS, H.S., H.S, H. S.
	suffixRe = regexp.MustCompile(`\s+(?:HIGH\s+SCHOOL|H\.?\s*S)\.?$`)
	saintRe  = regexp.MustCompile(`(^|\s)ST(?:\.\s*|\s+)(\pL)`)
)

// Normalize returns the grouping key for a raw school name.
//
// The key is uppercase, accent-folded, carries no high school suffix, spells
// "St."/"St" as SAINT, has no punctuation other than hyphens inside compound
// words, and has single spaces. A parenthetical qualifier is dropped, so
// "Lincoln HS (North)" keys as LINCOLN; ExtractDisambiguator recovers it.
// Normalize never fails; empty input yields "".
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if core, _, ok := ExtractDisambiguator(name); ok && core != "" {
		name = core
	}
	return normalizeCore(name)
}

func normalizeCore(name string) string {
	s := upperFold(strings.TrimSpace(name))
	// Suffix first: punctuation removal would turn "H.S." into "HS" and
	// hide it inside the preceding word boundary rules.
	s = suffixRe.ReplaceAllString(s, "")
	s = saintRe.ReplaceAllString(s, "${1}SAINT ${2}")
	return cleanKey(s)
}

func upperFold(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

// cleanKey drops punctuation (keeping hyphens between alphanumerics) and
// collapses whitespace.
func cleanKey(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case r == '-' && i > 0 && i < len(rs)-1 && isAlnum(rs[i-1]) && isAlnum(rs[i+1]):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
