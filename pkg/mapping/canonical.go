package mapping

import (
	"unicode"

	"github.com/hazyhaar/hsregistry/pkg/school"
)

// SelectCanonical picks the canonical spelling of a group. Members are
// compared by, in order: aggregate weight (higher wins), suffix form
// (High School > H.S. > HS > none), punctuation count (fewer wins), then
// byte-wise lexicographic order. The result does not depend on member
// order. An empty group yields "".
func SelectCanonical(g Group) string {
	best := ""
	for _, m := range g.Members {
		if best == "" || better(m, best, g.Counts) {
			best = m
		}
	}
	return best
}

// better reports whether a outranks b.
func better(a, b string, counts map[string]int) bool {
	if ca, cb := weightOf(a, counts), weightOf(b, counts); ca != cb {
		return ca > cb
	}
	if sa, sb := school.SuffixOf(a), school.SuffixOf(b); sa != sb {
		return sa > sb
	}
	if pa, pb := punctuation(a), punctuation(b); pa != pb {
		return pa < pb
	}
	return a < b
}

func weightOf(name string, counts map[string]int) int {
	if c, ok := counts[name]; ok && c > 0 {
		return c
	}
	return 1
}

// punctuation counts characters that are neither letters, digits nor spaces.
func punctuation(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
