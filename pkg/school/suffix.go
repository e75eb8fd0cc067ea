package school

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Suffix is the high school suffix form a raw name ends with. Higher values
// are preferred when choosing a canonical spelling.
type Suffix int

const (
	SuffixNone Suffix = iota
	SuffixHS
	SuffixHSDotted
	SuffixHighSchool
)

func (s Suffix) String() string {
	switch s {
	case SuffixHS:
		return "HS"
	case SuffixHSDotted:
		return "H.S."
	case SuffixHighSchool:
		return "High School"
	default:
		return "none"
	}
}

var (
	highSchoolRe = regexp.MustCompile(`(?i)\s+high\s+school\.?$`)
	hsRe         = regexp.MustCompile(`(?i)\s+h\.?\s*s\.?$`)
)

// SuffixOf reports the suffix form of name, ignoring a parenthetical
// qualifier.
func SuffixOf(name string) Suffix {
	core, _, _ := ExtractDisambiguator(name)
	if highSchoolRe.MatchString(core) {
		return SuffixHighSchool
	}
	if m := hsRe.FindString(core); m != "" {
		if strings.Contains(strings.ToUpper(m), "H.") {
			return SuffixHSDotted
		}
		return SuffixHS
	}
	return SuffixNone
}

// DefaultDisplaySuffix avoids collisions with colleges that share a base name.
const DefaultDisplaySuffix = "H.S."

// StandardizeSuffix rewrites the suffix of name to preferred ("H.S." when
// empty). Names without a recognized suffix are returned unchanged. The
// base spelling and any parenthetical qualifier are preserved.
func StandardizeSuffix(name, preferred string) string {
	if strings.TrimSpace(name) == "" {
		return name
	}
	if preferred == "" {
		preferred = DefaultDisplaySuffix
	}

	core, qualifier, hasQualifier := ExtractDisambiguator(name)
	loc := highSchoolRe.FindStringIndex(core)
	if loc == nil {
		loc = hsRe.FindStringIndex(core)
	}
	if loc == nil {
		return name
	}
	base := strings.TrimSpace(core[:loc[0]])
	if base == "" {
		return name
	}

	out := base + " " + preferred
	if hasQualifier {
		out += " (" + qualifier + ")"
	}
	return out
}

// DisplayName title-cases names written entirely in capitals, as the PSS
// directory does. Mixed-case names are returned as is.
func DisplayName(name string) string {
	hasLower, hasUpper := false, false
	for _, r := range name {
		if unicode.IsLower(r) {
			hasLower = true
		} else if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	if hasLower || !hasUpper {
		return name
	}
	// Casers carry state; one per call keeps DisplayName goroutine-safe.
	return cases.Title(language.AmericanEnglish).String(name)
}
