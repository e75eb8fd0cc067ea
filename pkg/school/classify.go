package school

import (
	"strings"
	"unicode"
)

// Type is the heuristic school category. It is a hint, not an authority.
type Type string

const (
	TypePublic        Type = "public"
	TypePrivate       Type = "private"
	TypePrep          Type = "prep"
	TypeInternational Type = "international"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case TypePublic, TypePrivate, TypePrep, TypeInternational:
		return true
	}
	return false
}

// Word-bounded tokens, matched against the padded uppercase name.
var privateTokens = []string{
	" CATHOLIC ", " ST. ", " ST ", " SAINT ", " ACADEMY OF ",
	" BISHOP ", " ARCHBISHOP ", " CARDINAL ", " MONSIGNOR ", " DIOCESAN ", " DIOCESE ",
	" PAROCHIAL ", " CHRISTIAN ", " LUTHERAN ", " METHODIST ", " BAPTIST ",
	" EPISCOPAL ", " PRESBYTERIAN ", " JESUIT ", " ADVENTIST ", " YESHIVA ",
	" HEBREW ", " ISLAMIC ", " SACRED HEART ", " OUR LADY ", " HOLY ",
}

var internationalTokens = []string{
	" INTERNATIONAL ", " LYCEE ", " GYMNASIUM ", " INSTITUT ", " INSTITUTO ",
	" IES ", " COLEGIO ", " SECONDARY SCHOOL ", " COLLEGIATE INSTITUTE ",
	" CANADA ", " AUSTRALIA ", " NEW ZEALAND ", " ENGLAND ",
	" SCOTLAND ", " IRELAND ", " FRANCE ", " GERMANY ", " SPAIN ", " ITALY ",
	" PORTUGAL ", " NETHERLANDS ", " BELGIUM ", " SWEDEN ", " FINLAND ", " NORWAY ",
	" DENMARK ", " SERBIA ", " CROATIA ", " SLOVENIA ", " LITHUANIA ", " LATVIA ",
	" ESTONIA ", " UKRAINE ", " NIGERIA ", " SENEGAL ", " MALI ", " CAMEROON ",
	" BRAZIL ", " ARGENTINA ", " JAPAN ", " CHINA ", " KOREA ",
}

// rule is one step of the classification chain. The first rule whose match
// reports true decides the type.
type rule struct {
	name  string
	tag   Type
	match func(c *Classifier, name, padded string) bool
}

// Registry membership precedes keywords: many academies carry religious or
// institutional words that would otherwise classify them as private.
var rules = []rule{
	{"prep-registry", TypePrep, func(c *Classifier, name, _ string) bool {
		_, ok := c.prep.Lookup(name)
		return ok
	}},
	{"private-keyword", TypePrivate, func(_ *Classifier, _, padded string) bool {
		return containsAny(padded, privateTokens)
	}},
	{"international-keyword", TypeInternational, func(_ *Classifier, _, padded string) bool {
		return containsAny(padded, internationalTokens)
	}},
}

// Classifier categorizes names against a prep registry and keyword rules.
type Classifier struct {
	prep *PrepRegistry
}

// NewClassifier returns a classifier backed by prep. A nil registry falls
// back to the built-in one.
func NewClassifier(prep *PrepRegistry) *Classifier {
	if prep == nil {
		prep = defaultPrep
	}
	return &Classifier{prep: prep}
}

var defaultClassifier = NewClassifier(nil)

// Categorize classifies name with the built-in registry.
func Categorize(name string) Type {
	return defaultClassifier.Categorize(name)
}

// Categorize returns the type decided by the first matching rule, or
// TypePublic when none matches. Empty names are public.
func (c *Classifier) Categorize(name string) Type {
	t, _ := c.Explain(name)
	return t
}

// Explain is Categorize plus the name of the deciding rule ("default" when
// no rule matched).
func (c *Classifier) Explain(name string) (Type, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return TypePublic, "default"
	}
	padded := padTokens(name)
	for _, r := range rules {
		if r.match(c, name, padded) {
			return r.tag, r.name
		}
	}
	return TypePublic, "default"
}

// IsInternational reports whether a school is likely outside the U.S.
// A known non-U.S. country decides on its own.
func IsInternational(name, country string) bool {
	switch c := strings.ToUpper(strings.TrimSpace(country)); c {
	case "", "US", "USA", "U.S.", "U.S.A.", "UNITED STATES", "UNITED STATES OF AMERICA":
	default:
		return true
	}
	return Categorize(name) == TypeInternational
}

// padTokens uppercases and accent-folds name, turns separators other than
// periods and apostrophes into spaces, and pads both ends so tokens can be
// matched on word boundaries.
func padTokens(name string) string {
	fields := strings.FieldsFunc(upperFold(name), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '\'')
	})
	return " " + strings.Join(fields, " ") + " "
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
