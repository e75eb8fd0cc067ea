package school

import "strings"

// ExtractDisambiguator splits the first top-level parenthetical group off a
// name. "Lincoln High School (North)" yields ("Lincoln High School", "North", true).
// Nested parentheses inside the group are returned verbatim as part of the
// qualifier. Names without a balanced, non-empty group return the trimmed
// input and ok == false.
func ExtractDisambiguator(name string) (core, qualifier string, ok bool) {
	name = strings.TrimSpace(name)
	open := strings.IndexByte(name, '(')
	if open < 0 {
		return name, "", false
	}

	depth := 0
	closeIdx := -1
	for i := open; i < len(name); i++ {
		switch name[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			closeIdx = i
			break
		}
	}
	if closeIdx < 0 {
		return name, "", false
	}

	qualifier = strings.TrimSpace(name[open+1 : closeIdx])
	if qualifier == "" {
		return name, "", false
	}
	core = strings.TrimSpace(strings.TrimSpace(name[:open]) + " " + strings.TrimSpace(name[closeIdx+1:]))
	return core, qualifier, true
}

// commonNames are keys shared by many unrelated schools across towns and
// states. A duplicate group under one of these keys may mix different schools.
var commonNames = map[string]struct{}{
	"CENTRAL": {}, "LIBERTY": {}, "LINCOLN": {}, "WASHINGTON": {}, "JEFFERSON": {},
	"ROOSEVELT": {}, "FRANKLIN": {}, "MADISON": {}, "KENNEDY": {}, "WILSON": {},
	"EAST": {}, "WEST": {}, "NORTH": {}, "SOUTH": {}, "NORTHEAST": {}, "NORTHWEST": {},
	"SOUTHEAST": {}, "SOUTHWEST": {}, "CENTENNIAL": {}, "HIGHLAND": {}, "RIVERSIDE": {},
	"JACKSON": {}, "MONROE": {}, "ADAMS": {}, "GRANT": {}, "HAMILTON": {},
	"CLAY": {}, "MEMORIAL": {}, "UNION": {}, "VALLEY": {}, "HARRISON": {},
}

// IsLikelyCommonName reports whether a normalized key is a high-ambiguity
// single word such as CENTRAL or LINCOLN. It only annotates; callers decide
// what to do with the warning.
func IsLikelyCommonName(key string) bool {
	_, ok := commonNames[strings.TrimSpace(key)]
	return ok
}
