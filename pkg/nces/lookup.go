package nces

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hazyhaar/hsregistry/pkg/school"
)

type stateKey struct{ key, state string }

// Lookup is an immutable index over a reference table. It is safe for
// concurrent use.
type Lookup struct {
	refs    []Reference
	byKey   map[string][]int
	byState map[stateKey][]int
}

// NewLookup indexes refs by normalized name and by (normalized name, state).
// Rows with an empty id or a name that normalizes to nothing are skipped;
// a repeated nces_id keeps the first row. An empty table is an error.
func NewLookup(refs []Reference) (*Lookup, error) {
	return newLookup(refs, slog.Default())
}

func newLookup(refs []Reference, logger *slog.Logger) (*Lookup, error) {
	l := &Lookup{
		byKey:   make(map[string][]int),
		byState: make(map[stateKey][]int),
	}
	seen := make(map[string]bool, len(refs))
	skipped := 0
	for _, r := range refs {
		r = r.trimmed()
		key := school.Normalize(r.Name)
		if r.NCESID == "" || key == "" {
			skipped++
			continue
		}
		if seen[r.NCESID] {
			logger.Warn("nces: duplicate id ignored", "nces_id", r.NCESID, "name", r.Name)
			continue
		}
		seen[r.NCESID] = true
		l.refs = append(l.refs, r)
		i := len(l.refs) - 1
		l.byKey[key] = append(l.byKey[key], i)
		sk := stateKey{key, r.State}
		l.byState[sk] = append(l.byState[sk], i)
	}
	if len(l.refs) == 0 {
		return nil, fmt.Errorf("%w: %d rows, none usable", ErrNoReference, len(refs))
	}

	for _, idx := range l.byKey {
		l.sortCandidates(idx)
	}
	for _, idx := range l.byState {
		l.sortCandidates(idx)
	}
	logger.Info("nces: lookup built", "references", len(l.refs), "keys", len(l.byKey), "skipped", skipped)
	return l, nil
}

// sortCandidates orders indexes by (name, nces_id) so ambiguous results are
// reproducible.
func (l *Lookup) sortCandidates(idx []int) {
	sort.Slice(idx, func(a, b int) bool {
		ra, rb := l.refs[idx[a]], l.refs[idx[b]]
		if ra.Name != rb.Name {
			return ra.Name < rb.Name
		}
		return ra.NCESID < rb.NCESID
	})
}

// Len returns the number of indexed references.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.refs)
}

// Counts returns the number of indexed references per source.
func (l *Lookup) Counts() map[Source]int {
	out := make(map[Source]int)
	if l == nil {
		return out
	}
	for _, r := range l.refs {
		out[r.Source]++
	}
	return out
}

// Match resolves (name, state, city) in stages, stopping at the first one
// that leaves exactly one candidate:
//
//  1. normalized name + state (all states when state is empty);
//  2. when stage 1 leaves several candidates and a city is given, the
//     candidates in that city.
//
// No stage-1 candidate gives a none result; there is no fuzzy fallback.
// Several survivors give an ambiguous result carrying the first one.
func (l *Lookup) Match(name, state, city string) (MatchResult, error) {
	if l == nil || len(l.refs) == 0 {
		return MatchResult{}, ErrNoReference
	}
	none := MatchResult{Confidence: ConfidenceNone}

	key := school.Normalize(name)
	if key == "" {
		return none, nil
	}

	candidates := l.stateCandidates(key, strings.ToUpper(strings.TrimSpace(state)))
	switch len(candidates) {
	case 0:
		return none, nil
	case 1:
		return resultFrom(l.refs[candidates[0]], ConfidenceExact, 1), nil
	}

	if city = strings.TrimSpace(city); city != "" {
		narrowed := l.cityCandidates(candidates, city)
		switch len(narrowed) {
		case 1:
			return resultFrom(l.refs[narrowed[0]], ConfidenceExact, 1), nil
		case 0:
		default:
			candidates = narrowed
		}
	}
	return resultFrom(l.refs[candidates[0]], ConfidenceAmbiguous, len(candidates)), nil
}

func (l *Lookup) stateCandidates(key, state string) []int {
	if state == "" {
		return l.byKey[key]
	}
	return l.byState[stateKey{key, state}]
}

func (l *Lookup) cityCandidates(candidates []int, city string) []int {
	var out []int
	for _, i := range candidates {
		if strings.EqualFold(l.refs[i].City, city) {
			out = append(out, i)
		}
	}
	return out
}

// StandardizedName returns the official name when the query matches
// (title-cased when the directory spells it in capitals), otherwise the
// input. With addSuffix, a high school suffix is rewritten to "H.S." unless
// the name already spells "H.S." or "High School".
func (l *Lookup) StandardizedName(name, state, city string, addSuffix bool) string {
	out := name
	if m, err := l.Match(name, state, city); err == nil && m.Matched() {
		out = school.DisplayName(m.MatchedName)
	}
	if !addSuffix {
		return out
	}
	if strings.Contains(out, "H.S.") || strings.Contains(out, "High School") {
		return out
	}
	return school.StandardizeSuffix(out, "")
}
