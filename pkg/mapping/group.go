package mapping

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/hazyhaar/hsregistry/pkg/school"
)

// Group is the set of raw spellings sharing one (normalized key, state).
// Members are sorted; Counts holds the aggregate weight per distinct
// spelling.
type Group struct {
	Key        string
	State      string
	Members    []string
	Counts     map[string]int
	CommonName bool
}

// Size returns the number of distinct spellings.
func (g Group) Size() int { return len(g.Members) }

// Total returns the summed weight of all members.
func (g Group) Total() int {
	n := 0
	for _, c := range g.Counts {
		n += c
	}
	return n
}

type groupKey struct{ key, state string }

// GroupDuplicates partitions records by (Normalize(name), state). Records
// with an empty name are skipped. Identical spellings collapse into one
// member whose count is the sum of their weights. The output order is
// (state, key), independent of input order.
func GroupDuplicates(records []Record) []Group {
	return groupRecords(records, true, nil)
}

func groupRecords(records []Record, byState bool, logger *slog.Logger) []Group {
	idx := make(map[groupKey]*Group)
	for _, r := range records {
		name := strings.TrimSpace(r.Original)
		if name == "" {
			continue
		}
		k := groupKey{key: school.Normalize(name)}
		if byState {
			k.state = normState(r.State)
		}
		g, ok := idx[k]
		if !ok {
			g = &Group{Key: k.key, State: k.state, Counts: make(map[string]int)}
			idx[k] = g
		}
		if _, seen := g.Counts[name]; !seen {
			g.Members = append(g.Members, name)
		}
		g.Counts[name] += r.weight()
	}

	groups := make([]Group, 0, len(idx))
	for _, g := range idx {
		sort.Strings(g.Members)
		g.CommonName = school.IsLikelyCommonName(g.Key)
		if g.CommonName && g.Size() > 1 && logger != nil {
			logger.Warn("mapping: duplicate group under common name",
				"key", g.Key, "state", g.State, "variants", g.Size())
		}
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].State != groups[j].State {
			return groups[i].State < groups[j].State
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}
