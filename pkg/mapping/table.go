package mapping

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hazyhaar/hsregistry/pkg/school"
)

type scopeKey struct{ original, state string }

// Table is an immutable mapping snapshot. Entries are keyed by
// (original, state) when state-scoped and by original alone when global.
// On lookup the higher-precedence source wins (custom > prep_school >
// duplicate_resolution); at equal precedence the scoped entry wins.
type Table struct {
	scoped map[scopeKey]Entry
	global map[string]Entry
}

func newTable() *Table {
	return &Table{
		scoped: make(map[scopeKey]Entry),
		global: make(map[string]Entry),
	}
}

// NewTable builds a table from persisted entries. Every entry is validated.
func NewTable(entries []Entry) (*Table, error) {
	t := newTable()
	for i, e := range entries {
		e.Original = strings.TrimSpace(e.Original)
		e.State = normState(e.State)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		t.put(e)
	}
	return t, nil
}

// put inserts e unless a higher-precedence entry already covers its key.
// A global entry evicts lower-precedence scoped entries for the same
// original so Entries never lists shadowed rows.
func (t *Table) put(e Entry) bool {
	p := e.Source.precedence()
	if g, ok := t.global[e.Original]; ok && g.Source.precedence() > p {
		return false
	}
	if e.Global() {
		if cur, ok := t.global[e.Original]; ok && cur.Source.precedence() > p {
			return false
		}
		t.global[e.Original] = e
		for k, s := range t.scoped {
			if k.original == e.Original && s.Source.precedence() < p {
				delete(t.scoped, k)
			}
		}
		return true
	}
	k := scopeKey{e.Original, e.State}
	if cur, ok := t.scoped[k]; ok && cur.Source.precedence() > p {
		return false
	}
	t.scoped[k] = e
	return true
}

// Lookup returns the entry for a raw name in a state.
func (t *Table) Lookup(original, state string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	original = strings.TrimSpace(original)
	s, sok := t.scoped[scopeKey{original, normState(state)}]
	g, gok := t.global[original]
	switch {
	case sok && gok:
		if g.Source.precedence() > s.Source.precedence() {
			return g, true
		}
		return s, true
	case sok:
		return s, true
	case gok:
		return g, true
	}
	return Entry{}, false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.scoped) + len(t.global)
}

// Entries returns all entries sorted by (original, state, source).
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, t.Len())
	for _, e := range t.scoped {
		out = append(out, e)
	}
	for _, e := range t.global {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Original != out[j].Original {
			return out[i].Original < out[j].Original
		}
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Summary counts entries per source and per confidence.
type Summary struct {
	Total        int                `json:"total"`
	BySource     map[Source]int     `json:"by_source"`
	ByConfidence map[Confidence]int `json:"by_confidence"`
	Changed      int                `json:"changed"`
}

func (t *Table) Summary() Summary {
	s := Summary{
		BySource:     make(map[Source]int),
		ByConfidence: make(map[Confidence]int),
	}
	for _, e := range t.Entries() {
		s.Total++
		s.BySource[e.Source]++
		s.ByConfidence[e.Confidence]++
		if e.Standardized != e.Original {
			s.Changed++
		}
	}
	return s
}

// PrepEntries turns a prep registry into global high_manual entries. A nil
// registry means the built-in one.
func PrepEntries(reg *school.PrepRegistry) []Entry {
	if reg == nil {
		reg = school.DefaultPrepRegistry()
	}
	schools := reg.Schools()
	out := make([]Entry, 0, len(schools))
	for _, p := range schools {
		out = append(out, prepEntry(p.Alias, p))
	}
	return out
}

func prepEntry(original string, p school.PrepSchool) Entry {
	return Entry{
		Original:     original,
		Standardized: p.Canonical,
		State:        p.State,
		Confidence:   ConfidenceHighManual,
		Source:       SourcePrepSchool,
	}
}

type buildOptions struct {
	prep       *school.PrepRegistry
	noPrep     bool
	custom     []Entry
	noStateKey bool
	logger     *slog.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithPrepRegistry replaces the built-in prep registry.
func WithPrepRegistry(reg *school.PrepRegistry) BuildOption {
	return func(o *buildOptions) { o.prep = reg }
}

// WithoutPrepSchools disables prep-school entries.
func WithoutPrepSchools() BuildOption {
	return func(o *buildOptions) { o.noPrep = true }
}

// WithCustom adds caller overrides. Entries that fail validation are
// skipped with a warning.
func WithCustom(entries []Entry) BuildOption {
	return func(o *buildOptions) { o.custom = append(o.custom, entries...) }
}

// WithoutStateGrouping groups duplicates by normalized key only. The
// resulting entries are global.
func WithoutStateGrouping() BuildOption {
	return func(o *buildOptions) { o.noStateKey = true }
}

func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

// Build derives a mapping table from raw records. Duplicate-resolution
// entries come first, prep-school entries override them, custom entries
// override both. Raw spellings that resolve to a prep alias through the
// normalized key also receive the prep canonical name.
func Build(records []Record, opts ...BuildOption) *Table {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	t := newTable()
	groups := groupRecords(records, !o.noStateKey, logger)
	multi := 0
	for _, g := range groups {
		canonical := SelectCanonical(g)
		conf := ConfidenceUnstandardized
		if g.Size() > 1 {
			conf = ConfidenceHighAuto
			multi++
		}
		for _, m := range g.Members {
			t.put(Entry{
				Original:             m,
				Standardized:         canonical,
				State:                g.State,
				Confidence:           conf,
				Source:               SourceDuplicateResolution,
				PlayerCount:          g.Counts[m],
				CanonicalPlayerCount: g.Counts[canonical],
				CommonName:           g.CommonName,
			})
		}
	}

	if !o.noPrep {
		reg := o.prep
		if reg == nil {
			reg = school.DefaultPrepRegistry()
		}
		for _, e := range PrepEntries(reg) {
			t.put(e)
		}
		for _, g := range groups {
			for _, m := range g.Members {
				if p, ok := reg.Lookup(m); ok {
					e := prepEntry(m, p)
					e.PlayerCount = g.Counts[m]
					t.put(e)
				}
			}
		}
	}

	for _, e := range o.custom {
		e.Original = strings.TrimSpace(e.Original)
		e.State = normState(e.State)
		if err := e.Validate(); err != nil {
			logger.Warn("mapping: custom entry rejected", "original", e.Original, "error", err)
			continue
		}
		if e.Source != SourceCustom {
			logger.Warn("mapping: custom entry has non-custom source", "original", e.Original, "source", e.Source)
			continue
		}
		t.put(e)
	}

	logger.Info("mapping: table built",
		"records", len(records), "groups", len(groups), "duplicate_groups", multi, "entries", t.Len())
	return t
}
