package mapping

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/hsregistry/pkg/dataset"
	"github.com/hazyhaar/hsregistry/pkg/school"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func centralRecords() []Record {
	return []Record{
		{Original: "Central HS", State: "CA", PlayerCount: 10},
		{Original: "Central High School", State: "CA", PlayerCount: 25},
		{Original: "Central H.S.", State: "CA", PlayerCount: 5},
	}
}

func TestGroupDuplicates(t *testing.T) {
	records := append(centralRecords(),
		Record{Original: "Central HS", State: "OR", PlayerCount: 3},
		Record{Original: "Central HS", State: "ca", PlayerCount: 2},
		Record{Original: "  ", State: "CA"},
	)
	groups := GroupDuplicates(records)
	require.Len(t, groups, 2)

	ca := groups[0]
	assert.Equal(t, "CA", ca.State)
	assert.Equal(t, "CENTRAL", ca.Key)
	assert.Equal(t, []string{"Central H.S.", "Central HS", "Central High School"}, ca.Members)
	assert.Equal(t, 12, ca.Counts["Central HS"])
	assert.Equal(t, 42, ca.Total())
	assert.True(t, ca.CommonName)

	assert.Equal(t, "OR", groups[1].State)
	assert.Equal(t, 1, groups[1].Size())
}

func TestSelectCanonical(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   string
	}{
		{
			name:   "frequency wins",
			counts: map[string]int{"Central HS": 10, "Central High School": 25, "Central H.S.": 5},
			want:   "Central High School",
		},
		{
			name:   "frequency beats suffix",
			counts: map[string]int{"Central HS": 30, "Central High School": 25},
			want:   "Central HS",
		},
		{
			name:   "suffix breaks frequency tie",
			counts: map[string]int{"Central HS": 5, "Central H.S.": 5, "Central High School": 5},
			want:   "Central High School",
		},
		{
			name:   "dotted beats bare",
			counts: map[string]int{"Central HS": 1, "Central H.S.": 1},
			want:   "Central H.S.",
		},
		{
			name:   "fewer punctuation",
			counts: map[string]int{"St. Mary's": 1, "St Marys": 1},
			want:   "St Marys",
		},
		{
			name:   "lexicographic",
			counts: map[string]int{"Saint Marys": 1, "SAINT MARYS": 1},
			want:   "SAINT MARYS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Group{Counts: tt.counts}
			for m := range tt.counts {
				g.Members = append(g.Members, m)
			}
			assert.Equal(t, tt.want, SelectCanonical(g))
		})
	}
}

func TestSelectCanonical_SingleAndEmpty(t *testing.T) {
	assert.Equal(t, "Lone Pine HS", SelectCanonical(Group{Members: []string{"Lone Pine HS"}}))
	assert.Equal(t, "", SelectCanonical(Group{}))
}

func TestBuild_DuplicateResolution(t *testing.T) {
	tbl := Build(centralRecords(), WithoutPrepSchools(), WithLogger(quiet))
	require.Equal(t, 3, tbl.Len())

	e, ok := tbl.Lookup("Central HS", "ca")
	require.True(t, ok)
	assert.Equal(t, "Central High School", e.Standardized)
	assert.Equal(t, ConfidenceHighAuto, e.Confidence)
	assert.Equal(t, SourceDuplicateResolution, e.Source)
	assert.Equal(t, 10, e.PlayerCount)
	assert.Equal(t, 25, e.CanonicalPlayerCount)

	_, ok = tbl.Lookup("Central HS", "OR")
	assert.False(t, ok)
}

func TestBuild_SingleMemberUnstandardized(t *testing.T) {
	tbl := Build([]Record{{Original: "Lone Pine HS", State: "CA"}}, WithoutPrepSchools(), WithLogger(quiet))
	e, ok := tbl.Lookup("Lone Pine HS", "CA")
	require.True(t, ok)
	assert.Equal(t, "Lone Pine HS", e.Standardized)
	assert.Equal(t, ConfidenceUnstandardized, e.Confidence)
	assert.NoError(t, e.Validate())
}

func TestBuild_PrepOverridesDuplicates(t *testing.T) {
	records := []Record{
		{Original: "IMG Academy", State: "FL", PlayerCount: 40},
		{Original: "IMG academy", State: "FL", PlayerCount: 50},
	}
	tbl := Build(records, WithLogger(quiet))

	for _, name := range []string{"IMG Academy", "IMG academy"} {
		e, ok := tbl.Lookup(name, "FL")
		require.True(t, ok, name)
		assert.Equal(t, "IMG Academy", e.Standardized, name)
		assert.Equal(t, SourcePrepSchool, e.Source, name)
		assert.Equal(t, ConfidenceHighManual, e.Confidence, name)
	}

	// Prep entries are global.
	e, ok := tbl.Lookup("Spire Academy", "TX")
	require.True(t, ok)
	assert.Equal(t, "Spire Institute", e.Standardized)

	for _, e := range tbl.Entries() {
		if e.Original == "IMG academy" {
			assert.Equal(t, SourcePrepSchool, e.Source, "shadowed duplicate entry still listed")
		}
	}
}

func TestBuild_CustomOverridesAll(t *testing.T) {
	custom, err := NewCustomEntry("IMG Academy", "IMG Academy (Bradenton)", "")
	require.NoError(t, err)
	scoped, err := NewCustomEntry("Central HS", "Central High School (Fresno)", "ca")
	require.NoError(t, err)

	bad := Entry{Original: "X", Standardized: "Y", Confidence: ConfidenceHighAuto, Source: SourceCustom}
	tbl := Build(centralRecords(), WithCustom([]Entry{custom, scoped, bad}), WithLogger(quiet))

	e, _ := tbl.Lookup("IMG Academy", "FL")
	assert.Equal(t, SourceCustom, e.Source)
	assert.Equal(t, "IMG Academy (Bradenton)", e.Standardized)

	e, _ = tbl.Lookup("Central HS", "CA")
	assert.Equal(t, "Central High School (Fresno)", e.Standardized)
	e, _ = tbl.Lookup("Central H.S.", "CA")
	assert.Equal(t, "Central High School", e.Standardized)

	_, ok := tbl.Lookup("X", "")
	assert.False(t, ok, "invalid custom entry must be rejected")
}

func TestBuild_WithPrepRegistry(t *testing.T) {
	reg := school.NewPrepRegistry([]school.PrepSchool{{Alias: "Sunrise", Canonical: "Sunrise Christian Academy", State: "KS"}})
	tbl := Build(nil, WithPrepRegistry(reg), WithLogger(quiet))
	assert.Equal(t, 1, tbl.Len())
	_, ok := tbl.Lookup("IMG Academy", "FL")
	assert.False(t, ok)
}

func TestBuild_WithoutStateGrouping(t *testing.T) {
	records := []Record{
		{Original: "Central HS", State: "CA", PlayerCount: 1},
		{Original: "Central High School", State: "OR", PlayerCount: 4},
	}
	tbl := Build(records, WithoutStateGrouping(), WithoutPrepSchools(), WithLogger(quiet))
	e, ok := tbl.Lookup("Central HS", "TX")
	require.True(t, ok)
	assert.Equal(t, "Central High School", e.Standardized)
}

func TestBuild_Deterministic(t *testing.T) {
	records := append(centralRecords(),
		Record{Original: "Lincoln HS", State: "OR", PlayerCount: 2},
		Record{Original: "Lincoln High School", State: "OR", PlayerCount: 2},
		Record{Original: "St. Mary's", State: "MD"},
		Record{Original: "Saint Marys", State: "MD"},
	)
	want := Build(records, WithLogger(quiet)).Entries()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Build(shuffled, WithLogger(quiet)).Entries())
	}
}

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name string
		e    Entry
		ok   bool
	}{
		{"auto dup", Entry{Original: "a", Standardized: "b", Confidence: ConfidenceHighAuto, Source: SourceDuplicateResolution}, true},
		{"manual prep", Entry{Original: "a", Standardized: "b", Confidence: ConfidenceHighManual, Source: SourcePrepSchool}, true},
		{"manual dup", Entry{Original: "a", Standardized: "b", Confidence: ConfidenceHighManual, Source: SourceDuplicateResolution}, false},
		{"auto prep", Entry{Original: "a", Standardized: "b", Confidence: ConfidenceHighAuto, Source: SourcePrepSchool}, false},
		{"unknown source", Entry{Original: "a", Standardized: "b", Confidence: ConfidenceUnstandardized, Source: "guess"}, false},
		{"empty original", Entry{Standardized: "b", Confidence: ConfidenceUnstandardized, Source: SourceCustom}, false},
	}
	for _, tt := range tests {
		err := tt.e.Validate()
		if tt.ok {
			assert.NoError(t, err, tt.name)
		} else {
			assert.True(t, errors.Is(err, ErrInvalidEntry), "%s: err = %v", tt.name, err)
		}
	}
}

func TestApply(t *testing.T) {
	tbl := Build(centralRecords(), WithLogger(quiet))
	rows := []Record{
		{Original: "Central HS", State: "CA"},
		{Original: "Central High School", State: "CA"},
		{Original: "Unknown Valley HS", State: "NV"},
	}
	out := tbl.Apply(rows)
	require.Len(t, out, 3)

	assert.Equal(t, "Central High School", out[0].Standardized)
	assert.True(t, out[0].Changed)

	assert.False(t, out[1].Changed)
	assert.Equal(t, ConfidenceHighAuto, out[1].Confidence)

	assert.Equal(t, "Unknown Valley HS", out[2].Standardized)
	assert.Equal(t, ConfidenceUnstandardized, out[2].Confidence)
	assert.False(t, out[2].Changed)
	assert.Empty(t, out[2].Source)
}

func TestApply_PaddedNames(t *testing.T) {
	tbl := Build([]Record{
		{Original: "Lone Pine HS", State: "CA"},
		{Original: "Central High School", State: "CA", PlayerCount: 3},
		{Original: "Central HS", State: "CA"},
	}, WithoutPrepSchools(), WithLogger(quiet))

	out := tbl.Apply([]Record{
		{Original: "Lone Pine HS ", State: "CA"},
		{Original: "  Central High School", State: "CA"},
		{Original: "Central HS ", State: "CA"},
	})
	require.Len(t, out, 3)

	assert.Equal(t, ConfidenceUnstandardized, out[0].Confidence)
	assert.False(t, out[0].Changed, "trailing space is not a standardization")
	assert.False(t, out[1].Changed)
	assert.Equal(t, ConfidenceHighAuto, out[1].Confidence)
	assert.True(t, out[2].Changed)
	assert.Equal(t, "Central High School", out[2].Standardized)
}

func TestBuild_QualifiedPrepAlias(t *testing.T) {
	tbl := Build([]Record{{Original: "IMG Academy (FL)", State: "FL"}}, WithLogger(quiet))

	e, ok := tbl.Lookup("IMG Academy (FL)", "FL")
	require.True(t, ok)
	assert.Equal(t, "IMG Academy", e.Standardized)
	assert.Equal(t, SourcePrepSchool, e.Source)
	assert.Equal(t, ConfidenceHighManual, e.Confidence)
}

func TestApplyDataset(t *testing.T) {
	ds := dataset.New("player", "high_school", "state")
	ds.Append("A. Smith", "Central HS", "CA")
	ds.Append("B. Jones", "Nowhere HS", "WY")

	tbl := Build(centralRecords(), WithLogger(quiet))
	out, err := ApplyDataset(ds, tbl, Columns{})
	require.NoError(t, err)

	assert.Equal(t, ds.Len(), out.Len())
	assert.Equal(t, []string{"player", "high_school", "state",
		"high_school_standardized", "hs_confidence", "hs_was_standardized"}, out.Header)
	assert.Equal(t, []string{"A. Smith", "Central HS", "CA", "Central High School", "high_auto", "true"}, out.Rows[0])
	assert.Equal(t, []string{"B. Jones", "Nowhere HS", "WY", "Nowhere HS", "unstandardized", "false"}, out.Rows[1])
	assert.Len(t, ds.Header, 3, "input dataset mutated")

	_, err = ApplyDataset(dataset.New("school"), tbl, Columns{})
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestRecordsFromDataset(t *testing.T) {
	ds := dataset.New("School", "State", "player_count")
	ds.Append("Central HS", "ca", "12")
	ds.Append("Lincoln", "OR", "n/a")

	recs, err := RecordsFromDataset(ds, Columns{Name: "school"})
	require.NoError(t, err)
	assert.Equal(t, Record{Original: "Central HS", State: "ca", PlayerCount: 12}, recs[0])
	assert.Equal(t, 0, recs[1].PlayerCount)
}
