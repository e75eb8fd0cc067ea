package school

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSuffixOf(t *testing.T) {
	tests := []struct {
		input string
		want  Suffix
	}{
		{"Central High School", SuffixHighSchool},
		{"Central high school", SuffixHighSchool},
		{"Central H.S.", SuffixHSDotted},
		{"Central H.S", SuffixHSDotted},
		{"Central HS", SuffixHS},
		{"Central", SuffixNone},
		{"Lincoln High School (North)", SuffixHighSchool},
		{"Heights", SuffixNone},
	}
	for _, tt := range tests {
		if got := SuffixOf(tt.input); got != tt.want {
			t.Errorf("SuffixOf(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStandardizeSuffix(t *testing.T) {
	tests := []struct {
		name, preferred, want string
	}{
		{"Central HS", "", "Central H.S."},
		{"Lincoln High School", "", "Lincoln H.S."},
		{"Lincoln H.S.", "High School", "Lincoln High School"},
		{"Lincoln HS (North)", "", "Lincoln H.S. (North)"},
		{"IMG Academy", "", "IMG Academy"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := StandardizeSuffix(tt.name, tt.preferred); got != tt.want {
			t.Errorf("StandardizeSuffix(%q, %q) = %q, want %q", tt.name, tt.preferred, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"CENTRAL CATHOLIC HIGH SCHOOL", "Central Catholic High School"},
		{"Central Catholic High School", "Central Catholic High School"},
		{"123", "123"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLookupPrep(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		found     bool
	}{
		{"IMG Academy", "IMG Academy", true},
		{"img academy", "IMG Academy", true},
		{"IMG Academy (FL)", "IMG Academy", true},
		{"Oak Hill Academy (Mouth of Wilson)", "Oak Hill Academy", true},
		{"Spire Academy", "Spire Institute", true},
		{"Governors Academy", "The Governor's Academy", true},
		{"Northfield Mount Hermon", "Northfield Mount Hermon School", true},
		{"Central High School", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		p, ok := LookupPrep(tt.name)
		if ok != tt.found || p.Canonical != tt.canonical {
			t.Errorf("LookupPrep(%q) = (%q, %v), want (%q, %v)", tt.name, p.Canonical, ok, tt.canonical, tt.found)
		}
	}
}

func TestPrepSchools_ReturnsCopy(t *testing.T) {
	a := PrepSchools()
	a[0].Canonical = "mutated"
	b := PrepSchools()
	if b[0].Canonical == "mutated" {
		t.Error("PrepSchools exposed the shared registry")
	}
}

func TestLoadPrepOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prep.yaml")
	os.WriteFile(path, []byte(`prep_schools:
  - alias: Sunrise Christian
    canonical: Sunrise Christian Academy
    city: Bel Aire
    state: ks
  - alias: IMG Academy
    canonical: IMG Academy (Bradenton)
`), 0o644)

	extra, err := LoadPrepOverrides(path)
	if err != nil {
		t.Fatalf("LoadPrepOverrides: %v", err)
	}
	if len(extra) != 2 {
		t.Fatalf("entries = %d, want 2", len(extra))
	}

	reg := DefaultPrepRegistry().With(extra)
	if reg.Len() != DefaultPrepRegistry().Len()+1 {
		t.Errorf("Len = %d, want %d", reg.Len(), DefaultPrepRegistry().Len()+1)
	}
	p, ok := reg.Lookup("Sunrise Christian")
	if !ok || p.State != "KS" {
		t.Errorf("Lookup(Sunrise Christian) = (%+v, %v), want state KS", p, ok)
	}
	p, _ = reg.Lookup("IMG Academy")
	if p.Canonical != "IMG Academy (Bradenton)" {
		t.Errorf("override canonical = %q", p.Canonical)
	}
	if p, _ := LookupPrep("IMG Academy"); p.Canonical != "IMG Academy" {
		t.Errorf("default registry mutated: %q", p.Canonical)
	}
}

func TestLoadPrepOverrides_MissingCanonical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("prep_schools:\n  - alias: Foo\n"), 0o644)

	if _, err := LoadPrepOverrides(path); err == nil {
		t.Error("expected error for entry without canonical")
	}
}
