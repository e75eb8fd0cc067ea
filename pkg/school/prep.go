package school

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PrepSchool is one curated alias of a basketball prep academy.
type PrepSchool struct {
	Alias     string `yaml:"alias" json:"alias"`
	Canonical string `yaml:"canonical" json:"canonical"`
	City      string `yaml:"city" json:"city,omitempty"`
	State     string `yaml:"state" json:"state,omitempty"`
}

// builtinPrepSchools are prep and basketball academies that rarely appear in
// public directories under a stable spelling.
var builtinPrepSchools = []PrepSchool{
	{"IMG Academy", "IMG Academy", "Bradenton", "FL"},
	{"Montverde Academy", "Montverde Academy", "Montverde", "FL"},
	{"Oak Hill Academy", "Oak Hill Academy", "Mouth of Wilson", "VA"},
	{"Brewster Academy", "Brewster Academy", "Wolfeboro", "NH"},
	{"Prolific Prep", "Prolific Prep", "Napa", "CA"},
	{"Spire Academy", "Spire Institute", "Geneva", "OH"},
	{"Spire Institute", "Spire Institute", "Geneva", "OH"},
	{"Link Academy", "Link Academy", "Branson", "MO"},
	{"La Lumiere School", "La Lumiere School", "La Porte", "IN"},
	{"New Hope Academy", "New Hope Christian Academy", "Landover Hills", "MD"},
	{"New Hope Christian Academy", "New Hope Christian Academy", "Landover Hills", "MD"},
	{"Hamilton Heights Christian Academy", "Hamilton Heights Christian Academy", "Chattanooga", "TN"},
	{"Northfield Mount Hermon", "Northfield Mount Hermon School", "Gill", "MA"},
	{"Northfield Mount Hermon School", "Northfield Mount Hermon School", "Gill", "MA"},
	{"South Kent School", "South Kent School", "South Kent", "CT"},
	{"Wilbraham & Monson Academy", "Wilbraham & Monson Academy", "Wilbraham", "MA"},
	{"Westtown School", "Westtown School", "West Chester", "PA"},
	{"Worcester Academy", "Worcester Academy", "Worcester", "MA"},
	{"The Governor's Academy", "The Governor's Academy", "Byfield", "MA"},
	{"Governors Academy", "The Governor's Academy", "Byfield", "MA"},
	{"Blair Academy", "Blair Academy", "Blairstown", "NJ"},
	{"Putnam Science Academy", "Putnam Science Academy", "Putnam", "CT"},
	{"St. Andrew's School", "St. Andrew's School", "Barrington", "RI"},
	{"Tabor Academy", "Tabor Academy", "Marion", "MA"},
	{"Choate Rosemary Hall", "Choate Rosemary Hall", "Wallingford", "CT"},
}

// PrepRegistry is an immutable alias table. Lookups try the exact alias
// first, then the normalized key.
type PrepRegistry struct {
	schools []PrepSchool
	byAlias map[string]int
	byKey   map[string]int
}

// NewPrepRegistry indexes schools. On alias or key collisions the later
// entry wins, so overrides can be appended to a base list.
func NewPrepRegistry(schools []PrepSchool) *PrepRegistry {
	r := &PrepRegistry{
		byAlias: make(map[string]int, len(schools)),
		byKey:   make(map[string]int, len(schools)),
	}
	for _, s := range schools {
		s.Alias = strings.TrimSpace(s.Alias)
		s.Canonical = strings.TrimSpace(s.Canonical)
		s.State = strings.ToUpper(strings.TrimSpace(s.State))
		if s.Alias == "" || s.Canonical == "" {
			continue
		}
		if i, ok := r.byAlias[s.Alias]; ok {
			r.schools[i] = s
			r.byKey[Normalize(s.Alias)] = i
			continue
		}
		r.schools = append(r.schools, s)
		i := len(r.schools) - 1
		r.byAlias[s.Alias] = i
		r.byKey[Normalize(s.Alias)] = i
	}
	return r
}

var defaultPrep = NewPrepRegistry(builtinPrepSchools)

// DefaultPrepRegistry returns the built-in registry shared by the process.
func DefaultPrepRegistry() *PrepRegistry { return defaultPrep }

// PrepSchools returns a copy of the built-in registry entries.
func PrepSchools() []PrepSchool { return defaultPrep.Schools() }

// LookupPrep searches the built-in registry.
func LookupPrep(name string) (PrepSchool, bool) { return defaultPrep.Lookup(name) }

// Lookup returns the entry whose alias equals name, or whose alias shares
// its normalized key.
func (r *PrepRegistry) Lookup(name string) (PrepSchool, bool) {
	if r == nil {
		return PrepSchool{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return PrepSchool{}, false
	}
	if i, ok := r.byAlias[name]; ok {
		return r.schools[i], true
	}
	if i, ok := r.byKey[Normalize(name)]; ok {
		return r.schools[i], true
	}
	return PrepSchool{}, false
}

// Schools returns the entries in registration order.
func (r *PrepRegistry) Schools() []PrepSchool {
	if r == nil {
		return nil
	}
	out := make([]PrepSchool, len(r.schools))
	copy(out, r.schools)
	return out
}

// Len returns the number of aliases.
func (r *PrepRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.schools)
}

// With returns a new registry holding r's entries followed by extra.
func (r *PrepRegistry) With(extra []PrepSchool) *PrepRegistry {
	all := append(r.Schools(), extra...)
	return NewPrepRegistry(all)
}

type prepFile struct {
	PrepSchools []PrepSchool `yaml:"prep_schools"`
}

// LoadPrepOverrides reads additional prep-school aliases from a YAML file:
//
//	prep_schools:
//	  - alias: Sunrise Christian
//	    canonical: Sunrise Christian Academy
//	    city: Bel Aire
//	    state: KS
func LoadPrepOverrides(path string) ([]PrepSchool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prep overrides %s: %w", path, err)
	}
	var f prepFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prep overrides %s: %w", path, err)
	}
	for i, s := range f.PrepSchools {
		if strings.TrimSpace(s.Alias) == "" || strings.TrimSpace(s.Canonical) == "" {
			return nil, fmt.Errorf("prep overrides %s: entry %d: alias and canonical are required", path, i)
		}
	}
	return f.PrepSchools, nil
}
