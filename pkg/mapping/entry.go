// Package mapping resolves raw school-name variants to canonical spellings.
//
// Rows are grouped by (normalized key, state); each group elects one
// canonical spelling; curated prep-school aliases and caller-supplied custom
// overrides are merged on top. The resulting Table is an immutable snapshot
// that can be applied to any number of datasets.
package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntry reports an entry whose confidence and source disagree.
var ErrInvalidEntry = errors.New("invalid mapping entry")

// Record is one raw input row. PlayerCount <= 0 means the weight is absent
// and counts as 1.
type Record struct {
	Original    string `json:"original"`
	State       string `json:"state,omitempty"`
	City        string `json:"city,omitempty"`
	PlayerCount int    `json:"player_count,omitempty"`
}

func (r Record) weight() int {
	if r.PlayerCount <= 0 {
		return 1
	}
	return r.PlayerCount
}

// Confidence is the trust level attached to a mapping entry.
type Confidence string

const (
	ConfidenceHighAuto       Confidence = "high_auto"
	ConfidenceHighManual     Confidence = "high_manual"
	ConfidenceUnstandardized Confidence = "unstandardized"
)

func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHighAuto, ConfidenceHighManual, ConfidenceUnstandardized:
		return true
	}
	return false
}

// Source records where an entry came from.
type Source string

const (
	SourceDuplicateResolution Source = "duplicate_resolution"
	SourcePrepSchool          Source = "prep_school"
	SourceCustom              Source = "custom"
)

func (s Source) IsValid() bool {
	switch s {
	case SourceDuplicateResolution, SourcePrepSchool, SourceCustom:
		return true
	}
	return false
}

// precedence orders sources on key collisions; higher wins.
func (s Source) precedence() int {
	switch s {
	case SourceCustom:
		return 3
	case SourcePrepSchool:
		return 2
	default:
		return 1
	}
}

// Entry maps one original spelling to its standardized form.
type Entry struct {
	Original     string     `json:"original"`
	Standardized string     `json:"standardized"`
	State        string     `json:"state,omitempty"`
	Confidence   Confidence `json:"confidence"`
	Source       Source     `json:"source"`

	PlayerCount          int  `json:"player_count,omitempty"`
	CanonicalPlayerCount int  `json:"canonical_player_count,omitempty"`
	CommonName           bool `json:"common_name,omitempty"`
}

// Global reports whether the entry applies regardless of state. Prep-school
// aliases are always global; custom entries are global when stateless.
func (e Entry) Global() bool {
	return e.Source == SourcePrepSchool || e.State == ""
}

// Validate checks the confidence/source invariant: high_manual only comes
// from curated sources and high_auto only from duplicate resolution.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Original) == "" {
		return fmt.Errorf("%w: empty original", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.Standardized) == "" {
		return fmt.Errorf("%w: %q: empty standardized name", ErrInvalidEntry, e.Original)
	}
	if !e.Confidence.IsValid() {
		return fmt.Errorf("%w: %q: unknown confidence %q", ErrInvalidEntry, e.Original, e.Confidence)
	}
	if !e.Source.IsValid() {
		return fmt.Errorf("%w: %q: unknown source %q", ErrInvalidEntry, e.Original, e.Source)
	}
	switch e.Confidence {
	case ConfidenceHighManual:
		if e.Source != SourcePrepSchool && e.Source != SourceCustom {
			return fmt.Errorf("%w: %q: high_manual requires prep_school or custom source, got %s", ErrInvalidEntry, e.Original, e.Source)
		}
	case ConfidenceHighAuto:
		if e.Source != SourceDuplicateResolution {
			return fmt.Errorf("%w: %q: high_auto requires duplicate_resolution source, got %s", ErrInvalidEntry, e.Original, e.Source)
		}
	}
	return nil
}

// NewCustomEntry builds a validated high_manual custom override. An empty
// state makes it global.
func NewCustomEntry(original, standardized, state string) (Entry, error) {
	e := Entry{
		Original:     strings.TrimSpace(original),
		Standardized: strings.TrimSpace(standardized),
		State:        normState(state),
		Confidence:   ConfidenceHighManual,
		Source:       SourceCustom,
	}
	return e, e.Validate()
}

func normState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
