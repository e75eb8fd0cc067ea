package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hazyhaar/hsregistry/pkg/dataset"
)

// Applied is the projection of one record through a Table.
type Applied struct {
	Record
	Standardized string     `json:"standardized"`
	Confidence   Confidence `json:"confidence"`
	Source       Source     `json:"source,omitempty"`
	Changed      bool       `json:"changed"`
}

// Apply maps each record. Misses pass through unchanged with confidence
// unstandardized. The output has one element per input, in order.
func (t *Table) Apply(rows []Record) []Applied {
	out := make([]Applied, len(rows))
	for i, r := range rows {
		out[i] = t.applyOne(r)
	}
	return out
}

func (t *Table) applyOne(r Record) Applied {
	a := Applied{Record: r, Standardized: r.Original, Confidence: ConfidenceUnstandardized}
	if e, ok := t.Lookup(r.Original, r.State); ok {
		a.Standardized = e.Standardized
		a.Confidence = e.Confidence
		a.Source = e.Source
		// Lookup keys are trimmed; surrounding spaces alone are not a change.
		a.Changed = e.Standardized != strings.TrimSpace(r.Original)
	}
	return a
}

// Columns names the dataset columns read and written by the mapping.
// Empty fields take the DefaultColumns names; optional input columns that
// the dataset lacks read as empty.
type Columns struct {
	Name        string
	State       string
	City        string
	PlayerCount string

	Standardized string
	Confidence   string
	Changed      string
}

// DefaultColumns matches the roster exports this tool is fed.
func DefaultColumns() Columns {
	return Columns{
		Name:         "high_school",
		State:        "state",
		City:         "city",
		PlayerCount:  "player_count",
		Standardized: "high_school_standardized",
		Confidence:   "hs_confidence",
		Changed:      "hs_was_standardized",
	}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.State == "" {
		c.State = d.State
	}
	if c.City == "" {
		c.City = d.City
	}
	if c.PlayerCount == "" {
		c.PlayerCount = d.PlayerCount
	}
	if c.Standardized == "" {
		c.Standardized = d.Standardized
	}
	if c.Confidence == "" {
		c.Confidence = d.Confidence
	}
	if c.Changed == "" {
		c.Changed = d.Changed
	}
	return c
}

// RecordsFromDataset extracts records. Only the name column is required;
// the optional columns are used when present. Unparseable counts weigh 1.
func RecordsFromDataset(ds *dataset.Dataset, cols Columns) ([]Record, error) {
	cols = cols.withDefaults()
	if _, err := ds.Require(cols.Name); err != nil {
		return nil, err
	}
	name := ds.Index(cols.Name)
	state := ds.Index(cols.State)
	city := ds.Index(cols.City)
	count := ds.Index(cols.PlayerCount)

	out := make([]Record, ds.Len())
	for i := range ds.Rows {
		r := Record{
			Original: ds.Value(i, name),
			State:    ds.Value(i, state),
			City:     ds.Value(i, city),
		}
		if v := ds.Value(i, count); v != "" {
			n, err := strconv.Atoi(v)
			if err == nil {
				r.PlayerCount = n
			}
		}
		out[i] = r
	}
	return out, nil
}

// ApplyDataset returns a copy of ds with the standardized name, confidence
// and changed columns appended. No existing cell is altered.
func ApplyDataset(ds *dataset.Dataset, t *Table, cols Columns) (*dataset.Dataset, error) {
	cols = cols.withDefaults()
	records, err := RecordsFromDataset(ds, cols)
	if err != nil {
		return nil, fmt.Errorf("apply mapping: %w", err)
	}
	applied := t.Apply(records)
	out, err := ds.Augment(
		[]string{cols.Standardized, cols.Confidence, cols.Changed},
		func(i int) []string {
			a := applied[i]
			return []string{a.Standardized, string(a.Confidence), strconv.FormatBool(a.Changed)}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("apply mapping: %w", err)
	}
	return out, nil
}
