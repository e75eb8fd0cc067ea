package mapping

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/hsregistry/pkg/dataset"
)

var csvHeader = []string{
	"original", "standardized", "state", "confidence", "source",
	"player_count", "canonical_player_count", "common_name",
}

// ToDataset flattens the table in Entries order.
func (t *Table) ToDataset() *dataset.Dataset {
	ds := dataset.New(csvHeader...)
	for _, e := range t.Entries() {
		ds.Append(
			e.Original, e.Standardized, e.State, string(e.Confidence), string(e.Source),
			itoa(e.PlayerCount), itoa(e.CanonicalPlayerCount), strconv.FormatBool(e.CommonName),
		)
	}
	return ds
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// WriteCSV writes the table as a flat CSV.
func WriteCSV(w io.Writer, t *Table) error {
	return dataset.WriteCSV(w, t.ToDataset(), ',')
}

// ReadCSV reads a table written by WriteCSV. Only original, standardized,
// confidence and source are required.
func ReadCSV(r io.Reader) (*Table, error) {
	ds, err := dataset.ReadCSV(r, ',')
	if err != nil {
		return nil, fmt.Errorf("read mapping csv: %w", err)
	}
	return FromDataset(ds)
}

// FromDataset decodes a flat mapping table.
func FromDataset(ds *dataset.Dataset) (*Table, error) {
	idx, err := ds.Require("original", "standardized", "confidence", "source")
	if err != nil {
		return nil, fmt.Errorf("mapping table: %w", err)
	}
	state := ds.Index("state")
	pc := ds.Index("player_count")
	cpc := ds.Index("canonical_player_count")
	common := ds.Index("common_name")

	entries := make([]Entry, 0, ds.Len())
	for i := range ds.Rows {
		e := Entry{
			Original:     ds.Value(i, idx[0]),
			Standardized: ds.Value(i, idx[1]),
			Confidence:   Confidence(ds.Value(i, idx[2])),
			Source:       Source(ds.Value(i, idx[3])),
			State:        ds.Value(i, state),
		}
		e.PlayerCount, _ = strconv.Atoi(ds.Value(i, pc))
		e.CanonicalPlayerCount, _ = strconv.Atoi(ds.Value(i, cpc))
		e.CommonName, _ = strconv.ParseBool(ds.Value(i, common))
		entries = append(entries, e)
	}
	t, err := NewTable(entries)
	if err != nil {
		return nil, fmt.Errorf("mapping table: %w", err)
	}
	return t, nil
}

// WriteJSON writes the entries as an indented JSON array.
func WriteJSON(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Entries())
}

// ReadJSON reads a JSON array of entries.
func ReadJSON(r io.Reader) (*Table, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode mapping json: %w", err)
	}
	return NewTable(entries)
}

type customFile struct {
	Custom []struct {
		Original     string `yaml:"original"`
		Standardized string `yaml:"standardized"`
		State        string `yaml:"state"`
	} `yaml:"custom"`
}

// LoadCustomYAML reads caller overrides:
//
//	custom:
//	  - original: Lincoln HS
//	    standardized: Abraham Lincoln High School
//	    state: CA
func LoadCustomYAML(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read custom overrides: %w", err)
	}
	var f customFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse custom overrides: %w", err)
	}
	out := make([]Entry, 0, len(f.Custom))
	for i, c := range f.Custom {
		e, err := NewCustomEntry(c.Original, c.Standardized, c.State)
		if err != nil {
			return nil, fmt.Errorf("custom entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// LoadCustomCSV reads caller overrides from a CSV or TSV file with columns
// original and standardized, plus an optional state.
func LoadCustomCSV(path string) ([]Entry, error) {
	ds, err := dataset.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read custom overrides: %w", err)
	}
	idx, err := ds.Require("original", "standardized")
	if err != nil {
		return nil, fmt.Errorf("custom overrides: %w", err)
	}
	state := ds.Index("state")
	out := make([]Entry, 0, ds.Len())
	for i := range ds.Rows {
		e, err := NewCustomEntry(ds.Value(i, idx[0]), ds.Value(i, idx[1]), ds.Value(i, state))
		if err != nil {
			return nil, fmt.Errorf("custom row %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// LoadCustom picks the YAML or CSV reader from the file extension.
func LoadCustom(path string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadCustomYAML(path)
	default:
		return LoadCustomCSV(path)
	}
}
