package nces

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/hsregistry/pkg/dataset"
)

const (
	manifestFile  = "manifest.yaml"
	referenceFile = "reference.csv"
)

var referenceHeader = []string{"nces_id", "name", "street", "city", "state", "zip", "source"}

// Manifest describes one imported reference directory.
type Manifest struct {
	Source     Source `yaml:"source"`
	SourceURL  string `yaml:"source_url"`
	License    string `yaml:"license"`
	ImportedAt string `yaml:"imported_at"`
	Rows       int    `yaml:"rows"`
	HighOnly   bool   `yaml:"high_schools_only"`
}

// WriteDir writes refs to dir/reference.csv and m to dir/manifest.yaml.
// Rows and ImportedAt are filled in when zero.
func WriteDir(dir string, m Manifest, refs []Reference) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	ds := dataset.New(referenceHeader...)
	for _, r := range refs {
		ds.Append(r.NCESID, r.Name, r.Street, r.City, r.State, r.Zip, string(r.Source))
	}
	if err := dataset.WriteFile(filepath.Join(dir, referenceFile), ds); err != nil {
		return err
	}

	if m.Rows == 0 {
		m.Rows = len(refs)
	}
	if m.ImportedAt == "" {
		m.ImportedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644)
}

// ReadDir reads one reference directory.
func ReadDir(dir string) (Manifest, []Reference, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return m, nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, nil, fmt.Errorf("parse manifest %s: %w", dir, err)
	}

	ds, err := dataset.ReadFile(filepath.Join(dir, referenceFile))
	if err != nil {
		return m, nil, err
	}
	idx, err := ds.Require(referenceHeader...)
	if err != nil {
		return m, nil, fmt.Errorf("%s: %w", dir, err)
	}
	refs := make([]Reference, 0, ds.Len())
	for i := range ds.Rows {
		src := Source(ds.Value(i, idx[6]))
		if !src.IsValid() {
			src = m.Source
		}
		refs = append(refs, Reference{
			NCESID: ds.Value(i, idx[0]),
			Name:   ds.Value(i, idx[1]),
			Street: ds.Value(i, idx[2]),
			City:   ds.Value(i, idx[3]),
			State:  ds.Value(i, idx[4]),
			Zip:    ds.Value(i, idx[5]),
			Source: src,
		})
	}
	return m, refs, nil
}

// LoadDir loads every subdirectory of root that holds a manifest and
// indexes the union. Subdirectories are read in name order.
func LoadDir(root string, logger *slog.Logger) (*Lookup, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read reference dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var all []Reference
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, manifestFile)); errors.Is(err, os.ErrNotExist) {
			continue
		}
		m, refs, err := ReadDir(dir)
		if err != nil {
			return nil, err
		}
		logger.Info("nces: references loaded", "dir", e.Name(), "source", m.Source, "rows", len(refs))
		all = append(all, refs...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: nothing under %s", ErrNoReference, root)
	}
	return newLookup(all, logger)
}
