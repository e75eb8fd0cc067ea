// Package importer fetches NCES directory exports and turns them into
// reference directories that nces.LoadDir can index.
package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Result summarizes one import.
type Result struct {
	Dir  string
	Rows int
}

// Adapter fetches and converts one reference source.
type Adapter interface {
	// ID is the unique adapter identifier, e.g. "nces-ccd".
	ID() string
	// TargetDir is the subdirectory of the reference root the adapter writes.
	TargetDir() string
	Description() string
	// DefaultURL seeds the import_sources table.
	DefaultURL() string
	License() string
	// Import fetches sourceURL and writes reference.csv + manifest.yaml under
	// outputDir/TargetDir().
	Import(ctx context.Context, sourceURL, outputDir string) (Result, error)
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
