// Package api exposes the school registry over HTTP and MCP. Both
// transports dispatch to the same kit.Endpoints.
package api

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/hazyhaar/hsregistry/pkg/mapping"
	"github.com/hazyhaar/hsregistry/pkg/nces"
	"github.com/hazyhaar/hsregistry/pkg/school"
)

// errNoStore is returned by snapshot endpoints when no mapping store is
// configured.
var errNoStore = errors.New("no mapping store configured")

// Options configures a Service. Zero values are usable: the built-in prep
// registry, no store, no reference directory.
type Options struct {
	Prep         *school.PrepRegistry
	Custom       []mapping.Entry
	SkipPrep     bool
	IgnoreState  bool
	Store        *mapping.Store
	ReferenceDir string
	Workers      int
	BatchLimit   int
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Service holds the state shared by every endpoint. The NCES lookup can be
// swapped at runtime with SetLookup or Reload.
type Service struct {
	prep         *school.PrepRegistry
	classifier   *school.Classifier
	custom       []mapping.Entry
	skipPrep     bool
	ignoreState  bool
	store        *mapping.Store
	referenceDir string
	workers      int
	batchLimit   int
	maxBody      int64
	logger       *slog.Logger

	mu     sync.RWMutex
	lookup *nces.Lookup
}

func NewService(opts Options) *Service {
	if opts.Prep == nil {
		opts.Prep = school.DefaultPrepRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 10000
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}
	return &Service{
		prep:         opts.Prep,
		classifier:   school.NewClassifier(opts.Prep),
		custom:       opts.Custom,
		skipPrep:     opts.SkipPrep,
		ignoreState:  opts.IgnoreState,
		store:        opts.Store,
		referenceDir: opts.ReferenceDir,
		workers:      opts.Workers,
		batchLimit:   opts.BatchLimit,
		maxBody:      opts.MaxBodyBytes,
		logger:       opts.Logger,
	}
}

// Lookup returns the current NCES lookup, nil when none is loaded.
func (s *Service) Lookup() *nces.Lookup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup
}

func (s *Service) SetLookup(l *nces.Lookup) {
	s.mu.Lock()
	s.lookup = l
	s.mu.Unlock()
}

// Reload rebuilds the lookup from the reference directory. On failure the
// previous lookup stays in place.
func (s *Service) Reload() error {
	l, err := nces.LoadDir(s.referenceDir, s.logger)
	if err != nil {
		return err
	}
	s.SetLookup(l)
	return nil
}

func (s *Service) buildOptions(includePrep bool) []mapping.BuildOption {
	opts := []mapping.BuildOption{
		mapping.WithPrepRegistry(s.prep),
		mapping.WithLogger(s.logger),
	}
	if !includePrep || s.skipPrep {
		opts = append(opts, mapping.WithoutPrepSchools())
	}
	if s.ignoreState {
		opts = append(opts, mapping.WithoutStateGrouping())
	}
	if len(s.custom) > 0 {
		opts = append(opts, mapping.WithCustom(s.custom))
	}
	return opts
}
