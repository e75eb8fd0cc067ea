package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/hsregistry/pkg/kit"
	"github.com/hazyhaar/hsregistry/pkg/mapping"
	"github.com/hazyhaar/hsregistry/pkg/nces"
	"github.com/hazyhaar/hsregistry/pkg/school"
)

// Shared request/response types used by both HTTP and MCP transports.

type normalizeReq struct {
	Name string
}

type normalizeResponse struct {
	Name       string             `json:"name"`
	Key        string             `json:"key"`
	Type       school.Type        `json:"type"`
	Rule       string             `json:"rule"`
	Core       string             `json:"core"`
	Qualifier  string             `json:"qualifier,omitempty"`
	CommonName bool               `json:"common_name"`
	Suffix     string             `json:"suffix"`
	Display    string             `json:"display"`
	Prep       *school.PrepSchool `json:"prep,omitempty"`
}

type buildMappingReq struct {
	Records     []mapping.Record `json:"records"`
	IncludePrep *bool            `json:"include_prep,omitempty"`
	Label       string           `json:"label,omitempty"`
}

type mappingResponse struct {
	ID      string          `json:"id,omitempty"`
	Summary mapping.Summary `json:"summary"`
	Entries []mapping.Entry `json:"entries"`
}

type snapshotsResponse struct {
	Snapshots []mapping.Snapshot `json:"snapshots"`
}

type getMappingReq struct {
	ID string
}

type applyMappingReq struct {
	ID   string           `json:"-"`
	Rows []mapping.Record `json:"rows"`
}

type applyResponse struct {
	ID      string            `json:"id"`
	Results []mapping.Applied `json:"results"`
	Changed int               `json:"changed"`
}

type matchReq struct {
	Name  string
	State string
	City  string
}

type matchBatchReq struct {
	Schools []nces.Query `json:"schools"`
}

type matchBatchResponse struct {
	Results []nces.MatchResult `json:"results"`
	Matched int                `json:"matched"`
}

type prepSchoolsResponse struct {
	PrepSchools []school.PrepSchool `json:"prep_schools"`
	Count       int                 `json:"count"`
}

// requestError marks a caller mistake; transports map it to a client error.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func isBadRequest(err error) bool {
	var re *requestError
	return errors.As(err, &re) || errors.Is(err, mapping.ErrInvalidEntry)
}

// endpoints wires every action with the common middleware chain.
type endpoints struct {
	normalize    kit.Endpoint
	buildMapping kit.Endpoint
	listMappings kit.Endpoint
	getMapping   kit.Endpoint
	applyMapping kit.Endpoint
	match        kit.Endpoint
	matchBatch   kit.Endpoint
	listPrep     kit.Endpoint
}

func newEndpoints(s *Service) *endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(s.logger, name))(ep)
	}
	return &endpoints{
		normalize:    wrap("normalize", normalizeEndpoint(s)),
		buildMapping: wrap("build_mapping", buildMappingEndpoint(s)),
		listMappings: wrap("list_mappings", listMappingsEndpoint(s)),
		getMapping:   wrap("get_mapping", getMappingEndpoint(s)),
		applyMapping: wrap("apply_mapping", applyMappingEndpoint(s)),
		match:        wrap("match", matchEndpoint(s)),
		matchBatch:   wrap("match_batch", matchBatchEndpoint(s)),
		listPrep:     wrap("list_prep_schools", listPrepEndpoint(s)),
	}
}

func normalizeEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*normalizeReq)
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, badRequest("name is required")
		}
		core, qualifier, _ := school.ExtractDisambiguator(name)
		key := school.Normalize(name)
		typ, rule := s.classifier.Explain(name)
		resp := normalizeResponse{
			Name:       name,
			Key:        key,
			Type:       typ,
			Rule:       rule,
			Core:       core,
			Qualifier:  qualifier,
			CommonName: school.IsLikelyCommonName(key),
			Suffix:     school.SuffixOf(name).String(),
			Display:    school.StandardizeSuffix(school.DisplayName(name), ""),
		}
		if p, ok := s.prep.Lookup(name); ok {
			resp.Prep = &p
		}
		return resp, nil
	}
}

func buildMappingEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*buildMappingReq)
		if len(req.Records) == 0 {
			return nil, badRequest("records array is empty")
		}
		includePrep := req.IncludePrep == nil || *req.IncludePrep
		t := mapping.Build(req.Records, s.buildOptions(includePrep)...)

		resp := mappingResponse{Summary: t.Summary(), Entries: t.Entries()}
		if s.store != nil {
			id, err := s.store.Save(ctx, t, req.Label)
			if err != nil {
				return nil, err
			}
			resp.ID = id
		}
		return resp, nil
	}
}

func listMappingsEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if s.store == nil {
			return nil, errNoStore
		}
		snaps, err := s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		if snaps == nil {
			snaps = []mapping.Snapshot{}
		}
		return snapshotsResponse{Snapshots: snaps}, nil
	}
}

// loadSnapshot resolves id, where "latest" names the newest snapshot.
func (s *Service) loadSnapshot(ctx context.Context, id string) (string, *mapping.Table, error) {
	if s.store == nil {
		return "", nil, errNoStore
	}
	if id == "" {
		return "", nil, badRequest("missing mapping id")
	}
	if id == "latest" {
		latest, err := s.store.Latest(ctx)
		if err != nil {
			return "", nil, err
		}
		id = latest
	}
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, t, nil
}

func getMappingEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*getMappingReq)
		id, t, err := s.loadSnapshot(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return mappingResponse{ID: id, Summary: t.Summary(), Entries: t.Entries()}, nil
	}
}

func applyMappingEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*applyMappingReq)
		if len(req.Rows) == 0 {
			return nil, badRequest("rows array is empty")
		}
		if len(req.Rows) > s.batchLimit {
			return nil, badRequest("too many rows (max %d, got %d)", s.batchLimit, len(req.Rows))
		}
		id, t, err := s.loadSnapshot(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		results := t.Apply(req.Rows)
		changed := 0
		for _, r := range results {
			if r.Changed {
				changed++
			}
		}
		return applyResponse{ID: id, Results: results, Changed: changed}, nil
	}
}

func matchEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*matchReq)
		if strings.TrimSpace(req.Name) == "" {
			return nil, badRequest("name is required")
		}
		return s.Lookup().Match(req.Name, req.State, req.City)
	}
}

func matchBatchEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*matchBatchReq)
		if len(req.Schools) == 0 {
			return nil, badRequest("schools array is empty")
		}
		if len(req.Schools) > s.batchLimit {
			return nil, badRequest("too many schools (max %d, got %d)", s.batchLimit, len(req.Schools))
		}
		results, err := nces.BatchMatch(ctx, s.Lookup(), req.Schools, s.workers)
		if err != nil {
			return nil, err
		}
		matched := 0
		for _, r := range results {
			if r.Matched() {
				matched++
			}
		}
		return matchBatchResponse{Results: results, Matched: matched}, nil
	}
}

func listPrepEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		schools := s.prep.Schools()
		return prepSchoolsResponse{PrepSchools: schools, Count: len(schools)}, nil
	}
}
