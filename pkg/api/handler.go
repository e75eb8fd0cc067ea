package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hazyhaar/hsregistry/pkg/kit"
	"github.com/hazyhaar/hsregistry/pkg/mapping"
	"github.com/hazyhaar/hsregistry/pkg/nces"
)

// NewRouter returns an http.Handler with all registry API routes.
func NewRouter(s *Service) http.Handler {
	mux := http.NewServeMux()
	h := &handler{ep: newEndpoints(s), svc: s}

	mux.HandleFunc("GET /v1/normalize/{name}", h.handleNormalize)
	mux.HandleFunc("GET /v1/mappings", h.handleListMappings)
	mux.HandleFunc("POST /v1/mappings", h.handleBuildMapping)
	mux.HandleFunc("GET /v1/mappings/{id}", h.handleGetMapping)
	mux.HandleFunc("POST /v1/mappings/{id}/apply", h.handleApplyMapping)
	mux.HandleFunc("GET /v1/match/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/match/batch", h.handleMatchBatch)
	mux.HandleFunc("GET /v1/match", h.handleMatch)
	mux.HandleFunc("GET /v1/prep-schools", h.handleListPrep)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestID(mux))
}

type handler struct {
	ep  *endpoints
	svc *Service
}

// --- normalize ---

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.normalize, &normalizeReq{Name: r.PathValue("name")})
}

// --- mappings ---

func (h *handler) handleBuildMapping(w http.ResponseWriter, r *http.Request) {
	var req buildMappingReq
	if !h.decode(w, r, &req) {
		return
	}
	h.serveStatus(w, r, http.StatusCreated, h.ep.buildMapping, &req)
}

func (h *handler) handleListMappings(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.listMappings, nil)
}

func (h *handler) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.getMapping, &getMappingReq{ID: r.PathValue("id")})
}

func (h *handler) handleApplyMapping(w http.ResponseWriter, r *http.Request) {
	var req applyMappingReq
	if !h.decode(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	h.serve(w, r, h.ep.applyMapping, &req)
}

// --- match ---

func (h *handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serve(w, r, h.ep.match, &matchReq{
		Name:  q.Get("name"),
		State: q.Get("state"),
		City:  q.Get("city"),
	})
}

func (h *handler) handleMatchBatch(w http.ResponseWriter, r *http.Request) {
	var req matchBatchReq
	if !h.decode(w, r, &req) {
		return
	}
	h.serve(w, r, h.ep.matchBatch, &req)
}

// --- prep schools ---

func (h *handler) handleListPrep(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.listPrep, nil)
}

// --- health ---

type healthResponse struct {
	Status       string              `json:"status"`
	References   int                 `json:"references"`
	BySource     map[nces.Source]int `json:"by_source,omitempty"`
	PrepSchools  int                 `json:"prep_schools"`
	MappingStore bool                `json:"mapping_store"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		PrepSchools:  h.svc.prep.Len(),
		MappingStore: h.svc.store != nil,
	}
	if l := h.svc.Lookup(); l != nil {
		resp.References = l.Len()
		resp.BySource = l.Counts()
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func (h *handler) serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any) {
	h.serveStatus(w, r, http.StatusOK, ep, req)
}

func (h *handler) serveStatus(w http.ResponseWriter, r *http.Request, code int, ep kit.Endpoint, req any) {
	resp, err := ep(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, code, resp)
}

// decode reads a JSON body bounded by the configured size. It writes the
// error response itself and reports whether the handler may continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case isBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, mapping.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, nces.ErrNoReference), errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID propagates X-Request-ID into the context, generating one when
// the client sent none, and echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = kit.WithRequestID(ctx, id)
		}
		ctx = kit.EnsureRequestID(ctx)
		w.Header().Set("X-Request-ID", kit.GetRequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
