package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/milekpl/zotero-ner/internal/domain"
	"github.com/milekpl/zotero-ner/internal/observability"
	"github.com/milekpl/zotero-ner/internal/variant"
)

// maxRequestBodySize bounds request bodies; record batches for large
// libraries fit well under this.
const maxRequestBodySize = 16 << 20

// analyzeRequest is the JSON request body for running an analysis pass.
type analyzeRequest struct {
	Records []creatorRecordPayload `json:"records" validate:"required,min=1,dive"`
}

// creatorRecordPayload mirrors domain.CreatorRecord with validation tags.
type creatorRecordPayload struct {
	FirstName       string               `json:"first_name"`
	LastName        string               `json:"last_name" validate:"required_without=FirstName"`
	FieldMode       int                  `json:"field_mode" validate:"oneof=0 1"`
	OccurrenceCount int                  `json:"occurrence_count" validate:"min=0"`
	Items           []domain.ItemSummary `json:"items,omitempty"`
}

func (p creatorRecordPayload) toDomain() domain.CreatorRecord {
	occurrences := p.OccurrenceCount
	if occurrences == 0 {
		occurrences = 1
	}
	return domain.CreatorRecord{
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		FieldMode:       domain.FieldMode(p.FieldMode),
		OccurrenceCount: occurrences,
		Items:           p.Items,
	}
}

// applySuggestionsRequest is the JSON request body for applying the
// host's accept/decline decisions.
type applySuggestionsRequest struct {
	Accepted []domain.Suggestion `json:"accepted,omitempty"`
	Declined []domain.Suggestion `json:"declined,omitempty"`
}

// nameParam extracts and unescapes the {name} route parameter.
func nameParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}

// decodeRequest reads and unmarshals a bounded JSON request body.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

// analyzeHandler handles POST /v1/analyze. It runs both clustering passes
// over the submitted records and returns gated suggestions with corpus
// statistics.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records := make([]domain.CreatorRecord, len(req.Records))
	for i, p := range req.Records {
		records[i] = p.toDomain()
	}

	ctx := observability.WithRunID(r.Context(), uuid.NewString())
	result, err := s.engine.AnalyzeRecords(ctx, records, nil)
	if err != nil {
		s.logger.Error().
			Str("request_id", observability.RequestIDFromContext(ctx)).
			Str("run_id", observability.RunIDFromContext(ctx)).
			Err(err).
			Msg("analyze request failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// applySuggestionsHandler handles POST /v1/suggestions/apply.
func (s *Server) applySuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	var req applySuggestionsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if len(req.Accepted) == 0 && len(req.Declined) == 0 {
		writeError(w, http.StatusBadRequest, "at least one accepted or declined suggestion is required")
		return
	}

	result, err := s.engine.ApplySuggestions(r.Context(), req.Accepted, req.Declined)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// getMappingHandler handles GET /v1/mappings/{name}.
func (s *Server) getMappingHandler(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	normalized, ok := s.learn.GetMapping(name)
	if !ok {
		writeError(w, http.StatusNotFound, "no mapping for name")
		return
	}

	writeJSON(w, http.StatusOK, mappingResponse{
		Name:       name,
		Normalized: normalized,
	})
}

// getSimilarMappingsHandler handles GET /v1/mappings/{name}/similar.
func (s *Server) getSimilarMappingsHandler(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	matches := s.learn.FindSimilar(name)
	resp := similarMappingsResponse{
		Query:   name,
		Matches: make([]matchResponse, 0, len(matches)),
	}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, matchResponse{
			Key:        m.Key,
			Normalized: m.Normalized,
			Confidence: m.Confidence,
			UsageCount: m.UsageCount,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// getVariantsHandler handles GET /v1/variants/{name}. The returned forms
// are presentation suggestions and play no role in clustering.
func (s *Server) getVariantsHandler(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	parsed := s.parser.Parse(name)
	writeJSON(w, http.StatusOK, variantsResponse{
		Name:     name,
		Variants: variant.Generate(parsed),
	})
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrCancelled):
		writeError(w, http.StatusConflict, "operation cancelled")
	case errors.Is(err, domain.ErrHostUnavailable):
		writeError(w, http.StatusServiceUnavailable, "record source unavailable")
	case errors.Is(err, domain.ErrStorage):
		writeError(w, http.StatusInternalServerError, "storage failure")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
