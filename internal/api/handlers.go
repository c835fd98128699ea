package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yskale/dug/internal/opensearch"
	"github.com/yskale/dug/internal/search"
	"github.com/yskale/dug/internal/types"
)

// envelope is the JSON reply wrapper shared by all endpoints.
type envelope struct {
	Status  string      `json:"status"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, map[string]string{"search_engine": "ok"})
}

func (s *Server) handleSearchConcepts(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	size, err := optionalIntParam(r, "size")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	req := search.ConceptQuery{
		Query:  r.URL.Query().Get("query"),
		Offset: offset,
		Size:   size,
	}
	if raw, ok := r.URL.Query()["types"]; ok {
		req.Types = splitParam(strings.Join(raw, ","))
	}

	results, err := s.service.SearchConcepts(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, results)
}

func (s *Server) handleSearchVariables(w http.ResponseWriter, r *http.Request) {
	req, err := variableQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	results, err := s.service.SearchVariables(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, results)
}

func (s *Server) handleSearchVariablesUnscored(w http.ResponseWriter, r *http.Request) {
	req, err := variableQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	results, err := s.service.SearchVariablesUnscored(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, results)
}

func (s *Server) handleSearchKG(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	size, err := optionalIntParam(r, "size")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	results, err := s.service.SearchKG(r.Context(), search.KGQuery{
		UniqueID: r.URL.Query().Get("unique_id"),
		Query:    r.URL.Query().Get("query"),
		Offset:   offset,
		Size:     size,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, results)
}

func (s *Server) handleSearchStudies(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	size, err := optionalIntParam(r, "size")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	results, err := s.service.SearchStudies(r.Context(), search.StudyQuery{
		StudyID:   r.URL.Query().Get("study_id"),
		StudyName: r.URL.Query().Get("study_name"),
		Offset:    offset,
		Size:      size,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, results)
}

func (s *Server) handleSearchPrograms(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	size, err := optionalIntParam(r, "size")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	results, err := s.service.SearchPrograms(r.Context(), search.ProgramQuery{
		ProgramName: r.URL.Query().Get("program_name"),
		Offset:      offset,
		Size:        size,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, results)
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	limit, err := optionalIntParam(r, "limit")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	results, err := s.service.DumpConcepts(r.Context(), r.URL.Query().Get("index"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, results)
}

func (s *Server) handleAggDataTypes(w http.ResponseWriter, r *http.Request) {
	dataTypes, err := s.service.AggDataTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, dataTypes)
}

func variableQuery(r *http.Request) (search.VariableQuery, error) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		return search.VariableQuery{}, err
	}
	size, err := optionalIntParam(r, "size")
	if err != nil {
		return search.VariableQuery{}, err
	}

	return search.VariableQuery{
		Concept:  r.URL.Query().Get("concept"),
		Query:    r.URL.Query().Get("query"),
		DataType: r.URL.Query().Get("data_type"),
		Offset:   offset,
		Size:     size,
	}, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	if value < 0 {
		return 0, errors.New(name + " must not be negative")
	}
	return value, nil
}

// optionalIntParam keeps absent distinct from an explicit zero.
func optionalIntParam(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	if value < 0 {
		return nil, errors.New(name + " must not be negative")
	}
	return &value, nil
}

func splitParam(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func writeResult(w http.ResponseWriter, result interface{}) {
	writeJSON(w, http.StatusOK, envelope{
		Status:  "success",
		Result:  result,
		Message: "Search result",
	})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Status:  "error",
		Message: err.Error(),
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var searchErr *opensearch.SearchError
	if errors.As(err, &searchErr) {
		switch searchErr.Type {
		case types.ErrorTypeValidation:
			status = http.StatusBadRequest
		case types.ErrorTypeRateLimit:
			status = http.StatusTooManyRequests
		case types.ErrorTypeNetworkTimeout:
			status = http.StatusGatewayTimeout
		case types.ErrorTypeAuthentication, types.ErrorTypeResponse:
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, envelope{
		Status:  "error",
		Message: err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
