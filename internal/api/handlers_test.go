package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yskale/dug/internal/opensearch"
	"github.com/yskale/dug/internal/search"
	"github.com/yskale/dug/internal/types"
)

// stubEngine satisfies the search engine contract with canned replies.
type stubEngine struct {
	searchResp *opensearch.Response
	searchErr  error
	countResp  int
	scanHits   []opensearch.Hit
	pingErr    error
}

func (e *stubEngine) Ping(ctx context.Context) error { return e.pingErr }

func (e *stubEngine) Count(ctx context.Context, index string, body any) (int, error) {
	return e.countResp, nil
}

func (e *stubEngine) Search(ctx context.Context, index string, body any, opts *opensearch.SearchOptions) (*opensearch.Response, error) {
	if e.searchErr != nil {
		return nil, e.searchErr
	}
	if e.searchResp != nil {
		return e.searchResp, nil
	}
	return &opensearch.Response{}, nil
}

func (e *stubEngine) Scan(ctx context.Context, index string, body any, fn func(opensearch.Hit) error) error {
	for _, hit := range e.scanHits {
		if err := fn(hit); err != nil {
			return nil
		}
	}
	return nil
}

func newTestServer(t *testing.T, engine *stubEngine) http.Handler {
	t.Helper()

	cfg := &types.Config{
		ConceptsIndex:      "concepts_index",
		VariablesIndex:     "variables_index",
		KGIndex:            "kg_index",
		SearchFuzziness:    1,
		SearchPrefixLength: 3,
		APIListenAddr:      ":0",
	}

	service, err := search.NewService(engine, cfg)
	require.NoError(t, err)

	server, err := NewServer(service, cfg)
	require.NoError(t, err)
	return server.httpServer.Handler
}

func doRequest(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, &stubEngine{})

	rec := doRequest(t, handler, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSearchConceptsEndpoint(t *testing.T) {
	score := 5.0
	engine := &stubEngine{
		searchResp: &opensearch.Response{
			Hits: []opensearch.Hit{
				{ID: "MONDO:0005148", Score: &score, Source: json.RawMessage(`{"name":"type 2 diabetes"}`)},
			},
			Aggregations: map[string][]opensearch.Bucket{
				"type-count": {{Key: "disease", DocCount: 1}},
			},
		},
		countResp: 1,
	}
	handler := newTestServer(t, engine)

	rec := doRequest(t, handler, "/search?query=diabetes&offset=0&size=10")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Search result", body["message"])

	result := body["result"].(map[string]interface{})
	assert.Equal(t, float64(1), result["total_items"])
	assert.Equal(t, map[string]interface{}{"disease": float64(1)},
		result["concept_types"])
}

func TestSearchConceptsRejectsBadOffset(t *testing.T) {
	handler := newTestServer(t, &stubEngine{})

	rec := doRequest(t, handler, "/search?query=diabetes&offset=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "offset")
}

func TestSearchConceptsRejectsNegativeSize(t *testing.T) {
	handler := newTestServer(t, &stubEngine{})

	rec := doRequest(t, handler, "/search?query=diabetes&size=-5")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchVariablesEndpoint(t *testing.T) {
	score := 2.5
	source, err := json.Marshal(map[string]string{
		"element_id": "phv001", "element_name": "bmi",
		"collection_id": "phs000001", "collection_name": "Framingham",
		"data_type": "dbGaP",
	})
	require.NoError(t, err)

	engine := &stubEngine{
		searchResp: &opensearch.Response{
			Hits: []opensearch.Hit{{ID: "v1", Score: &score, Source: source}},
		},
		countResp: 1,
	}
	handler := newTestServer(t, engine)

	rec := doRequest(t, handler, "/search_var?query=bmi")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, float64(1), result["total_items"])
	require.Contains(t, result, "dbGaP")
}

func TestDumpEndpointHonorsLimit(t *testing.T) {
	engine := &stubEngine{
		countResp: 3,
		scanHits:  []opensearch.Hit{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}},
	}
	handler := newTestServer(t, engine)

	rec := doRequest(t, handler, "/dump?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	result := body["result"].(map[string]interface{})
	assert.Len(t, result["hits"], 2)
	assert.Equal(t, float64(3), result["total_items"])
}

func TestDumpEndpointZeroLimit(t *testing.T) {
	engine := &stubEngine{
		countResp: 3,
		scanHits:  []opensearch.Hit{{ID: "c1"}},
	}
	handler := newTestServer(t, engine)

	rec := doRequest(t, handler, "/dump?limit=0")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	result := body["result"].(map[string]interface{})
	assert.Nil(t, result["hits"])
	assert.Equal(t, float64(3), result["total_items"])
}

func TestAggDataTypesEndpoint(t *testing.T) {
	engine := &stubEngine{
		searchResp: &opensearch.Response{
			Aggregations: map[string][]opensearch.Bucket{
				"data_type": {{Key: "dbGaP", DocCount: 100}, {Key: "cde", DocCount: 20}},
			},
		},
	}
	handler := newTestServer(t, engine)

	rec := doRequest(t, handler, "/agg_data_types")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, []interface{}{"dbGaP", "cde"}, body["result"])
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		errType    types.ErrorType
		wantStatus int
	}{
		{"validation", types.ErrorTypeValidation, http.StatusBadRequest},
		{"rate limit", types.ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"timeout", types.ErrorTypeNetworkTimeout, http.StatusGatewayTimeout},
		{"authentication", types.ErrorTypeAuthentication, http.StatusBadGateway},
		{"response", types.ErrorTypeResponse, http.StatusBadGateway},
		{"unknown", types.ErrorTypeUnknown, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &stubEngine{
				searchErr: opensearch.NewSearchError(tc.errType, "engine failure"),
			}
			handler := newTestServer(t, engine)

			rec := doRequest(t, handler, "/search_kg?unique_id=MONDO:0005148&query=diabetes")
			assert.Equal(t, tc.wantStatus, rec.Code)

			body := decodeEnvelope(t, rec)
			assert.Equal(t, "error", body["status"])
		})
	}
}

func TestUnhealthyEngineReportsError(t *testing.T) {
	engine := &stubEngine{
		pingErr: opensearch.NewSearchError(types.ErrorTypeNetworkTimeout, "unreachable"),
	}
	handler := newTestServer(t, engine)

	rec := doRequest(t, handler, "/health")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	handler := newTestServer(t, &stubEngine{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
