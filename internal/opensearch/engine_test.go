package opensearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAggregations(t *testing.T) {
	raw := json.RawMessage(`{
		"type-count": {
			"doc_count_error_upper_bound": 0,
			"sum_other_doc_count": 0,
			"buckets": [
				{"key": "disease", "doc_count": 12},
				{"key": "phenotype", "doc_count": 4}
			]
		},
		"data_type": {
			"buckets": []
		}
	}`)

	aggs, err := parseAggregations(raw)
	require.NoError(t, err)
	require.Len(t, aggs, 2)

	assert.Equal(t, []Bucket{
		{Key: "disease", DocCount: 12},
		{Key: "phenotype", DocCount: 4},
	}, aggs["type-count"])
	assert.Empty(t, aggs["data_type"])
}

func TestParseAggregationsMalformed(t *testing.T) {
	_, err := parseAggregations(json.RawMessage(`["not", "an", "object"]`))
	require.Error(t, err)

	var searchErr *SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.False(t, searchErr.IsRetryable())
}

func TestHitJSONShape(t *testing.T) {
	score := 3.5
	hit := Hit{
		ID:     "MONDO:0005148",
		Score:  &score,
		Source: json.RawMessage(`{"name":"type 2 diabetes"}`),
	}

	data, err := json.Marshal(hit)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"_id": "MONDO:0005148",
		"_score": 3.5,
		"_source": {"name": "type 2 diabetes"}
	}`, string(data))
}
