package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func marshalBody(t *testing.T, body *Body) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func boolSection(t *testing.T, decoded map[string]interface{}) map[string]interface{} {
	t.Helper()
	querySection, ok := decoded["query"].(map[string]interface{})
	require.True(t, ok, "query section missing")
	boolQuery, ok := querySection["bool"].(map[string]interface{})
	require.True(t, ok, "bool query missing")
	return boolQuery
}

func TestConceptsQueryEmitsAllShouldClauses(t *testing.T) {
	boolQuery := boolSection(t, marshalBody(t, Concepts("", 1, 3)))

	should, ok := boolQuery["should"].([]interface{})
	require.True(t, ok, "should clause missing")
	require.Len(t, should, 9)

	wantFields := []string{
		"name", "description", "search_terms",
		"name", "search_terms", "description",
		"description", "search_terms", "optional_terms",
	}
	wantBoosts := []float64{10, 6, 8, 4, 5, 3, 2, 1, 0}

	for i, clause := range should {
		entry := clause.(map[string]interface{})
		var params map[string]interface{}
		if i < 3 {
			params = entry["match_phrase"].(map[string]interface{})[wantFields[i]].(map[string]interface{})
		} else {
			params = entry["match"].(map[string]interface{})[wantFields[i]].(map[string]interface{})
		}

		if wantBoosts[i] == 0 {
			_, hasBoost := params["boost"]
			require.False(t, hasBoost, "clause %d should carry no boost", i)
		} else {
			require.Equal(t, wantBoosts[i], params["boost"], "clause %d boost", i)
		}
	}

	require.Equal(t, float64(1), boolQuery["minimum_should_match"])
}

func TestConceptsQueryFuzzyOperators(t *testing.T) {
	boolQuery := boolSection(t, marshalBody(t, Concepts("heart attack", 2, 4)))
	should := boolQuery["should"].([]interface{})

	// Clauses 3-5 require all terms, 6-8 use the engine default.
	for i := 3; i < 9; i++ {
		entry := should[i].(map[string]interface{})
		match := entry["match"].(map[string]interface{})
		for _, params := range match {
			fields := params.(map[string]interface{})
			require.Equal(t, "heart attack", fields["query"])
			require.Equal(t, float64(2), fields["fuzziness"])
			require.Equal(t, float64(4), fields["prefix_length"])
			if i < 6 {
				require.Equal(t, "and", fields["operator"], "clause %d", i)
			} else {
				_, hasOperator := fields["operator"]
				require.False(t, hasOperator, "clause %d", i)
			}
		}
	}
}

func TestConceptsQueryFiltersPartiallyIndexedDocuments(t *testing.T) {
	boolQuery := boolSection(t, marshalBody(t, Concepts("asthma", 1, 3)))

	filter, ok := boolQuery["filter"].(map[string]interface{})
	require.True(t, ok, "filter missing")
	must := filter["bool"].(map[string]interface{})["must"].([]interface{})
	require.Len(t, must, 2)

	descWildcard := must[0].(map[string]interface{})["wildcard"].(map[string]interface{})
	require.Equal(t, "?*", descWildcard["description"])
	nameWildcard := must[1].(map[string]interface{})["wildcard"].(map[string]interface{})
	require.Equal(t, "?*", nameWildcard["name"])
}

func TestContainsOperators(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"diabetes", false},
		{"diabetes*", true},
		{`"type 2 diabetes"`, true},
		{"+diabetes -insulin", true},
		{"heart attack", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := ContainsOperators(tc.query); got != tc.want {
			t.Fatalf("ContainsOperators(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestSimpleQueryShape(t *testing.T) {
	data, err := json.Marshal(Simple("diabetes*"))
	require.NoError(t, err)

	require.JSONEq(t, `{
		"query": {
			"simple_query_string": {
				"query": "diabetes*",
				"fields": ["name", "description", "search_terms"],
				"default_operator": "and",
				"flags": "OR|AND|NOT|PHRASE|PREFIX"
			}
		}
	}`, string(data))
}

func TestVariablesQueryShouldClauses(t *testing.T) {
	boolQuery := boolSection(t, marshalBody(t, Variables("", "", 1, 3)))

	should := boolQuery["should"].([]interface{})
	require.Len(t, should, 10)

	// No concept scope means no must constraint.
	_, hasMust := boolQuery["must"]
	require.False(t, hasMust)

	first := should[0].(map[string]interface{})["match_phrase"].(map[string]interface{})
	params := first["element_name"].(map[string]interface{})
	require.Equal(t, float64(10), params["boost"])

	last := should[9].(map[string]interface{})["match"].(map[string]interface{})
	_, hasOptional := last["optional_terms"]
	require.True(t, hasOptional)
}

func TestVariablesQueryConceptScopeIsMandatory(t *testing.T) {
	boolQuery := boolSection(t, marshalBody(t, Variables("MONDO:0005148", "glucose", 1, 3)))

	must, ok := boolQuery["must"].([]interface{})
	require.True(t, ok, "must clause missing")
	require.Len(t, must, 1)

	match := must[0].(map[string]interface{})["match"].(map[string]interface{})
	require.Equal(t, "MONDO:0005148", match["identifiers"])
}

func TestKnowledgeGraphQueryShape(t *testing.T) {
	data, err := json.Marshal(KnowledgeGraph("MONDO:0005148", "diabetes", 1, 3))
	require.NoError(t, err)

	require.JSONEq(t, `{
		"query": {
			"bool": {
				"must": [
					{"term": {"concept_id.keyword": {"value": "MONDO:0005148"}}},
					{"query_string": {
						"query": "diabetes",
						"fuzziness": 1,
						"fuzzy_prefix_length": 3,
						"default_field": "search_targets"
					}}
				]
			}
		}
	}`, string(data))
}

func TestStudiesQueryBuildsConjunction(t *testing.T) {
	boolQuery := boolSection(t, marshalBody(t, Studies("phs000001", "Framingham")))
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 2)

	boolQuery = boolSection(t, marshalBody(t, Studies("", "")))
	must, ok := boolQuery["must"].([]interface{})
	require.True(t, ok, "empty must array expected")
	require.Empty(t, must)
}

func TestProgramsQueryKeepsAggregationWithoutName(t *testing.T) {
	decoded := marshalBody(t, Programs(""))

	must := boolSection(t, decoded)["must"].([]interface{})
	require.Empty(t, must)

	aggs, ok := decoded["aggs"].(map[string]interface{})
	require.True(t, ok, "aggs missing")
	terms := aggs["unique_collection_ids"].(map[string]interface{})["terms"].(map[string]interface{})
	require.Equal(t, "collection_id.keyword", terms["field"])

	source, ok := decoded["_source"].([]interface{})
	require.True(t, ok, "_source missing")
	require.Equal(t, []interface{}{"collection_id", "collection_name", "collection_action"}, source)
}

func TestProgramsQueryWithName(t *testing.T) {
	must := boolSection(t, marshalBody(t, Programs("TOPMed")))["must"].([]interface{})
	require.Len(t, must, 1)
	match := must[0].(map[string]interface{})["match"].(map[string]interface{})
	require.Equal(t, "TOPMed", match["data_type"])
}

func TestDataTypesAggregationBody(t *testing.T) {
	data, err := json.Marshal(DataTypes())
	require.NoError(t, err)

	require.JSONEq(t, `{
		"aggs": {
			"data_type": {"terms": {"field": "data_type.keyword"}}
		}
	}`, string(data))
}

func TestAllMatchesEverything(t *testing.T) {
	data, err := json.Marshal(All())
	require.NoError(t, err)
	require.JSONEq(t, `{"query": {"match_all": {}}}`, string(data))
}
