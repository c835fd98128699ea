package query

import "encoding/json"

// Clause is a single leaf or compound query expression that knows how to
// render itself as the engine's JSON query DSL.
type Clause interface {
	json.Marshaler
}

// MatchPhrase represents an exact phrase match with an optional boost.
type MatchPhrase struct {
	Field string
	Query string
	Boost float64
}

func (q MatchPhrase) MarshalJSON() ([]byte, error) {
	params := map[string]interface{}{"query": q.Query}
	if q.Boost > 0 {
		params["boost"] = q.Boost
	}
	return json.Marshal(map[string]interface{}{
		"match_phrase": map[string]interface{}{q.Field: params},
	})
}

// Match represents a plain full-text match on a single field.
type Match struct {
	Field string
	Query string
}

func (q Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"match": map[string]interface{}{q.Field: q.Query},
	})
}

// FuzzyMatch represents a fuzzy full-text match. Operator selects between
// requiring all terms ("and") and the engine default of any term. A zero
// boost is omitted from the rendered clause.
type FuzzyMatch struct {
	Field        string
	Query        string
	Fuzziness    int
	PrefixLength int
	Operator     string
	Boost        float64
}

func (q FuzzyMatch) MarshalJSON() ([]byte, error) {
	params := map[string]interface{}{
		"query":         q.Query,
		"fuzziness":     q.Fuzziness,
		"prefix_length": q.PrefixLength,
	}
	if q.Operator != "" {
		params["operator"] = q.Operator
	}
	if q.Boost > 0 {
		params["boost"] = q.Boost
	}
	return json.Marshal(map[string]interface{}{
		"match": map[string]interface{}{q.Field: params},
	})
}

// Term represents an exact term match on a keyword field.
type Term struct {
	Field string
	Value string
}

func (q Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"term": map[string]interface{}{
			q.Field: map[string]interface{}{"value": q.Value},
		},
	})
}

// Wildcard represents a wildcard pattern match. With the "?*" pattern it
// doubles as a non-empty-field existence check.
type Wildcard struct {
	Field   string
	Pattern string
}

func (q Wildcard) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"wildcard": map[string]interface{}{q.Field: q.Pattern},
	})
}

// QueryString represents a Lucene query_string clause with fuzzy support
// against a single default field.
type QueryString struct {
	Query             string
	Fuzziness         int
	FuzzyPrefixLength int
	DefaultField      string
}

func (q QueryString) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"query_string": map[string]interface{}{
			"query":               q.Query,
			"fuzziness":           q.Fuzziness,
			"fuzzy_prefix_length": q.FuzzyPrefixLength,
			"default_field":       q.DefaultField,
		},
	})
}

// SimpleQueryString represents an operator-aware multi-field query for user
// input containing reserved query syntax.
type SimpleQueryString struct {
	Query           string
	Fields          []string
	DefaultOperator string
	Flags           string
}

func (q SimpleQueryString) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"simple_query_string": map[string]interface{}{
			"query":            q.Query,
			"fields":           q.Fields,
			"default_operator": q.DefaultOperator,
			"flags":            q.Flags,
		},
	})
}

// MatchAll matches every document in an index.
type MatchAll struct{}

func (q MatchAll) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"match_all": map[string]interface{}{},
	})
}

// BoolQuery is a compound boolean expression with the engine's four clause
// groups. Must and filter clauses gate admissibility; should clauses only
// contribute to ranking once minimum_should_match is satisfied. The filter
// group is itself a boolean expression so that post-filter reconciliation
// can union clause groups into it.
type BoolQuery struct {
	Must               []Clause
	Should             []Clause
	Filter             *BoolQuery
	MinimumShouldMatch int
}

func (b *BoolQuery) MarshalJSON() ([]byte, error) {
	inner := map[string]interface{}{}
	if b.Must != nil {
		// An empty non-nil conjunction still renders as "must": [] so that
		// unconstrained study/program lookups keep their expected shape.
		inner["must"] = b.Must
	}
	if len(b.Should) > 0 {
		inner["should"] = b.Should
	}
	if b.Filter != nil {
		inner["filter"] = b.Filter
	}
	if b.MinimumShouldMatch > 0 {
		inner["minimum_should_match"] = b.MinimumShouldMatch
	}
	return json.Marshal(map[string]interface{}{"bool": inner})
}

func (b *BoolQuery) clone() *BoolQuery {
	if b == nil {
		return nil
	}
	out := &BoolQuery{
		Must:               append([]Clause(nil), b.Must...),
		Should:             append([]Clause(nil), b.Should...),
		Filter:             b.Filter.clone(),
		MinimumShouldMatch: b.MinimumShouldMatch,
	}
	return out
}

// TermsAgg is a terms bucket aggregation over a single field.
type TermsAgg struct {
	Field string
}

func (a TermsAgg) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"terms": map[string]interface{}{"field": a.Field},
	})
}

// Body is a complete search request body: the main query plus optional
// aggregations, post filter and source field selection.
type Body struct {
	Query      Clause
	Aggs       map[string]TermsAgg
	PostFilter *BoolQuery
	Source     []string
}

func (b *Body) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if b.Query != nil {
		out["query"] = b.Query
	}
	if len(b.Aggs) > 0 {
		out["aggs"] = b.Aggs
	}
	if b.PostFilter != nil {
		out["post_filter"] = b.PostFilter
	}
	if len(b.Source) > 0 {
		out["_source"] = b.Source
	}
	return json.Marshal(out)
}
