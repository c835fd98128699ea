package query

import "strings"

// matchMode selects how a relevance clause matches its field.
type matchMode int

const (
	modePhrase   matchMode = iota // exact phrase match
	modeFuzzyAnd                  // fuzzy match requiring all terms
	modeFuzzyOr                   // fuzzy match with the engine's default any-term behavior
)

// fieldSlot is a logical field position shared between search domains; the
// concrete field name differs per index.
type fieldSlot int

const (
	slotName fieldSlot = iota
	slotDescription
	slotSearchTerms
	slotOptionalTerms
)

// boostSpec fixes the weight of one relevance clause. The tables below are
// the single source of truth for clause order and boost values; they never
// vary per request.
type boostSpec struct {
	slot  fieldSlot
	mode  matchMode
	boost float64
}

// conceptBoosts drives concept search ranking.
var conceptBoosts = []boostSpec{
	{slotName, modePhrase, 10},
	{slotDescription, modePhrase, 6},
	{slotSearchTerms, modePhrase, 8},
	{slotName, modeFuzzyAnd, 4},
	{slotSearchTerms, modeFuzzyAnd, 5},
	{slotDescription, modeFuzzyAnd, 3},
	{slotDescription, modeFuzzyOr, 2},
	{slotSearchTerms, modeFuzzyOr, 1},
	{slotOptionalTerms, modeFuzzyOr, 0},
}

// variableBoosts mirrors conceptBoosts over the variable index fields, with
// an additional fuzzy-or clause on the element name.
var variableBoosts = []boostSpec{
	{slotName, modePhrase, 10},
	{slotDescription, modePhrase, 6},
	{slotSearchTerms, modePhrase, 8},
	{slotName, modeFuzzyAnd, 4},
	{slotSearchTerms, modeFuzzyAnd, 5},
	{slotDescription, modeFuzzyAnd, 3},
	{slotDescription, modeFuzzyOr, 2},
	{slotName, modeFuzzyOr, 2},
	{slotSearchTerms, modeFuzzyOr, 1},
	{slotOptionalTerms, modeFuzzyOr, 0},
}

// fieldMap binds field slots to concrete index field names.
type fieldMap map[fieldSlot]string

var conceptFields = fieldMap{
	slotName:          "name",
	slotDescription:   "description",
	slotSearchTerms:   "search_terms",
	slotOptionalTerms: "optional_terms",
}

var variableFields = fieldMap{
	slotName:          "element_name",
	slotDescription:   "element_desc",
	slotSearchTerms:   "search_terms",
	slotOptionalTerms: "optional_terms",
}

// relevanceClauses expands a boost table into should clauses for the given
// query text. The clause order and boosts come entirely from the table.
func relevanceClauses(fields fieldMap, table []boostSpec, text string, fuzziness, prefixLength int) []Clause {
	clauses := make([]Clause, 0, len(table))
	for _, spec := range table {
		field := fields[spec.slot]
		switch spec.mode {
		case modePhrase:
			clauses = append(clauses, MatchPhrase{Field: field, Query: text, Boost: spec.boost})
		case modeFuzzyAnd:
			clauses = append(clauses, FuzzyMatch{
				Field:        field,
				Query:        text,
				Fuzziness:    fuzziness,
				PrefixLength: prefixLength,
				Operator:     "and",
				Boost:        spec.boost,
			})
		case modeFuzzyOr:
			clauses = append(clauses, FuzzyMatch{
				Field:        field,
				Query:        text,
				Fuzziness:    fuzziness,
				PrefixLength: prefixLength,
				Boost:        spec.boost,
			})
		}
	}
	return clauses
}

// ContainsOperators reports whether the query text uses reserved search
// syntax and must take the operator-aware query path.
func ContainsOperators(text string) bool {
	return strings.ContainsAny(text, `*"+-`)
}

// Concepts compiles a weighted concept search. The filter group requires a
// non-empty name and description so partially indexed documents never match,
// independent of ranking.
func Concepts(text string, fuzziness, prefixLength int) *Body {
	return &Body{
		Query: &BoolQuery{
			Filter: &BoolQuery{
				Must: []Clause{
					Wildcard{Field: "description", Pattern: "?*"},
					Wildcard{Field: "name", Pattern: "?*"},
				},
			},
			Should:             relevanceClauses(conceptFields, conceptBoosts, text, fuzziness, prefixLength),
			MinimumShouldMatch: 1,
		},
	}
}

// Variables compiles a weighted variable search. A non-empty concept scope
// becomes a hard must constraint on the identifiers field; the should
// clauses only rank.
func Variables(concept, text string, fuzziness, prefixLength int) *Body {
	bq := &BoolQuery{
		Should: relevanceClauses(variableFields, variableBoosts, text, fuzziness, prefixLength),
	}
	if concept != "" {
		bq.Must = []Clause{Match{Field: "identifiers", Query: concept}}
	}
	return &Body{Query: bq}
}

// Simple compiles an operator-aware query for text containing reserved
// syntax characters. Boosted phrase and fuzzy clauses do not compose safely
// with user-supplied boolean operators, so this path bypasses them.
func Simple(text string) *Body {
	return &Body{
		Query: SimpleQueryString{
			Query:           text,
			Fields:          []string{"name", "description", "search_terms"},
			DefaultOperator: "and",
			Flags:           "OR|AND|NOT|PHRASE|PREFIX",
		},
	}
}

// KnowledgeGraph compiles a knowledge graph search: the entity scope and the
// fuzzy query string are both mandatory constraints.
func KnowledgeGraph(uniqueID, text string, fuzziness, prefixLength int) *Body {
	return &Body{
		Query: &BoolQuery{
			Must: []Clause{
				Term{Field: "concept_id.keyword", Value: uniqueID},
				QueryString{
					Query:             text,
					Fuzziness:         fuzziness,
					FuzzyPrefixLength: prefixLength,
					DefaultField:      "search_targets",
				},
			},
		},
	}
}

// Studies compiles a study lookup from whichever of id and name were
// supplied. Empty inputs add no constraint.
func Studies(studyID, studyName string) *Body {
	bq := &BoolQuery{Must: []Clause{}}
	if studyID != "" {
		bq.Must = append(bq.Must, Match{Field: "collection_id", Query: studyID})
	}
	if studyName != "" {
		bq.Must = append(bq.Must, Match{Field: "collection_name", Query: studyName})
	}
	return &Body{Query: bq}
}

// Programs compiles a program lookup with a bucketed aggregation over the
// collection ids, read back by the caller for summarization.
func Programs(programName string) *Body {
	bq := &BoolQuery{Must: []Clause{}}
	if programName != "" {
		bq.Must = append(bq.Must, Match{Field: "data_type", Query: programName})
	}
	return &Body{
		Query: bq,
		Aggs: map[string]TermsAgg{
			"unique_collection_ids": {Field: "collection_id.keyword"},
		},
		Source: []string{"collection_id", "collection_name", "collection_action"},
	}
}

// All compiles a match-all body for index dumps.
func All() *Body {
	return &Body{Query: MatchAll{}}
}

// DataTypes compiles an aggregation-only body bucketing variables by data
// type.
func DataTypes() *Body {
	return &Body{
		Aggs: map[string]TermsAgg{
			"data_type": {Field: "data_type.keyword"},
		},
	}
}
