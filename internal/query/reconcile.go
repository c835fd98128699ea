package query

// CountBody derives the body for an accurate total-count request from a
// search body. Aggregations and source selection are never valid on a count
// request and are stripped. A post filter limits returned hits without
// narrowing aggregation buckets, so for counting it has to apply before
// evaluation instead: its clause groups are unioned into the main query's
// filter group and the post filter itself dropped.
func (b *Body) CountBody() *Body {
	out := &Body{Query: b.Query}
	if b.PostFilter == nil {
		return out
	}

	bq, ok := b.Query.(*BoolQuery)
	if !ok {
		// The operator-aware path compiles a bare simple_query_string; give
		// it a bool wrapper so the post filter has a filter group to land in.
		bq = &BoolQuery{Must: []Clause{b.Query}}
	}
	merged := bq.clone()
	if merged.Filter == nil {
		merged.Filter = &BoolQuery{}
	}
	merged.Filter.mergeFrom(b.PostFilter)

	out.Query = merged
	return out
}

// mergeFrom unions another bool query's clause groups into this one.
func (b *BoolQuery) mergeFrom(other *BoolQuery) {
	if other == nil {
		return
	}
	b.Must = append(b.Must, other.Must...)
	b.Should = append(b.Should, other.Should...)
	if other.MinimumShouldMatch > 0 {
		b.MinimumShouldMatch = other.MinimumShouldMatch
	}
	if other.Filter != nil {
		if b.Filter == nil {
			b.Filter = &BoolQuery{}
		}
		b.Filter.mergeFrom(other.Filter)
	}
}
