// Package result reshapes flat variable hit lists into the grouped,
// flattened structure consumed by variable search callers.
package result

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/yskale/dug/internal/opensearch"
)

// Element is a single variable entry within a collection.
type Element struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Link        string   `json:"e_link"`
	Score       *float64 `json:"score,omitempty"`
}

// Collection groups the elements of one collection within a data type.
type Collection struct {
	ID       string     `json:"c_id"`
	Link     string     `json:"c_link"`
	Name     string     `json:"c_name"`
	Elements []*Element `json:"elements"`
}

// VariableResults is the two-level grouped variable search result: data type
// label to insertion-ordered collections, plus the engine-side total count.
// The JSON form spreads the data type keys at the top level next to
// total_items.
type VariableResults struct {
	DataTypes  map[string][]*Collection
	TotalItems int

	typeOrder []string
}

func (r *VariableResults) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.DataTypes)+1)
	for dataType, collections := range r.DataTypes {
		out[dataType] = collections
	}
	out["total_items"] = r.TotalItems
	return json.Marshal(out)
}

// variableSource is the fixed source field contract of a variable hit.
type variableSource struct {
	ElementID        string `json:"element_id"`
	ElementName      string `json:"element_name"`
	ElementDesc      string `json:"element_desc"`
	ElementAction    string `json:"element_action"`
	CollectionID     string `json:"collection_id"`
	CollectionName   string `json:"collection_name"`
	CollectionAction string `json:"collection_action"`
	DataType         string `json:"data_type"`
}

// Reshape groups variable hits by data type and collection. Buckets are
// created on first sight and hits appended in arrival order; any ranking
// already happened engine-side. Duplicate (data type, collection, element)
// hits are appended, never merged. When scored is set, each element carries
// its relevance score rounded to six decimal places. A dataType filter keeps
// only that data type's collections; a filter with no match yields just the
// total count. Empty input is never an error.
func Reshape(dataType string, hits []opensearch.Hit, totalItems int, scored bool) (*VariableResults, error) {
	results := &VariableResults{TotalItems: totalItems}
	if len(hits) == 0 {
		return results, nil
	}

	grouped := make(map[string]map[string]*Collection)
	collectionOrder := make(map[string][]string)

	for _, hit := range hits {
		var src variableSource
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, fmt.Errorf("malformed variable hit %q: %w", hit.ID, err)
		}
		if src.DataType == "" || src.CollectionID == "" {
			return nil, fmt.Errorf("variable hit %q missing data_type or collection_id", hit.ID)
		}

		element := &Element{
			ID:          src.ElementID,
			Name:        src.ElementName,
			Description: src.ElementDesc,
			Link:        src.ElementAction,
		}
		if scored && hit.Score != nil {
			score := math.Round(*hit.Score*1e6) / 1e6
			element.Score = &score
		}

		collections, ok := grouped[src.DataType]
		if !ok {
			collections = make(map[string]*Collection)
			grouped[src.DataType] = collections
			results.typeOrder = append(results.typeOrder, src.DataType)
		}

		collection, ok := collections[src.CollectionID]
		if !ok {
			collection = &Collection{
				ID:   src.CollectionID,
				Link: src.CollectionAction,
				Name: src.CollectionName,
			}
			collections[src.CollectionID] = collection
			collectionOrder[src.DataType] = append(collectionOrder[src.DataType], src.CollectionID)
		}
		collection.Elements = append(collection.Elements, element)
	}

	// Flatten collection maps to first-insertion-ordered lists.
	results.DataTypes = make(map[string][]*Collection, len(grouped))
	for _, dt := range results.typeOrder {
		collections := make([]*Collection, 0, len(grouped[dt]))
		for _, collID := range collectionOrder[dt] {
			collections = append(collections, grouped[dt][collID])
		}
		results.DataTypes[dt] = collections
	}

	if dataType != "" {
		filtered, ok := results.DataTypes[dataType]
		if !ok {
			return &VariableResults{TotalItems: totalItems}, nil
		}
		results.DataTypes = map[string][]*Collection{dataType: filtered}
		results.typeOrder = []string{dataType}
	}

	return results, nil
}
