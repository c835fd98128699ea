package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/yskale/dug/internal/types"
)

// Hit is a single raw document returned by the engine.
type Hit struct {
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score,omitempty"`
	Source json.RawMessage `json:"_source"`
}

// Bucket is one entry of a terms aggregation reply.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// Response is the simplified engine search reply consumed by the facade.
type Response struct {
	Total        int                 `json:"total"`
	Hits         []Hit               `json:"hits"`
	Aggregations map[string][]Bucket `json:"aggregations,omitempty"`
}

// SearchOptions carries pagination for a search call. Nil pointers leave the
// engine defaults in place; an explicit zero size is passed through as zero.
type SearchOptions struct {
	From *int
	Size *int
}

// ErrStopScan halts a Scan early without reporting an error.
var ErrStopScan = errors.New("stop scan")

const (
	scanBatchSize   = 1000
	scrollKeepAlive = time.Minute
)

// Count returns the number of documents in the index matching the body.
func (c *Client) Count(ctx context.Context, index string, body any) (int, error) {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return 0, NewSearchError(types.ErrorTypeValidation, fmt.Sprintf("failed to marshal count body: %v", err))
	}

	var count int
	operation := func() error {
		if err := c.WaitForRateLimit(ctx); err != nil {
			return fmt.Errorf("rate limit error: %w", err)
		}

		resp, err := c.client.Indices.Count(ctx, &opensearchapi.IndicesCountReq{
			Indices: []string{index},
			Body:    bytes.NewReader(bodyJSON),
		})
		if err != nil {
			return ClassifyConnectionError(err)
		}
		if resp == nil {
			return NewSearchError(types.ErrorTypeResponse, "received nil count response from OpenSearch")
		}

		count = resp.Count
		return nil
	}

	if err := c.ExecuteWithRetry(ctx, operation, "Count"); err != nil {
		return 0, err
	}
	return count, nil
}

// Search executes the body against the index and maps the reply into the
// simplified Response shape.
func (c *Client) Search(ctx context.Context, index string, body any, opts *SearchOptions) (*Response, error) {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, NewSearchError(types.ErrorTypeValidation, fmt.Sprintf("failed to marshal search body: %v", err))
	}

	params := opensearchapi.SearchParams{}
	if opts != nil {
		params.From = opts.From
		params.Size = opts.Size
	}

	startTime := time.Now()
	var result *Response

	operation := func() error {
		if err := c.WaitForRateLimit(ctx); err != nil {
			return fmt.Errorf("rate limit error: %w", err)
		}

		searchResp, err := c.client.Search(ctx, &opensearchapi.SearchReq{
			Indices: []string{index},
			Body:    bytes.NewReader(bodyJSON),
			Params:  params,
		})
		if err != nil {
			return ClassifyConnectionError(err)
		}
		if searchResp == nil {
			return NewSearchError(types.ErrorTypeResponse, "received nil response from OpenSearch")
		}

		resp := &Response{
			Total: searchResp.Hits.Total.Value,
			Hits:  convertHits(searchResp.Hits.Hits),
		}

		if len(searchResp.Aggregations) > 0 {
			aggs, err := parseAggregations(searchResp.Aggregations)
			if err != nil {
				return err
			}
			resp.Aggregations = aggs
		}

		result = resp
		return nil
	}

	if err := c.ExecuteWithRetry(ctx, operation, "Search"); err != nil {
		return nil, err
	}

	log.Printf("search on %s completed in %v, %d total hits", index, time.Since(startTime), result.Total)
	return result, nil
}

// Scan iterates every document matching the body via the scroll API and
// invokes fn per hit, in batches of scanBatchSize. Returning ErrStopScan
// from fn halts the scan without error. The iteration is lazy per batch;
// a new call always restarts from the beginning.
func (c *Client) Scan(ctx context.Context, index string, body any, fn func(Hit) error) error {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return NewSearchError(types.ErrorTypeValidation, fmt.Sprintf("failed to marshal scan body: %v", err))
	}

	if err := c.WaitForRateLimit(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	batch := scanBatchSize
	searchResp, err := c.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    bytes.NewReader(bodyJSON),
		Params: opensearchapi.SearchParams{
			Size:   &batch,
			Scroll: scrollKeepAlive,
		},
	})
	if err != nil {
		return ClassifyConnectionError(err)
	}
	if searchResp == nil || searchResp.ScrollID == nil {
		return NewSearchError(types.ErrorTypeResponse, "scroll request returned no scroll id")
	}

	scrollID := *searchResp.ScrollID
	defer func() {
		_, err := c.client.Scroll.Delete(context.WithoutCancel(ctx), opensearchapi.ScrollDeleteReq{
			ScrollIDs: []string{scrollID},
		})
		if err != nil {
			log.Printf("failed to clear scroll context: %v", err)
		}
	}()

	hits := convertHits(searchResp.Hits.Hits)
	for {
		for _, hit := range hits {
			if err := fn(hit); err != nil {
				if errors.Is(err, ErrStopScan) {
					return nil
				}
				return err
			}
		}
		if len(hits) == 0 {
			return nil
		}

		if err := c.WaitForRateLimit(ctx); err != nil {
			return fmt.Errorf("rate limit error: %w", err)
		}

		scrollResp, err := c.client.Scroll.Get(ctx, opensearchapi.ScrollGetReq{
			ScrollID: scrollID,
			Params: opensearchapi.ScrollGetParams{
				Scroll: scrollKeepAlive,
			},
		})
		if err != nil {
			return ClassifyConnectionError(err)
		}
		if scrollResp.ScrollID != nil {
			scrollID = *scrollResp.ScrollID
		}
		hits = convertHits(scrollResp.Hits.Hits)
	}
}

func convertHits(in []opensearchapi.SearchHit) []Hit {
	hits := make([]Hit, len(in))
	for i, hit := range in {
		score := float64(hit.Score)
		hits[i] = Hit{
			ID:     hit.ID,
			Score:  &score,
			Source: hit.Source,
		}
	}
	return hits
}

// parseAggregations maps a raw aggregations reply into per-name term
// buckets. A malformed reply is a collaborator contract violation.
func parseAggregations(raw json.RawMessage) (map[string][]Bucket, error) {
	var decoded map[string]struct {
		Buckets []Bucket `json:"buckets"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, NewSearchError(types.ErrorTypeResponse, fmt.Sprintf("failed to parse aggregations: %v", err))
	}

	aggs := make(map[string][]Bucket, len(decoded))
	for name, entry := range decoded {
		aggs[name] = entry.Buckets
	}
	return aggs, nil
}
