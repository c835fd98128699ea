// Package search orchestrates query compilation, count reconciliation and
// result reshaping on top of the search engine collaborator.
package search

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yskale/dug/internal/opensearch"
	"github.com/yskale/dug/internal/query"
	"github.com/yskale/dug/internal/result"
	"github.com/yskale/dug/internal/types"
)

var tracer = otel.Tracer("dug/search")

// Engine is the narrow capability contract this service consumes from the
// search engine collaborator. The concrete client is safe for concurrent
// independent calls.
type Engine interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context, index string, body any) (int, error)
	Search(ctx context.Context, index string, body any, opts *opensearch.SearchOptions) (*opensearch.Response, error)
	Scan(ctx context.Context, index string, body any, fn func(opensearch.Hit) error) error
}

// Service compiles search requests, issues them against the engine and
// reshapes the replies. The engine handle is injected once and shared
// read-only across concurrent calls; all other state is request-scoped.
type Service struct {
	engine         Engine
	conceptsIndex  string
	variablesIndex string
	kgIndex        string
	fuzziness      int
	prefixLength   int
}

// NewService creates a search service over the given engine handle.
func NewService(engine Engine, cfg *types.Config) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Service{
		engine:         engine,
		conceptsIndex:  cfg.ConceptsIndex,
		variablesIndex: cfg.VariablesIndex,
		kgIndex:        cfg.KGIndex,
		fuzziness:      cfg.SearchFuzziness,
		prefixLength:   cfg.SearchPrefixLength,
	}, nil
}

// ConceptQuery is a concept search request. Types, when non-nil, limits
// returned hits by concept type without affecting the type-count buckets.
// A nil Size leaves the engine's page size default in place.
type ConceptQuery struct {
	Query  string
	Types  []string
	Offset int
	Size   *int
}

// ConceptResults carries the raw ranked hits plus the reconciled total and
// the per-type document counts from the aggregation reply.
type ConceptResults struct {
	Hits         []opensearch.Hit `json:"hits"`
	TotalItems   int              `json:"total_items"`
	ConceptTypes map[string]int   `json:"concept_types"`
}

// SearchConcepts runs a weighted concept search. Queries containing reserved
// operator syntax take the operator-aware path instead of the boosted clause
// set. The total count and the paginated search are independent and issued
// concurrently.
func (s *Service) SearchConcepts(ctx context.Context, req ConceptQuery) (*ConceptResults, error) {
	ctx, span := tracer.Start(ctx, "search.concepts",
		trace.WithAttributes(attribute.String("search.query", req.Query)))
	defer span.End()

	var body *query.Body
	if query.ContainsOperators(req.Query) {
		body = query.Simple(req.Query)
	} else {
		body = query.Concepts(req.Query, s.fuzziness, s.prefixLength)
	}

	body.Aggs = map[string]query.TermsAgg{"type-count": {Field: "type"}}

	if req.Types != nil {
		should := make([]query.Clause, 0, len(req.Types))
		for _, t := range req.Types {
			should = append(should, query.Term{Field: "type", Value: t})
		}
		body.PostFilter = &query.BoolQuery{Should: should, MinimumShouldMatch: 1}
	}

	// The post filter keeps type-count buckets intact on the search reply;
	// the count request folds it into the main filter instead.
	countBody := body.CountBody()

	var resp *opensearch.Response
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.engine.Search(gctx, s.conceptsIndex, body, &opensearch.SearchOptions{
			From: &req.Offset,
			Size: req.Size,
		})
		resp = r
		return err
	})
	g.Go(func() error {
		n, err := s.engine.Count(gctx, s.conceptsIndex, countBody)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, err)
	}

	buckets, ok := resp.Aggregations["type-count"]
	if !ok {
		return nil, s.fail(span, fmt.Errorf("search response missing type-count aggregation"))
	}
	conceptTypes := make(map[string]int, len(buckets))
	for _, bucket := range buckets {
		conceptTypes[bucket.Key] = bucket.DocCount
	}

	span.SetAttributes(attribute.Int("search.total_items", total))
	return &ConceptResults{
		Hits:         resp.Hits,
		TotalItems:   total,
		ConceptTypes: conceptTypes,
	}, nil
}

// VariableQuery is a variable search request. A non-empty Concept restricts
// matches to variables whose identifiers contain it; DataType filters the
// reshaped output to one data type.
type VariableQuery struct {
	Concept  string
	Query    string
	DataType string
	Offset   int
	Size     *int
}

// SearchVariables runs a ranked variable search and returns the grouped,
// score-annotated result.
func (s *Service) SearchVariables(ctx context.Context, req VariableQuery) (*result.VariableResults, error) {
	ctx, span := tracer.Start(ctx, "search.variables",
		trace.WithAttributes(
			attribute.String("search.query", req.Query),
			attribute.String("search.concept", req.Concept),
		))
	defer span.End()

	body := query.Variables(req.Concept, req.Query, s.fuzziness, s.prefixLength)

	var resp *opensearch.Response
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.engine.Search(gctx, s.variablesIndex, body, &opensearch.SearchOptions{
			From: &req.Offset,
			Size: req.Size,
		})
		resp = r
		return err
	})
	g.Go(func() error {
		n, err := s.engine.Count(gctx, s.variablesIndex, body.CountBody())
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, err)
	}

	reshaped, err := result.Reshape(req.DataType, resp.Hits, total, true)
	if err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.Int("search.total_items", total))
	return reshaped, nil
}

// SearchVariablesUnscored runs a variable search over every matching
// document via a scrolling read, without pagination or relevance scores.
func (s *Service) SearchVariablesUnscored(ctx context.Context, req VariableQuery) (*result.VariableResults, error) {
	ctx, span := tracer.Start(ctx, "search.variables_unscored",
		trace.WithAttributes(
			attribute.String("search.query", req.Query),
			attribute.String("search.concept", req.Concept),
		))
	defer span.End()

	body := query.Variables(req.Concept, req.Query, s.fuzziness, s.prefixLength)

	total, err := s.engine.Count(ctx, s.variablesIndex, body.CountBody())
	if err != nil {
		return nil, s.fail(span, err)
	}

	var hits []opensearch.Hit
	err = s.engine.Scan(ctx, s.variablesIndex, body, func(hit opensearch.Hit) error {
		hits = append(hits, hit)
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	reshaped, err := result.Reshape(req.DataType, hits, total, false)
	if err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.Int("search.total_items", total))
	return reshaped, nil
}

// KGQuery is a knowledge graph search request scoped to one entity.
type KGQuery struct {
	UniqueID string
	Query    string
	Offset   int
	Size     *int
}

// KGResults carries knowledge graph hits plus the total count.
type KGResults struct {
	Hits       []opensearch.Hit `json:"hits"`
	TotalItems int              `json:"total_items"`
}

// SearchKG runs a knowledge graph search: both the entity scope and the
// query string are mandatory constraints.
func (s *Service) SearchKG(ctx context.Context, req KGQuery) (*KGResults, error) {
	ctx, span := tracer.Start(ctx, "search.kg",
		trace.WithAttributes(
			attribute.String("search.query", req.Query),
			attribute.String("search.unique_id", req.UniqueID),
		))
	defer span.End()

	body := query.KnowledgeGraph(req.UniqueID, req.Query, s.fuzziness, s.prefixLength)

	var resp *opensearch.Response
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.engine.Search(gctx, s.kgIndex, body, &opensearch.SearchOptions{
			From: &req.Offset,
			Size: req.Size,
		})
		resp = r
		return err
	})
	g.Go(func() error {
		n, err := s.engine.Count(gctx, s.kgIndex, body.CountBody())
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.Int("search.total_items", total))
	return &KGResults{Hits: resp.Hits, TotalItems: total}, nil
}

// StudyQuery is a study lookup; empty fields add no constraint.
type StudyQuery struct {
	StudyID   string
	StudyName string
	Offset    int
	Size      *int
}

// StudyResults carries study hits plus the total count.
type StudyResults struct {
	Hits       []opensearch.Hit `json:"hits"`
	TotalItems int              `json:"total_items"`
}

// SearchStudies looks up studies by id and/or name.
func (s *Service) SearchStudies(ctx context.Context, req StudyQuery) (*StudyResults, error) {
	ctx, span := tracer.Start(ctx, "search.studies")
	defer span.End()

	body := query.Studies(req.StudyID, req.StudyName)

	var resp *opensearch.Response
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.engine.Search(gctx, s.variablesIndex, body, &opensearch.SearchOptions{
			From: &req.Offset,
			Size: req.Size,
		})
		resp = r
		return err
	})
	g.Go(func() error {
		n, err := s.engine.Count(gctx, s.variablesIndex, body.CountBody())
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.Int("search.total_items", total))
	return &StudyResults{Hits: resp.Hits, TotalItems: total}, nil
}

// ProgramQuery is a program lookup; an empty name matches every program.
type ProgramQuery struct {
	ProgramName string
	Offset      int
	Size        *int
}

// ProgramResults carries program hits plus the per-collection bucket counts
// summarized from the aggregation reply.
type ProgramResults struct {
	Hits        []opensearch.Hit    `json:"hits"`
	Collections []opensearch.Bucket `json:"collections"`
}

// SearchPrograms looks up programs and summarizes the unique collection id
// buckets the engine aggregated alongside the hits.
func (s *Service) SearchPrograms(ctx context.Context, req ProgramQuery) (*ProgramResults, error) {
	ctx, span := tracer.Start(ctx, "search.programs",
		trace.WithAttributes(attribute.String("search.program", req.ProgramName)))
	defer span.End()

	body := query.Programs(req.ProgramName)

	resp, err := s.engine.Search(ctx, s.variablesIndex, body, &opensearch.SearchOptions{
		From: &req.Offset,
		Size: req.Size,
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	collections, ok := resp.Aggregations["unique_collection_ids"]
	if !ok {
		return nil, s.fail(span, fmt.Errorf("search response missing unique_collection_ids aggregation"))
	}

	return &ProgramResults{Hits: resp.Hits, Collections: collections}, nil
}

// DumpResults carries a full index dump plus the index document total.
type DumpResults struct {
	Hits       []opensearch.Hit `json:"hits"`
	TotalItems int              `json:"total_items"`
}

// DumpConcepts reads every document of the index through a scrolling read.
// A nil limit dumps everything; an explicit zero dumps nothing; a positive
// limit stops after that many documents. The empty index name falls back to
// the concepts index.
func (s *Service) DumpConcepts(ctx context.Context, index string, limit *int) (*DumpResults, error) {
	ctx, span := tracer.Start(ctx, "search.dump_concepts")
	defer span.End()

	if index == "" {
		index = s.conceptsIndex
	}

	start := time.Now()
	body := query.All()

	if err := s.engine.Ping(ctx); err != nil {
		return nil, s.fail(span, err)
	}

	total, err := s.engine.Count(ctx, index, body)
	if err != nil {
		return nil, s.fail(span, err)
	}

	results := &DumpResults{TotalItems: total}
	if limit == nil || *limit > 0 {
		err = s.engine.Scan(ctx, index, body, func(hit opensearch.Hit) error {
			results.Hits = append(results.Hits, hit)
			if limit != nil && len(results.Hits) >= *limit {
				return opensearch.ErrStopScan
			}
			return nil
		})
		if err != nil {
			return nil, s.fail(span, err)
		}
	}

	log.Printf("dumped %d/%d documents from %s in %v",
		len(results.Hits), total, index, time.Since(start))
	span.SetAttributes(attribute.Int("search.total_items", total))
	return results, nil
}

// AggDataTypes returns the distinct data type labels of the variables index,
// in the engine's bucket order.
func (s *Service) AggDataTypes(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "search.agg_data_types")
	defer span.End()

	size := 0
	resp, err := s.engine.Search(ctx, s.variablesIndex, query.DataTypes(), &opensearch.SearchOptions{
		Size: &size,
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	buckets, ok := resp.Aggregations["data_type"]
	if !ok {
		return nil, s.fail(span, fmt.Errorf("search response missing data_type aggregation"))
	}

	dataTypes := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		dataTypes = append(dataTypes, bucket.Key)
	}
	return dataTypes, nil
}

// Ping reports engine reachability.
func (s *Service) Ping(ctx context.Context) error {
	return s.engine.Ping(ctx)
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
