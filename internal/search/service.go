// Package search runs ranked cross-table search over the searchable subset
// of the warehouse.
package search

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/user/datalake/internal/translate"
	"github.com/user/datalake/internal/types"
)

const (
	DefaultMaxResults    = 20
	DefaultTimeRangeDays = 30
)

var tracer = otel.Tracer("github.com/user/datalake/internal/search")

// Translator turns a search request into a ranking query.
type Translator interface {
	Translate(ctx context.Context, req types.SearchRequest) (string, error)
}

// Options tune a Service.
type Options struct {
	// StrictFilters re-applies the source and time window to returned hits.
	StrictFilters bool
	// Now is used for the time window. Defaults to time.Now.
	Now func() time.Time
}

// Service orchestrates the search translator and the warehouse.
type Service struct {
	translator Translator
	warehouse  types.Warehouse
	logger     *slog.Logger
	opts       Options
}

// New creates a search service.
func New(translator Translator, warehouse types.Warehouse, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{translator: translator, warehouse: warehouse, logger: logger, opts: opts}
}

// WithDefaults fills unset fields of req.
func WithDefaults(req types.SearchRequest) types.SearchRequest {
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.TimeRangeDays <= 0 {
		req.TimeRangeDays = DefaultTimeRangeDays
	}
	if req.Sources == nil {
		req.Sources = []string{}
	}
	return req
}

// Search never returns an error; failures are reported in SearchResult.Error
// with no hits.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) types.SearchResult {
	start := time.Now()
	req = WithDefaults(req)

	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("search.max_results", req.MaxResults),
		attribute.StringSlice("search.sources", req.Sources),
		attribute.Int("search.time_range_days", req.TimeRangeDays),
	)

	hits, err := s.run(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("search failed",
			"kind", types.KindOf(err),
			"error", err,
			"duration_ms", elapsed,
		)
		return types.SearchResult{
			Query:          req.Query,
			Hits:           []types.SearchHit{},
			TotalHits:      0,
			ExecutionMs:    elapsed,
			TablesSearched: []string{},
			Error:          err.Error(),
		}
	}

	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	s.logger.Info("search complete", "hits", len(hits), "duration_ms", elapsed)
	return types.SearchResult{
		Query:          req.Query,
		Hits:           hits,
		TotalHits:      len(hits),
		ExecutionMs:    elapsed,
		TablesSearched: tablesSearched(hits),
	}
}

func (s *Service) run(ctx context.Context, req types.SearchRequest) ([]types.SearchHit, error) {
	sql, err := s.translator.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	sql, err = translate.Guard(sql)
	if err != nil {
		return nil, err
	}

	rows, err := s.warehouse.Query(ctx, sql, req.MaxResults)
	if err != nil {
		if types.KindOf(err) == "" {
			err = types.Wrap(types.KindExecution, "search", err)
		}
		return nil, err
	}

	hits := make([]types.SearchHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, hitFromRow(row))
	}

	if s.opts.StrictFilters {
		since := s.opts.Now().AddDate(0, 0, -req.TimeRangeDays)
		hits = applyHardFilters(hits, req.Sources, since)
		slices.SortStableFunc(hits, func(a, b types.SearchHit) int {
			switch {
			case a.RelevanceScore > b.RelevanceScore:
				return -1
			case a.RelevanceScore < b.RelevanceScore:
				return 1
			}
			return 0
		})
	}
	if len(hits) > req.MaxResults {
		hits = hits[:req.MaxResults]
	}
	return hits, nil
}

// tablesSearched returns the distinct non-null tables in first-seen order.
func tablesSearched(hits []types.SearchHit) []string {
	tables := []string{}
	seen := make(map[string]bool)
	for _, h := range hits {
		if h.Table == nil || seen[*h.Table] {
			continue
		}
		seen[*h.Table] = true
		tables = append(tables, *h.Table)
	}
	return tables
}
