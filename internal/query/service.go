// Package query answers natural-language questions against the warehouse.
package query

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/user/datalake/internal/translate"
	"github.com/user/datalake/internal/types"
)

// DefaultMaxRows caps a query when the request does not set MaxRows.
const DefaultMaxRows = 100

var tracer = otel.Tracer("github.com/user/datalake/internal/query")

// Translator turns a question into SQL.
type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

// Service orchestrates translation, validation and bounded execution.
type Service struct {
	translator Translator
	warehouse  types.Warehouse
	logger     *slog.Logger
}

// New creates a query service.
func New(translator Translator, warehouse types.Warehouse, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{translator: translator, warehouse: warehouse, logger: logger}
}

// Query never returns an error; failures are reported in QueryResult.Error
// with no rows and an empty GeneratedSQL.
func (s *Service) Query(ctx context.Context, req types.QueryRequest) types.QueryResult {
	start := time.Now()
	maxRows := req.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	ctx, span := tracer.Start(ctx, "query.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("query.max_rows", maxRows))

	sql, rows, err := s.run(ctx, req.Question, maxRows)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("query failed",
			"kind", types.KindOf(err),
			"error", err,
			"duration_ms", elapsed,
		)
		return types.QueryResult{
			Question:     req.Question,
			GeneratedSQL: "",
			Rows:         []types.Row{},
			TotalRows:    0,
			ExecutionMs:  elapsed,
			Error:        err.Error(),
		}
	}

	span.SetAttributes(attribute.Int("query.rows", len(rows)))
	s.logger.Info("query complete", "rows", len(rows), "duration_ms", elapsed)
	return types.QueryResult{
		Question:     req.Question,
		GeneratedSQL: sql,
		Rows:         rows,
		TotalRows:    len(rows),
		ExecutionMs:  elapsed,
	}
}

func (s *Service) run(ctx context.Context, question string, maxRows int) (string, []types.Row, error) {
	sql, err := s.translator.Translate(ctx, question)
	if err != nil {
		return "", nil, err
	}
	sql, err = translate.Guard(sql)
	if err != nil {
		return "", nil, err
	}
	s.logger.Debug("executing generated sql", "sql", sql)

	rows, err := s.warehouse.Query(ctx, sql, maxRows)
	if err != nil {
		if types.KindOf(err) == "" {
			err = types.Wrap(types.KindExecution, "query", err)
		}
		return "", nil, err
	}
	if rows == nil {
		rows = []types.Row{}
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return sql, rows, nil
}
