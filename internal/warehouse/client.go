package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/user/datalake/internal/types"
)

// Client executes bounded reads and single-row event inserts.
type Client struct {
	db      *gorm.DB
	dialect string
}

// Compile-time interface compliance checks.
var (
	_ types.Warehouse      = (*Client)(nil)
	_ types.EventSink      = (*Client)(nil)
	_ types.EventReader    = (*Client)(nil)
	_ types.AnalysisReader = (*Client)(nil)
)

// New wraps an open gorm connection.
func New(db *gorm.DB, dialect string) *Client {
	return &Client{db: db, dialect: dialect}
}

// Dialect returns the SQL dialect of the underlying database.
func (c *Client) Dialect() string {
	return c.dialect
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Query runs sql wrapped in an outer LIMIT so the read is bounded no matter
// what the statement itself says, and stops scanning at maxRows.
func (c *Client) Query(ctx context.Context, sql string, maxRows int) ([]types.Row, error) {
	if maxRows <= 0 {
		return nil, types.Errorf(types.KindExecution, "warehouse.query", "max rows must be positive, got %d", maxRows)
	}
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	if inner == "" {
		return nil, types.Errorf(types.KindExecution, "warehouse.query", "empty statement")
	}
	bounded := fmt.Sprintf("SELECT * FROM (\n%s\n) AS bounded_query LIMIT %d", inner, maxRows)

	rows, err := c.db.WithContext(ctx).Raw(bounded).Rows()
	if err != nil {
		return nil, types.Wrap(types.KindExecution, "warehouse.query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, types.Wrap(types.KindExecution, "warehouse.query", err)
	}

	out := make([]types.Row, 0)
	for rows.Next() && len(out) < maxRows {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, types.Wrap(types.KindExecution, "warehouse.query", err)
		}
		row := make(types.Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Wrap(types.KindExecution, "warehouse.query", err)
	}
	return out, nil
}

// normalize converts driver byte slices into strings so rows serialize as
// JSON text rather than base64.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// AppendEvent inserts exactly one event row.
func (c *Client) AppendEvent(ctx context.Context, event *types.Event) error {
	row := eventRowFrom(event)
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return types.Wrap(types.KindWrite, "warehouse.append", err)
	}
	return nil
}

// RecentEvents returns events matching filter, newest first, capped at limit.
func (c *Client) RecentEvents(ctx context.Context, filter types.EventFilter, limit int) ([]*types.Event, error) {
	if limit <= 0 {
		return []*types.Event{}, nil
	}
	q := c.db.WithContext(ctx).Model(&EventRow{})
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since.UTC())
	}

	var rows []EventRow
	if err := q.Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("warehouse: recent events: %w", err)
	}

	events := make([]*types.Event, len(rows))
	for i, r := range rows {
		events[i] = r.toEvent()
	}
	return events, nil
}

// RecentAnalyses returns analysis records since the given time, newest first,
// capped at limit.
func (c *Client) RecentAnalyses(ctx context.Context, since time.Time, limit int) ([]types.AnalysisRecord, error) {
	if limit <= 0 {
		return []types.AnalysisRecord{}, nil
	}
	var rows []AnalysisRow
	err := c.db.WithContext(ctx).
		Where("timestamp >= ?", since.UTC()).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("warehouse: recent analyses: %w", err)
	}

	records := make([]types.AnalysisRecord, len(rows))
	for i, r := range rows {
		records[i] = r.toRecord()
	}
	return records, nil
}
