package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/user/datalake/internal/types"
)

type stubTranslator struct {
	sql string
	err error
	req types.SearchRequest
}

func (s *stubTranslator) Translate(_ context.Context, req types.SearchRequest) (string, error) {
	s.req = req
	return s.sql, s.err
}

type stubWarehouse struct {
	rows    []types.Row
	err     error
	maxRows int
	calls   int
}

func (s *stubWarehouse) Query(_ context.Context, _ string, maxRows int) ([]types.Row, error) {
	s.calls++
	s.maxRows = maxRows
	return s.rows, s.err
}

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestService(tr Translator, wh types.Warehouse, strict bool) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(tr, wh, logger, Options{StrictFilters: strict, Now: func() time.Time { return now }})
}

const rankingSQL = "SELECT event_id, timestamp, source, event_type, subject, snippet, 0.9 AS relevance_score, 'events' AS table_name FROM events ORDER BY relevance_score DESC LIMIT 20"

func TestSearchPricingScenario(t *testing.T) {
	wh := &stubWarehouse{rows: []types.Row{
		{"event_id": "e1", "source": "gmail", "subject": "Pricing update", "relevance_score": 0.9, "table_name": "events"},
		{"event_id": "e2", "source": "gmail", "subject": "Re: pricing", "relevance_score": 0.4, "table_name": "events"},
	}}
	tr := &stubTranslator{sql: rankingSQL}
	svc := newTestService(tr, wh, false)

	res := svc.Search(context.Background(), types.SearchRequest{Query: "pricing", Sources: []string{"gmail"}, TimeRangeDays: 7})
	if res.Error != "" {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if res.TotalHits != 2 || len(res.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %d/%d", res.TotalHits, len(res.Hits))
	}
	if !slices.Equal(res.TablesSearched, []string{"events"}) {
		t.Errorf("expected tablesSearched [events], got %v", res.TablesSearched)
	}
	if res.Hits[0].RelevanceScore != 0.9 || res.Hits[1].RelevanceScore != 0.4 {
		t.Errorf("unexpected scores %v, %v", res.Hits[0].RelevanceScore, res.Hits[1].RelevanceScore)
	}
	if tr.req.TimeRangeDays != 7 || tr.req.MaxResults != DefaultMaxResults {
		t.Errorf("unexpected request passed to translator %+v", tr.req)
	}
	if wh.maxRows != DefaultMaxResults {
		t.Errorf("expected warehouse cap %d, got %d", DefaultMaxResults, wh.maxRows)
	}
}

func TestSearchDefaults(t *testing.T) {
	req := WithDefaults(types.SearchRequest{Query: "x"})
	if req.MaxResults != 20 || req.TimeRangeDays != 30 || req.Sources == nil {
		t.Errorf("unexpected defaults %+v", req)
	}
}

func TestSearchHitCoercion(t *testing.T) {
	wh := &stubWarehouse{rows: []types.Row{
		{"eventId": "e1", "relevanceScore": "0.75", "table": "events"},
		{"event_id": "e2", "relevance_score": "n/a", "subject": nil, "table_name": "ai_analysis"},
		{"event_id": "e3", "relevance_score": int64(3), "table_name": "events"},
		{"event_id": []byte("e4"), "timestamp": now, "table_name": "events"},
	}}
	svc := newTestService(&stubTranslator{sql: rankingSQL}, wh, false)

	res := svc.Search(context.Background(), types.SearchRequest{Query: "q"})
	if res.Error != "" {
		t.Fatal(res.Error)
	}
	if res.Hits[0].RelevanceScore != 0.75 || *res.Hits[0].EventID != "e1" {
		t.Errorf("camelCase row not mapped: %+v", res.Hits[0])
	}
	if res.Hits[1].RelevanceScore != 0 {
		t.Errorf("expected unparseable score to default to 0, got %v", res.Hits[1].RelevanceScore)
	}
	if res.Hits[1].Subject != nil || res.Hits[1].Snippet != nil {
		t.Error("missing text fields should be nil")
	}
	if res.Hits[2].RelevanceScore != 1 {
		t.Errorf("expected score clamped to 1, got %v", res.Hits[2].RelevanceScore)
	}
	if *res.Hits[3].EventID != "e4" || *res.Hits[3].Timestamp != "2024-05-10T12:00:00Z" {
		t.Errorf("unexpected conversions %q %q", *res.Hits[3].EventID, *res.Hits[3].Timestamp)
	}
	if !slices.Equal(res.TablesSearched, []string{"events", "ai_analysis"}) {
		t.Errorf("unexpected tablesSearched %v", res.TablesSearched)
	}
}

func TestTablesSearchedSkipsNil(t *testing.T) {
	events := "events"
	hits := []types.SearchHit{{Table: nil}, {Table: &events}, {Table: &events}}
	if got := tablesSearched(hits); !slices.Equal(got, []string{"events"}) {
		t.Errorf("unexpected tables %v", got)
	}
	if got := tablesSearched(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSearchStrictFilters(t *testing.T) {
	wh := &stubWarehouse{rows: []types.Row{
		{"event_id": "old", "source": "gmail", "timestamp": "2024-01-01T00:00:00Z", "relevance_score": 0.95, "table_name": "events"},
		{"event_id": "slack", "source": "slack", "timestamp": "2024-05-09T00:00:00Z", "relevance_score": 0.9, "table_name": "events"},
		{"event_id": "low", "source": "gmail", "timestamp": "2024-05-09 08:00:00", "relevance_score": 0.2, "table_name": "events"},
		{"event_id": "high", "source": "Gmail", "timestamp": "2024-05-08T00:00:00Z", "relevance_score": 0.8, "table_name": "events"},
		{"event_id": "nosource", "relevance_score": 0.5, "table_name": "ai_analysis"},
	}}
	svc := newTestService(&stubTranslator{sql: rankingSQL}, wh, true)

	res := svc.Search(context.Background(), types.SearchRequest{Query: "q", Sources: []string{"gmail"}, TimeRangeDays: 7})
	var ids []string
	for _, h := range res.Hits {
		ids = append(ids, *h.EventID)
	}
	if !slices.Equal(ids, []string{"high", "nosource", "low"}) {
		t.Errorf("unexpected filtered hits %v", ids)
	}
	if res.TotalHits != 3 {
		t.Errorf("expected totalHits 3, got %d", res.TotalHits)
	}
}

func TestSearchAdvisoryFiltersByDefault(t *testing.T) {
	wh := &stubWarehouse{rows: []types.Row{
		{"event_id": "slack", "source": "slack", "relevance_score": 0.9, "table_name": "events"},
	}}
	svc := newTestService(&stubTranslator{sql: rankingSQL}, wh, false)

	res := svc.Search(context.Background(), types.SearchRequest{Query: "q", Sources: []string{"gmail"}})
	if res.TotalHits != 1 {
		t.Errorf("expected advisory filter to keep the hit, got %d", res.TotalHits)
	}
}

func TestSearchFailure(t *testing.T) {
	cases := []struct {
		name string
		tr   *stubTranslator
		wh   *stubWarehouse
		want string
	}{
		{"translation", &stubTranslator{err: errors.New("no credential")}, &stubWarehouse{}, "no credential"},
		{"execution", &stubTranslator{sql: rankingSQL}, &stubWarehouse{err: errors.New("table missing")}, "table missing"},
		{"guard", &stubTranslator{sql: "UPDATE events SET processed = 1"}, &stubWarehouse{}, "must start with SELECT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := newTestService(tc.tr, tc.wh, false).Search(context.Background(), types.SearchRequest{Query: "q"})
			if !strings.Contains(res.Error, tc.want) {
				t.Errorf("expected error containing %q, got %q", tc.want, res.Error)
			}
			if res.Hits == nil || len(res.Hits) != 0 || res.TotalHits != 0 {
				t.Errorf("expected no hits, got %+v", res.Hits)
			}
			if res.TablesSearched == nil || len(res.TablesSearched) != 0 {
				t.Errorf("expected empty tablesSearched, got %v", res.TablesSearched)
			}
			if res.ExecutionMs < 0 {
				t.Errorf("negative execution time")
			}
		})
	}
}
