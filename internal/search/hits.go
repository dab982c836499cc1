package search

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/user/datalake/internal/types"
)

// Column aliases accepted for each hit field. The model is asked for the
// snake_case names but camelCase shows up often enough to accept both.
var (
	eventIDKeys   = []string{"event_id", "eventId", "eventid"}
	timestampKeys = []string{"timestamp", "ts"}
	sourceKeys    = []string{"source"}
	eventTypeKeys = []string{"event_type", "eventType", "eventtype"}
	subjectKeys   = []string{"subject"}
	snippetKeys   = []string{"snippet"}
	scoreKeys     = []string{"relevance_score", "relevanceScore", "relevancescore", "score"}
	tableKeys     = []string{"table_name", "table", "tableName", "tablename"}
)

func hitFromRow(row types.Row) types.SearchHit {
	return types.SearchHit{
		EventID:        textField(row, eventIDKeys),
		Timestamp:      textField(row, timestampKeys),
		Source:         textField(row, sourceKeys),
		EventType:      textField(row, eventTypeKeys),
		Subject:        textField(row, subjectKeys),
		Snippet:        textField(row, snippetKeys),
		RelevanceScore: score(lookup(row, scoreKeys)),
		Table:          textField(row, tableKeys),
	}
}

func lookup(row types.Row, keys []string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// textField returns nil when the column is absent or NULL.
func textField(row types.Row, keys []string) *string {
	v := lookup(row, keys)
	if v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case time.Time:
		s = t.UTC().Format(time.RFC3339)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

// score coerces a relevance value to a number in [0, 1], defaulting to 0.
func score(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return math.Min(math.Max(f, 0), 1)
}
