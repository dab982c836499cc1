package search

import (
	"strings"
	"time"

	"github.com/user/datalake/internal/types"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// applyHardFilters drops hits whose source is known and not allowed, or whose
// timestamp parses and falls before since. Hits missing either field are kept.
func applyHardFilters(hits []types.SearchHit, sources []string, since time.Time) []types.SearchHit {
	allowed := make(map[string]bool, len(sources))
	for _, s := range sources {
		allowed[strings.ToLower(s)] = true
	}

	out := hits[:0]
	for _, h := range hits {
		if len(allowed) > 0 && h.Source != nil && !allowed[strings.ToLower(*h.Source)] {
			continue
		}
		if h.Timestamp != nil {
			if ts, ok := parseTimestamp(*h.Timestamp); ok && ts.Before(since) {
				continue
			}
		}
		out = append(out, h)
	}
	return out
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
