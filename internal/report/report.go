// Package report renders operation results as short plain-text messages for
// chat delivery and terminal output.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/datalake/internal/types"
)

const maxRowsShown = 20

// Query renders a query result as a small table.
func Query(res types.QueryResult) string {
	var b strings.Builder
	if res.Error != "" {
		fmt.Fprintf(&b, "Query failed: %s\n", res.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "%d row(s) in %dms\n", res.TotalRows, res.ExecutionMs)
	if len(res.Rows) == 0 {
		return b.String()
	}

	cols := columns(res.Rows)
	b.WriteString(strings.Join(cols, " | "))
	b.WriteByte('\n')
	for i, row := range res.Rows {
		if i == maxRowsShown {
			fmt.Fprintf(&b, "... %d more\n", len(res.Rows)-maxRowsShown)
			break
		}
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = cell(row[c])
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Search renders ranked hits, one per line.
func Search(res types.SearchResult) string {
	var b strings.Builder
	if res.Error != "" {
		fmt.Fprintf(&b, "Search failed: %s\n", res.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "%d hit(s) for %q in %s\n", res.TotalHits, res.Query, strings.Join(res.TablesSearched, ", "))
	for i, h := range res.Hits {
		fmt.Fprintf(&b, "%d. [%.2f] %s", i+1, h.RelevanceScore, deref(h.Subject, "(no subject)"))
		if h.Source != nil {
			fmt.Fprintf(&b, " (%s)", *h.Source)
		}
		b.WriteByte('\n')
		if h.Snippet != nil && *h.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", *h.Snippet)
		}
	}
	return b.String()
}

// Snapshot renders a context snapshot as sections.
func Snapshot(s types.ContextSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context for %s at %s\n", s.AgentID, s.Timestamp.Format("2006-01-02 15:04"))
	if s.Error != "" {
		fmt.Fprintf(&b, "Unavailable: %s\n", s.Error)
		return b.String()
	}

	fmt.Fprintf(&b, "\nEmails (%d)\n", len(s.RecentEmails))
	for _, e := range s.RecentEmails {
		fmt.Fprintf(&b, "- %s: %s\n", orDash(e.From), orDash(e.Subject))
	}
	fmt.Fprintf(&b, "\nOpen tasks (%d)\n", len(s.OpenTasks))
	for _, t := range s.OpenTasks {
		line := "- " + t.Title
		if t.Due != "" {
			line += " (due " + t.Due + ")"
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\nContacts (%d)\n", len(s.Contacts))
	fmt.Fprintf(&b, "\nAnalyses (%d)\n", len(s.RecentAnalyses))
	for _, a := range s.RecentAnalyses {
		fmt.Fprintf(&b, "- %s %.2f: %s\n", a.AnalysisType, a.Confidence, a.InputSummary)
	}
	for _, d := range s.DegradedSources {
		fmt.Fprintf(&b, "\n! %s unavailable: %s", d.Source, d.Error)
	}
	if len(s.DegradedSources) > 0 {
		b.WriteByte('\n')
	}
	return b.String()
}

func columns(rows []types.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func cell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}

func deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
