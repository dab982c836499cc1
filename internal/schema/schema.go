// Package schema holds the static descriptions of the warehouse that are
// compiled into every translation prompt. They are never executed.
package schema

import (
	"bytes"
	"fmt"
	"text/template"
)

// Version is bumped whenever a table, view, or rule changes.
const Version = "2024.4"

const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// Descriptor is a rendered schema description for one SQL dialect.
type Descriptor struct {
	Name    string
	Version string
	Dialect string
	Text    string
}

type dialectInfo struct {
	Name      string
	JSONField string
	DaysAgo   string
	Now       string
}

var dialects = map[string]dialectInfo{
	DialectMySQL: {
		Name:      "MySQL 8",
		JSONField: "JSON_UNQUOTE(JSON_EXTRACT(payload, '$.<field>'))",
		DaysAgo:   "NOW() - INTERVAL <n> DAY",
		Now:       "NOW()",
	},
	DialectSQLite: {
		Name:      "SQLite 3",
		JSONField: "json_extract(payload, '$.<field>')",
		DaysAgo:   "datetime('now', '-<n> days')",
		Now:       "datetime('now')",
	},
}

const tablesText = `## Tables

events (append-only log of everything the agents observe and do)
  event_id    VARCHAR(36)  primary key, UUID
  timestamp   DATETIME     UTC, indexed; partition-like filter column, always bound it
  agent_id    VARCHAR(64)  agent that produced the event ("system" for automation)
  event_type  VARCHAR(64)  e.g. email_received, email_sent, task_created, task_completed, note, query_run
  source      VARCHAR(64)  e.g. gmail, calendar, sheets, chat, extension, scheduler
  payload     JSON         free-form document; common fields: subject, from, to, snippet, body, title
  processed   BOOLEAN      set by downstream consumers

ai_analysis (immutable model outputs about events)
  analysis_id    VARCHAR(36)  primary key
  event_id       VARCHAR(36)  weak reference to events.event_id, may not resolve
  timestamp      DATETIME     UTC, indexed
  model_id       VARCHAR(128)
  analysis_type  VARCHAR(64)  e.g. summary, sentiment, priority, classification
  input_summary  TEXT
  confidence     DOUBLE       0..1
`

const viewsText = `## Views (prefer these over raw tables)

v_emails: one row per email event
  event_id, timestamp, event_type, sender, recipient, subject, snippet
v_daily_event_counts: one row per day, source and event_type
  day, source, event_type, event_count
`

const fullText = `# Data lake warehouse schema (version {{.Version}})

{{.Tables}}
{{.Views}}
## Rules
1. Write {{.Dialect.Name}} SQL.
2. Produce exactly one SELECT statement (WITH ... SELECT is allowed). Never modify data.
3. Always end the statement with a LIMIT clause.
4. Prefer the views over the raw tables when they contain the needed columns.
5. Read JSON payload fields with {{.Dialect.JSONField}}.
6. Express relative time with {{.Dialect.DaysAgo}}; the current time is {{.Dialect.Now}}.
7. Bound every query on events or ai_analysis by timestamp unless the question asks for all time.
8. Give every output column a unique name; alias columns that share a name across joined tables
   (for example e.event_id AS event_id, a.event_id AS analysis_event_id).
`

const searchableText = `# Searchable data lake subset (version {{.Version}})

events
  event_id, timestamp, source, event_type, payload (JSON: subject, snippet, body, from, title)
ai_analysis
  analysis_id, event_id, timestamp, model_id, analysis_type, input_summary, confidence

## Rules
1. Write {{.Dialect.Name}} SQL.
2. Read JSON payload fields with {{.Dialect.JSONField}}.
3. Express relative time with {{.Dialect.DaysAgo}}.
4. Every SELECT in the UNION projects exactly these columns, in this order:
   event_id, timestamp, source, event_type, subject, snippet, relevance_score, table_name
   relevance_score is a number between 0 and 1; table_name is the literal name of the table read.
5. For ai_analysis use analysis_type as event_type, 'analysis' as source, input_summary as snippet.
6. Order the final result by relevance_score descending and end with a LIMIT clause.
7. Alias every projected column to its listed name so each output column has a unique name.
`

var (
	fullTmpl       = template.Must(template.New("full").Parse(fullText))
	searchableTmpl = template.Must(template.New("searchable").Parse(searchableText))
)

// Full describes the complete warehouse for the NL query translator.
func Full(dialect string) (Descriptor, error) {
	return render("full-warehouse", fullTmpl, dialect)
}

// Searchable describes the narrow subset used by the search translator.
func Searchable(dialect string) (Descriptor, error) {
	return render("searchable-subset", searchableTmpl, dialect)
}

func render(name string, tmpl *template.Template, dialect string) (Descriptor, error) {
	info, ok := dialects[dialect]
	if !ok {
		return Descriptor{}, fmt.Errorf("schema: unsupported dialect %q", dialect)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, map[string]any{
		"Version": Version,
		"Tables":  tablesText,
		"Views":   viewsText,
		"Dialect": info,
	})
	if err != nil {
		return Descriptor{}, fmt.Errorf("schema: render %s: %w", name, err)
	}

	return Descriptor{
		Name:    name,
		Version: Version,
		Dialect: dialect,
		Text:    buf.String(),
	}, nil
}
