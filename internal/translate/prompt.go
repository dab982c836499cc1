package translate

import (
	"fmt"
	"strings"

	"github.com/user/datalake/internal/types"
)

const queryInstructions = `You translate questions about a personal data lake into SQL.
Use only the tables, views, and columns described in the schema.
Answer with the SQL statement only: no explanation, no markdown.`

const searchInstructions = `You write one ranking search query over a personal data lake.
Combine one SELECT per searchable table with UNION ALL, score each row's textual match to the
search terms as relevance_score between 0 and 1, and drop rows that do not match at all.
Answer with the SQL statement only: no explanation, no markdown.`

func buildQueryPrompt(schemaText, question string) (system, user string) {
	system = queryInstructions + "\n\n" + schemaText
	user = "Question: " + question
	return system, user
}

// buildSearchPrompt expresses source and time constraints as instructions;
// they are advisory and the search service may re-apply them.
func buildSearchPrompt(schemaText string, req types.SearchRequest) (system, user string) {
	system = searchInstructions + "\n\n" + schemaText

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search terms: %s\n", req.Query)
	fmt.Fprintf(&sb, "Return at most %d rows.\n", req.MaxResults)
	if len(req.Sources) > 0 {
		fmt.Fprintf(&sb, "Only include events whose source is one of: %s.\n", strings.Join(req.Sources, ", "))
	}
	if req.TimeRangeDays > 0 {
		fmt.Fprintf(&sb, "Only include rows from the last %d days.\n", req.TimeRangeDays)
	}
	return system, sb.String()
}
