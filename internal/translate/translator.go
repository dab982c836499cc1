// Package translate turns natural-language requests into single SQL
// statements using the generative capability.
package translate

import (
	"context"
	"strings"

	"github.com/user/datalake/internal/schema"
	"github.com/user/datalake/internal/types"
	"github.com/user/datalake/pkg/llm"
)

// QueryTranslator produces one SELECT for a question over the full warehouse.
type QueryTranslator struct {
	provider llm.Provider
	desc     schema.Descriptor
	budget   *Budget
}

// NewQueryTranslator creates a translator. budget may be nil.
func NewQueryTranslator(provider llm.Provider, desc schema.Descriptor, budget *Budget) *QueryTranslator {
	return &QueryTranslator{provider: provider, desc: desc, budget: budget}
}

// Translate returns the model's SQL with code fences removed. The SQL itself
// is not validated here; see Guard.
func (t *QueryTranslator) Translate(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", types.Errorf(types.KindTranslation, "translate.query", "question is required")
	}
	system, user := buildQueryPrompt(t.desc.Text, question)
	return complete(ctx, t.provider, t.budget, "translate.query", system, user)
}

// SearchTranslator produces one ranking UNION query over the searchable subset.
type SearchTranslator struct {
	provider llm.Provider
	desc     schema.Descriptor
	budget   *Budget
}

// NewSearchTranslator creates a search translator. budget may be nil.
func NewSearchTranslator(provider llm.Provider, desc schema.Descriptor, budget *Budget) *SearchTranslator {
	return &SearchTranslator{provider: provider, desc: desc, budget: budget}
}

// Translate returns the ranking query for req. Callers apply defaults to req
// beforehand.
func (t *SearchTranslator) Translate(ctx context.Context, req types.SearchRequest) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", types.Errorf(types.KindTranslation, "translate.search", "query is required")
	}
	system, user := buildSearchPrompt(t.desc.Text, req)
	return complete(ctx, t.provider, t.budget, "translate.search", system, user)
}

func complete(ctx context.Context, provider llm.Provider, budget *Budget, op, system, user string) (string, error) {
	if err := budget.Check(system + "\n" + user); err != nil {
		return "", err
	}
	text, err := llm.CompletePrompt(ctx, provider, system, user)
	if err != nil {
		return "", types.Wrap(types.KindTranslation, op, err)
	}
	sql := StripFences(text)
	if sql == "" {
		return "", types.Errorf(types.KindTranslation, op, "model returned no text")
	}
	return sql, nil
}
