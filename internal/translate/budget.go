package translate

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/datalake/internal/types"
)

// Budget rejects prompts that would not fit the model's input window.
type Budget struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
}

// NewBudget creates a token budget for model. Unknown models fall back to the
// cl100k_base encoding.
func NewBudget(model string, maxTokens int) (*Budget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Budget{tokenizer: enc, maxTokens: maxTokens}, nil
}

// Count returns the token count for text.
func (b *Budget) Count(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Check fails with a translation error when the prompt exceeds the budget. A
// nil Budget or a non-positive limit accepts everything.
func (b *Budget) Check(prompt string) error {
	if b == nil || b.maxTokens <= 0 {
		return nil
	}
	if n := b.Count(prompt); n > b.maxTokens {
		return types.Errorf(types.KindTranslation, "budget", "prompt needs %d tokens, limit is %d", n, b.maxTokens)
	}
	return nil
}
