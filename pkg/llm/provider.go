package llm

import "context"

// Provider is the generative capability used to translate natural language
// into SQL. Implementations handle request formatting, authentication, and
// response parsing for a specific backend.
type Provider interface {
	// Complete sends a chat completion request and returns the full response.
	Complete(ctx context.Context, messages []Message) (*Response, error)
}

// Config holds common configuration for LLM providers.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// CompletePrompt sends a single system instruction plus user text and returns
// the completion text.
func CompletePrompt(ctx context.Context, p Provider, system, user string) (string, error) {
	messages := make([]Message, 0, 2)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, Message{Role: "user", Content: user})

	resp, err := p.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
