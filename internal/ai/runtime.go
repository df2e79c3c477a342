package ai

import "context"

// Completer turns a composed prompt into answer text. The Azure client
// implements it; tests substitute their own.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// Usage reports token counters returned by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the first candidate of a chat completion response.
type Completion struct {
	Text      string `json:"text"`
	Model     string `json:"model,omitempty"`
	ID        string `json:"id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Usage     Usage  `json:"usage"`
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (*Completion, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (*Completion, error) {
	return f(ctx, prompt)
}
