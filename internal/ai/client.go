package ai

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/KaramelBytes/csvask/internal/prompt"
)

// Fixed sampling configuration sent with every question.
const (
	DefaultModel     = "gpt-4o-mini"
	Temperature      = 0.5
	MaxTokens        = 256
	TopP             = 0.6
	FrequencyPenalty = 0.7
)

// Options configures an Azure OpenAI client. Values are used as given;
// nothing is validated or defaulted except an empty Model.
type Options struct {
	APIKey     string
	Endpoint   string
	APIVersion string
	Model      string
	// Deployment overrides the deployment name derived from Model.
	Deployment string
	// HTTPTimeout of 0 means no client-side timeout.
	HTTPTimeout time.Duration
	// HTTPClient replaces the default client (HTTPTimeout is then ignored).
	HTTPClient *http.Client
}

// Client sends one chat completion per prompt to an Azure OpenAI deployment.
type Client struct {
	api      *openai.Client
	model    string
	endpoint string
}

// NewAzureClient builds a client for an Azure OpenAI resource.
func NewAzureClient(o Options) *Client {
	cfg := openai.DefaultAzureConfig(o.APIKey, o.Endpoint)
	cfg.APIVersion = o.APIVersion
	if o.Deployment != "" {
		dep := o.Deployment
		cfg.AzureModelMapperFunc = func(string) string { return dep }
	}
	if o.HTTPClient != nil {
		cfg.HTTPClient = o.HTTPClient
	} else {
		cfg.HTTPClient = &http.Client{Timeout: o.HTTPTimeout}
	}
	model := o.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:      openai.NewClientWithConfig(cfg),
		model:    model,
		endpoint: o.Endpoint,
	}
}

// Model returns the model identifier sent with each request.
func (c *Client) Model() string { return c.model }

// BuildRequest assembles the two-message request with the fixed sampling parameters.
func BuildRequest(model, userPrompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature:      Temperature,
		MaxTokens:        MaxTokens,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
	}
}

// Complete issues a single synchronous request and returns the first candidate.
// There is no retry; every failure is returned as a typed error.
func (c *Client) Complete(ctx context.Context, userPrompt string) (*Completion, error) {
	resp, err := c.api.CreateChatCompletion(ctx, BuildRequest(c.model, userPrompt))
	if err != nil {
		return nil, classifyError(err, c.endpoint)
	}
	if len(resp.Choices) == 0 {
		return nil, &EmptyResponseError{ID: resp.ID}
	}
	return &Completion{
		Text:      resp.Choices[0].Message.Content,
		Model:     resp.Model,
		ID:        resp.ID,
		RequestID: extractRequestID(resp.Header()),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(h http.Header) string {
	if h == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "Apim-Request-Id", "OpenAI-Request-ID"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}
