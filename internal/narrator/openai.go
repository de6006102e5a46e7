package narrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/sashabaranov/go-openai"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
)

// DefaultOpenAIBaseURL is used when no base URL is configured.
const DefaultOpenAIBaseURL = "https://openrouter.ai/api/v1"

// OpenAI talks to any OpenAI-compatible chat completion API.
type OpenAI struct {
	client      *openai.Client
	temperature float64
	maxTokens   int
}

// NewOpenAI builds an OpenAI-compatible provider. OpenRouter attribution
// headers are attached when cfg names them.
//
// Precondition: apiKey is non-empty.
func NewOpenAI(cfg config.NarratorConfig, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai narrator: API key is required (set %s)", cfg.APIKeyEnv)
	}
	cc := openai.DefaultConfig(apiKey)
	cc.BaseURL = DefaultOpenAIBaseURL
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	headers := map[string]string{}
	if cfg.HTTPReferer != "" {
		headers["HTTP-Referer"] = cfg.HTTPReferer
	}
	if cfg.AppTitle != "" {
		headers["X-Title"] = cfg.AppTitle
	}
	if len(headers) > 0 {
		cc.HTTPClient = &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}}
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(cc),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Complete sends req and returns the first choice's text.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	temp := req.Temperature
	if temp == 0 {
		temp = o.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: float32(temp),
	})
	if err != nil {
		return "", openAIError(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Provider: "openai", Model: req.Model, Err: ErrEmptyCompletion}
	}
	text := clean(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &Error{Provider: "openai", Model: req.Model, Err: ErrEmptyCompletion}
	}
	return text, nil
}

// ListModels returns the identifiers of every model the endpoint serves,
// sorted.
func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, openAIError("", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func openAIError(model string, err error) error {
	out := &Error{Provider: "openai", Model: model, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		out.Status = apiErr.HTTPStatusCode
		out.Body = apiErr.Message
	case errors.As(err, &reqErr):
		out.Status = reqErr.HTTPStatusCode
	}
	return out
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range h.headers {
		r.Header.Set(k, v)
	}
	return h.base.RoundTrip(r)
}
