package narrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
)

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	client      anthropic.Client
	temperature float64
	maxTokens   int
}

// NewAnthropic builds an Anthropic provider.
//
// Precondition: apiKey is non-empty.
func NewAnthropic(cfg config.NarratorConfig, apiKey string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic narrator: API key is required (set %s)", cfg.APIKeyEnv)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Anthropic{
		client:      anthropic.NewClient(opts...),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Complete sends req and returns the concatenated text blocks of the reply.
// System messages are lifted into the request's system prompt.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(a.maxTokens),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	temp := req.Temperature
	if temp == 0 {
		temp = a.temperature
	}
	params.Temperature = anthropic.Float(temp)
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		out := &Error{Provider: "anthropic", Model: req.Model, Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			out.Status = apiErr.StatusCode
		}
		return "", out
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := clean(b.String())
	if text == "" {
		return "", &Error{Provider: "anthropic", Model: req.Model, Err: ErrEmptyCompletion}
	}
	return text, nil
}
