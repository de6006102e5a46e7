// Package narrator is the boundary to the remote language model that
// narrates the adventure and writes generated character sheets.
package narrator

//go:generate mockgen -destination=mock/mock_narrator.go -package=narratormock github.com/cory-johannsen/dungeonmaster/internal/narrator Narrator,ModelLister

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a chat request.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call.
//
// A zero Temperature or MaxTokens selects the provider's configured default.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Prompt builds a request carrying a single user message.
func Prompt(model, text string) Request {
	return Request{Model: model, Messages: []Message{{Role: RoleUser, Content: text}}}
}

// Narrator produces one text completion per request.
//
// Implementations return only the first choice's text, with every `*`
// removed. Failures are returned as *Error.
type Narrator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ModelLister enumerates the models a provider can serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ErrEmptyCompletion is wrapped in *Error when the provider returns no text.
var ErrEmptyCompletion = errors.New("no completion text returned")

// Error is a failed narrator call.
type Error struct {
	Provider string
	Model    string
	// Status is the HTTP status code, or 0 when none was received.
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "narrator %s", e.Provider)
	if e.Model != "" {
		fmt.Fprintf(&b, " model %q", e.Model)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// clean strips emphasis markers and surrounding whitespace from a completion.
func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}

// New builds the provider selected by cfg, bounded by cfg.Timeout and
// logged through logger.
//
// Precondition: cfg has passed config validation.
func New(cfg config.NarratorConfig, apiKey string, logger *zap.Logger) (Narrator, error) {
	var (
		n   Narrator
		err error
	)
	switch cfg.Provider {
	case "openai":
		n, err = NewOpenAI(cfg, apiKey)
	case "anthropic":
		n, err = NewAnthropic(cfg, apiKey)
	default:
		return nil, fmt.Errorf("unknown narrator provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithLogging(WithTimeout(n, cfg.Timeout), logger), nil
}

type timeoutNarrator struct {
	next    Narrator
	timeout time.Duration
}

// WithTimeout bounds every Complete call on n by d. A non-positive d returns
// n unchanged.
func WithTimeout(n Narrator, d time.Duration) Narrator {
	if d <= 0 {
		return n
	}
	return &timeoutNarrator{next: n, timeout: d}
}

func (t *timeoutNarrator) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, req)
}

// ListModels forwards to the wrapped narrator when it can list models.
func (t *timeoutNarrator) ListModels(ctx context.Context) ([]string, error) {
	if l, ok := t.next.(ModelLister); ok {
		return l.ListModels(ctx)
	}
	return nil, errors.New("narrator does not list models")
}

type loggingNarrator struct {
	next   Narrator
	logger *zap.Logger
}

// WithLogging records each call at debug level and each failure at warn.
func WithLogging(n Narrator, logger *zap.Logger) Narrator {
	return &loggingNarrator{next: n, logger: logger}
}

func (l *loggingNarrator) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := l.next.Complete(ctx, req)
	fields := []zap.Field{
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.logger.Warn("narrator call failed", append(fields, zap.Error(err))...)
		return "", err
	}
	l.logger.Debug("narrator call", append(fields, zap.Int("chars", len(out)))...)
	return out, nil
}

// ListModels forwards to the wrapped narrator when it can list models.
func (l *loggingNarrator) ListModels(ctx context.Context) ([]string, error) {
	if m, ok := l.next.(ModelLister); ok {
		return m.ListModels(ctx)
	}
	return nil, errors.New("narrator does not list models")
}
