package narrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
	narratormock "github.com/cory-johannsen/dungeonmaster/internal/narrator/mock"
	"github.com/cory-johannsen/dungeonmaster/internal/narrator/narratortest"
)

func openAIConfig(url string) config.NarratorConfig {
	cfg := config.Default().Narrator
	cfg.BaseURL = url
	return cfg
}

func TestOpenAI_CompleteStripsEmphasisAndSendsHeaders(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var referer, title, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		referer = r.Header.Get("HTTP-Referer")
		title = r.Header.Get("X-Title")
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"**Welcome**, adventurers."},"finish_reason":"stop"},
			           {"index":1,"message":{"role":"assistant","content":"ignored"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p, err := narrator.NewOpenAI(openAIConfig(srv.URL+"/v1"), "sk-test")
	require.NoError(t, err)
	out, err := p.Complete(context.Background(), narrator.Prompt("dm-model", "Begin."))
	require.NoError(t, err)

	assert.Equal(t, "Welcome, adventurers.", out)
	assert.Equal(t, "dm-model", got.Model)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Begin.", got.Messages[0].Content)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "https://github.com/cory-johannsen/dungeonmaster", referer)
	assert.Equal(t, "dungeonmaster", title)
}

func TestOpenAI_StatusErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient credits","type":"billing"}}`))
	}))
	defer srv.Close()

	p, err := narrator.NewOpenAI(openAIConfig(srv.URL+"/v1"), "sk-test")
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), narrator.Prompt("m", "x"))
	var nerr *narrator.Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "openai", nerr.Provider)
	assert.Equal(t, http.StatusPaymentRequired, nerr.Status)
	assert.Contains(t, nerr.Error(), "insufficient credits")
}

func TestOpenAI_EmptyCompletion(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":    `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`,
		"empty content": `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"stop"}]}`,
		"only markup":   `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":" ** \n"},"finish_reason":"stop"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			p, err := narrator.NewOpenAI(openAIConfig(srv.URL+"/v1"), "sk-test")
			require.NoError(t, err)
			out, err := p.Complete(context.Background(), narrator.Prompt("m", "x"))
			assert.Empty(t, out)
			assert.ErrorIs(t, err, narrator.ErrEmptyCompletion)
			var nerr *narrator.Error
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, "openai", nerr.Provider)
			assert.Equal(t, "m", nerr.Model)
		})
	}
}

func TestOpenAI_ListModelsSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"mistral/small","object":"model"},{"id":"anthropic/claude","object":"model"}]}`))
	}))
	defer srv.Close()

	p, err := narrator.NewOpenAI(openAIConfig(srv.URL+"/v1"), "sk-test")
	require.NoError(t, err)
	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic/claude", "mistral/small"}, models)
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := narrator.NewOpenAI(config.Default().Narrator, "")
	assert.Error(t, err)
}

func TestAnthropic_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"The *torches* flicker."}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer srv.Close()

	cfg := config.Default().Narrator
	cfg.Provider = "anthropic"
	cfg.BaseURL = srv.URL
	p, err := narrator.NewAnthropic(cfg, "ak-test")
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), narrator.Request{
		Model: "claude-test",
		Messages: []narrator.Message{
			{Role: narrator.RoleSystem, Content: "You are the DM."},
			{Role: narrator.RoleUser, Content: "Describe the hall."},
		},
		MaxTokens: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, "The torches flicker.", out)
	assert.Equal(t, "claude-test", body["model"])
	assert.EqualValues(t, 200, body["max_tokens"])
	assert.NotNil(t, body["system"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)
}

func TestAnthropic_ErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	cfg := config.Default().Narrator
	cfg.BaseURL = srv.URL
	p, err := narrator.NewAnthropic(cfg, "ak-test")
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), narrator.Prompt("nope", "x"))
	var nerr *narrator.Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "anthropic", nerr.Provider)
	assert.Equal(t, http.StatusBadRequest, nerr.Status)
}

func TestNew_SelectsProvider(t *testing.T) {
	cfg := config.Default().Narrator
	n, err := narrator.New(cfg, "k", zap.NewNop())
	require.NoError(t, err)
	_, ok := n.(narrator.ModelLister)
	assert.True(t, ok)

	cfg.Provider = "anthropic"
	_, err = narrator.New(cfg, "k", zap.NewNop())
	require.NoError(t, err)

	cfg.Provider = "ollama"
	_, err = narrator.New(cfg, "k", zap.NewNop())
	assert.Error(t, err)
}

func TestWithTimeout_BoundsCall(t *testing.T) {
	fake := narratortest.New("late")
	fake.Block = make(chan struct{})
	n := narrator.WithTimeout(fake, 20*time.Millisecond)
	_, err := n.Complete(context.Background(), narrator.Prompt("m", "x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeout_SetsDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := narratormock.NewMockNarrator(ctrl)
	m.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ narrator.Request) (string, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return "ok", nil
		})
	out, err := narrator.WithTimeout(m, time.Minute).Complete(context.Background(), narrator.Prompt("m", "x"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestWithLogging_WarnsOnFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctrl := gomock.NewController(t)
	m := narratormock.NewMockNarrator(ctrl)
	boom := &narrator.Error{Provider: "openai", Model: "m", Status: 500}
	m.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", boom)

	_, err := narrator.WithLogging(m, zap.New(core)).Complete(context.Background(), narrator.Prompt("m", "x"))
	assert.True(t, errors.Is(err, boom))
	warns := logs.FilterMessage("narrator call failed").All()
	require.Len(t, warns, 1)
	assert.Equal(t, "m", warns[0].ContextMap()["model"])
}

func TestWithLogging_ForwardsListModels(t *testing.T) {
	ctrl := gomock.NewController(t)
	type both interface {
		narrator.Narrator
		narrator.ModelLister
	}
	n := struct {
		*narratormock.MockNarrator
		*narratormock.MockModelLister
	}{narratormock.NewMockNarrator(ctrl), narratormock.NewMockModelLister(ctrl)}
	var _ both = n
	n.MockModelLister.EXPECT().ListModels(gomock.Any()).Return([]string{"a"}, nil)

	l, ok := narrator.WithLogging(n, zap.NewNop()).(narrator.ModelLister)
	require.True(t, ok)
	models, err := l.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, models)
}

func TestError_Message(t *testing.T) {
	err := &narrator.Error{Provider: "openai", Model: "m", Status: 503, Body: "unavailable", Err: errors.New("eof")}
	assert.Equal(t, `narrator openai model "m": status 503: unavailable: eof`, err.Error())
}
