// Package llm talks to a local OpenAI-compatible inference server.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	// ErrNoModels is returned when the server lists no usable model.
	ErrNoModels = errors.New("no model loaded on the server")
	// ErrNoChoices is returned when a completion response has no choices.
	ErrNoChoices = errors.New("no choices in response")
)

// Options configures a Client.
type Options struct {
	// BaseURL is the server root without the /v1 suffix, e.g. http://localhost:1234
	BaseURL string
	APIKey  string

	DiscoveryTimeout time.Duration
	RequestTimeout   time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client wraps an OpenAI API client pointed at the local server.
type Client struct {
	api              *openai.Client
	discoveryTimeout time.Duration
	requestTimeout   time.Duration
	logger           *zap.Logger
}

// Request is one chat completion.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = APIBaseURL(opts.BaseURL)
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:              openai.NewClientWithConfig(cfg),
		discoveryTimeout: opts.DiscoveryTimeout,
		requestTimeout:   opts.RequestTimeout,
		logger:           logger,
	}
}

// APIBaseURL appends /v1 to the server root.
func APIBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/v1"
}

// LoadedModel returns the id of the first listed entry whose object is
// "model". Callers fall back to a configured name on any error.
func (c *Client) LoadedModel(ctx context.Context) (string, error) {
	ctx, cancel := withTimeout(ctx, c.discoveryTimeout)
	defer cancel()

	list, err := c.api.ListModels(ctx)
	if err != nil {
		c.logger.Debug("failed to list models", zap.Error(err))
		return "", fmt.Errorf("failed to list models: %w", classify(err))
	}

	model, ok := lo.Find(list.Models, func(m openai.Model) bool {
		return m.Object == "model" && m.ID != ""
	})
	if !ok {
		return "", ErrNoModels
	}

	c.logger.Debug("discovered loaded model", zap.String("model", model.ID))
	return model.ID, nil
}

// Complete sends one non-streaming chat completion and returns the first
// choice's content as sent by the server.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		c.logger.Warn("chat completion failed", zap.String("model", req.Model), zap.Error(err))
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.logger.Info("chat completion finished",
		zap.String("model", req.Model),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
		zap.String("finishReason", string(resp.Choices[0].FinishReason)))

	return resp.Choices[0].Message.Content, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
