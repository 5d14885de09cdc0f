package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Options{
		BaseURL:          server.URL,
		APIKey:           "lm-studio",
		DiscoveryTimeout: time.Second,
		RequestTimeout:   time.Second,
		Logger:           zap.NewNop(),
	})
}

func TestAPIBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:1234/v1", APIBaseURL("http://localhost:1234"))
	assert.Equal(t, "http://localhost:1234/v1", APIBaseURL("http://localhost:1234/"))
}

func TestLoadedModel(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantModel string
		wantErr   error
	}{
		{
			name:      "first model",
			status:    http.StatusOK,
			body:      `{"object":"list","data":[{"id":"llama-3.1-8b","object":"model"},{"id":"qwen","object":"model"}]}`,
			wantModel: "llama-3.1-8b",
		},
		{
			name:      "skips non-model entries",
			status:    http.StatusOK,
			body:      `{"data":[{"id":"emb","object":"embedding"},{"id":"phi-3","object":"model"}]}`,
			wantModel: "phi-3",
		},
		{
			name:    "empty list",
			status:  http.StatusOK,
			body:    `{"data":[]}`,
			wantErr: ErrNoModels,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/models", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			model, err := client.LoadedModel(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, model)
		})
	}
}

func TestLoadedModelServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom"}}`)
	})

	_, err := client.LoadedModel(context.Background())
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestLoadedModelUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Options{BaseURL: url, DiscoveryTimeout: time.Second})
	_, err := client.LoadedModel(context.Background())
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	var calls atomic.Int32
	var got chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer lm-studio", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "  Thanks for sharing!  "},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 5, "total_tokens": 45}
		}`)
	})

	content, err := client.Complete(context.Background(), Request{
		Model:       "llama",
		System:      "be nice",
		User:        "ORIGINAL POST CONTEXT:\npost\n\nUSER COMMENT TO REPLY TO:\ncomment",
		Temperature: 0.7,
		MaxTokens:   150,
	})
	require.NoError(t, err)

	assert.Equal(t, "  Thanks for sharing!  ", content)
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, "llama", got.Model)
	assert.Equal(t, float32(0.7), got.Temperature)
	assert.Equal(t, 150, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be nice", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "USER COMMENT TO REPLY TO:\ncomment")
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantDetail string
		wantBody   string
		wantErr    error
	}{
		{
			name:       "structured 400",
			status:     http.StatusBadRequest,
			body:       `{"error":{"message":"model 'nope' not found","type":"invalid_request_error"}}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "model 'nope' not found (type=invalid_request_error)",
		},
		{
			name:       "unstructured 400",
			status:     http.StatusBadRequest,
			body:       `No models loaded`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "No models loaded",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"id":"x","choices":[]}`,
			wantErr: ErrNoChoices,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Complete(context.Background(), Request{Model: "m", User: "hi", MaxTokens: 10})
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr), "expected HTTPError, got %T: %v", err, err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantDetail, httpErr.Detail)
			assert.Equal(t, tt.wantBody, httpErr.Body)
			assert.Contains(t, httpErr.Error(), "HTTP 400")
		})
	}
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Options{BaseURL: server.URL, RequestTimeout: 50 * time.Millisecond})
	_, err := client.Complete(context.Background(), Request{Model: "m", User: "hi", MaxTokens: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
