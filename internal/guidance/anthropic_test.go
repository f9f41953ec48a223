package guidance

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompleter(url string, retries int) *AnthropicCompleter {
	c := NewAnthropicCompleter(AnthropicConfig{APIKey: "test-key", BaseURL: url, MaxRetries: retries})
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		raw, _ := io.ReadAll(r.Body)
		var req anthropicRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, defaultAnthropicModel, req.Model)
		assert.Equal(t, 1000, req.MaxTokens)
		assert.Equal(t, "be helpful", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hi", req.Messages[0].Content)

		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"Hello "},{"type":"tool_use"},{"type":"text","text":"there"}]}`)
	}))
	defer srv.Close()

	text, err := newTestCompleter(srv.URL, 0).Complete(context.Background(), "be helpful", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)
}

func TestAnthropicRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"ok"}]}`)
	}))
	defer srv.Close()

	text, err := newTestCompleter(srv.URL, 2).Complete(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnthropicGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestCompleter(srv.URL, 1).Complete(context.Background(), "", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"bad"}}`)
	}))
	defer srv.Close()

	_, err := newTestCompleter(srv.URL, 3).Complete(context.Background(), "", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnthropicEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"content":[]}`)
	}))
	defer srv.Close()

	_, err := newTestCompleter(srv.URL, 0).Complete(context.Background(), "", "hi")
	assert.ErrorContains(t, err, "empty completion")
}

func TestAnthropicRequiresKey(t *testing.T) {
	_, err := NewAnthropicCompleter(AnthropicConfig{}).Complete(context.Background(), "", "hi")
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiCompleter(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
