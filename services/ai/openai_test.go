package aisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/assistant"
)

func newTestClient(url, key string) *Client {
	conf := core.NewTestConfig()
	conf.AI.BaseURL = url
	conf.AI.APIKey = key
	conf.AI.Model = "test-model"
	conf.AI.MaxTokens = 100
	return NewClient(conf)
}

func TestClient_Stream(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, content := range []string{"Hel", "", "lo"} {
			_, _ = fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
		}
		_, _ = fmt.Fprint(w, ": keep-alive\n\ndata: [DONE]\n\n")
		_, _ = fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n")
	}))
	defer srv.Close()

	var chunks []string
	err := newTestClient(srv.URL, "secret").Stream(context.Background(),
		[]assistant.Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
		func(s string) error {
			chunks = append(chunks, s)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)

	assert.Equal(t, "test-model", got.Model)
	assert.True(t, got.Stream)
	assert.Equal(t, 100, got.MaxCompletionTokens)
	assert.Len(t, got.Messages, 2)
}

func TestClient_StreamErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		c := newTestClient("http://localhost:1", "")
		assert.False(t, c.Enabled())
		err := c.Stream(context.Background(), nil, func(string) error { return nil })
		assert.Equal(t, assistant.ErrNotConfigured, err)
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
		}))
		defer srv.Close()

		err := newTestClient(srv.URL, "wrong").Stream(context.Background(), nil, func(string) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad key")
	})

	t.Run("callback error stops the stream", func(t *testing.T) {
		body := strings.Repeat("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n", 3)
		calls := 0
		err := readEvents(strings.NewReader(body), func(string) error {
			calls++
			return context.Canceled
		})
		assert.Equal(t, context.Canceled, err)
		assert.Equal(t, 1, calls)
	})
}
