package inference

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reglens/pkg/domain-errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestComplete(t *testing.T) {
	t.Run("returns first choice content and pins temperature", func(t *testing.T) {
		var captured map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/chat/completions", r.URL.Path)
			require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			_, _ = w.Write([]byte(completionBody(`{"resolvedName":"MDMA"}`)))
		}))
		defer srv.Close()

		c := New(srv.URL, "test-key", time.Second, testLogger())
		out, err := c.Complete(context.Background(), CompletionRequest{
			Model:     "test-model",
			Messages:  []Message{{Role: "user", Content: "molly"}},
			MaxTokens: 128,
		})

		require.NoError(t, err)
		assert.Equal(t, `{"resolvedName":"MDMA"}`, out)
		assert.Equal(t, float64(0), captured["temperature"])
		assert.Equal(t, "test-model", captured["model"])
	})

	t.Run("non-success status is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := New(srv.URL, "", time.Second, testLogger())
		_, err := c.Complete(context.Background(), CompletionRequest{Model: "m"})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("unreachable endpoint is unavailable", func(t *testing.T) {
		c := New("http://127.0.0.1:1", "", 100*time.Millisecond, testLogger())
		_, err := c.Complete(context.Background(), CompletionRequest{Model: "m"})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("empty choices is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c := New(srv.URL, "", time.Second, testLogger())
		_, err := c.Complete(context.Background(), CompletionRequest{Model: "m"})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
