package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New("sk-test", "gpt-4o-mini", "https://t.me/Hcfa_bot", zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func completionResponse(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": text}},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	const want = "🔥 Free winter sale! Join now ➡️ https://t.me/Hcfa_bot"

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "winter sale")
		assert.Contains(t, req.Messages[0].Content, "https://t.me/Hcfa_bot")

		_ = json.NewEncoder(w).Encode(completionResponse("  " + want + "\n"))
	})

	got, err := c.Generate(context.Background(), "winter sale")
	require.NoError(t, err)
	assert.Equal(t, want, got, "completion is trimmed")
}

func TestGenerate_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
		})
	})

	_, err := c.Generate(context.Background(), "theme")
	require.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "bad key")
}

func TestGenerate_EmptyCompletion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionResponse("   "))
	})

	_, err := c.Generate(context.Background(), "theme")
	require.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(completionResponse("⚽ done"))
	})

	got, err := c.Generate(context.Background(), "theme")
	require.NoError(t, err)
	assert.Equal(t, "⚽ done", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_MissingKey(t *testing.T) {
	c := New("", "gpt-4o-mini", "link", zap.NewNop())
	_, err := c.Generate(context.Background(), "theme")
	require.ErrorIs(t, err, domain.ErrGenerationFailed)
}
