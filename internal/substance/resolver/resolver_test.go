package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reglens/internal/inference"
)

type stubCompleter struct {
	reply string
	err   error

	lastReq inference.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req inference.CompletionRequest) (string, error) {
	s.lastReq = req
	return s.reply, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a structured reply", func(t *testing.T) {
		stub := &stubCompleter{reply: `{"resolvedName":"MDMA","canonicalName":"3,4-MDMA"}`}
		r := New(stub, "test-model", testLogger(), nil)

		got, err := r.Resolve(ctx, "molly")
		require.NoError(t, err)
		assert.Equal(t, "MDMA", got.ResolvedName)
		assert.Equal(t, "3,4-MDMA", got.CanonicalName)
		assert.False(t, got.Unresolved())
		assert.Equal(t, "test-model", stub.lastReq.Model)
	})

	t.Run("null resolvedName is the unresolved sentinel", func(t *testing.T) {
		stub := &stubCompleter{reply: `{"resolvedName": null}`}
		r := New(stub, "m", testLogger(), nil)

		got, err := r.Resolve(ctx, "randomword123")
		require.NoError(t, err)
		assert.True(t, got.Unresolved())
		assert.Equal(t, "No known record of 'randomword123'", got.Message)
	})

	t.Run("garbage reply degrades to fallback, not error", func(t *testing.T) {
		stub := &stubCompleter{reply: "I don't know what that is, sorry!"}
		r := New(stub, "m", testLogger(), nil)

		got, err := r.Resolve(ctx, "xyzzy")
		require.NoError(t, err)
		assert.True(t, got.Unresolved())
		assert.Equal(t, "No known record of 'xyzzy'", got.Message)
	})

	t.Run("fenced reply decodes", func(t *testing.T) {
		stub := &stubCompleter{reply: "```json\n{\"resolvedName\":\"Ketamine\"}\n```"}
		r := New(stub, "m", testLogger(), nil)

		got, err := r.Resolve(ctx, "special k")
		require.NoError(t, err)
		assert.Equal(t, "Ketamine", got.ResolvedName)
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		stub := &stubCompleter{err: errors.New("connection refused")}
		r := New(stub, "m", testLogger(), nil)

		_, err := r.Resolve(ctx, "molly")
		assert.Error(t, err)
	})
}
