package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reglens/internal/inference"
	"reglens/internal/substance/models"
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

func TestEnrich(t *testing.T) {
	ctx := context.Background()
	jurisdictions := []string{"US", "DE", "NL"}

	t.Run("converts entries into stamped records", func(t *testing.T) {
		stub := &stubCompleter{reply: `{
			"US": {"access_status": "Banned", "reference_link": "https://dea.gov/mdma"},
			"DE": {"access_status": "LimitedAccessTrials"}
		}`}
		e := New(stub, "m", testLogger(), nil)

		before := time.Now().UTC()
		records, err := e.Enrich(ctx, "MDMA", jurisdictions)
		require.NoError(t, err)
		require.Len(t, records, 2)

		// Sorted by country code.
		assert.Equal(t, "DE", records[0].CountryCode)
		assert.Equal(t, models.StatusLimitedAccessTrials, records[0].Status)
		assert.Equal(t, "US", records[1].CountryCode)
		assert.Equal(t, models.StatusBanned, records[1].Status)
		assert.Equal(t, "https://dea.gov/mdma", records[1].ReferenceLink)

		for _, rec := range records {
			assert.Equal(t, models.NormalizedKey("mdma"), rec.Substance)
			assert.False(t, rec.UpdatedAt.Before(before))
		}
	})

	t.Run("drops malformed jurisdiction keys", func(t *testing.T) {
		stub := &stubCompleter{reply: `{
			"US": {"access_status": "Banned"},
			"USA": {"access_status": "Banned"},
			"1X": {"access_status": "Banned"},
			"de": {"access_status": "Banned"}
		}`}
		e := New(stub, "m", testLogger(), nil)

		records, err := e.Enrich(ctx, "MDMA", jurisdictions)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "DE", records[0].CountryCode) // lowercase keys are upcased, not dropped
		assert.Equal(t, "US", records[1].CountryCode)
	})

	t.Run("unparseable body yields empty records, no error", func(t *testing.T) {
		stub := &stubCompleter{reply: "As an AI, I cannot comment on legality."}
		e := New(stub, "m", testLogger(), nil)

		records, err := e.Enrich(ctx, "MDMA", jurisdictions)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("unknown status string maps to Unknown", func(t *testing.T) {
		stub := &stubCompleter{reply: `{"US": {"access_status": "sort of legal"}}`}
		e := New(stub, "m", testLogger(), nil)

		records, err := e.Enrich(ctx, "MDMA", jurisdictions)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, models.StatusUnknown, records[0].Status)
	})

	t.Run("single call carries the full jurisdiction list", func(t *testing.T) {
		stub := &stubCompleter{reply: `{}`}
		e := New(stub, "m", testLogger(), nil)

		_, err := e.Enrich(ctx, "MDMA", jurisdictions)
		require.NoError(t, err)
		assert.Contains(t, stub.lastReq.Messages[1].Content, "US, DE, NL")
	})

	t.Run("provider failure propagates", func(t *testing.T) {
		stub := &stubCompleter{err: errors.New("boom")}
		e := New(stub, "m", testLogger(), nil)

		_, err := e.Enrich(ctx, "MDMA", jurisdictions)
		assert.Error(t, err)
	})
}
