package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"reglens/internal/inference"
	"reglens/internal/substance/metrics"
	"reglens/internal/substance/models"
	"reglens/internal/substance/parse"
)

//go:generate mockgen -destination=../../../mocks/enricher_mock.go -package=mocks reglens/internal/substance/enrich Enricher

// Enricher computes per-jurisdiction status records for a resolved substance.
type Enricher interface {
	Enrich(ctx context.Context, substance string, jurisdictions []string) ([]models.StatusRecord, error)
}

// Completer is the slice of the inference client the enricher needs.
type Completer interface {
	Complete(ctx context.Context, req inference.CompletionRequest) (string, error)
}

const systemPrompt = `You report the regulatory access status of a substance per jurisdiction.
Reply with only a JSON object keyed by ISO 3166-1 alpha-2 code, for example:
{"US": {"access_status": "Banned", "reference_link": "https://..."}, "DE": {...}}.
access_status must be one of ApprovedMedicalUse, Banned, LimitedAccessTrials, Unknown.
Omit reference_link when you have none. Cover every requested jurisdiction.`

var countryCodeShape = regexp.MustCompile(`^[A-Z]{2}$`)

// jurisdictionStatus is the wire shape of one enrichment entry.
type jurisdictionStatus struct {
	AccessStatus  string `json:"access_status"`
	ReferenceLink string `json:"reference_link"`
}

// InferenceEnricher queries the enrichment provider in a single call
// covering the full jurisdiction list.
type InferenceEnricher struct {
	client  Completer
	model   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs an InferenceEnricher.
func New(client Completer, model string, logger *slog.Logger, m *metrics.Metrics) *InferenceEnricher {
	return &InferenceEnricher{
		client:  client,
		model:   model,
		logger:  logger,
		metrics: m,
	}
}

// Enrich requests status for all jurisdictions at once and converts each
// well-formed entry into a StatusRecord stamped with the current time.
// Malformed jurisdiction keys are dropped, not fatal. A fully unparseable
// body yields an empty record list and no error; only the provider call
// itself failing is an error.
func (e *InferenceEnricher) Enrich(ctx context.Context, substance string, jurisdictions []string) ([]models.StatusRecord, error) {
	raw, err := e.client.Complete(ctx, inference.CompletionRequest{
		Model: e.model,
		Messages: []inference.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Substance: %s\nJurisdictions: %s", substance, strings.Join(jurisdictions, ", "))},
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, err
	}

	res := parse.Decode(raw, map[string]jurisdictionStatus{})
	if res.Fallback {
		e.metrics.IncrementFallbackParse("enrich")
		e.logger.WarnContext(ctx, "enrichment output failed strict decoding",
			"substance", substance,
			"raw_len", len(raw),
		)
		return []models.StatusRecord{}, nil
	}

	key := models.NormalizeKey(substance)
	now := time.Now().UTC()
	records := make([]models.StatusRecord, 0, len(res.Value))
	for code, status := range res.Value {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !countryCodeShape.MatchString(code) {
			e.logger.DebugContext(ctx, "dropping malformed jurisdiction key",
				"substance", substance,
				"key", code,
			)
			continue
		}
		records = append(records, models.StatusRecord{
			Substance:     key,
			CountryCode:   code,
			Status:        models.ParseAccessStatus(status.AccessStatus),
			ReferenceLink: status.ReferenceLink,
			UpdatedAt:     now,
		})
	}

	// Map iteration order is random; stable output simplifies callers and tests.
	sort.Slice(records, func(i, j int) bool {
		return records[i].CountryCode < records[j].CountryCode
	})
	return records, nil
}
