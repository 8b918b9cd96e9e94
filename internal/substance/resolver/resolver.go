package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"reglens/internal/inference"
	"reglens/internal/substance/metrics"
	"reglens/internal/substance/models"
	"reglens/internal/substance/parse"
)

//go:generate mockgen -destination=../../../mocks/resolver_mock.go -package=mocks reglens/internal/substance/resolver Resolver

// Resolver maps a free-form user query to a canonical named substance.
type Resolver interface {
	Resolve(ctx context.Context, rawQuery string) (models.ResolvedSubstance, error)
}

// Completer is the slice of the inference client the resolver needs.
type Completer interface {
	Complete(ctx context.Context, req inference.CompletionRequest) (string, error)
}

const systemPrompt = `You identify substances from colloquial or misspelled names.
Reply with only a JSON object: {"resolvedName": "<common name>", "canonicalName": "<pharmacological name>"}.
If the input is not a known substance, reply {"resolvedName": null}.`

// InferenceResolver resolves queries through the name-resolution provider.
// It is stateless per call and writes nothing.
type InferenceResolver struct {
	client  Completer
	model   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs an InferenceResolver.
func New(client Completer, model string, logger *slog.Logger, m *metrics.Metrics) *InferenceResolver {
	return &InferenceResolver{
		client:  client,
		model:   model,
		logger:  logger,
		metrics: m,
	}
}

// Resolve sends the raw query to the provider and decodes its reply through
// the fallback parser. Unparseable content is not an error: the fallback
// carries an empty ResolvedName, the sentinel for "not found". Only a
// transport failure returns an error.
func (r *InferenceResolver) Resolve(ctx context.Context, rawQuery string) (models.ResolvedSubstance, error) {
	raw, err := r.client.Complete(ctx, inference.CompletionRequest{
		Model: r.model,
		Messages: []inference.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: rawQuery},
		},
		MaxTokens: 128,
	})
	if err != nil {
		return models.ResolvedSubstance{}, err
	}

	fallback := models.ResolvedSubstance{
		Message: fmt.Sprintf("No known record of '%s'", rawQuery),
	}
	res := parse.Decode(raw, fallback)
	if res.Fallback {
		r.metrics.IncrementFallbackParse("resolve")
		r.logger.WarnContext(ctx, "resolver output failed strict decoding",
			"query", rawQuery,
			"raw_len", len(raw),
		)
	}

	resolved := res.Value
	if resolved.Unresolved() && resolved.Message == "" {
		resolved.Message = fallback.Message
	}
	return resolved, nil
}
