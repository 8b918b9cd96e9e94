package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"reglens/internal/platform/events"
	"reglens/internal/substance/enrich"
	"reglens/internal/substance/metrics"
	"reglens/internal/substance/models"
	"reglens/internal/substance/resolver"
	"reglens/internal/substance/store"
	dErrors "reglens/pkg/domain-errors"
)

// Service runs the resolve/cache/enrich pipeline. Each request is an
// independent single pass with no retry loop and no backtracking:
// resolve, short-circuit if unresolved, check the cache, enrich on a miss,
// persist best-effort, answer.
type Service struct {
	resolver      resolver.Resolver
	enricher      enrich.Enricher
	store         store.StatusStore
	jurisdictions []string
	logger        *slog.Logger
	metrics       *metrics.Metrics
	events        *events.Publisher
	refreshLimit  int
	tracer        trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithEvents attaches the best-effort audit publisher.
func WithEvents(p *events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithRefreshLimit bounds concurrent forced enrichments.
func WithRefreshLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.refreshLimit = n
		}
	}
}

// New constructs the pipeline service. Resolver, enricher, store, and a
// non-empty jurisdiction list are required.
func New(r resolver.Resolver, e enrich.Enricher, st store.StatusStore, jurisdictions []string, logger *slog.Logger, opts ...Option) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if e == nil {
		return nil, fmt.Errorf("enricher is required")
	}
	if st == nil {
		return nil, fmt.Errorf("status store is required")
	}
	if len(jurisdictions) == 0 {
		return nil, fmt.Errorf("jurisdiction list is required")
	}

	s := &Service{
		resolver:      r,
		enricher:      e,
		store:         st,
		jurisdictions: jurisdictions,
		logger:        logger,
		refreshLimit:  4,
		tracer:        otel.Tracer("reglens/substance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check resolves the query and returns its per-jurisdiction status records,
// from cache when possible.
func (s *Service) Check(ctx context.Context, rawQuery string) (models.CheckResult, error) {
	start := time.Now()
	defer s.metrics.ObservePipeline(start)

	ctx, span := s.tracer.Start(ctx, "substance.check")
	defer span.End()

	resolved, err := s.resolveStage(ctx, rawQuery)
	if err != nil {
		span.RecordError(err)
		return models.CheckResult{}, err
	}

	key := resolved.Key()
	span.SetAttributes(attribute.String("substance.key", string(key)))

	records, err := s.lookupStage(ctx, key)
	if err != nil {
		span.RecordError(err)
		return models.CheckResult{}, err
	}

	if len(records) > 0 {
		s.metrics.IncrementCacheHit()
		s.events.Emit(ctx, events.Event{
			Type:      events.TypeResolved,
			Substance: string(key),
			Source:    string(models.SourceCache),
			Records:   len(records),
		})
		return models.CheckResult{
			Source:        models.SourceCache,
			NormalizedKey: key,
			ResolvedName:  resolved.ResolvedName,
			CanonicalName: resolved.CanonicalName,
			Records:       records,
		}, nil
	}
	s.metrics.IncrementCacheMiss()

	records, err = s.enrichStage(ctx, resolved.ResolvedName, key)
	if err != nil {
		span.RecordError(err)
		return models.CheckResult{}, err
	}

	source := models.SourceFresh
	if len(records) == 0 {
		// The provider produced nothing usable. Recoverable, but the caller
		// should be able to tell this apart from a cached empty set.
		source = models.SourceNone
	}

	s.events.Emit(ctx, events.Event{
		Type:      events.TypeEnriched,
		Substance: string(key),
		Source:    string(source),
		Records:   len(records),
	})
	return models.CheckResult{
		Source:        source,
		NormalizedKey: key,
		ResolvedName:  resolved.ResolvedName,
		CanonicalName: resolved.CanonicalName,
		Records:       records,
	}, nil
}

func (s *Service) resolveStage(ctx context.Context, rawQuery string) (models.ResolvedSubstance, error) {
	ctx, span := s.tracer.Start(ctx, "substance.resolve")
	defer span.End()

	resolved, err := s.resolver.Resolve(ctx, rawQuery)
	if err != nil {
		return models.ResolvedSubstance{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "resolve query")
	}
	if resolved.Unresolved() {
		s.metrics.IncrementResolution("unresolved")
		message := resolved.Message
		if message == "" {
			message = fmt.Sprintf("No known record of '%s'", rawQuery)
		}
		return models.ResolvedSubstance{}, dErrors.New(dErrors.CodeNotFound, message)
	}
	s.metrics.IncrementResolution("resolved")
	return resolved, nil
}

func (s *Service) lookupStage(ctx context.Context, key models.NormalizedKey) ([]models.StatusRecord, error) {
	ctx, span := s.tracer.Start(ctx, "substance.lookup")
	defer span.End()

	// A failed read is fatal for the request: without knowing cache state we
	// cannot safely decide between hit and recompute.
	records, err := s.store.Lookup(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "lookup cached status")
	}
	return records, nil
}

func (s *Service) enrichStage(ctx context.Context, name string, key models.NormalizedKey) ([]models.StatusRecord, error) {
	ctx, span := s.tracer.Start(ctx, "substance.enrich")
	defer span.End()

	s.metrics.IncrementEnrichment()
	records, err := s.enricher.Enrich(ctx, name, s.jurisdictions)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "enrich substance")
	}

	// Persistence is best-effort: fresh data is returned to the caller even
	// when the write fails. The failure only affects observability.
	if err := s.store.Upsert(ctx, records); err != nil {
		s.metrics.IncrementPersistFailure()
		s.logger.ErrorContext(ctx, "failed to persist enrichment",
			"substance", string(key),
			"records", len(records),
			"error", err,
		)
	}
	return records, nil
}

// Refresh forces enrichment for each listed substance, bypassing the
// resolver and the cache read. Per-substance failures are reported in the
// entry, never failing the batch.
func (s *Service) Refresh(ctx context.Context, substances []string) ([]models.RefreshEntry, error) {
	ctx, span := s.tracer.Start(ctx, "substance.refresh")
	defer span.End()

	entries := make([]models.RefreshEntry, len(substances))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.refreshLimit)
	for i, name := range substances {
		g.Go(func() error {
			key := models.NormalizeKey(name)
			records, err := s.enrichStage(gctx, name, key)
			if err != nil {
				s.logger.WarnContext(gctx, "refresh enrichment failed",
					"substance", name,
					"error", err,
				)
				entries[i] = models.RefreshEntry{Substance: name, Error: err.Error()}
				return nil
			}
			s.events.Emit(gctx, events.Event{
				Type:      events.TypeEnriched,
				Substance: string(key),
				Source:    string(models.SourceFresh),
				Records:   len(records),
			})
			entries[i] = models.RefreshEntry{Substance: name, Records: len(records)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
