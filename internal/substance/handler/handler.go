package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reglens/internal/platform/metrics"
	"reglens/internal/platform/middleware"
	"reglens/internal/substance/models"
	dErrors "reglens/pkg/domain-errors"
	"reglens/pkg/platform/httputil"
)

//go:generate mockgen -destination=mocks/service-mocks.go -package=mocks reglens/internal/substance/handler Service

// Service defines the pipeline operations the HTTP layer needs.
type Service interface {
	Check(ctx context.Context, rawQuery string) (models.CheckResult, error)
	Refresh(ctx context.Context, substances []string) ([]models.RefreshEntry, error)
}

// Handler serves the substance endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates a new substance Handler. A zero timeout disables the
// per-request deadline.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, timeout time.Duration) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		metrics: m,
		timeout: timeout,
	}
}

// Register mounts the substance routes under /api with the full middleware
// chain.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	if h.timeout > 0 {
		api.Use(middleware.Timeout(h.timeout))
	}
	api.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		api.Use(h.metrics.Middleware)
	}
	api.Post("/predict", h.handlePredict)
	api.Post("/refresh", h.handleRefresh)

	r.Mount("/api", api)
}

// handlePredict resolves a free-form query and answers with its
// per-jurisdiction status records.
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.PredictRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	result, err := h.service.Check(ctx, req.Query())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.InfoContext(ctx, "query did not resolve to a substance",
				"request_id", requestID,
				"query", req.Query(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "prediction pipeline failed",
			"request_id", requestID,
			"query", req.Query(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.NewPredictResponse(result))
}

// handleRefresh forces re-enrichment for the listed substances.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RefreshRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	entries, err := h.service.Refresh(ctx, req.Substances)
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh batch failed",
			"request_id", requestID,
			"substances", len(req.Substances),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.RefreshResponse{
		Success: true,
		Results: entries,
	})
}
