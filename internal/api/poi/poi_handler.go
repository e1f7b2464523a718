package poi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/poi-concierge/internal/api"
	"github.com/FACorreiaa/poi-concierge/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SearchPOIs handles POST /api/v1/pois/search.
func (h *Handler) SearchPOIs(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "SearchPOIs")
	defer span.End()

	l := h.logger.With(slog.String("handler", "SearchPOIs"))

	var req types.SearchPOIRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.SearchPOIs(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		l.ErrorContext(ctx, "search failed", slog.Any("error", err))
		h.writeError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "search completed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// GetRecommendations handles POST /api/v1/pois/recommendations.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "GetRecommendations")
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetRecommendations"))

	var req types.RecommendationsRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.GetRecommendations(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recommendations failed")
		l.ErrorContext(ctx, "recommendations failed", slog.Any("error", err))
		h.writeError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "recommendations completed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// SearchByVibe handles POST /api/v1/pois/search/vibe.
func (h *Handler) SearchByVibe(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "SearchByVibe")
	defer span.End()

	l := h.logger.With(slog.String("handler", "SearchByVibe"))

	var req types.VibeSearchRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.SearchByVibe(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vibe search failed")
		l.ErrorContext(ctx, "vibe search failed", slog.Any("error", err))
		h.writeError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "vibe search completed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// CheckFreshness handles GET /api/v1/pois/{poiID}/freshness.
func (h *Handler) CheckFreshness(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "CheckFreshness")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "poiID"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid poi id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid POI ID format")
		return
	}

	status, err := h.service.CheckFreshness(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "freshness check failed")
		h.writeError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "freshness checked")
	api.WriteJSONResponse(w, r, http.StatusOK, status)
}

// RefreshPOI handles POST /api/v1/pois/{poiID}/refresh?force=.
func (h *Handler) RefreshPOI(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "RefreshPOI")
	defer span.End()

	l := h.logger.With(slog.String("handler", "RefreshPOI"))

	id, err := uuid.Parse(chi.URLParam(r, "poiID"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid poi id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid POI ID format")
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			span.SetStatus(codes.Error, "invalid force parameter")
			api.ErrorResponse(w, r, http.StatusBadRequest, "force must be a boolean")
			return
		}
	}

	result, err := h.service.RefreshPOI(ctx, id, force)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		l.ErrorContext(ctx, "refresh failed", slog.String("poi_id", id.String()), slog.Any("error", err))
		h.writeError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "poi refreshed")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// EnrichPOI handles POST /api/v1/pois/enrich.
func (h *Handler) EnrichPOI(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "EnrichPOI")
	defer span.End()

	l := h.logger.With(slog.String("handler", "EnrichPOI"))

	var req types.EnrichPOIRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.EnrichLive(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrichment failed")
		l.ErrorContext(ctx, "enrichment failed", slog.String("poi_name", req.POIName), slog.Any("error", err))
		h.writeError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "poi enriched")
	api.WriteJSONResponse(w, r, http.StatusOK, report)
}

// BackfillEmbeddings handles POST /api/v1/pois/embeddings/backfill.
func (h *Handler) BackfillEmbeddings(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "BackfillEmbeddings")
	defer span.End()

	batchSize := 0
	if raw := r.URL.Query().Get("batch_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			span.SetStatus(codes.Error, "invalid batch size")
			api.ErrorResponse(w, r, http.StatusBadRequest, "batch_size must be a non-negative integer")
			return
		}
		batchSize = parsed
	}

	updated, err := h.service.BackfillEmbeddings(ctx, batchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backfill failed")
		h.writeError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "backfill completed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]int{"updated": updated})
}

// Health handles GET /health: DB connectivity plus POI count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "Health")
	defer span.End()

	count, err := h.service.CountPOIs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "health check failed")
		api.WriteJSONResponse(w, r, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	span.SetStatus(codes.Ok, "healthy")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "poi-concierge",
		"poi_count": count,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrRetrievalUnavailable):
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, types.ErrEnrichmentFailed):
		api.ErrorResponse(w, r, http.StatusBadGateway, err.Error())
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
