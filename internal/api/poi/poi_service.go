package poi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/poi-concierge/app/observability/metrics"
	"github.com/FACorreiaa/poi-concierge/internal/api/embedding"
	"github.com/FACorreiaa/poi-concierge/internal/api/enrichment"
	"github.com/FACorreiaa/poi-concierge/internal/types"
)

// Defaults per surface. Search casts a moderate net; recommendations reach
// further but return fewer, stronger picks.
const (
	defaultSearchRadiusMeters    = 2000
	defaultSearchLimit           = 10
	defaultRecommendRadiusMeters = 3000
	defaultRecommendLimit        = 5
	defaultRecommendGroupSize    = 2
	defaultVibeLimit             = 10
	defaultBackfillBatch         = 100
	maxRadiusMeters              = 50000
	maxLimit                     = 100
)

// Service is the ranking and enrichment orchestrator.
type Service interface {
	SearchPOIs(ctx context.Context, req types.SearchPOIRequest) (*types.SearchPOIResponse, error)
	GetRecommendations(ctx context.Context, req types.RecommendationsRequest) (*types.RecommendationsResponse, error)
	SearchByVibe(ctx context.Context, req types.VibeSearchRequest) (*types.VibeSearchResponse, error)
	CheckFreshness(ctx context.Context, id uuid.UUID) (*types.FreshnessStatus, error)
	RefreshPOI(ctx context.Context, id uuid.UUID, force bool) (*types.RefreshResult, error)
	EnrichLive(ctx context.Context, req types.EnrichPOIRequest) (*types.EnrichmentReport, error)
	BackfillEmbeddings(ctx context.Context, batchSize int) (int, error)
	CountPOIs(ctx context.Context) (int64, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl wires retrieval, scoring, embeddings and enrichment. Stateless
// between requests; every dependency is injected.
type ServiceImpl struct {
	logger     *slog.Logger
	repo       Repository
	embedder   embedding.Provider
	enricher   enrichment.Enricher
	summarizer enrichment.Summarizer
	now        func() time.Time
}

func NewServiceImpl(repo Repository, embedder embedding.Provider, enricher enrichment.Enricher, summarizer enrichment.Summarizer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		embedder:   embedder,
		enricher:   enricher,
		summarizer: summarizer,
		now:        time.Now,
	}
}

// SearchPOIs ranks nearby POIs by the hybrid score. Prestige, category and
// subcategory act as hard filters; occasion/time/weather are soft bonuses
// folded into the composite score.
func (s *ServiceImpl) SearchPOIs(ctx context.Context, req types.SearchPOIRequest) (*types.SearchPOIResponse, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "SearchPOIs")
	defer span.End()
	start := s.now()

	l := s.logger.With(slog.String("method", "SearchPOIs"))

	radius := req.RadiusMeters
	if radius == 0 {
		radius = defaultSearchRadiusMeters
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}
	if err := validateQueryParams(req.Longitude, req.Latitude, radius, limit); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	candidates, err := s.repo.FindNear(ctx, req.Longitude, req.Latitude, radius)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}

	var categories []string
	if req.Category != "" {
		categories = []string{req.Category}
	}
	qc := types.QueryContext{
		Occasion:  req.Occasion,
		TimeOfDay: req.TimeOfDay,
		Weather:   req.WeatherCondition,
	}

	filter := func(c *types.Candidate) bool {
		if c.POI.Prestige.Score < req.MinPrestigeScore {
			return false
		}
		if req.Category != "" && c.POI.Category != req.Category {
			return false
		}
		if req.Subcategory != "" && !containsString(c.POI.Subcategories, req.Subcategory) {
			return false
		}
		return true
	}

	results := s.rank(ctx, candidates, filter, radius, categories, qc, limit)

	metrics.Get().SearchRequestsTotal.Add(ctx, 1)
	metrics.Get().SearchDurationSeconds.Record(ctx, s.now().Sub(start).Seconds())
	span.SetAttributes(attribute.Int("result.count", len(results)))
	span.SetStatus(codes.Ok, "search completed")
	l.DebugContext(ctx, "search completed", slog.Int("count", len(results)))

	return &types.SearchPOIResponse{POIs: results, Count: len(results)}, nil
}

// GetRecommendations ranks nearby POIs by the composite score with budget and
// weather applied as hard filters before scoring. Time of day defaults to the
// meal window derived from the current hour.
func (s *ServiceImpl) GetRecommendations(ctx context.Context, req types.RecommendationsRequest) (*types.RecommendationsResponse, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "GetRecommendations")
	defer span.End()
	start := s.now()

	l := s.logger.With(slog.String("method", "GetRecommendations"))

	radius := req.RadiusMeters
	if radius == 0 {
		radius = defaultRecommendRadiusMeters
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultRecommendLimit
	}
	groupSize := req.GroupSize
	if groupSize == 0 {
		groupSize = defaultRecommendGroupSize
	}
	if err := validateQueryParams(req.Longitude, req.Latitude, radius, limit); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	timeOfDay := req.TimeOfDay
	if timeOfDay == "" {
		at := s.now()
		if req.Datetime != "" {
			parsed, err := time.Parse(time.RFC3339, req.Datetime)
			if err != nil {
				span.SetStatus(codes.Error, "invalid datetime")
				return nil, fmt.Errorf("%w: datetime must be RFC 3339: %w", types.ErrInvalidInput, err)
			}
			at = parsed
		}
		timeOfDay = DeriveTimeOfDay(at.Hour())
	}

	candidates, err := s.repo.FindNear(ctx, req.Longitude, req.Latitude, radius)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}

	qc := types.QueryContext{
		Occasion:  req.Occasion,
		Weather:   req.WeatherCondition,
		GroupSize: groupSize,
		Budget:    req.Budget,
	}
	if timeOfDay != "any" {
		qc.TimeOfDay = timeOfDay
	}

	// Budget and weather are pre-score filters on this surface, unlike
	// plain search where they only contribute bonuses.
	filter := func(c *types.Candidate) bool {
		if req.Budget != "" && req.Budget != "any" && c.POI.Experience.PriceRange != req.Budget {
			return false
		}
		if req.WeatherCondition != "" && req.WeatherCondition != "any" &&
			!weatherSuits(c.POI.BestFor.Weather, req.WeatherCondition) {
			return false
		}
		return true
	}

	results := s.rank(ctx, candidates, filter, radius, nil, qc, limit)

	metrics.Get().RecommendRequestsTotal.Add(ctx, 1)
	metrics.Get().SearchDurationSeconds.Record(ctx, s.now().Sub(start).Seconds())
	span.SetAttributes(attribute.Int("result.count", len(results)))
	span.SetStatus(codes.Ok, "recommendations completed")
	l.DebugContext(ctx, "recommendations completed", slog.Int("count", len(results)))

	return &types.RecommendationsResponse{
		POIs:        results,
		Explanation: buildExplanation(req.Occasion, req.WeatherCondition, timeOfDay, groupSize, req.Budget),
		Count:       len(results),
	}, nil
}

// SearchByVibe embeds the query text and ranks POIs by cosine similarity.
// The minimum score is a hard filter, not a bonus.
func (s *ServiceImpl) SearchByVibe(ctx context.Context, req types.VibeSearchRequest) (*types.VibeSearchResponse, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "SearchByVibe")
	defer span.End()

	l := s.logger.With(slog.String("method", "SearchByVibe"))

	if strings.TrimSpace(req.VibeQuery) == "" {
		span.SetStatus(codes.Error, "empty vibe query")
		return nil, fmt.Errorf("%w: vibe_query must not be empty", types.ErrInvalidInput)
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultVibeLimit
	}
	if limit < 0 || limit > maxLimit {
		span.SetStatus(codes.Error, "invalid limit")
		return nil, fmt.Errorf("%w: limit %d out of range", types.ErrInvalidInput, limit)
	}

	queryEmbedding, err := s.embedder.Embed(ctx, req.VibeQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		l.ErrorContext(ctx, "failed to embed vibe query", slog.Any("error", err))
		return nil, fmt.Errorf("%w: embedding vibe query: %w", types.ErrRetrievalUnavailable, err)
	}

	// Over-fetch so the similarity floor still leaves a full page.
	matches, err := s.repo.FindSimilar(ctx, queryEmbedding, limit*2, req.Category)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vector retrieval failed")
		return nil, err
	}

	results := make([]types.ScoredPOI, 0, limit)
	for _, m := range matches {
		if m.Similarity < req.MinScore {
			continue
		}
		if !m.POI.HasValidCoordinates() {
			l.WarnContext(ctx, "dropping poi with invalid coordinates",
				slog.String("poi_id", m.POI.ID.String()),
				slog.Float64("longitude", m.POI.Longitude),
				slog.Float64("latitude", m.POI.Latitude),
			)
			continue
		}
		m.POI.NormalizeForScoring()
		m.POI.RoundCoordinates()
		results = append(results, types.ScoredPOI{
			POI:             m.POI,
			SimilarityScore: m.Similarity,
			ContextReasons:  []string{},
		})
		if len(results) == limit {
			break
		}
	}

	metrics.Get().VibeSearchRequestsTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Int("result.count", len(results)))
	span.SetStatus(codes.Ok, "vibe search completed")

	return &types.VibeSearchResponse{POIs: results, Count: len(results)}, nil
}

// CheckFreshness reports whether a POI was enriched within the freshness
// window, distinguishing "stale" from "never validated".
func (s *ServiceImpl) CheckFreshness(ctx context.Context, id uuid.UUID) (*types.FreshnessStatus, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "CheckFreshness")
	defer span.End()

	p, err := s.repo.GetPOIByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}

	ageHours, validated := p.AgeHours(s.now())
	if !validated {
		span.SetStatus(codes.Ok, "never validated")
		return &types.FreshnessStatus{
			IsFresh: false,
			Message: "POI has never been validated",
		}, nil
	}

	rounded := math.Round(ageHours*10) / 10
	span.SetStatus(codes.Ok, "freshness checked")
	return &types.FreshnessStatus{
		IsFresh:   p.IsFresh(s.now()),
		AgeHours:  &rounded,
		UpdatedAt: p.LastValidated,
		Message:   fmt.Sprintf("Last updated %.1f hours ago", ageHours),
	}, nil
}

// RefreshPOI re-enriches a single POI from the web. Skipped when the record
// is still fresh unless force is set. Enrichment failures leave the stored
// record untouched.
func (s *ServiceImpl) RefreshPOI(ctx context.Context, id uuid.UUID, force bool) (*types.RefreshResult, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "RefreshPOI")
	defer span.End()
	span.SetAttributes(attribute.String("poi.id", id.String()), attribute.Bool("force", force))

	l := s.logger.With(slog.String("method", "RefreshPOI"), slog.String("poi_id", id.String()))

	p, err := s.repo.GetPOIByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}

	if !force && p.IsFresh(s.now()) {
		span.SetStatus(codes.Ok, "poi already fresh")
		return &types.RefreshResult{
			Message: "POI is fresh, no refresh needed",
			IsFresh: true,
			POI:     p,
		}, nil
	}

	upd, err := s.enricher.RefreshPOI(ctx, p)
	if err != nil {
		metrics.Get().EnrichmentErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrichment failed")
		l.ErrorContext(ctx, "enrichment failed, stored record unchanged", slog.Any("error", err))
		if errors.Is(err, types.ErrInvalidInput) || errors.Is(err, types.ErrEnrichmentFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", types.ErrEnrichmentFailed, err)
	}

	validatedAt := s.now()
	if err := s.repo.ApplyRefresh(ctx, id, *upd, validatedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persisting refresh failed")
		return nil, err
	}

	refreshed, err := s.repo.GetPOIByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reloading poi failed")
		return nil, err
	}

	metrics.Get().EnrichmentRequestsTotal.Add(ctx, 1)
	span.SetStatus(codes.Ok, "poi refreshed")
	return &types.RefreshResult{
		Message:       "POI refreshed successfully",
		IsFresh:       true,
		POI:           refreshed,
		UpdatedFields: updatedFieldNames(upd),
	}, nil
}

// EnrichLive pulls last-minute facts for a POI by name and renders them as a
// narrative. The summarizer is best-effort; on failure the plain rendering is
// returned instead.
func (s *ServiceImpl) EnrichLive(ctx context.Context, req types.EnrichPOIRequest) (*types.EnrichmentReport, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "EnrichLive")
	defer span.End()

	l := s.logger.With(slog.String("method", "EnrichLive"))

	category := req.Category
	if category == "" {
		category = "restaurant"
	}

	facts, err := s.enricher.EnrichPOI(ctx, req.POIName, req.POIAddress, category)
	if err != nil {
		metrics.Get().EnrichmentErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrichment failed")
		if errors.Is(err, types.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", types.ErrEnrichmentFailed, err)
	}

	summary := enrichment.RenderFacts(facts)
	if s.summarizer != nil {
		if generated, err := s.summarizer.Summarize(ctx, facts); err != nil {
			l.WarnContext(ctx, "summary generation failed, using plain rendering", slog.Any("error", err))
		} else if generated != "" {
			summary = generated
		}
	}

	metrics.Get().EnrichmentRequestsTotal.Add(ctx, 1)
	span.SetStatus(codes.Ok, "poi enriched")
	return &types.EnrichmentReport{Facts: facts, Summary: summary}, nil
}

// BackfillEmbeddings generates embeddings for POIs that have none yet.
// Per-POI failures are logged and skipped; the return value is the number of
// POIs actually updated.
func (s *ServiceImpl) BackfillEmbeddings(ctx context.Context, batchSize int) (int, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "BackfillEmbeddings")
	defer span.End()

	l := s.logger.With(slog.String("method", "BackfillEmbeddings"))

	if batchSize <= 0 {
		batchSize = defaultBackfillBatch
	}

	pois, err := s.repo.GetPOIsWithoutEmbeddings(ctx, batchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing pois failed")
		return 0, err
	}

	updated := 0
	for i := range pois {
		p := &pois[i]
		text := embedding.BuildText(p)
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			l.WarnContext(ctx, "skipping poi, embedding failed",
				slog.String("poi_id", p.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		if err := s.repo.UpdatePOIEmbedding(ctx, p.ID, vec, text); err != nil {
			l.WarnContext(ctx, "skipping poi, storing embedding failed",
				slog.String("poi_id", p.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		updated++
	}

	span.SetAttributes(attribute.Int("result.updated", updated))
	span.SetStatus(codes.Ok, "backfill completed")
	l.InfoContext(ctx, "embedding backfill completed",
		slog.Int("candidates", len(pois)),
		slog.Int("updated", updated),
	)
	return updated, nil
}

// CountPOIs is a health-check passthrough.
func (s *ServiceImpl) CountPOIs(ctx context.Context) (int64, error) {
	return s.repo.CountPOIs(ctx)
}

// rank runs the fixed pipeline: normalization, hard filters, coordinate
// sanitation, score composition, stable sort, truncation, and context reasons.
// Normalization runs before the filters so the best_for defaults (absent
// weather means weather-agnostic) apply to hard filters too, not just to
// scoring. Candidates arrive ordered by ascending distance, which becomes the
// tie-break order.
func (s *ServiceImpl) rank(ctx context.Context, candidates []types.Candidate, keep func(*types.Candidate) bool, radius float64, categories []string, qc types.QueryContext, limit int) []types.ScoredPOI {
	results := make([]types.ScoredPOI, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		c.POI.NormalizeForScoring()
		if !keep(c) {
			continue
		}
		if !c.POI.HasValidCoordinates() {
			s.logger.WarnContext(ctx, "dropping poi with invalid coordinates",
				slog.String("poi_id", c.POI.ID.String()),
				slog.Float64("longitude", c.POI.Longitude),
				slog.Float64("latitude", c.POI.Latitude),
			)
			continue
		}
		c.POI.RoundCoordinates()

		hybrid := HybridScore(&c.POI, c.DistanceMeters, radius, categories)
		contextual := ContextualScore(&c.POI, qc)
		results = append(results, types.ScoredPOI{
			POI:             c.POI,
			DistanceMeters:  c.DistanceMeters,
			HybridScore:     hybrid,
			ContextualScore: contextual,
			CompositeScore:  CompositeScore(hybrid, contextual),
			ContextReasons:  ContextReasons(&c.POI, qc, c.DistanceMeters),
		})
	}

	sortByComposite(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func validateQueryParams(lon, lat, radius float64, limit int) error {
	if !types.ValidCoordinates(lon, lat) {
		return fmt.Errorf("%w: origin (%f, %f) out of range", types.ErrInvalidInput, lon, lat)
	}
	if radius <= 0 || radius > maxRadiusMeters {
		return fmt.Errorf("%w: radius %.0f out of range (0, %d]", types.ErrInvalidInput, radius, maxRadiusMeters)
	}
	if limit < 0 || limit > maxLimit {
		return fmt.Errorf("%w: limit %d out of range", types.ErrInvalidInput, limit)
	}
	return nil
}

func buildExplanation(occasion, weather, timeOfDay string, groupSize int, budget string) string {
	var parts []string
	if occasion != "" {
		parts = append(parts, strings.ReplaceAll(occasion, "-", " "))
	}
	if weather != "" && weather != "any" {
		parts = append(parts, fmt.Sprintf("%s weather", weather))
	}
	if timeOfDay != "" && timeOfDay != "any" {
		parts = append(parts, timeOfDay)
	}
	if groupSize > 0 {
		parts = append(parts, fmt.Sprintf("%d guests", groupSize))
	}
	if budget != "" && budget != "any" {
		parts = append(parts, fmt.Sprintf("%s spend", budget))
	}

	described := "your preferences"
	if len(parts) > 0 {
		described = strings.Join(parts, " · ")
	}
	return fmt.Sprintf("Based on %s, here are the top matches ranked by prestige, proximity, and context fit.", described)
}

func updatedFieldNames(upd *types.RefreshedFields) []string {
	fields := []string{"last_validated"}
	if upd.Contact != (types.Contact{}) {
		fields = append(fields, "contact")
	}
	if upd.Hours.Summary != "" {
		fields = append(fields, "hours")
	}
	if upd.Social.Info != "" {
		fields = append(fields, "social")
	}
	return fields
}
