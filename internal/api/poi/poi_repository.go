package poi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

// Repository is the storage contract for the ranking and enrichment paths.
// FindNear is the only geospatial primitive the scoring core depends on:
// candidates come back ordered by ascending distance, every entry within the
// requested radius. No score or category filtering happens here.
type Repository interface {
	FindNear(ctx context.Context, lon, lat, radiusMeters float64) ([]types.Candidate, error)
	GetPOIByID(ctx context.Context, id uuid.UUID) (*types.POI, error)
	FindSimilar(ctx context.Context, queryEmbedding []float32, limit int, category string) ([]types.VibeMatch, error)
	ApplyRefresh(ctx context.Context, id uuid.UUID, upd types.RefreshedFields, validatedAt time.Time) error
	GetPOIsWithoutEmbeddings(ctx context.Context, limit int) ([]types.POI, error)
	UpdatePOIEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, embeddingText string) error
	CountPOIs(ctx context.Context) (int64, error)
}

var _ Repository = (*PostgresRepository)(nil)

// PGXPool is the subset of pgxpool.Pool the repository uses. Tests substitute
// a pgxmock pool.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ PGXPool = (*pgxpool.Pool)(nil)

type PostgresRepository struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresRepository(pgpool PGXPool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

const poiColumns = `
	id, name, category, subcategories,
	ST_X(location) AS longitude, ST_Y(location) AS latitude,
	prestige_score, michelin_stars,
	COALESCE(price_range, ''), signature_dishes, ambiance, COALESCE(noise_level, ''),
	best_for_occasions, best_for_time_of_day, best_for_weather, best_for_group_sizes,
	COALESCE(phone, ''), COALESCE(website, ''), COALESCE(contact_info, ''),
	COALESCE(street, ''), COALESCE(neighborhood, ''), COALESCE(borough, ''),
	COALESCE(hours_summary, ''), hours_updated_at,
	COALESCE(social_info, ''), social_updated_at,
	sources, COALESCE(embedding_text, ''), last_validated`

// FindNear returns every POI within radiusMeters of the origin, annotated
// with its great-circle distance and ordered by ascending distance.
func (r *PostgresRepository) FindNear(ctx context.Context, lon, lat, radiusMeters float64) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("PostgresRepository").Start(ctx, "FindNear")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("query.longitude", lon),
		attribute.Float64("query.latitude", lat),
		attribute.Float64("query.radius_meters", radiusMeters),
	)

	if !types.ValidCoordinates(lon, lat) {
		span.SetStatus(codes.Error, "invalid origin")
		return nil, fmt.Errorf("%w: origin (%f, %f) out of range", types.ErrInvalidInput, lon, lat)
	}

	query := fmt.Sprintf(`
		SELECT %s,
			ST_Distance(location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance_meters
		FROM pois
		WHERE ST_DWithin(location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance_meters ASC`, poiColumns)

	rows, err := r.pgpool.Query(ctx, query, lon, lat, radiusMeters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		r.logger.ErrorContext(ctx, "FindNear query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", types.ErrRetrievalUnavailable, err)
	}
	defer rows.Close()

	var candidates []types.Candidate
	for rows.Next() {
		var c types.Candidate
		if err := scanPOI(rows, &c.POI, &c.DistanceMeters); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			return nil, fmt.Errorf("%w: scanning candidate: %w", types.ErrRetrievalUnavailable, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rows iteration failed")
		return nil, fmt.Errorf("%w: %w", types.ErrRetrievalUnavailable, err)
	}

	span.SetAttributes(attribute.Int("result.count", len(candidates)))
	span.SetStatus(codes.Ok, "candidates retrieved")
	return candidates, nil
}

// GetPOIByID fetches a single POI document or types.ErrNotFound.
func (r *PostgresRepository) GetPOIByID(ctx context.Context, id uuid.UUID) (*types.POI, error) {
	ctx, span := otel.Tracer("PostgresRepository").Start(ctx, "GetPOIByID")
	defer span.End()
	span.SetAttributes(attribute.String("poi.id", id.String()))

	query := fmt.Sprintf(`SELECT %s, 0::double precision FROM pois WHERE id = $1`, poiColumns)

	var p types.POI
	var discard float64
	row := r.pgpool.QueryRow(ctx, query, id)
	if err := scanPOI(row, &p, &discard); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "poi not found")
			return nil, fmt.Errorf("%w: poi %s", types.ErrNotFound, id)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("%w: fetching poi %s: %w", types.ErrRetrievalUnavailable, id, err)
	}

	span.SetStatus(codes.Ok, "poi retrieved")
	return &p, nil
}

// FindSimilar runs a cosine nearest-neighbour search over POI embeddings.
// Similarity is 1 - cosine distance, ordered descending. The optional
// category narrows the candidate pool before the vector scan.
func (r *PostgresRepository) FindSimilar(ctx context.Context, queryEmbedding []float32, limit int, category string) ([]types.VibeMatch, error) {
	ctx, span := otel.Tracer("PostgresRepository").Start(ctx, "FindSimilar")
	defer span.End()
	span.SetAttributes(attribute.Int("query.limit", limit))

	args := []interface{}{vectorLiteral(queryEmbedding), limit}
	categoryClause := ""
	if category != "" {
		categoryClause = "AND category = $3"
		args = append(args, category)
		span.SetAttributes(attribute.String("query.category", category))
	}

	query := fmt.Sprintf(`
		SELECT %s,
			1 - (embedding <=> $1::vector) AS similarity_score
		FROM pois
		WHERE embedding IS NOT NULL %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, poiColumns, categoryClause)

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vector query failed")
		r.logger.ErrorContext(ctx, "FindSimilar query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", types.ErrRetrievalUnavailable, err)
	}
	defer rows.Close()

	var matches []types.VibeMatch
	for rows.Next() {
		var m types.VibeMatch
		if err := scanPOI(rows, &m.POI, &m.Similarity); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			return nil, fmt.Errorf("%w: scanning match: %w", types.ErrRetrievalUnavailable, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rows iteration failed")
		return nil, fmt.Errorf("%w: %w", types.ErrRetrievalUnavailable, err)
	}

	span.SetAttributes(attribute.Int("result.count", len(matches)))
	span.SetStatus(codes.Ok, "matches retrieved")
	return matches, nil
}

// ApplyRefresh merges refreshed contact/hours/social data into the stored
// document and stamps last_validated. Empty fields keep their stored values,
// so a partially failed enrichment never erases existing data.
func (r *PostgresRepository) ApplyRefresh(ctx context.Context, id uuid.UUID, upd types.RefreshedFields, validatedAt time.Time) error {
	ctx, span := otel.Tracer("PostgresRepository").Start(ctx, "ApplyRefresh")
	defer span.End()
	span.SetAttributes(attribute.String("poi.id", id.String()))

	query := `
		UPDATE pois SET
			phone = COALESCE(NULLIF($2, ''), phone),
			website = COALESCE(NULLIF($3, ''), website),
			contact_info = COALESCE(NULLIF($4, ''), contact_info),
			hours_summary = COALESCE(NULLIF($5, ''), hours_summary),
			hours_updated_at = CASE WHEN $5 <> '' THEN $7::timestamptz ELSE hours_updated_at END,
			social_info = COALESCE(NULLIF($6, ''), social_info),
			social_updated_at = CASE WHEN $6 <> '' THEN $7::timestamptz ELSE social_updated_at END,
			last_validated = $7,
			updated_at = now()
		WHERE id = $1`

	tag, err := r.pgpool.Exec(ctx, query, id,
		upd.Contact.Phone, upd.Contact.Website, upd.Contact.Info,
		upd.Hours.Summary, upd.Social.Info,
		validatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("%w: refreshing poi %s: %w", types.ErrRetrievalUnavailable, id, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "poi not found")
		return fmt.Errorf("%w: poi %s", types.ErrNotFound, id)
	}

	span.SetStatus(codes.Ok, "poi refreshed")
	return nil
}

// GetPOIsWithoutEmbeddings lists POIs still missing a semantic embedding,
// oldest first, for the backfill path.
func (r *PostgresRepository) GetPOIsWithoutEmbeddings(ctx context.Context, limit int) ([]types.POI, error) {
	ctx, span := otel.Tracer("PostgresRepository").Start(ctx, "GetPOIsWithoutEmbeddings")
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s, 0::double precision
		FROM pois
		WHERE embedding IS NULL
		ORDER BY created_at ASC
		LIMIT $1`, poiColumns)

	rows, err := r.pgpool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("%w: %w", types.ErrRetrievalUnavailable, err)
	}
	defer rows.Close()

	var pois []types.POI
	var discard float64
	for rows.Next() {
		var p types.POI
		if err := scanPOI(rows, &p, &discard); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			return nil, fmt.Errorf("%w: scanning poi: %w", types.ErrRetrievalUnavailable, err)
		}
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rows iteration failed")
		return nil, fmt.Errorf("%w: %w", types.ErrRetrievalUnavailable, err)
	}

	span.SetAttributes(attribute.Int("result.count", len(pois)))
	span.SetStatus(codes.Ok, "pois retrieved")
	return pois, nil
}

// UpdatePOIEmbedding stores a generated embedding and the text it was
// derived from.
func (r *PostgresRepository) UpdatePOIEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, embeddingText string) error {
	ctx, span := otel.Tracer("PostgresRepository").Start(ctx, "UpdatePOIEmbedding")
	defer span.End()
	span.SetAttributes(attribute.String("poi.id", id.String()))

	query := `
		UPDATE pois
		SET embedding = $2::vector, embedding_text = $3, updated_at = now()
		WHERE id = $1`

	tag, err := r.pgpool.Exec(ctx, query, id, vectorLiteral(embedding), embeddingText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("%w: updating embedding for poi %s: %w", types.ErrRetrievalUnavailable, id, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "poi not found")
		return fmt.Errorf("%w: poi %s", types.ErrNotFound, id)
	}

	span.SetStatus(codes.Ok, "embedding updated")
	return nil
}

// CountPOIs returns the total number of stored POIs, used by the health check.
func (r *PostgresRepository) CountPOIs(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("PostgresRepository").Start(ctx, "CountPOIs")
	defer span.End()

	var count int64
	if err := r.pgpool.QueryRow(ctx, `SELECT COUNT(*) FROM pois`).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return 0, fmt.Errorf("%w: counting pois: %w", types.ErrRetrievalUnavailable, err)
	}

	span.SetStatus(codes.Ok, "pois counted")
	return count, nil
}

// scanPOI reads one poiColumns row plus a trailing numeric column (distance
// or similarity depending on the query).
func scanPOI(row pgx.Row, p *types.POI, trailing *float64) error {
	var groupSizes []int32
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Subcategories,
		&p.Longitude, &p.Latitude,
		&p.Prestige.Score, &p.Prestige.MichelinStars,
		&p.Experience.PriceRange, &p.Experience.SignatureDishes, &p.Experience.Ambiance, &p.Experience.NoiseLevel,
		&p.BestFor.Occasions, &p.BestFor.TimeOfDay, &p.BestFor.Weather, &groupSizes,
		&p.Contact.Phone, &p.Contact.Website, &p.Contact.Info,
		&p.Address.Street, &p.Address.Neighborhood, &p.Address.Borough,
		&p.Hours.Summary, &p.Hours.LastUpdated,
		&p.Social.Info, &p.Social.LastUpdated,
		&p.Sources, &p.EmbeddingText, &p.LastValidated,
		trailing,
	)
	if err != nil {
		return err
	}
	if groupSizes != nil {
		p.BestFor.GroupSizes = make([]int, len(groupSizes))
		for i, v := range groupSizes {
			p.BestFor.GroupSizes[i] = int(v)
		}
	}
	return nil
}

// vectorLiteral renders an embedding as a pgvector text literal.
func vectorLiteral(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
