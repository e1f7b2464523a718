package poi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

// MockService is a mock implementation of the Service interface.
type MockService struct {
	mock.Mock
}

func (m *MockService) SearchPOIs(ctx context.Context, req types.SearchPOIRequest) (*types.SearchPOIResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SearchPOIResponse), args.Error(1)
}

func (m *MockService) GetRecommendations(ctx context.Context, req types.RecommendationsRequest) (*types.RecommendationsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecommendationsResponse), args.Error(1)
}

func (m *MockService) SearchByVibe(ctx context.Context, req types.VibeSearchRequest) (*types.VibeSearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.VibeSearchResponse), args.Error(1)
}

func (m *MockService) CheckFreshness(ctx context.Context, id uuid.UUID) (*types.FreshnessStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FreshnessStatus), args.Error(1)
}

func (m *MockService) RefreshPOI(ctx context.Context, id uuid.UUID, force bool) (*types.RefreshResult, error) {
	args := m.Called(ctx, id, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RefreshResult), args.Error(1)
}

func (m *MockService) EnrichLive(ctx context.Context, req types.EnrichPOIRequest) (*types.EnrichmentReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.EnrichmentReport), args.Error(1)
}

func (m *MockService) BackfillEmbeddings(ctx context.Context, batchSize int) (int, error) {
	args := m.Called(ctx, batchSize)
	return args.Int(0), args.Error(1)
}

func (m *MockService) CountPOIs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func setupHandlerTest(t *testing.T) (*chi.Mux, *MockService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	mockService := new(MockService)
	handler := NewHandler(mockService, logger)

	r := chi.NewRouter()
	r.Post("/pois/search", handler.SearchPOIs)
	r.Post("/pois/recommendations", handler.GetRecommendations)
	r.Post("/pois/search/vibe", handler.SearchByVibe)
	r.Post("/pois/enrich", handler.EnrichPOI)
	r.Post("/pois/embeddings/backfill", handler.BackfillEmbeddings)
	r.Get("/pois/{poiID}/freshness", handler.CheckFreshness)
	r.Post("/pois/{poiID}/refresh", handler.RefreshPOI)
	r.Get("/health", handler.Health)
	return r, mockService
}

func TestHandler_SearchPOIs(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("SearchPOIs", mock.Anything, types.SearchPOIRequest{
			Latitude:  40.77,
			Longitude: -73.98,
		}).Return(&types.SearchPOIResponse{POIs: []types.ScoredPOI{}, Count: 0}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/pois/search",
			strings.NewReader(`{"latitude": 40.77, "longitude": -73.98}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		req := httptest.NewRequest(http.MethodPost, "/pois/search", strings.NewReader(`{not json`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "SearchPOIs")
	})

	t.Run("invalid input maps to 400", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("SearchPOIs", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: radius out of range", types.ErrInvalidInput)).Once()

		req := httptest.NewRequest(http.MethodPost, "/pois/search",
			strings.NewReader(`{"latitude": 40.77, "longitude": -73.98, "radius_meters": 99999}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("retrieval unavailable maps to 503", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("SearchPOIs", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: db down", types.ErrRetrievalUnavailable)).Once()

		req := httptest.NewRequest(http.MethodPost, "/pois/search",
			strings.NewReader(`{"latitude": 40.77, "longitude": -73.98}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("unknown error maps to 500", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("SearchPOIs", mock.Anything, mock.Anything).
			Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodPost, "/pois/search",
			strings.NewReader(`{"latitude": 40.77, "longitude": -73.98}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
		mockService.AssertExpectations(t)
	})
}

func TestHandler_CheckFreshness(t *testing.T) {
	id := uuid.New()

	t.Run("success", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		age := 3.5
		updatedAt := time.Date(2025, 3, 11, 16, 0, 0, 0, time.UTC)
		mockService.On("CheckFreshness", mock.Anything, id).Return(&types.FreshnessStatus{
			IsFresh:   true,
			AgeHours:  &age,
			UpdatedAt: &updatedAt,
			Message:   "Last updated 3.5 hours ago",
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/pois/"+id.String()+"/freshness", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var status types.FreshnessStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.True(t, status.IsFresh)
		require.NotNil(t, status.AgeHours)
		assert.Equal(t, 3.5, *status.AgeHours)
		mockService.AssertExpectations(t)
	})

	t.Run("malformed id", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		req := httptest.NewRequest(http.MethodGet, "/pois/not-a-uuid/freshness", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CheckFreshness")
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("CheckFreshness", mock.Anything, id).
			Return(nil, fmt.Errorf("%w: poi %s", types.ErrNotFound, id)).Once()

		req := httptest.NewRequest(http.MethodGet, "/pois/"+id.String()+"/freshness", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestHandler_RefreshPOI(t *testing.T) {
	id := uuid.New()

	t.Run("force flag is parsed", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("RefreshPOI", mock.Anything, id, true).Return(&types.RefreshResult{
			Message: "POI refreshed successfully",
			IsFresh: true,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/pois/"+id.String()+"/refresh?force=true", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid force flag", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		req := httptest.NewRequest(http.MethodPost, "/pois/"+id.String()+"/refresh?force=maybe", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "RefreshPOI")
	})

	t.Run("enrichment failure maps to 502", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("RefreshPOI", mock.Anything, id, false).
			Return(nil, fmt.Errorf("%w: tavily down", types.ErrEnrichmentFailed)).Once()

		req := httptest.NewRequest(http.MethodPost, "/pois/"+id.String()+"/refresh", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestHandler_BackfillEmbeddings(t *testing.T) {
	t.Run("batch size from query", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("BackfillEmbeddings", mock.Anything, 25).Return(25, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/pois/embeddings/backfill?batch_size=25", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"updated": 25}`, rec.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("invalid batch size", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		req := httptest.NewRequest(http.MethodPost, "/pois/embeddings/backfill?batch_size=-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "BackfillEmbeddings")
	})
}

func TestHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("CountPOIs", mock.Anything).Return(int64(120), nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
		assert.Contains(t, rec.Body.String(), `"poi_count":120`)
		mockService.AssertExpectations(t)
	})

	t.Run("unhealthy", func(t *testing.T) {
		router, mockService := setupHandlerTest(t)

		mockService.On("CountPOIs", mock.Anything).
			Return(int64(0), errors.New("dial tcp: connection refused")).Once()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
		mockService.AssertExpectations(t)
	})
}
