package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/poi-concierge/internal/api/poi"
)

// Config contains the handlers needed for the router setup.
type Config struct {
	POIHandler *poi.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Get("/health", cfg.POIHandler.Health)

	r.Route("/api/v1/pois", func(r chi.Router) {
		r.Post("/search", cfg.POIHandler.SearchPOIs)
		r.Post("/recommendations", cfg.POIHandler.GetRecommendations)
		r.Post("/search/vibe", cfg.POIHandler.SearchByVibe)
		r.Post("/enrich", cfg.POIHandler.EnrichPOI)
		r.Post("/embeddings/backfill", cfg.POIHandler.BackfillEmbeddings)
		r.Get("/{poiID}/freshness", cfg.POIHandler.CheckFreshness)
		r.Post("/{poiID}/refresh", cfg.POIHandler.RefreshPOI)
	})

	return r
}
