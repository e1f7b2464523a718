package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SearchRequestsTotal     metric.Int64Counter
	RecommendRequestsTotal  metric.Int64Counter
	VibeSearchRequestsTotal metric.Int64Counter
	SearchDurationSeconds   metric.Float64Histogram
	EnrichmentRequestsTotal metric.Int64Counter
	EnrichmentErrorsTotal   metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, using the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("poi-concierge")
		var err error
		m := &AppMetrics{}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"poi_search_requests_total",
			metric.WithDescription("Total number of POI search requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_search_requests_total: %v", err)
		}

		m.RecommendRequestsTotal, err = meter.Int64Counter(
			"poi_recommend_requests_total",
			metric.WithDescription("Total number of contextual recommendation requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_recommend_requests_total: %v", err)
		}

		m.VibeSearchRequestsTotal, err = meter.Int64Counter(
			"poi_vibe_search_requests_total",
			metric.WithDescription("Total number of semantic vibe search requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_vibe_search_requests_total: %v", err)
		}

		m.SearchDurationSeconds, err = meter.Float64Histogram(
			"poi_search_duration_seconds",
			metric.WithDescription("Duration of ranking requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_search_duration_seconds: %v", err)
		}

		m.EnrichmentRequestsTotal, err = meter.Int64Counter(
			"poi_enrichment_requests_total",
			metric.WithDescription("Total number of enrichment passes completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_enrichment_requests_total: %v", err)
		}

		m.EnrichmentErrorsTotal, err = meter.Int64Counter(
			"poi_enrichment_errors_total",
			metric.WithDescription("Total number of failed enrichment passes"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_enrichment_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
