package types

import "time"

// QueryContext bundles the optional per-request context signals. Zero values
// mean "not supplied"; each dimension contributes its bonus independently.
type QueryContext struct {
	Occasion  string
	TimeOfDay string
	Weather   string
	GroupSize int
	Budget    string
}

// IsZero reports whether no context dimension was supplied.
func (qc QueryContext) IsZero() bool {
	return qc.Occasion == "" && qc.TimeOfDay == "" && qc.Weather == "" &&
		qc.GroupSize == 0 && qc.Budget == ""
}

// Candidate is a POI returned by radius-bounded retrieval, before filtering
// and scoring.
type Candidate struct {
	POI            POI
	DistanceMeters float64
}

// VibeMatch is a POI returned by vector retrieval with its cosine similarity
// to the query embedding.
type VibeMatch struct {
	POI        POI
	Similarity float64
}

// ScoredPOI is a POI annotated post-computation with distance, the score
// components and the human-readable context reasons.
type ScoredPOI struct {
	POI
	DistanceMeters  float64  `json:"distance"`
	HybridScore     float64  `json:"hybrid_score"`
	ContextualScore float64  `json:"contextual_score"`
	CompositeScore  float64  `json:"composite_score"`
	SimilarityScore float64  `json:"similarity_score,omitempty"`
	ContextReasons  []string `json:"context_reasons"`
}

type SearchPOIRequest struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	RadiusMeters     float64 `json:"radius_meters,omitempty"`
	Category         string  `json:"category,omitempty"`
	Subcategory      string  `json:"subcategory,omitempty"`
	MinPrestigeScore float64 `json:"min_prestige_score,omitempty"`
	Limit            int     `json:"limit,omitempty"`
	Occasion         string  `json:"occasion,omitempty"`
	TimeOfDay        string  `json:"time_of_day,omitempty"`
	WeatherCondition string  `json:"weather_condition,omitempty"`
}

type SearchPOIResponse struct {
	POIs  []ScoredPOI `json:"pois"`
	Count int         `json:"count"`
}

type RecommendationsRequest struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	RadiusMeters     float64 `json:"radius_meters,omitempty"`
	Occasion         string  `json:"occasion,omitempty"`
	WeatherCondition string  `json:"weather_condition,omitempty"`
	TimeOfDay        string  `json:"time_of_day,omitempty"`
	GroupSize        int     `json:"group_size,omitempty"`
	Budget           string  `json:"budget,omitempty"`
	Limit            int     `json:"limit,omitempty"`
	// Datetime overrides "now" for time-of-day derivation, RFC 3339.
	Datetime string `json:"datetime,omitempty"`
}

type RecommendationsResponse struct {
	POIs        []ScoredPOI `json:"pois"`
	Explanation string      `json:"explanation"`
	Count       int         `json:"count"`
}

type VibeSearchRequest struct {
	VibeQuery string  `json:"vibe_query"`
	Limit     int     `json:"limit,omitempty"`
	MinScore  float64 `json:"min_score,omitempty"`
	Category  string  `json:"category,omitempty"`
}

type VibeSearchResponse struct {
	POIs  []ScoredPOI `json:"pois"`
	Count int         `json:"count"`
}

type FreshnessStatus struct {
	IsFresh   bool       `json:"is_fresh"`
	AgeHours  *float64   `json:"age_hours"`
	UpdatedAt *time.Time `json:"updated_at"`
	Message   string     `json:"message"`
}

type RefreshResult struct {
	Message       string   `json:"message"`
	IsFresh       bool     `json:"is_fresh"`
	POI           *POI     `json:"poi"`
	UpdatedFields []string `json:"updated_fields,omitempty"`
}
