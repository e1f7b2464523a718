package types

import "time"

// Citation points at the trusted source a fact was pulled from.
type Citation struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

// EnrichmentFacts is the per-aspect result of a live web enrichment pass.
// Empty strings mean the aspect produced no answer; individual aspect
// failures are skipped, never fatal.
type EnrichmentFacts struct {
	POIName             string     `json:"poi_name"`
	EnrichedAt          time.Time  `json:"enriched_at"`
	HolidayHours        string     `json:"holiday_hours,omitempty"`
	SpecialEvents       string     `json:"special_events,omitempty"`
	RecentNews          string     `json:"recent_news,omitempty"`
	SocialBuzz          string     `json:"social_buzz,omitempty"`
	CurrentAvailability string     `json:"current_availability,omitempty"`
	LatestRecognition   string     `json:"latest_recognition,omitempty"`
	Citations           []Citation `json:"citations,omitempty"`
}

// RefreshedFields holds the refreshable slices of a POI document produced by
// an enrichment pass. Only non-zero fields are merged into the stored record.
type RefreshedFields struct {
	Contact Contact
	Hours   Hours
	Social  Social
	Facts   *EnrichmentFacts
}

type EnrichPOIRequest struct {
	POIName    string `json:"poi_name"`
	POIAddress string `json:"poi_address,omitempty"`
	Category   string `json:"category,omitempty"`
}

type EnrichmentReport struct {
	Facts   *EnrichmentFacts `json:"facts"`
	Summary string           `json:"summary,omitempty"`
}
