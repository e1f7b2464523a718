package types

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// FreshnessWindow is how long an enrichment pass keeps a POI "fresh".
const FreshnessWindow = 24 * time.Hour

// Prestige is the static, editorially curated quality signal attached to a POI.
// Score is nominally 0-150; MichelinStars is 0-3.
type Prestige struct {
	Score         float64 `json:"score"`
	MichelinStars int     `json:"michelin_stars,omitempty"`
}

type Experience struct {
	PriceRange      string   `json:"price_range,omitempty"`
	SignatureDishes []string `json:"signature_dishes,omitempty"`
	Ambiance        []string `json:"ambiance,omitempty"`
	NoiseLevel      string   `json:"noise_level,omitempty"`
}

// BestFor is the contextual-affinity signal. Missing sub-lists mean "never
// matches", except Weather, whose absence means "weather-agnostic".
// NormalizeForScoring applies those defaults once so scoring code never has to.
type BestFor struct {
	Occasions  []string `json:"occasions,omitempty"`
	TimeOfDay  []string `json:"time_of_day,omitempty"`
	Weather    []string `json:"weather,omitempty"`
	GroupSizes []int    `json:"group_size,omitempty"`
}

type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Info    string `json:"info,omitempty"`
}

type Address struct {
	Street       string `json:"street,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Borough      string `json:"borough,omitempty"`
}

type Hours struct {
	Summary     string     `json:"summary,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

type Social struct {
	Info        string     `json:"info,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// POI is the ranked entity. Location is a plain lon/lat pair; geometry lives
// in the database and is projected out at query time.
type POI struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	Subcategories []string   `json:"subcategories,omitempty"`
	Longitude     float64    `json:"longitude"`
	Latitude      float64    `json:"latitude"`
	Prestige      Prestige   `json:"prestige"`
	Experience    Experience `json:"experience"`
	BestFor       BestFor    `json:"best_for"`
	Contact       Contact    `json:"contact"`
	Address       Address    `json:"address"`
	Hours         Hours      `json:"hours"`
	Social        Social     `json:"social"`
	Sources       []string   `json:"sources,omitempty"`
	EmbeddingText string     `json:"embedding_text,omitempty"`
	LastValidated *time.Time `json:"last_validated,omitempty"`
}

// NormalizeForScoring fills the optional best_for defaults in place so the
// scoring functions can assume fully populated inputs. Occasions, time_of_day
// and group_size default to empty (never match); weather defaults to ["any"]
// (weather-agnostic).
func (p *POI) NormalizeForScoring() {
	if p.BestFor.Occasions == nil {
		p.BestFor.Occasions = []string{}
	}
	if p.BestFor.TimeOfDay == nil {
		p.BestFor.TimeOfDay = []string{}
	}
	if p.BestFor.GroupSizes == nil {
		p.BestFor.GroupSizes = []int{}
	}
	if len(p.BestFor.Weather) == 0 {
		p.BestFor.Weather = []string{"any"}
	}
}

// HasValidCoordinates reports whether the location is finite and in range.
func (p *POI) HasValidCoordinates() bool {
	return ValidCoordinates(p.Longitude, p.Latitude)
}

// RoundCoordinates normalizes the location to 6 decimal places, the precision
// surfaced to callers.
func (p *POI) RoundCoordinates() {
	p.Longitude = roundTo6(p.Longitude)
	p.Latitude = roundTo6(p.Latitude)
}

// AgeHours returns the hours since the last successful enrichment, or false
// if the POI has never been validated.
func (p *POI) AgeHours(now time.Time) (float64, bool) {
	if p.LastValidated == nil {
		return 0, false
	}
	return now.Sub(*p.LastValidated).Hours(), true
}

// IsFresh reports whether the POI was validated within the freshness window.
func (p *POI) IsFresh(now time.Time) bool {
	if p.LastValidated == nil {
		return false
	}
	return now.Sub(*p.LastValidated) < FreshnessWindow
}

// ValidCoordinates reports whether lon/lat are finite and within
// [-180,180] / [-90,90].
func ValidCoordinates(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

func roundTo6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
