package poi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

// Score weights. Prestige dominates for far-but-excellent venues, the
// proximity term decays smoothly with distance, and the remaining terms are
// small additive nudges rather than filters.
const (
	prestigeWeight        = 0.55
	proximityWeight       = 22.0
	categoryAffinityBonus = 6.0

	occasionBonus  = 14.0
	timeOfDayBonus = 8.0
	weatherBonus   = 6.0
	groupSizeBonus = 5.0
	budgetBonus    = 5.0

	veryCloseMeters = 1000.0
)

// HybridScore blends prestige with a distance-decay proximity bonus and a
// small category-affinity nudge. The +1 guards division at distance zero.
// Pure function; safe to call concurrently.
func HybridScore(p *types.POI, distanceMeters, radiusMeters float64, categories []string) float64 {
	score := p.Prestige.Score * prestigeWeight
	score += (radiusMeters / (distanceMeters + 1)) * proximityWeight
	if len(categories) > 0 && containsString(categories, p.Category) {
		score += categoryAffinityBonus
	}
	return score
}

// ContextualScore sums the fixed bonuses for each supplied and matched
// context dimension. Returns exactly 0 when nothing is supplied or nothing
// matches. Assumes p has been normalized with NormalizeForScoring.
func ContextualScore(p *types.POI, qc types.QueryContext) float64 {
	var score float64
	if qc.Occasion != "" && containsString(p.BestFor.Occasions, qc.Occasion) {
		score += occasionBonus
	}
	if qc.TimeOfDay != "" && containsString(p.BestFor.TimeOfDay, qc.TimeOfDay) {
		score += timeOfDayBonus
	}
	if qc.Weather != "" && qc.Weather != "any" && weatherSuits(p.BestFor.Weather, qc.Weather) {
		score += weatherBonus
	}
	if qc.GroupSize > 0 && containsInt(p.BestFor.GroupSizes, qc.GroupSize) {
		score += groupSizeBonus
	}
	if qc.Budget != "" && qc.Budget != "any" && qc.Budget == p.Experience.PriceRange {
		score += budgetBonus
	}
	return score
}

// CompositeScore is the final ranking key. No other combination rule exists.
func CompositeScore(hybrid, contextual float64) float64 {
	return hybrid + contextual
}

// ContextReasons derives the human-readable phrases explaining which context
// dimensions matched, in fixed order: occasion, time of day, weather, budget,
// Michelin stars, proximity. Same predicates as the bonus table.
func ContextReasons(p *types.POI, qc types.QueryContext, distanceMeters float64) []string {
	reasons := make([]string, 0, 6)
	if qc.Occasion != "" && containsString(p.BestFor.Occasions, qc.Occasion) {
		reasons = append(reasons, strings.ReplaceAll(qc.Occasion, "-", " "))
	}
	if qc.TimeOfDay != "" && containsString(p.BestFor.TimeOfDay, qc.TimeOfDay) {
		reasons = append(reasons, qc.TimeOfDay)
	}
	if qc.Weather != "" && qc.Weather != "any" && weatherSuits(p.BestFor.Weather, qc.Weather) {
		reasons = append(reasons, fmt.Sprintf("%s friendly", qc.Weather))
	}
	if qc.Budget != "" && qc.Budget != "any" && qc.Budget == p.Experience.PriceRange {
		reasons = append(reasons, "matches budget")
	}
	if stars := p.Prestige.MichelinStars; stars > 0 {
		reasons = append(reasons, fmt.Sprintf("%d-Michelin-star", stars))
	}
	if distanceMeters < veryCloseMeters {
		reasons = append(reasons, "very close")
	}
	return reasons
}

// DeriveTimeOfDay maps a clock hour to the meal window used by the
// recommendations surface: lunch for [11,15), dinner for [17,23), else "any".
func DeriveTimeOfDay(hour int) string {
	switch {
	case hour >= 11 && hour < 15:
		return "lunch"
	case hour >= 17 && hour < 23:
		return "dinner"
	default:
		return "any"
	}
}

// sortByComposite orders results by composite score descending. Ties preserve
// the retrieval order (ascending distance) as a stable secondary key.
func sortByComposite(results []types.ScoredPOI) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompositeScore > results[j].CompositeScore
	})
}

// weatherSuits reports whether a venue suits the requested weather: either it
// lists the condition explicitly or it is weather-agnostic ("any").
func weatherSuits(venueWeather []string, weather string) bool {
	return containsString(venueWeather, weather) || containsString(venueWeather, "any")
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
