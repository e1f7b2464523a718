package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

func scoringPOI() *types.POI {
	p := &types.POI{
		Name:     "Le Bernardin",
		Category: "fine-dining",
		Prestige: types.Prestige{Score: 140, MichelinStars: 3},
		Experience: types.Experience{
			PriceRange: "$$$$",
		},
		BestFor: types.BestFor{
			Occasions:  []string{"date-night", "celebration"},
			TimeOfDay:  []string{"dinner"},
			Weather:    []string{"rain", "any"},
			GroupSizes: []int{2, 4},
		},
	}
	p.NormalizeForScoring()
	return p
}

func TestHybridScore(t *testing.T) {
	p := scoringPOI()

	t.Run("arithmetic", func(t *testing.T) {
		// 140*0.55 + (2000/(500+1))*22 = 77 + 87.824...
		got := HybridScore(p, 500, 2000, nil)
		want := 140*0.55 + (2000.0/501.0)*22
		assert.InDelta(t, want, got, 1e-9)
	})

	t.Run("category affinity adds six", func(t *testing.T) {
		base := HybridScore(p, 500, 2000, nil)
		boosted := HybridScore(p, 500, 2000, []string{"fine-dining"})
		assert.InDelta(t, base+6, boosted, 1e-9)

		unmatched := HybridScore(p, 500, 2000, []string{"bars-cocktails"})
		assert.InDelta(t, base, unmatched, 1e-9)
	})

	t.Run("distance zero never divides by zero", func(t *testing.T) {
		got := HybridScore(p, 0, 2000, nil)
		want := 140*0.55 + 2000.0*22
		assert.InDelta(t, want, got, 1e-9)
	})

	t.Run("monotone in distance", func(t *testing.T) {
		near := HybridScore(p, 100, 2000, nil)
		far := HybridScore(p, 1900, 2000, nil)
		assert.Greater(t, near, far)
	})

	t.Run("monotone in prestige", func(t *testing.T) {
		low := *scoringPOI()
		low.Prestige.Score = 50
		assert.Greater(t, HybridScore(p, 500, 2000, nil), HybridScore(&low, 500, 2000, nil))
	})

	t.Run("deterministic", func(t *testing.T) {
		first := HybridScore(p, 321.5, 2000, []string{"fine-dining"})
		second := HybridScore(p, 321.5, 2000, []string{"fine-dining"})
		assert.Equal(t, first, second)
	})
}

func TestContextualScore(t *testing.T) {
	p := scoringPOI()

	t.Run("no context supplied returns exactly zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ContextualScore(p, types.QueryContext{}))
	})

	t.Run("all dimensions matched", func(t *testing.T) {
		qc := types.QueryContext{
			Occasion:  "date-night",
			TimeOfDay: "dinner",
			Weather:   "rain",
			GroupSize: 2,
			Budget:    "$$$$",
		}
		assert.Equal(t, 14.0+8+6+5+5, ContextualScore(p, qc))
	})

	t.Run("unmatched dimensions contribute zero", func(t *testing.T) {
		qc := types.QueryContext{
			Occasion:  "business-lunch",
			TimeOfDay: "lunch",
			GroupSize: 9,
			Budget:    "$",
		}
		assert.Equal(t, 0.0, ContextualScore(p, qc))
	})

	t.Run("weather any is not a preference", func(t *testing.T) {
		assert.Equal(t, 0.0, ContextualScore(p, types.QueryContext{Weather: "any"}))
	})

	t.Run("budget any is not a preference", func(t *testing.T) {
		assert.Equal(t, 0.0, ContextualScore(p, types.QueryContext{Budget: "any"}))
	})

	t.Run("absent weather list defaults to agnostic", func(t *testing.T) {
		agnostic := &types.POI{Category: "casual-dining"}
		agnostic.NormalizeForScoring()
		assert.Equal(t, 6.0, ContextualScore(agnostic, types.QueryContext{Weather: "rain"}))
	})

	t.Run("occasion plus budget gap is nineteen", func(t *testing.T) {
		a := scoringPOI()
		b := &types.POI{
			Category:   "fine-dining",
			Prestige:   types.Prestige{Score: 150},
			Experience: types.Experience{PriceRange: "$$"},
			BestFor: types.BestFor{
				Occasions: []string{"business-lunch"},
				TimeOfDay: []string{"lunch"},
				Weather:   []string{"sunny"},
			},
		}
		b.NormalizeForScoring()

		qc := types.QueryContext{Occasion: "date-night", Budget: "$$$$"}
		assert.Equal(t, 19.0, ContextualScore(a, qc)-ContextualScore(b, qc))
	})
}

func TestCompositeScore(t *testing.T) {
	p := scoringPOI()
	qc := types.QueryContext{Occasion: "date-night", TimeOfDay: "dinner"}

	hybrid := HybridScore(p, 800, 2000, nil)
	contextual := ContextualScore(p, qc)
	assert.Equal(t, hybrid+contextual, CompositeScore(hybrid, contextual))
}

func TestContextReasons(t *testing.T) {
	p := scoringPOI()

	t.Run("fixed order", func(t *testing.T) {
		qc := types.QueryContext{
			Occasion:  "date-night",
			TimeOfDay: "dinner",
			Weather:   "rain",
			Budget:    "$$$$",
		}
		reasons := ContextReasons(p, qc, 450)
		assert.Equal(t, []string{
			"date night",
			"dinner",
			"rain friendly",
			"matches budget",
			"3-Michelin-star",
			"very close",
		}, reasons)
	})

	t.Run("only matched dimensions appear", func(t *testing.T) {
		qc := types.QueryContext{Occasion: "business-lunch", Weather: "snow"}
		reasons := ContextReasons(p, qc, 2500)
		assert.Equal(t, []string{"snow friendly", "3-Michelin-star"}, reasons)
	})

	t.Run("no stars no reasons", func(t *testing.T) {
		plain := &types.POI{Category: "casual-dining"}
		plain.NormalizeForScoring()
		reasons := ContextReasons(plain, types.QueryContext{}, 5000)
		assert.Empty(t, reasons)
	})
}

func TestDeriveTimeOfDay(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{0, "any"},
		{10, "any"},
		{11, "lunch"},
		{14, "lunch"},
		{15, "any"},
		{16, "any"},
		{17, "dinner"},
		{22, "dinner"},
		{23, "any"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveTimeOfDay(tc.hour), "hour %d", tc.hour)
	}
}

func TestSortByComposite(t *testing.T) {
	// Retrieval order is ascending distance; equal scores must keep it.
	results := []types.ScoredPOI{
		{POI: types.POI{Name: "closest"}, DistanceMeters: 100, CompositeScore: 50},
		{POI: types.POI{Name: "middle"}, DistanceMeters: 200, CompositeScore: 80},
		{POI: types.POI{Name: "tied-near"}, DistanceMeters: 300, CompositeScore: 65},
		{POI: types.POI{Name: "tied-far"}, DistanceMeters: 400, CompositeScore: 65},
	}

	sortByComposite(results)

	require.Len(t, results, 4)
	assert.Equal(t, "middle", results[0].Name)
	assert.Equal(t, "tied-near", results[1].Name)
	assert.Equal(t, "tied-far", results[2].Name)
	assert.Equal(t, "closest", results[3].Name)
}
